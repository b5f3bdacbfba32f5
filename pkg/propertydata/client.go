// Package propertydata calls the third-party assessed-property API that
// maps an address to owner name and mailing address.
package propertydata

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/propscan/ownerdata/internal/resilience"
)

const defaultBaseURL = "https://api.propertydata.example.com/propertyapi/v1.0.0/property/detail"

// Result is the outcome of one property lookup. Found=false with a nil
// error is the provider's "success with zero results": a valid terminal
// state, never retried. Raw carries the provider's body for diagnostics
// and for the API's 404 passthrough.
type Result struct {
	OwnerName      string
	MailingAddress string
	Found          bool
	Raw            json.RawMessage
}

// StatusError is a provider-side failure (auth, rate limit, 5xx) that the
// HTTP layer passes through with the provider's status code.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

// Client talks to the property-data provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the endpoint; used by tests and proxied setups.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRateLimit caps outbound request rate.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithRetry overrides the transient-failure retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// New creates a property-data client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup queries the provider for the property at address1/address2.
func (c *Client) Lookup(ctx context.Context, address1, address2 string) (*Result, error) {
	return resilience.DoVal(ctx, c.retry, "propertydata lookup", func(ctx context.Context) (*Result, error) {
		return c.lookupOnce(ctx, address1, address2)
	})
}

func (c *Client) lookupOnce(ctx context.Context, address1, address2 string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "propertydata: rate limit")
	}

	params := url.Values{
		"address1": {address1},
		"address2": {address2},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "propertydata: build request")
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "propertydata: request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "propertydata: read body"), 0)
	}

	// The provider occasionally answers with an XML error document even on
	// JSON requests. Detect it by content type or body shape and treat it
	// as a provider failure, never as data.
	if isXML(resp.Header.Get("Content-Type"), body) {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: "property provider returned XML instead of JSON"}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Message:    humanizeStatus(resp.StatusCode),
		}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	return parseResponse(body)
}

func isXML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "xml") {
		return true
	}
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "<")
}

func humanizeStatus(code int) string {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "property provider rejected the API key"
	case http.StatusTooManyRequests:
		return "property provider rate limit exceeded"
	default:
		if code >= 500 {
			return "property provider is unavailable"
		}
		return "property provider returned an unexpected status"
	}
}
