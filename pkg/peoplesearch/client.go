// Package peoplesearch calls the third-party API that maps an owner name
// plus mailing address to current contact info.
package peoplesearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/propscan/ownerdata/internal/resilience"
)

const defaultBaseURL = "https://api.peoplesearch.example.com/v1/contact"

// Result is the outcome of one people-search lookup. Found=false means the
// provider had no record for the person; it is not an error.
type Result struct {
	Found  bool
	Emails []string
	Phones []string
}

// Client talks to the people-search provider.
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

// WithBaseURL overrides the endpoint.
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

// New creates a people-search client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(2), 2),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup queries contact info for a person at a mailing address. Both
// inputs are required by the provider.
func (c *Client) Lookup(ctx context.Context, ownerName, mailingAddress string) (*Result, error) {
	if ownerName == "" || mailingAddress == "" {
		return nil, eris.New("peoplesearch: owner name and mailing address are both required")
	}
	return resilience.DoVal(ctx, c.retry, "peoplesearch lookup", func(ctx context.Context) (*Result, error) {
		return c.lookupOnce(ctx, ownerName, mailingAddress)
	})
}

func (c *Client) lookupOnce(ctx context.Context, ownerName, mailingAddress string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "peoplesearch: rate limit")
	}

	params := url.Values{
		"name":    {ownerName},
		"address": {mailingAddress},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "peoplesearch: build request")
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "peoplesearch: request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "peoplesearch: read body"), 0)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("peoplesearch: provider returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	var envelope struct {
		Success bool   `json:"success"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Emails  []string `json:"emails"`
		Phones  []string `json:"phones"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(err, "peoplesearch: parse response")
	}

	res := &Result{Found: envelope.Success}
	if !envelope.Success {
		return res, nil
	}
	res.Emails = append(res.Emails, envelope.Emails...)
	if envelope.Email != "" {
		res.Emails = append(res.Emails, envelope.Email)
	}
	res.Phones = append(res.Phones, envelope.Phones...)
	if envelope.Phone != "" {
		res.Phones = append(res.Phones, envelope.Phone)
	}
	return res, nil
}
