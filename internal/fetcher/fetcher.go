// Package fetcher retrieves the owner-data side file from wherever it is
// hosted: a local path, an HTTP(S) URL, or an FTP drop (county data files
// commonly live on plain FTP).
package fetcher

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client opens data sources by URL or path.
type Client struct {
	httpClient *http.Client
	ftpTimeout time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for http(s) sources.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithFTPTimeout sets the dial timeout for ftp sources.
func WithFTPTimeout(d time.Duration) Option {
	return func(c *Client) { c.ftpTimeout = d }
}

// New creates a fetcher Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		ftpTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open returns a reader for the source. The caller must close it.
func (c *Client) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return c.openHTTP(ctx, source)
	case strings.HasPrefix(source, "ftp://"):
		return c.openFTP(ctx, source)
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open file %s", source)
		}
		return f, nil
	}
}

func (c *Client) openHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: build request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: get %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, eris.Errorf("fetcher: get %s returned status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}
