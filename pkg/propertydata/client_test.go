package propertydata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/propscan/ownerdata/internal/resilience"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func noRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond}
}

func newTestClient(srv *httptest.Server) *Client {
	return New("test-key", WithBaseURL(srv.URL), WithRetry(noRetry()), WithRateLimit(1000, 1000))
}

func TestLookup_ExtractsOwnerAndMailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		assert.Equal(t, "123 Main St", r.URL.Query().Get("address1"))
		assert.Equal(t, "Springfield, IL 62704", r.URL.Query().Get("address2"))
		w.Write([]byte(`{
			"status": {"msg": "SuccessWithResult", "total": 1},
			"property": [{
				"assessment": {"owner": {
					"mailingAddressOneLine": "PO BOX 5, SPRINGFIELD, IL 62705",
					"owner1": {"fullName": "SMITH JANE"}
				}}
			}]
		}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).Lookup(context.Background(), "123 Main St", "Springfield, IL 62704")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "SMITH JANE", res.OwnerName)
	assert.Equal(t, "PO BOX 5, SPRINGFIELD, IL 62705", res.MailingAddress)
	assert.NotEmpty(t, res.Raw)
}

func TestLookup_SuccessWithoutResultIsTerminal(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"status": {"msg": "SuccessWithoutResult", "total": 0}, "property": []}`))
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL), WithRateLimit(1000, 1000))
	res, err := c.Lookup(context.Background(), "1 Nowhere Rd", "Springfield, IL")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.NotEmpty(t, res.Raw)
	assert.Equal(t, 1, calls, "zero results must not be retried")
}

func TestLookup_PlaceholderValuesSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": {"msg": "SuccessWithResult", "total": 1},
			"property": [{
				"assessment": {"owner": {
					"mailingaddressoneline": "AVAILABLE FROM DATA SOURCE",
					"owner1": {"fullname": "NOT AVAILABLE", "lastname": "SMITH"}
				}}
			}]
		}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).Lookup(context.Background(), "123 Main St", "Springfield, IL")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "SMITH", res.OwnerName, "falls through to the next candidate path")
	assert.Empty(t, res.MailingAddress)
}

func TestLookup_XMLBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<error><message>bad things</message></error>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Lookup(context.Background(), "123 Main St", "Springfield, IL")
	require.Error(t, err)
}

func TestLookup_AuthFailurePassesStatusThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Lookup(context.Background(), "123 Main St", "Springfield, IL")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Message, "API key")
}

func TestLookup_RetriesServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status": {"msg": "SuccessWithResult", "total": 1},
			"property": [{"assessment": {"owner": {"owner1": {"fullname": "SMITH JANE"}}}}]}`))
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL), WithRateLimit(1000, 1000),
		WithRetry(resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}))
	res, err := c.Lookup(context.Background(), "123 Main St", "Springfield, IL")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 2, calls)
}
