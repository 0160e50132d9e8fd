package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitwall/internal/config"
)

func testClientConfig(name string) HTTPClientConfig {
	cfg := DefaultHTTPClientConfig()
	cfg.Name = name
	cfg.Timeout = 2 * time.Second
	cfg.RateLimit = 0
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = time.Hour
	return cfg
}

func TestRateLimitedHTTPClient_GetPassesHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRateLimitedHTTPClient(testClientConfig("get-test"), nil)
	defer c.Close()

	resp, err := c.Get(context.Background(), srv.URL, http.Header{"Authorization": []string{"Bearer abc"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "closed", c.State())
}

func TestRateLimitedHTTPClient_PostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "password_limited", r.PostForm.Get("grant_type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRateLimitedHTTPClient(testClientConfig("post-test"), nil)
	resp, err := c.PostForm(context.Background(), srv.URL, url.Values{"grant_type": {"password_limited"}})
	require.NoError(t, err)
	resp.Body.Close()
}

func TestRateLimitedHTTPClient_DoesNotRetryByDefault(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testClientConfig("no-retry-test")
	cfg.BreakerMinRequests = 100
	c := NewRateLimitedHTTPClient(cfg, nil)

	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err, "status errors are left to the caller")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRateLimitedHTTPClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRateLimitedHTTPClient(testClientConfig("breaker-test"), nil)

	for i := 0; i < 2; i++ {
		resp, err := c.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, "open", c.State())

	_, err := c.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "open breaker must not reach the server")
}

func TestRateLimitedHTTPClient_ClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewRateLimitedHTTPClient(testClientConfig("client-error-test"), nil)
	for i := 0; i < 4; i++ {
		resp, err := c.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, "closed", c.State())
}

func TestHTTPClientConfigFrom(t *testing.T) {
	cfg := HTTPClientConfigFrom(config.IRacingConfig{TimeoutSeconds: 12, MaxRetries: 2, RateLimit: 3})
	assert.Equal(t, "iracing", cfg.Name)
	assert.Equal(t, 12*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 3.0, cfg.RateLimit)

	defaults := HTTPClientConfigFrom(config.IRacingConfig{})
	assert.Equal(t, 0, defaults.MaxRetries)
	assert.Equal(t, 30*time.Second, defaults.Timeout)
}
