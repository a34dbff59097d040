package jina

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient(apiKey, baseURL string, opts ...Option) Client {
	opts = append([]Option{WithBaseURL(baseURL), WithBackoff(time.Millisecond)}, opts...)
	return NewClient(apiKey, opts...)
}

func TestRead_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "text/markdown", r.Header.Get("Accept"))
		assert.Equal(t, "markdown", r.Header.Get("X-Return-Format"))
		assert.Equal(t, "86400", r.Header.Get("X-Cache-Tolerance"))
		assert.Equal(t, "/https://acme.com", r.URL.Path)

		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# Acme Corp\n\nWe build things."))
	}))
	defer srv.Close()

	got, err := fastClient("test-key", srv.URL).Read(context.Background(), "https://acme.com")

	require.NoError(t, err)
	assert.Equal(t, "# Acme Corp\n\nWe build things.", got)
}

func TestRead_AnonymousOmitsAuthorization(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	got, err := fastClient("", srv.URL).Read(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestRead_StatusErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		attempts int32
	}{
		{name: "not found is not retried", status: http.StatusNotFound, attempts: 1},
		{name: "rate limit retried", status: http.StatusTooManyRequests, attempts: 2},
		{name: "server error retried", status: http.StatusInternalServerError, attempts: 2},
		{name: "unavailable retried", status: http.StatusServiceUnavailable, attempts: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var attempts atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(`failure`))
			}))
			defer srv.Close()

			_, err := fastClient("test-key", srv.URL).Read(context.Background(), "https://acme.com")

			require.Error(t, err)
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, "failure", se.Body)
			assert.Equal(t, tt.attempts, attempts.Load())
		})
	}
}

func TestRead_RetryThenSuccess(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("content"))
	}))
	defer srv.Close()

	got, err := fastClient("test-key", srv.URL).Read(context.Background(), "https://acme.com")

	require.NoError(t, err)
	assert.Equal(t, "content", got)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestRead_MaxAttempts(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := fastClient("test-key", srv.URL, WithMaxAttempts(4)).Read(context.Background(), "https://acme.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(4), attempts.Load())
}

func TestRead_EmptyBodyIsSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	got, err := fastClient("test-key", srv.URL).Read(context.Background(), "https://blocked.com")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRead_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fastClient("test-key", srv.URL).Read(ctx, "https://acme.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
}

func TestRead_RateLimitSpacesRequests(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// 600 per minute is one request every 100ms.
	c := fastClient("", srv.URL, WithRateLimit(600))

	start := time.Now()
	for range 3 {
		_, err := c.Read(context.Background(), "https://acme.com")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	assert.Equal(t, int32(3), hits.Load())
}

func TestRead_RateLimitHonorsContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := fastClient("", srv.URL, WithRateLimit(1))
	_, err := c.Read(context.Background(), "https://acme.com")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Read(ctx, "https://acme.com")
	assert.Error(t, err)
}

func TestWithRateLimit_ZeroDisables(t *testing.T) {
	c := NewClient("", WithRateLimit(0)).(*httpClient)
	assert.Nil(t, c.limiter)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()
	customClient := &http.Client{}
	c := NewClient("test-key", WithHTTPClient(customClient))
	hc := c.(*httpClient)
	assert.Equal(t, customClient, hc.http)
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()
	c := NewClient("my-key", WithMaxAttempts(0))
	hc := c.(*httpClient)
	assert.Equal(t, "my-key", hc.apiKey)
	assert.Equal(t, "https://r.jina.ai", hc.baseURL)
	assert.Equal(t, 2, hc.maxAttempts)
	assert.Equal(t, time.Second, hc.backoff)
	assert.NotNil(t, hc.http)
	assert.Equal(t, 30*time.Second, hc.http.Timeout)
}

func TestRetryableStatusCode(t *testing.T) {
	assert.True(t, retryableStatusCode(429))
	assert.True(t, retryableStatusCode(500))
	assert.True(t, retryableStatusCode(502))
	assert.True(t, retryableStatusCode(503))
	assert.False(t, retryableStatusCode(200))
	assert.False(t, retryableStatusCode(404))
	assert.False(t, retryableStatusCode(422))
}
