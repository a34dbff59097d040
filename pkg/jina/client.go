// Package jina provides a client for the Jina AI reader.
package jina

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the Jina AI Reader operations.
type Client interface {
	// Read fetches a URL via Jina AI Reader and returns the page as markdown.
	Read(ctx context.Context, targetURL string) (string, error)
}

// StatusError is returned when the reader answers with a non-200 status
// after retries are exhausted.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jina: unexpected status %d: %s", e.StatusCode, e.Body)
}

const (
	defaultBaseURL     = "https://r.jina.ai"
	defaultMaxAttempts = 2
	defaultBackoff     = 1 * time.Second
	// cacheToleranceSecs lets the reader serve its own cached copy up to a day old.
	cacheToleranceSecs = "86400"
)

// Option configures the Jina client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithMaxAttempts bounds the number of attempts per Read. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(c *httpClient) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the initial delay between attempts; it doubles each retry.
func WithBackoff(d time.Duration) Option {
	return func(c *httpClient) {
		c.backoff = d
	}
}

// WithRateLimit caps outbound requests, retries included, at perMinute.
// Zero or negative leaves requests unthrottled.
func WithRateLimit(perMinute int) Option {
	return func(c *httpClient) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
		}
	}
}

type httpClient struct {
	apiKey      string
	baseURL     string
	maxAttempts int
	backoff     time.Duration
	http        *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a new Jina AI Reader client. An empty apiKey uses the
// anonymous tier.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

func (c *httpClient) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// retryDo executes an HTTP request with exponential backoff retries on
// transient failures (429, 500, 502, 503).
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	backoff := c.backoff

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, 0, eris.Wrap(err, "jina: rate limit wait")
			}
		}
		resp, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			if attempt < c.maxAttempts {
				if werr := c.wait(ctx, backoff); werr != nil {
					return nil, 0, werr
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "jina: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < c.maxAttempts {
			if werr := c.wait(ctx, backoff); werr != nil {
				return nil, 0, werr
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) Read(ctx context.Context, targetURL string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s", c.baseURL, targetURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "jina: create request")
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "text/markdown")
	req.Header.Set("X-Return-Format", "markdown")
	req.Header.Set("X-Cache-Tolerance", cacheToleranceSecs)

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return "", eris.Wrap(err, "jina: request failed")
	}

	if statusCode != http.StatusOK {
		return "", &StatusError{StatusCode: statusCode, Body: string(body)}
	}

	return string(body), nil
}
