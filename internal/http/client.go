package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of an upstream response is read into memory.
const maxBodyBytes = 4 << 20

// Config holds transport settings for upstream calls
type Config struct {
	// RequestsPerSecond throttles outbound calls process-wide. Zero means unlimited.
	RequestsPerSecond float64
	UserAgent         string
	// Timeout is a safety net on the underlying client; callers bound each call
	// with their own context deadline.
	Timeout time.Duration
}

// DefaultConfig returns the default transport configuration
func DefaultConfig() Config {
	return Config{
		UserAgent: "RxCompare-PriceService/1.0",
		Timeout:   30 * time.Second,
	}
}

// Client performs JSON calls against the pricing upstream. It does not retry:
// a failed call is reported to the caller, which decides what to try next.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     Config
}

// NewClient creates a new upstream HTTP client
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultConfig().UserAgent
	}

	limit := rate.Inf
	burst := 1
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
		burst = max(1, int(config.RequestsPerSecond))
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, burst),
		config:  config,
	}
}

// NewClientWithHTTPClient wraps an existing *http.Client, mainly for tests.
func NewClientWithHTTPClient(hc *http.Client, config Config) *Client {
	c := NewClient(config)
	c.httpClient = hc
	return c
}

// Do sends a request and returns the response body for 2xx responses.
// body, when non-nil, is JSON-encoded. bearer, when non-empty, is sent as the
// Authorization header. Non-2xx responses yield a *StatusError.
func (c *Client) Do(ctx context.Context, method, url string, body any, bearer string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       snippet(data),
		}
	}

	return data, nil
}

// PostForm sends a form-encoded POST and returns the response body for 2xx
// responses. Used for the OAuth token exchange.
func (c *Client) PostForm(ctx context.Context, url string, form map[string][]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	encoded := encodeForm(form)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: http.MethodPost, URL: url, StatusCode: resp.StatusCode, Body: snippet(data)}
	}
	return data, nil
}
