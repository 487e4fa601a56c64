// Package backend is the HTTP client for the disclosure chat API.
// Every endpoint the client consumes is a method on Client; response bodies
// are read leniently so that missing or mistyped fields default to zero
// values instead of failing the call.
package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aictl/idchat/internal/observability"
)

const maxBodySize = 10 * 1024 * 1024 // 10MB

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.Code, e.Body)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Endpoint, e.Code)
}

// Client talks to one backend base URL.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a per-request timeout. 0 keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{},
		userAgent: "idchat/1.0",
		logger:    observability.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// endpointURL joins the base URL, path and optional query.
func (c *Client) endpointURL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends req with a fresh request id and returns the response when the
// status is 2xx. The caller must close the body.
func (c *Client) do(ctx context.Context, endpoint string, req *http.Request) (*http.Response, error) {
	reqID := observability.RequestID(ctx)
	if reqID == "" {
		reqID = observability.NewRequestID()
		ctx = observability.WithRequestID(ctx, reqID)
		req = req.WithContext(ctx)
	}
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("User-Agent", c.userAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	log := observability.FromContext(ctx, c.logger).With("endpoint", endpoint, "method", req.Method)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("backend request failed", "err", err)
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	log.Debug("backend request", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		var snippet string
		if req.Method != http.MethodHead {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			snippet = strings.TrimSpace(string(b))
		}
		log.Warn("backend returned error status", "status", resp.StatusCode)
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: snippet}
	}
	return resp, nil
}

// getJSON performs a GET and returns the raw body.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(path, query), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	return c.readBody(ctx, endpoint, req)
}

// readBody executes req and reads the (size-capped) body.
func (c *Client) readBody(ctx context.Context, endpoint string, req *http.Request) ([]byte, error) {
	resp, err := c.do(ctx, endpoint, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	return body, nil
}
