// Package spacetraders is a typed client for the game backend's REST API.
package spacetraders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/papaburgs/spacegui/internal/gate"
	"github.com/papaburgs/spacegui/internal/metrics"
)

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	gate    *gate.Gate
	metrics *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithToken sends the token as a bearer Authorization header.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithGate makes every request wait its turn on g.
func WithGate(g *gate.Gate) Option {
	return func(c *Client) { c.gate = g }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL is the backend root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// do sends one request. endpoint is the path template used as the metrics
// label so ship symbols don't explode the label space.
func (c *Client) do(ctx context.Context, method, endpoint, path string, body, out any) error {
	l := slog.With("function", "do", "method", method, "path", path)

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request for %s: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.gate != nil {
		if err := c.gate.Latch(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, "error", start)
		l.Error("error in calling api", "error", err)
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.observe(endpoint, strconv.Itoa(resp.StatusCode), start)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response for %s: %w", path, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests && c.gate != nil {
		c.gate.Lock()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseError(resp.StatusCode, path, raw)
		l.Warn("api request failed", "rc", resp.StatusCode, "detail", apiErr.Detail)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return decodeData(raw, out)
}

// decodeData unwraps {data: ...}. Bodies without the envelope are decoded as-is.
func decodeData(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		raw = env.Data
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("error decoding JSON response: %w", err)
	}
	return nil
}

func (c *Client) observe(endpoint, code string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamRequests.WithLabelValues(endpoint, code).Inc()
	c.metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (c *Client) get(ctx context.Context, endpoint, path string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, path, nil, out)
}

func (c *Client) post(ctx context.Context, endpoint, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, path, body, out)
}

func shipPath(symbol string, parts ...string) string {
	p := "/api/ships/" + url.PathEscape(symbol)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}
