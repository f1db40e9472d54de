// Package transport POSTs encoded export requests to an OTLP/HTTP
// collector and probes its health endpoint.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ollystack/otlpgen/internal/payload"
	"github.com/ollystack/otlpgen/internal/telemetry"
)

const (
	// maxDrainBytes bounds how much of a response body is read before
	// the connection is released.
	maxDrainBytes = 64 << 10
	// maxExcerptBytes bounds the body text carried in a StatusError.
	maxExcerptBytes = 512
)

// Config configures a Client
type Config struct {
	SendTimeout   time.Duration
	HealthTimeout time.Duration
	// Headers are added to every export request.
	Headers   map[string]string
	UserAgent string
}

// Outcome is the result of a single export request
type Outcome struct {
	Signal     telemetry.Signal
	Identifier string
	URL        string
	Items      int
	// StatusCode is 0 when no response was received.
	StatusCode int
	Latency    time.Duration
	Err        error
}

// Success reports whether the collector accepted the request.
func (o Outcome) Success() bool {
	return o.Err == nil
}

// HealthResult is the result of a health probe
type HealthResult struct {
	URL        string
	StatusCode int
	Latency    time.Duration
	Err        error
}

// Healthy reports whether the probe returned 200.
func (h HealthResult) Healthy() bool {
	return h.Err == nil
}

// Client sends envelopes over a single reusable connection pool
type Client struct {
	cfg        Config
	logger     *zap.Logger
	transport  *http.Transport
	httpClient *http.Client
}

// NewClient creates a Client. Zero timeouts fall back to 10s for sends
// and 5s for health probes.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()

	return &Client{
		cfg:       cfg,
		logger:    logger,
		transport: tr,
		httpClient: &http.Client{
			Transport: logRoundTripper{logger: logger, rt: tr},
		},
	}
}

// Send POSTs env to url. It never panics or returns an error directly:
// every failure is captured in the returned Outcome.
func (c *Client) Send(ctx context.Context, url string, env payload.Envelope) (out Outcome) {
	out = Outcome{
		Signal:     env.Signal,
		Identifier: env.Identifier,
		URL:        url,
		Items:      env.Items,
	}

	start := time.Now()
	defer func() {
		out.Latency = time.Since(start)
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic while sending %s: %v", env.Signal, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(env.Body))
	if err != nil {
		out.Err = fmt.Errorf("failed to create request: %w", err)
		return out
	}
	req.Header.Set("Content-Type", env.ContentType)
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		out.Err = c.requestError(ctx, url, c.cfg.SendTimeout, err)
		return out
	}
	defer resp.Body.Close()

	out.StatusCode = resp.StatusCode
	excerpt := drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
	default:
		out.Err = &StatusError{Code: resp.StatusCode, Body: excerpt}
	}
	return out
}

// HealthCheck GETs url and reports healthy only on 200.
func (c *Client) HealthCheck(ctx context.Context, url string) (res HealthResult) {
	res = HealthResult{URL: url}

	start := time.Now()
	defer func() {
		res.Latency = time.Since(start)
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic during health check: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Err = fmt.Errorf("failed to create request: %w", err)
		return res
	}
	c.setUserAgent(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		res.Err = c.requestError(ctx, url, c.cfg.HealthTimeout, err)
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	excerpt := drain(resp.Body)
	if resp.StatusCode != http.StatusOK {
		res.Err = &StatusError{Code: resp.StatusCode, Body: excerpt}
	}
	return res
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

func (c *Client) setHeaders(req *http.Request) {
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	c.setUserAgent(req)
}

func (c *Client) setUserAgent(req *http.Request) {
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
}

func (c *Client) requestError(ctx context.Context, url string, timeout time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, err)
	}
	return &RequestError{URL: url, Cause: err}
}

// drain reads at most maxDrainBytes of body and returns the leading
// part as trimmed text.
func drain(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxDrainBytes))
	if len(data) > maxExcerptBytes {
		data = data[:maxExcerptBytes]
	}
	return strings.TrimSpace(string(data))
}
