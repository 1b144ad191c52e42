package seam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"pkt.systems/pslog"
	"pkt.systems/seammcp/internal/correlation"
	"pkt.systems/seammcp/internal/svcfields"
	"pkt.systems/seammcp/internal/version"
)

const (
	// DefaultEndpoint is the production Seam API base URL.
	DefaultEndpoint = "https://connect.getseam.com"
	// DefaultHTTPTimeout bounds each API request.
	DefaultHTTPTimeout = 30 * time.Second
)

// Client calls the Seam HTTP API. It is safe for concurrent use.
type Client struct {
	endpoint    string
	apiKey      string
	httpClient  *http.Client
	httpTimeout time.Duration
	userAgent   string
	limiter     *rate.Limiter
	logger      pslog.Base
}

// Option customises a Client.
type Option func(*Client)

// WithEndpoint overrides the API base URL (for sandboxes and tests).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient supplies a custom HTTP client. The client is used as-is; no
// tracing transport is added.
func WithHTTPClient(cli *http.Client) Option {
	return func(c *Client) {
		if cli != nil {
			c.httpClient = cli
		}
	}
}

// WithHTTPTimeout overrides the per-request timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpTimeout = d
		}
	}
}

// WithRateLimit throttles outgoing requests to perSecond with the given burst
// (at least 1). Requests wait for a token; a cancelled context aborts the wait.
// perSecond <= 0 leaves requests unthrottled.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger supplies a logger for request diagnostics.
// Passing nil falls back to pslog.NoopLogger().
func WithLogger(logger pslog.Base) Option {
	return func(c *Client) {
		if logger == nil {
			c.logger = pslog.NoopLogger()
			return
		}
		if full, ok := logger.(pslog.Logger); ok {
			c.logger = svcfields.WithSubsystem(full, svcfields.SeamClient)
			return
		}
		c.logger = logger
	}
}

// New creates a client authenticated with apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		endpoint:    DefaultEndpoint,
		apiKey:      apiKey,
		httpTimeout: DefaultHTTPTimeout,
		userAgent:   version.UserAgent(),
		logger:      pslog.NoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("seam: parse endpoint %q: %w", c.endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("seam: endpoint %q must use http or https", c.endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("seam: endpoint %q has no host", c.endpoint)
	}
	c.endpoint = strings.TrimSuffix(u.String(), "/")
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "seam " + r.URL.Path
				}),
			),
		}
	}
	return c, nil
}

// Endpoint returns the normalized API base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	if payload == nil {
		payload = struct{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("seam: encode %s request: %w", path, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("seam: rate limit %s: %w", path, err)
		}
	}

	reqCtx := ctx
	if c.httpTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.httpTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("seam: build %s request: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if cid := correlation.ID(ctx); cid != "" {
		req.Header.Set(correlation.Header, cid)
	}

	start := time.Now()
	c.logTrace(ctx, "seam.http.request.start", "path", path, "request_bytes", len(body))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logWarn(ctx, "seam.http.request.transport_error", "path", path, "error", err)
		return fmt.Errorf("seam: POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("seam: read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp, path, data)
		c.logWarn(ctx, "seam.http.request.error",
			"path", path,
			"status", resp.StatusCode,
			"type", apiErr.Type,
			"request_id", apiErr.RequestID,
		)
		return apiErr
	}
	c.logDebug(ctx, "seam.http.request.success",
		"path", path,
		"status", resp.StatusCode,
		"size", humanize.Bytes(uint64(len(data))),
		"elapsed", time.Since(start),
	)
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("seam: decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response, path string, data []byte) *APIError {
	apiErr := &APIError{
		Status:     resp.StatusCode,
		Path:       path,
		Body:       data,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
	var env errorEnvelope
	if len(data) > 0 && json.Unmarshal(data, &env) == nil {
		apiErr.Type = strings.TrimSpace(env.Error.Type)
		apiErr.Message = strings.TrimSpace(env.Error.Message)
		apiErr.RequestID = strings.TrimSpace(env.Error.RequestID)
	}
	if apiErr.RequestID == "" {
		apiErr.RequestID = resp.Header.Get("Seam-Request-Id")
	}
	return apiErr
}

func (c *Client) withCID(ctx context.Context, keyvals []any) []any {
	if cid := correlation.ID(ctx); cid != "" {
		return append(keyvals, "cid", cid)
	}
	return keyvals
}

func (c *Client) logTrace(ctx context.Context, msg string, keyvals ...any) {
	c.logger.Trace(msg, c.withCID(ctx, keyvals)...)
}

func (c *Client) logDebug(ctx context.Context, msg string, keyvals ...any) {
	c.logger.Debug(msg, c.withCID(ctx, keyvals)...)
}

func (c *Client) logWarn(ctx context.Context, msg string, keyvals ...any) {
	c.logger.Warn(msg, c.withCID(ctx, keyvals)...)
}
