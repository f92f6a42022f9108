package headprobe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pod2aria/internal/config"
	"pod2aria/internal/logging"
	"pod2aria/internal/naming"
	"pod2aria/internal/services"
)

// HTTPDoer describes the HTTP client used for probes.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Prober reports what the origin says about a URL.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (*naming.ProbeResult, error)
}

// Client probes episode URLs over HTTP.
type Client struct {
	client    HTTPDoer
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. Redirect handling is the
// client's; the default follows up to ten.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) { c.userAgent = strings.TrimSpace(agent) }
}

// WithTimeout bounds each probe, including the GET fallback.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New constructs a Client.
func New(opts ...Option) *Client {
	c := &Client{client: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "headprobe")
	return c
}

// NewFromConfig builds a Client from the [probe] and [feed] settings.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	base := []Option{WithLogger(logger)}
	if cfg != nil {
		base = append(base, WithUserAgent(cfg.Feed.UserAgent), WithTimeout(cfg.ProbeTimeout()))
	}
	return New(append(base, opts...)...)
}

// Probe sends HEAD to rawURL and reports whether the final response names
// the attachment. Transport failures and non-2xx answers are ErrProbe.
func (c *Client) Probe(ctx context.Context, rawURL string) (*naming.ProbeResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		logging.WithContext(ctx, c.logger).Debug("head rejected, retrying with ranged get",
			logging.String("url", rawURL),
			logging.Int("status", resp.StatusCode),
		)
		resp, err = c.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrProbe, "probe", resp.Request.Method, fmt.Sprintf("%s returned %d", rawURL, resp.StatusCode), nil)
	}

	name, named := ParseDisposition(resp.Header.Get("Content-Disposition"))
	return &naming.ProbeResult{HasNamedAttachment: named, Filename: name}, nil
}

// do issues one request and closes the body before returning; only headers
// are inspected.
func (c *Client) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrProbe, "probe", "build request", rawURL, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrProbe, "probe", method, rawURL, err)
	}
	if method == http.MethodGet {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
	}
	resp.Body.Close()
	if resp.Request == nil {
		resp.Request = req
	}
	return resp, nil
}
