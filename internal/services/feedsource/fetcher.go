package feedsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"pod2aria/internal/config"
	"pod2aria/internal/fileutil"
	"pod2aria/internal/logging"
	"pod2aria/internal/services"
)

// maxFeedBytes caps how much of a response body is read.
const maxFeedBytes = 64 << 20

// HTTPDoer describes the HTTP client used to download feeds.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher resolves a feed source into raw bytes.
type Fetcher struct {
	client    HTTPDoer
	userAgent string
	timeout   time.Duration
	cachePath string
	refresh   bool
	logger    *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with feed requests.
func WithUserAgent(agent string) Option {
	return func(f *Fetcher) { f.userAgent = strings.TrimSpace(agent) }
}

// WithTimeout bounds a single feed download. Zero means no extra bound.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) { f.timeout = timeout }
}

// WithCache saves remote feeds to path and reuses them on later runs. An
// empty path disables caching.
func WithCache(path string) Option {
	return func(f *Fetcher) { f.cachePath = strings.TrimSpace(path) }
}

// WithRefresh forces a network fetch even when the cache file exists.
func WithRefresh(refresh bool) Option {
	return func(f *Fetcher) { f.refresh = refresh }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// New constructs a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{client: http.DefaultClient}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "feedsource")
	return f
}

// NewFromConfig builds a Fetcher from the [feed] and [output] settings.
func NewFromConfig(cfg *config.Config, refresh bool, logger *slog.Logger, opts ...Option) *Fetcher {
	base := []Option{WithLogger(logger), WithRefresh(refresh)}
	if cfg != nil {
		base = append(base,
			WithUserAgent(cfg.Feed.UserAgent),
			WithTimeout(cfg.FeedTimeout()),
			WithCache(cfg.Output.FeedCache),
		)
	}
	return New(append(base, opts...)...)
}

// IsRemote reports whether source is an http or https URL.
func IsRemote(source string) bool {
	parsed, err := url.Parse(strings.TrimSpace(source))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return (scheme == "http" || scheme == "https") && parsed.Host != ""
}

// Fetch returns the raw feed document for source.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	logger := logging.WithContext(ctx, f.logger)

	if IsRemote(source) {
		if data, ok := f.readCache(logger); ok {
			return data, nil
		}
		data, err := f.download(ctx, source)
		if err != nil {
			return nil, err
		}
		f.writeCache(logger, data)
		return data, nil
	}

	info, err := os.Stat(source)
	if err != nil || !info.Mode().IsRegular() {
		return nil, services.Wrap(services.ErrInvalidSource, "fetch", "resolve source", source, nil)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, services.Wrap(services.ErrFeedFetch, "fetch", "read file", source, err)
	}
	logger.Info("feed loaded from file", logging.String("path", source), logging.Int("bytes", len(data)))
	return data, nil
}

func (f *Fetcher) download(ctx context.Context, source string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrFeedFetch, "fetch", "build request", source, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8")

	started := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrFeedFetch, "fetch", "download", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrFeedFetch, "fetch", "download", fmt.Sprintf("%s returned %d", source, resp.StatusCode), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return nil, services.Wrap(services.ErrFeedFetch, "fetch", "read body", source, err)
	}
	if len(data) > maxFeedBytes {
		return nil, services.Wrap(services.ErrFeedFetch, "fetch", "read body", "feed exceeds size limit", nil)
	}

	logging.WithContext(ctx, f.logger).Info("feed downloaded",
		logging.String("url", source),
		logging.Int("bytes", len(data)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return data, nil
}

func (f *Fetcher) readCache(logger *slog.Logger) ([]byte, bool) {
	if f.cachePath == "" || f.refresh {
		return nil, false
	}
	data, err := os.ReadFile(f.cachePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "feed cache unreadable", "feed_cache_read_failed",
				logging.String("path", f.cachePath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "feed downloaded again"),
			)
		}
		return nil, false
	}
	logger.Info("using cached feed",
		logging.String("path", f.cachePath),
		logging.String(logging.FieldErrorHint, "pass --refresh to download it again"),
	)
	return data, true
}

func (f *Fetcher) writeCache(logger *slog.Logger, data []byte) {
	if f.cachePath == "" {
		return
	}
	if err := fileutil.WriteFileAtomic(f.cachePath, data, 0o644); err != nil {
		logging.WarnWithContext(logger, "could not save feed cache", "feed_cache_write_failed",
			logging.String("path", f.cachePath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the feed cache directory is writable"),
			logging.String(logging.FieldImpact, "next run downloads the feed again"),
		)
		return
	}
	logger.Debug("feed cached", logging.String("path", f.cachePath))
}
