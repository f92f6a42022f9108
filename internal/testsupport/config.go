package testsupport

import (
	"path/filepath"
	"testing"

	"pod2aria/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose output lives in a per-test temp
// directory. Feed caching is off and the probe cache points into the same
// directory but stays disabled unless WithProbeCache is given.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Output.File = filepath.Join(base, "urls.txt")
	cfgVal.Output.FeedCache = ""
	cfgVal.ProbeCache.Path = filepath.Join(base, "probe_cache.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRenameMode sets rename.mode.
func WithRenameMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rename.Mode = mode
	}
}

// WithPodcast sets the filename prefix.
func WithPodcast(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rename.Podcast = name
	}
}

// WithStrict aborts on malformed items.
func WithStrict() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Feed.Strict = true
	}
}

// WithProbeCache enables the sqlite probe cache in the test directory.
func WithProbeCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.ProbeCache.Enabled = true
	}
}

// WithFeedCache enables feed caching at feed.xml in the test directory.
func WithFeedCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.FeedCache = filepath.Join(b.baseDir, "feed.xml")
	}
}
