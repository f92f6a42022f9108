package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Output controls where the url list and the fetched feed are written.
type Output struct {
	File string `toml:"file"`
	// FeedCache is where a fetched feed is saved. Empty disables caching.
	FeedCache string `toml:"feed_cache"`
}

// Rename selects the rename policy and the optional podcast prefix.
type Rename struct {
	Mode    string `toml:"mode"`
	Podcast string `toml:"podcast"`
	// PodcastFromFeed uses the channel title when Podcast is empty.
	PodcastFromFeed bool `toml:"podcast_from_feed"`
}

// Feed contains settings for retrieving and parsing the RSS document.
type Feed struct {
	Strict         bool   `toml:"strict"`
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Probe contains settings for the per-episode header probe.
type Probe struct {
	Concurrency    int `toml:"concurrency"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// ProbeCache contains configuration for the persistent header probe cache.
type ProbeCache struct {
	Enabled  bool   `toml:"enabled"` // Default: false
	Path     string `toml:"path"`    // Default: ~/.cache/pod2aria/probe_cache.db
	TTLHours int    `toml:"ttl_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File mirrors log lines into a file in addition to stderr.
	File string `toml:"file"`
}

// Config encapsulates all configuration values for pod2aria.
//
// Configuration sections by concern:
//   - Output: url list and feed cache locations
//   - Rename: rename policy and podcast prefix
//   - Feed: fetch and parse behaviour
//   - Probe: header probe concurrency and timeout
//   - ProbeCache: sqlite cache of probe outcomes
//   - Logging: log format, level, and optional file
type Config struct {
	Output     Output     `toml:"output"`
	Rename     Rename     `toml:"rename"`
	Feed       Feed       `toml:"feed"`
	Probe      Probe      `toml:"probe"`
	ProbeCache ProbeCache `toml:"probe_cache"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strictErr *toml.StrictMissingError
			if errors.As(err, &strictErr) {
				return nil, "", false, fmt.Errorf("parse config: %s", strings.TrimSpace(strictErr.String()))
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// FeedTimeout returns the feed fetch timeout as a duration.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.Feed.TimeoutSeconds) * time.Second
}

// ProbeTimeout returns the per-request header probe timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSeconds) * time.Second
}

// ProbeCacheTTL returns how long a cached probe outcome stays valid.
func (c *Config) ProbeCacheTTL() time.Duration {
	return time.Duration(c.ProbeCache.TTLHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultProbeCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "pod2aria", "probe_cache.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/pod2aria/probe_cache.db"
	}
	return filepath.Join(home, ".cache", "pod2aria", "probe_cache.db")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
