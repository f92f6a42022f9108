package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeOutput()
	c.normalizeRename()
	c.normalizeFeed()
	c.normalizeProbe()
	if err := c.normalizeProbeCache(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

// Output paths stay relative: they are resolved against the working
// directory at run time, matching how aria2c is later invoked.
func (c *Config) normalizeOutput() {
	c.Output.File = strings.TrimSpace(c.Output.File)
	if c.Output.File == "" {
		c.Output.File = defaultOutputFile
	}
	c.Output.FeedCache = strings.TrimSpace(c.Output.FeedCache)
}

func (c *Config) normalizeRename() {
	c.Rename.Mode = strings.ToLower(strings.TrimSpace(c.Rename.Mode))
	if c.Rename.Mode == "" {
		c.Rename.Mode = defaultRenameMode
	}
	c.Rename.Podcast = strings.TrimSpace(c.Rename.Podcast)
}

func (c *Config) normalizeFeed() {
	c.Feed.UserAgent = strings.TrimSpace(c.Feed.UserAgent)
	if c.Feed.UserAgent == "" {
		if value, ok := os.LookupEnv(UserAgentEnv); ok && strings.TrimSpace(value) != "" {
			c.Feed.UserAgent = strings.TrimSpace(value)
		}
	}
	if c.Feed.UserAgent == "" {
		c.Feed.UserAgent = defaultUserAgent
	}
	if c.Feed.TimeoutSeconds == 0 {
		c.Feed.TimeoutSeconds = defaultFeedTimeoutSeconds
	}
}

func (c *Config) normalizeProbe() {
	if c.Probe.Concurrency == 0 {
		c.Probe.Concurrency = defaultProbeConcurrency
	}
	if c.Probe.TimeoutSeconds == 0 {
		c.Probe.TimeoutSeconds = defaultProbeTimeoutSeconds
	}
}

func (c *Config) normalizeProbeCache() error {
	if strings.TrimSpace(c.ProbeCache.Path) == "" {
		c.ProbeCache.Path = defaultProbeCachePath()
	}
	var err error
	if c.ProbeCache.Path, err = expandPath(c.ProbeCache.Path); err != nil {
		return fmt.Errorf("probe_cache.path: %w", err)
	}
	if c.ProbeCache.TTLHours == 0 {
		c.ProbeCache.TTLHours = defaultProbeCacheTTLHours
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level

	if file := strings.TrimSpace(c.Logging.File); file != "" {
		expanded, err := expandPath(file)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}
