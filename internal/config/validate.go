package config

import (
	"errors"
	"fmt"
	"strings"
)

// maxProbeConcurrency bounds the worker pool so a long back catalogue does
// not open hundreds of connections to one host.
const maxProbeConcurrency = 32

var renameModes = map[string]struct{}{
	"missing":      {},
	"missing-only": {},
	"all":          {},
	"skip":         {},
	"none":         {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateRename(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validateProbeCache(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOutput() error {
	if strings.TrimSpace(c.Output.File) == "" {
		return errors.New("output.file must be set")
	}
	if c.Output.FeedCache != "" && c.Output.FeedCache == c.Output.File {
		return errors.New("output.feed_cache must differ from output.file")
	}
	return nil
}

func (c *Config) validateRename() error {
	if _, ok := renameModes[c.Rename.Mode]; !ok {
		return fmt.Errorf("rename.mode: unsupported value %q (want missing, all, or skip)", c.Rename.Mode)
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.TimeoutSeconds < 0 {
		return errors.New("feed.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateProbe() error {
	if c.Probe.Concurrency < 1 || c.Probe.Concurrency > maxProbeConcurrency {
		return fmt.Errorf("probe.concurrency must be between 1 and %d", maxProbeConcurrency)
	}
	if c.Probe.TimeoutSeconds < 0 {
		return errors.New("probe.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateProbeCache() error {
	if !c.ProbeCache.Enabled {
		return nil
	}
	if strings.TrimSpace(c.ProbeCache.Path) == "" {
		return errors.New("probe_cache.path must be set when probe_cache.enabled is true")
	}
	if c.ProbeCache.TTLHours < 0 {
		return errors.New("probe_cache.ttl_hours must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
