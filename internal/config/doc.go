// Package config loads, normalizes, and validates pod2aria configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// POD2ARIA_USER_AGENT. The Config type centralizes every knob the CLI and the
// run workflow need so output locations, rename policy, and probe tuning are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
