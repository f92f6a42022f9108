// Package logging assembles structured slog loggers and formatting helpers used
// across pod2aria.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so run code can tag log lines with the
// run ID, stage, and episode index. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
package logging
