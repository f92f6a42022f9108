// Package services defines shared utilities consumed by the run workflow and
// the external integrations under it (feed source, header probe).
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and episode indexes for
//     logging.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (fetch, parse, malformed item, probe, output) with errors.Is.
//
// Probe failures are the only recoverable class; every other marker aborts
// the run with the message returned by UserMessage.
package services
