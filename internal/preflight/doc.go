// Package preflight provides readiness checks for the filesystem paths a run
// writes to.
//
// These checks run in two contexts:
//   - The run workflow calls RunAll before fetching the feed. If any check
//     fails the run stops before any network traffic or partial output.
//   - The CLI "pod2aria config validate" command prints the same results.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
