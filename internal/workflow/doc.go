// Package workflow runs one feed-to-url-list conversion end to end.
//
// A Runner checks the output paths, fetches and parses the feed, builds
// directives (probing origins when the rename policy asks for it) and
// atomically replaces the output file while holding its lock. Every stage
// tags its log lines with the run ID so a single run can be followed in
// mixed logs.
//
// An interrupted run still writes the episodes committed before the
// interruption and returns the partial report alongside context.Canceled.
package workflow
