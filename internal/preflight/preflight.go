package preflight

import (
	"errors"
	"fmt"
	"strings"

	"pod2aria/internal/config"
	"pod2aria/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Output file (always checked)
	results = append(results, CheckFileTarget("Output file", cfg.Output.File))

	// Feed cache (when enabled)
	if cfg.Output.FeedCache != "" {
		results = append(results, CheckFileTarget("Feed cache", cfg.Output.FeedCache))
	}

	// Probe cache database is created on first use.
	if cfg.ProbeCache.Enabled {
		results = append(results, CheckCreatable("Probe cache", cfg.ProbeCache.Path))
	}

	return results
}

// Failure folds failed results into one ErrOutputWrite error, or nil when
// every check passed.
func Failure(results []Result) error {
	var failed []string
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result.Name+": "+result.Detail)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrOutputWrite, "preflight", "check paths", "", errors.New(strings.Join(failed, "; ")))
}

// Summary renders results one per line for CLI output.
func Summary(results []Result) string {
	var b strings.Builder
	for _, result := range results {
		status := "ok"
		if !result.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "%-12s %-4s %s\n", result.Name, status, result.Detail)
	}
	return b.String()
}
