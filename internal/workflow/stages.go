package workflow

import (
	"context"
	"io"
	"log/slog"

	"pod2aria/internal/directive"
	"pod2aria/internal/feed"
	"pod2aria/internal/fileutil"
	"pod2aria/internal/logging"
	"pod2aria/internal/naming"
	"pod2aria/internal/preflight"
	"pod2aria/internal/services"
	"pod2aria/internal/services/headprobe"
)

// runPreflight validates the output paths before any network traffic.
func (r *Runner) runPreflight(ctx context.Context, logger *slog.Logger) error {
	results := preflight.RunAll(r.cfg)
	stageLogger := logging.WithContext(ctx, logger)
	for _, result := range results {
		if result.Passed {
			stageLogger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logging.ErrorWithContext(stageLogger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "create the directory or choose another output path"),
		)
	}
	return preflight.Failure(results)
}

func (r *Runner) lockOutput(ctx context.Context) (*fileutil.Lock, error) {
	lock, err := fileutil.LockFile(ctx, r.cfg.Output.File)
	if err != nil {
		return nil, services.Wrap(services.ErrOutputWrite, "write", "lock output", r.cfg.Output.File, err)
	}
	return lock, nil
}

// probeFunc returns the ProbeFunc for policy plus a cleanup that closes any
// cache it opened. Policies that never probe get a nil ProbeFunc.
func (r *Runner) probeFunc(ctx context.Context, policy naming.Policy, logger *slog.Logger) (directive.ProbeFunc, func()) {
	noop := func() {}
	if !policy.NeedsProbe() {
		return nil, noop
	}

	prober := r.prober
	cleanup := noop
	if prober == nil {
		var client headprobe.Prober = headprobe.NewFromConfig(r.cfg, r.logger)
		var store *headprobe.Store
		if r.cfg.ProbeCache.Enabled {
			stageLogger := logging.WithContext(ctx, logger)
			opened, err := headprobe.Open(ctx, r.cfg.ProbeCache.Path)
			if err != nil {
				logging.WarnWithContext(stageLogger, "probe cache unavailable", "probe_cache_open_failed",
					logging.String("path", r.cfg.ProbeCache.Path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "delete the cache file or disable probe_cache"),
					logging.String(logging.FieldImpact, "every url is probed over the network"),
				)
			} else {
				store = opened
				if pruned, err := store.Prune(ctx, r.cfg.ProbeCacheTTL()); err == nil && pruned > 0 {
					stageLogger.Debug("expired probe results pruned", logging.Int("removed", int(pruned)))
				}
				cleanup = func() {
					if err := store.Close(); err != nil {
						logger.Warn("close probe cache failed", logging.Error(err))
					}
				}
			}
		}
		prober = headprobe.NewCachedProber(client, store, r.cfg.ProbeCacheTTL(), r.logger)
	}

	return func(ctx context.Context, ep feed.Episode) (*naming.ProbeResult, error) {
		return prober.Probe(ctx, ep.SourceURL)
	}, cleanup
}

// writeOutput replaces the output file with the rendered directives.
func (r *Runner) writeOutput(ctx context.Context, directives []directive.Directive) error {
	err := fileutil.WriteAtomic(r.cfg.Output.File, 0o644, func(w io.Writer) error {
		return directive.Render(w, directives)
	})
	if err != nil {
		return services.Wrap(services.ErrOutputWrite, "write", "replace output", r.cfg.Output.File, err)
	}
	logging.WithContext(ctx, logging.NewComponentLogger(r.logger, "workflow")).Info("url list written",
		logging.String("path", r.cfg.Output.File),
		logging.Int("directives", len(directives)),
	)
	return nil
}
