package workflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"pod2aria/internal/config"
	"pod2aria/internal/directive"
	"pod2aria/internal/feed"
	"pod2aria/internal/logging"
	"pod2aria/internal/naming"
	"pod2aria/internal/services"
	"pod2aria/internal/services/feedsource"
	"pod2aria/internal/services/headprobe"
)

// Fetcher retrieves the raw feed document.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// Runner coordinates a single conversion.
type Runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	fetcher Fetcher
	prober  headprobe.Prober
	refresh bool
}

// Option configures optional Runner behavior.
type Option func(*Runner)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithFetcher replaces the config-driven feed fetcher.
func WithFetcher(fetcher Fetcher) Option {
	return func(r *Runner) { r.fetcher = fetcher }
}

// WithProber replaces the config-driven header prober. The probe cache is
// not consulted for an injected prober.
func WithProber(prober headprobe.Prober) Option {
	return func(r *Runner) { r.prober = prober }
}

// WithRefresh ignores an existing feed cache file.
func WithRefresh(refresh bool) Option {
	return func(r *Runner) { r.refresh = refresh }
}

// NewRunner constructs a Runner for cfg. cfg must already carry any command
// line overrides.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.fetcher == nil {
		r.fetcher = feedsource.NewFromConfig(cfg, r.refresh, r.logger)
	}
	return r
}

// Result describes what a run produced. It is returned even when Run fails
// so callers can report partial progress.
type Result struct {
	RunID      string
	FeedTitle  string
	OutputPath string
	Policy     naming.Policy
	Report     *directive.Report
	// Written is true once the output file has been replaced.
	Written bool
	// Interrupted is true when the context ended the run early.
	Interrupted bool
}

// Run converts the feed at source into the configured output file.
func (r *Runner) Run(ctx context.Context, source string) (*Result, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	result := &Result{
		RunID:      runID,
		OutputPath: r.cfg.Output.File,
		Report:     &directive.Report{},
	}
	logger := logging.NewComponentLogger(r.logger, "workflow")

	policy, err := naming.ParsePolicy(r.cfg.Rename.Mode)
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, "workflow", "rename policy", "", err)
	}
	result.Policy = policy

	logging.WithContext(ctx, logger).Info("run started",
		logging.String("source", source),
		logging.String("output", r.cfg.Output.File),
		logging.String("rename_policy", policy.String()),
	)

	if err := r.runPreflight(services.WithStage(ctx, "preflight"), logger); err != nil {
		return result, err
	}

	parsed, err := r.fetchAndParse(ctx, source, logger)
	if err != nil {
		result.Interrupted = ctx.Err() != nil
		return result, err
	}
	result.FeedTitle = parsed.Title
	for _, skipped := range parsed.Skipped {
		result.Report.AddSkipped(skipped.Index, skipped.Title, skipped.Reason)
	}

	lock, err := r.lockOutput(services.WithStage(ctx, "lock"))
	if err != nil {
		if ctx.Err() != nil {
			result.Interrupted = true
			return result, ctx.Err()
		}
		return result, err
	}
	logging.WithContext(ctx, logger).Debug("output locked", logging.String("lock", lock.Path()))
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("release output lock failed", logging.Error(unlockErr))
		}
	}()

	probe, closeProbe := r.probeFunc(services.WithStage(ctx, "probe"), policy, logger)
	defer closeProbe()

	buildCtx := services.WithStage(ctx, "build")
	directives, buildErr := directive.Build(buildCtx, parsed.Episodes, directive.Options{
		Policy:      policy,
		Podcast:     r.podcast(parsed),
		Probe:       probe,
		Concurrency: r.cfg.Probe.Concurrency,
		Strict:      r.cfg.Feed.Strict,
		Logger:      r.logger,
	}, result.Report)

	if buildErr != nil {
		if !isInterruption(buildErr) {
			logging.ErrorWithContext(logging.WithContext(buildCtx, logger), "run aborted", "run_aborted",
				logging.Error(buildErr),
				logging.String(logging.FieldErrorHint, "fix the reported feed item or drop --strict"),
			)
			return result, buildErr
		}
		result.Interrupted = true
		logging.WarnWithContext(logging.WithContext(buildCtx, logger), "run interrupted", "run_interrupted",
			logging.Int("committed", len(directives)),
			logging.Int(logging.FieldEpisodeCount, len(parsed.Episodes)),
			logging.String(logging.FieldImpact, "output holds only the episodes committed so far"),
		)
	}

	if err := r.writeOutput(services.WithStage(ctx, "write"), directives); err != nil {
		return result, err
	}
	result.Written = true

	logging.WithContext(ctx, logger).Info("run finished",
		logging.Int(logging.FieldEpisodeCount, result.Report.Episodes),
		logging.Int("renamed", result.Report.Created()),
		logging.Int("skipped", len(result.Report.Skipped)),
		logging.Int("probe_failures", result.Report.ProbeFailures),
	)
	return result, buildErr
}

func (r *Runner) fetchAndParse(ctx context.Context, source string, logger *slog.Logger) (*feed.Feed, error) {
	fetchCtx := services.WithStage(ctx, "fetch")
	raw, err := r.fetcher.Fetch(fetchCtx, source)
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(fetchCtx, logger), "feed fetch failed", "feed_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the feed url or file path"),
		)
		return nil, err
	}

	parseCtx := services.WithStage(ctx, "parse")
	parsed, err := feed.Parse(raw, feed.Options{
		Strict: r.cfg.Feed.Strict,
		Logger: logging.WithContext(parseCtx, r.logger),
	})
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(parseCtx, logger), "feed parse failed", "feed_parse_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "confirm the source is an RSS document"),
		)
		return nil, err
	}
	return parsed, nil
}

func (r *Runner) podcast(parsed *feed.Feed) string {
	if r.cfg.Rename.Podcast != "" {
		return r.cfg.Rename.Podcast
	}
	if r.cfg.Rename.PodcastFromFeed && parsed != nil {
		return parsed.Title
	}
	return ""
}

func isInterruption(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
