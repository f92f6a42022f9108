package directive

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"pod2aria/internal/feed"
	"pod2aria/internal/logging"
	"pod2aria/internal/naming"
	"pod2aria/internal/services"
)

// Directive is one entry of the aria2c input file.
type Directive struct {
	Index int
	URL   string
	// OutputName is empty when the downloader should use the server's name.
	OutputName string
}

// ProbeFunc asks the origin whether it advertises a filename for ep.
type ProbeFunc func(ctx context.Context, ep feed.Episode) (*naming.ProbeResult, error)

// Options configures Build.
type Options struct {
	Policy  naming.Policy
	Podcast string
	// Probe is consulted only under naming.MissingOnly. Nil treats every
	// episode as unnamed.
	Probe       ProbeFunc
	Concurrency int
	// Strict aborts on an episode that must be renamed but has no usable
	// date, instead of skipping it.
	Strict bool
	Logger *slog.Logger
}

type probeOutcome struct {
	result *naming.ProbeResult
	err    error
}

// Build produces directives for episodes in order. On cancellation or a
// strict-mode failure it returns the directives committed so far along with
// the error.
func Build(ctx context.Context, episodes []feed.Episode, opts Options, report *Report) ([]Directive, error) {
	if report == nil {
		report = &Report{}
	}
	logger := logging.NewComponentLogger(opts.Logger, "directive")
	report.Episodes += len(episodes)

	var outcomes []chan probeOutcome
	if opts.Policy.NeedsProbe() && opts.Probe != nil && len(episodes) > 0 {
		probeCtx, cancel := context.WithCancel(ctx)
		var wg sync.WaitGroup
		outcomes = startProbes(probeCtx, &wg, episodes, opts.Probe, opts.Concurrency)
		defer func() {
			cancel()
			wg.Wait()
		}()
	}

	resolver := naming.NewCollisionResolver()
	directives := make([]Directive, 0, len(episodes))

	for i, ep := range episodes {
		if err := ctx.Err(); err != nil {
			return directives, err
		}
		epCtx := services.WithEpisodeIndex(ctx, ep.Index)
		epLogger := logging.WithContext(epCtx, logger)

		var probe *naming.ProbeResult
		if outcomes != nil {
			var outcome probeOutcome
			select {
			case <-ctx.Done():
				return directives, ctx.Err()
			case outcome = <-outcomes[i]:
			}
			if ctx.Err() != nil {
				return directives, ctx.Err()
			}
			if outcome.err != nil {
				report.ProbeFailures++
				logging.WarnWithContext(epLogger, "could not reach episode url", "probe_failed",
					logging.String("title", ep.Title),
					logging.String("url", ep.SourceURL),
					logging.Error(outcome.err),
					logging.String(logging.FieldErrorHint, "check network access to the media host"),
					logging.String(logging.FieldImpact, "episode treated as having no server filename"),
				)
			} else {
				probe = outcome.result
			}
		}

		directive := Directive{Index: ep.Index, URL: ep.SourceURL}
		if !naming.ShouldRename(opts.Policy, probe) {
			if probe != nil && probe.Filename != "" {
				epLogger.Debug("server advertises filename",
					logging.String("title", ep.Title),
					logging.String("filename", probe.Filename),
				)
			}
			directives = append(directives, directive)
			report.Committed++
			epLogger.Info("episode added", logging.String("title", ep.Title))
			continue
		}

		name, err := naming.Synthesize(ep, opts.Podcast)
		if err != nil {
			if opts.Strict || !errors.Is(err, services.ErrMalformedItem) {
				return directives, err
			}
			reason := err.Error()
			var itemErr *feed.ItemError
			if errors.As(err, &itemErr) {
				reason = itemErr.Reason
			}
			report.AddSkipped(ep.Index, ep.Title, reason)
			report.Committed++
			logging.WarnWithContext(epLogger, "skipping episode without usable date", "episode_skipped",
				logging.String("title", ep.Title),
				logging.String("reason", reason),
				logging.String(logging.FieldErrorHint, "fix the item's pubDate or run with --skip-rename"),
				logging.String(logging.FieldImpact, "episode omitted from the url list"),
			)
			continue
		}

		ext, _ := naming.Extension(ep.SourceURL)
		final, collided := resolver.Resolve(ep.Index, name, ext)
		if collided {
			report.Collisions++
			epLogger.Info("synthesized name already used in this run",
				logging.String("requested", name),
				logging.String("filename", final),
			)
		}

		directive.OutputName = final
		directives = append(directives, directive)
		report.Renamed = append(report.Renamed, Renamed{Index: ep.Index, Title: ep.Title, Filename: final})
		report.Committed++
		epLogger.Info("episode renamed",
			logging.String("title", ep.Title),
			logging.String("filename", final),
		)
	}

	return directives, nil
}

// startProbes launches a bounded pool that probes every episode. Result i is
// delivered on channel i; each channel is buffered so workers never block on a
// slow committer.
func startProbes(ctx context.Context, wg *sync.WaitGroup, episodes []feed.Episode, probe ProbeFunc, concurrency int) []chan probeOutcome {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(episodes) {
		concurrency = len(episodes)
	}

	outcomes := make([]chan probeOutcome, len(episodes))
	for i := range outcomes {
		outcomes[i] = make(chan probeOutcome, 1)
	}

	jobs := make(chan int)
	wg.Add(concurrency)
	for w := 0; w < concurrency; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				ep := episodes[i]
				result, err := probe(services.WithEpisodeIndex(ctx, ep.Index), ep)
				if err != nil && !services.Recoverable(err) {
					err = services.Wrap(services.ErrProbe, "probe", "headers", ep.SourceURL, err)
				}
				outcomes[i] <- probeOutcome{result: result, err: err}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		for i := range episodes {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	return outcomes
}
