package headprobe

import (
	"context"
	"log/slog"
	"time"

	"pod2aria/internal/logging"
	"pod2aria/internal/naming"
)

// CachedProber consults a Store before delegating to another Prober. Only
// successful outcomes are stored; failures are retried on the next run.
type CachedProber struct {
	next   Prober
	store  *Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProber wraps next with store. A nil store disables caching.
func NewCachedProber(next Prober, store *Store, ttl time.Duration, logger *slog.Logger) *CachedProber {
	return &CachedProber{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "probe_cache"),
	}
}

// Probe implements Prober.
func (p *CachedProber) Probe(ctx context.Context, rawURL string) (*naming.ProbeResult, error) {
	logger := logging.WithContext(ctx, p.logger)
	if p.store != nil {
		result, ok, err := p.store.Lookup(ctx, rawURL, p.ttl)
		if err != nil {
			logging.WarnWithContext(logger, "probe cache lookup failed", "probe_cache_read_failed",
				logging.String("url", rawURL),
				logging.Error(err),
				logging.String(logging.FieldImpact, "url probed over the network"),
			)
		} else if ok {
			logger.Debug("probe cache hit", logging.String("url", rawURL))
			return result, nil
		}
	}

	result, err := p.next.Probe(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if p.store != nil && result != nil {
		if err := p.store.Save(ctx, rawURL, result); err != nil {
			logging.WarnWithContext(logger, "probe cache write failed", "probe_cache_write_failed",
				logging.String("url", rawURL),
				logging.Error(err),
				logging.String(logging.FieldImpact, "url will be probed again next run"),
			)
		}
	}
	return result, nil
}
