package instrument

import (
	"context"
	"time"

	"go.uber.org/zap"

	"coinpulse/internal/logging"
	"coinpulse/internal/metrics"
	"coinpulse/internal/provider"
)

// Provider wraps a provider and records one metric sample and one log line
// per fetch. It never retries and never alters the result.
type Provider struct {
	P       provider.Provider
	Metrics *metrics.Metrics
}

func (p *Provider) Name() string { return p.P.Name() }

func (p *Provider) Fetch(ctx context.Context, ids []provider.AssetID) (provider.Snapshot, error) {
	start := time.Now()
	snap, err := p.P.Fetch(ctx, ids)
	elapsed := time.Since(start)
	outcome := provider.Outcome(err)

	if p.Metrics != nil {
		p.Metrics.ObserveFetch(p.P.Name(), outcome, elapsed)
	}

	log := logging.FromContext(ctx).With(
		zap.String("provider", p.P.Name()),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
	)
	if err != nil {
		log.Warn("upstream fetch failed", zap.Error(err))
		return nil, err
	}
	if missing := missingIDs(ids, snap); len(missing) > 0 {
		log.Debug("upstream omitted requested ids", zap.Strings("missing", missing))
	}
	log.Debug("upstream fetch", zap.Int("assets", len(snap)))
	return snap, nil
}

func missingIDs(ids []provider.AssetID, snap provider.Snapshot) []string {
	var out []string
	for _, id := range ids {
		if _, ok := snap[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
