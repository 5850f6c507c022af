package instrument

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"coinpulse/internal/logging"
	"coinpulse/internal/metrics"
	"coinpulse/internal/provider"
)

type fakeProvider struct {
	snap  provider.Snapshot
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Fetch(_ context.Context, _ []provider.AssetID) (provider.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

func TestFetch_Success(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logging.WithLogger(t.Context(), zap.New(core))

	fp := &fakeProvider{snap: provider.Snapshot{"bitcoin": {USD: 1}}}
	m := metrics.New()
	p := &Provider{P: fp, Metrics: m}

	snap, err := p.Fetch(ctx, []string{"bitcoin", "dogecoin"})
	require.NoError(t, err)
	require.Equal(t, fp.snap, snap)
	require.Equal(t, 1, fp.calls)
	require.Equal(t, "fake", p.Name())

	require.InDelta(t, 1, testutil.ToFloat64(m.UpstreamFetches.WithLabelValues("fake", "ok")), 0)
	missing := logs.FilterMessage("upstream omitted requested ids").All()
	require.Len(t, missing, 1)
	require.Equal(t, []any{"dogecoin"}, missing[0].ContextMap()["missing"])
}

func TestFetch_ErrorIsPassedThrough(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logging.WithLogger(t.Context(), zap.New(core))

	upstreamErr := &provider.StatusError{StatusCode: 429}
	fp := &fakeProvider{err: upstreamErr}
	m := metrics.New()
	p := &Provider{P: fp, Metrics: m}

	snap, err := p.Fetch(ctx, []string{"bitcoin"})
	require.Nil(t, snap)
	require.True(t, errors.Is(err, provider.ErrUpstream))
	require.Equal(t, 1, fp.calls, "no retries")

	require.InDelta(t, 1, testutil.ToFloat64(m.UpstreamFetches.WithLabelValues("fake", "status")), 0)
	require.Equal(t, 1, logs.FilterMessage("upstream fetch failed").Len())
}

func TestFetch_NilMetrics(t *testing.T) {
	p := &Provider{P: &fakeProvider{snap: provider.Snapshot{}}}
	_, err := p.Fetch(t.Context(), []string{"bitcoin"})
	require.NoError(t, err)
}
