package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tradewise/internal/collector"
	"tradewise/internal/config"
	"tradewise/internal/metrics"
	"tradewise/internal/model"
	"tradewise/internal/store"
	"tradewise/internal/strategy"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 10, 19, 0, 0, 0, time.UTC)

func series(closes ...float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC), Close: c}
	}
	return bars
}

// windowFetcher records the start of every requested window.
type windowFetcher struct {
	*collector.MockFetcher
	starts []time.Time
}

func (w *windowFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	w.starts = append(w.starts, start)
	return w.MockFetcher.FetchDailyBars(ctx, symbol, start, end)
}

type recordingNotifier struct{ runs []model.RunRecord }

func (n *recordingNotifier) NotifyRun(_ context.Context, run model.RunRecord, _ error) error {
	n.runs = append(n.runs, run)
	return nil
}

type failingSignals struct{ *store.MemoryStore }

func (failingSignals) BulkCreateSignals(context.Context, []model.Signal) (int, error) {
	return 0, errors.New("disk full")
}

type fixture struct {
	cfg      *config.Config
	fetcher  *windowFetcher
	store    store.Store
	notifier *recordingNotifier
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	v20, err := strategy.New(strategy.V20, strategy.Params{NumDays: 3})
	require.NoError(t, err)
	v20again, err := strategy.New(strategy.V20, strategy.Params{NumDays: 3})
	require.NoError(t, err)
	ma, err := strategy.New(strategy.MACross, strategy.Params{ShortWindow: 2, LongWindow: 3})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Signals.HistoryYears = 2
	cfg.LTH.HistoryYears = 10
	cfg.LTH.DaysBack = 30
	cfg.Universes = []config.Universe{
		{Name: "v40", Source: "v40.csv", Resolved: []strategy.Strategy{v20, v20again}},
		{Name: "v200", Source: "v200.csv", Resolved: []strategy.Strategy{ma}},
	}

	return &fixture{
		cfg: cfg,
		fetcher: &windowFetcher{MockFetcher: &collector.MockFetcher{
			Bars: map[string][]model.OHLCV{
				"INFY": series(10, 8, 6, 9, 12, 7, 15),
				"FLAT": series(5, 0, 5),
				"TCS":  series(10, 10, 10, 9, 8, 12, 14, 9, 6),
			},
			Errors: map[string]error{"BAD": errors.New("upstream 500")},
		}},
		store:    store.NewMemoryStore(),
		notifier: &recordingNotifier{},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
}

func (f *fixture) runner() *Runner {
	lists := map[string][]string{
		"v40.csv":  {"INFY", "BAD", "MISSING", "FLAT"},
		"v200.csv": {"TCS"},
	}
	return NewRunner(f.cfg, collector.NewCollector(f.fetcher), f.store,
		WithMetrics(f.metrics),
		WithNotifier(f.notifier),
		WithClock(func() time.Time { return now }),
		WithStockLists(func(path string) ([]string, error) {
			if l, ok := lists[path]; ok {
				return l, nil
			}
			return nil, fmt.Errorf("no list %s", path)
		}),
	)
}

func TestProcessSignals_Breakout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	run, err := f.runner().ProcessSignals(ctx, strategy.KindBreakout)
	require.NoError(t, err)
	assert.Equal(t, model.JobBreakout, run.Job)
	assert.Len(t, run.ID, 26)
	assert.Equal(t, model.RunStats{Processed: 4, Created: 3, Errors: 3}, run.Stats)

	signals, err := f.store.ListSignals(ctx, store.SignalFilter{})
	require.NoError(t, err)
	require.Len(t, signals, 3, "duplicate strategies collapse before insert")
	for _, s := range signals {
		assert.Equal(t, "INFY", s.Symbol)
		assert.Equal(t, "v40", s.Universe)
	}

	runs, err := f.store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	require.Len(t, f.notifier.runs, 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.SignalsCreated.WithLabelValues(model.JobBreakout)))
	assert.Equal(t, 0, f.fetcher.Calls("TCS"), "universes without the kind are skipped")
	assert.Equal(t, now.AddDate(-2, 0, 0), f.fetcher.starts[0])
}

func TestProcessSignals_MovingAverage(t *testing.T) {
	f := newFixture(t)
	run, err := f.runner().ProcessSignals(context.Background(), strategy.KindMovingAverage)
	require.NoError(t, err)
	assert.Equal(t, model.JobMovingAverage, run.Job)
	assert.Equal(t, model.RunStats{Processed: 1, Created: 3}, run.Stats)
	assert.Equal(t, 0, f.fetcher.Calls("INFY"))
}

func TestProcessSignals_StoreFailureFailsRun(t *testing.T) {
	f := newFixture(t)
	mem := store.NewMemoryStore()
	f.store = failingSignals{mem}

	_, err := f.runner().ProcessSignals(context.Background(), strategy.KindBreakout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	runs, _ := mem.ListRuns(context.Background(), 0)
	assert.Len(t, runs, 1, "failed runs are still logged")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RunsTotal.WithLabelValues(model.JobBreakout, "failed")))
}

func TestProcessSignals_RefreshLTH(t *testing.T) {
	f := newFixture(t)
	f.cfg.Signals.RefreshLTH = true
	_, err := f.runner().ProcessSignals(context.Background(), strategy.KindBreakout)
	require.NoError(t, err)

	rec, err := f.store.GetLTH(context.Background(), "INFY")
	require.NoError(t, err)
	assert.Equal(t, "15", rec.Price.String())
}

func TestProcessLTH(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.runner()

	run, err := r.ProcessLTH(ctx, LTHOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.JobLTH, run.Job)
	// INFY and TCS created; BAD, MISSING and FLAT counted as errors
	assert.Equal(t, model.RunStats{Processed: 5, Created: 2, Errors: 3}, run.Stats)
	assert.Equal(t, now.AddDate(-10, 0, 0), f.fetcher.starts[0])

	rec, err := f.store.GetLTH(ctx, "INFY")
	require.NoError(t, err)
	assert.Equal(t, "15", rec.Price.String())
	assert.True(t, rec.Date.Equal(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "v40", rec.Universe)

	f.fetcher.starts = nil
	run, err = r.ProcessLTH(ctx, LTHOptions{UpdateOnly: true, DaysBack: 7})
	require.NoError(t, err)
	assert.Equal(t, model.RunStats{Processed: 5, Unchanged: 2, Errors: 3}, run.Stats)
	assert.Equal(t, now.AddDate(0, 0, -7), f.fetcher.starts[0])

	f.fetcher.starts = nil
	_, err = r.ProcessLTH(ctx, LTHOptions{UpdateOnly: true})
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -30), f.fetcher.starts[0], "configured default window")
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.LTHOutcomes.WithLabelValues("created")))
}

func TestProcessLTH_UnreadableListIsCounted(t *testing.T) {
	f := newFixture(t)
	f.cfg.Universes = append(f.cfg.Universes, config.Universe{Name: "ghost", Source: "ghost.csv"})
	run, err := f.runner().ProcessLTH(context.Background(), LTHOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, run.Stats.Errors)
}

func TestProcessLTH_OnlyUniverseUnreadable(t *testing.T) {
	f := newFixture(t)
	f.cfg.Universes = []config.Universe{{Name: "ghost", Source: "ghost.csv"}}

	var run model.RunRecord
	var err error
	require.NotPanics(t, func() { run, err = f.runner().ProcessLTH(context.Background(), LTHOptions{}) })
	require.NoError(t, err)
	assert.Equal(t, model.RunStats{Errors: 1}, run.Stats)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SymbolsTotal.WithLabelValues(model.JobLTH, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RunsTotal.WithLabelValues(model.JobLTH, "ok")))
}

func TestProcessLTH_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.runner().ProcessLTH(ctx, LTHOptions{})
	assert.ErrorIs(t, err, context.Canceled)

	runs, _ := f.store.ListRuns(context.Background(), 0)
	assert.Len(t, runs, 1)
}

func TestRunAll(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.runner().RunAll(context.Background()))

	runs, err := f.store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, model.JobLTH, runs[0].Job, "newest first")
}
