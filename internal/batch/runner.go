// Package batch runs the signal and LTH jobs over every configured universe.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tradewise/internal/collector"
	"tradewise/internal/config"
	"tradewise/internal/lth"
	"tradewise/internal/metrics"
	"tradewise/internal/model"
	"tradewise/internal/runid"
	"tradewise/internal/store"
	"tradewise/internal/strategy"
)

// RunNotifier is told about every finished run.
type RunNotifier interface {
	NotifyRun(ctx context.Context, run model.RunRecord, runErr error) error
}

// LTHOptions selects the history window of an LTH run.
type LTHOptions struct {
	UpdateOnly bool // fetch only the last DaysBack days
	DaysBack   int  // zero means the configured default
}

// Runner wires configuration, data source and store into the batch jobs.
type Runner struct {
	cfg       *config.Config
	collector *collector.Collector
	store     store.Store
	tracker   *lth.Tracker
	metrics   *metrics.Metrics
	notifier  RunNotifier

	readList func(path string) ([]string, error)
	now      func() time.Time
}

// Option customises a Runner.
type Option func(*Runner)

// WithMetrics records every run in m.
func WithMetrics(m *metrics.Metrics) Option { return func(r *Runner) { r.metrics = m } }

// WithNotifier sends a summary of every run to n.
func WithNotifier(n RunNotifier) Option { return func(r *Runner) { r.notifier = n } }

// WithStockLists replaces the universe file reader.
func WithStockLists(read func(path string) ([]string, error)) Option {
	return func(r *Runner) { r.readList = read }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

func NewRunner(cfg *config.Config, c *collector.Collector, s store.Store, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		collector: c,
		store:     s,
		tracker:   lth.NewTracker(s),
		readList:  collector.ReadStockList,
		now:       time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Tracker exposes the runner's LTH tracker.
func (r *Runner) Tracker() *lth.Tracker { return r.tracker }

func jobFor(kind strategy.Kind) string {
	if kind == strategy.KindMovingAverage {
		return model.JobMovingAverage
	}
	return model.JobBreakout
}

// ProcessSignals runs every strategy of kind over every universe that has
// one and stores the deduplicated signals. Per-symbol failures are counted
// and skipped; only cancellation or a store failure fails the run.
func (r *Runner) ProcessSignals(ctx context.Context, kind strategy.Kind) (model.RunRecord, error) {
	run := r.begin(jobFor(kind))
	end := r.now()
	start := end.AddDate(-r.cfg.Signals.HistoryYears, 0, 0)

	var runErr error
	for _, u := range r.cfg.Universes {
		strategies := u.StrategiesOf(kind)
		if len(strategies) == 0 {
			continue
		}
		stats, err := r.signalsForUniverse(ctx, u, strategies, start, end)
		run.Stats.Add(stats)
		if err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("universe %s: %w", u.Name, err))
			if ctx.Err() != nil {
				break
			}
		}
	}
	return r.finish(ctx, run, runErr)
}

func (r *Runner) signalsForUniverse(ctx context.Context, u config.Universe, strategies []strategy.Strategy, start, end time.Time) (model.RunStats, error) {
	var stats model.RunStats
	symbols, quotes, err := r.fetch(ctx, u, start, end, &stats)
	if err != nil {
		return stats, err
	}

	var batch []model.Signal
	for _, symbol := range symbols {
		bars, ok := quotes[symbol]
		if !ok {
			continue
		}
		stats.Processed++
		signals, err := strategy.Run(strategies, symbol, u.Name, bars)
		if err != nil {
			log.Printf("[WARN] %s %s: %v", u.Name, symbol, err)
			stats.Errors++
			continue
		}
		batch = append(batch, signals...)
	}

	batch = strategy.Dedupe(batch)
	n, err := r.store.BulkCreateSignals(ctx, batch)
	if err != nil {
		return stats, fmt.Errorf("store signals: %w", err)
	}
	stats.Created += n
	log.Printf("[INFO] %s: %d symbols, %d signals stored, %d errors", u.Name, stats.Processed, n, stats.Errors)

	if r.cfg.Signals.RefreshLTH {
		lthStats := r.tracker.UpdateFromQuotes(ctx, quotes, u.Name)
		log.Printf("[INFO] %s: lth refreshed from signal quotes: %d new, %d raised", u.Name, lthStats.Created, lthStats.Updated)
	}
	return stats, nil
}

// ProcessLTH refreshes the life-time high of every symbol in every universe.
func (r *Runner) ProcessLTH(ctx context.Context, opts LTHOptions) (model.RunRecord, error) {
	run := r.begin(model.JobLTH)
	end := r.now()
	start := end.AddDate(-r.cfg.LTH.HistoryYears, 0, 0)
	if opts.UpdateOnly {
		days := opts.DaysBack
		if days <= 0 {
			days = r.cfg.LTH.DaysBack
		}
		start = end.AddDate(0, 0, -days)
	}

	var runErr error
	for _, u := range r.cfg.Universes {
		var stats model.RunStats
		_, quotes, err := r.fetch(ctx, u, start, end, &stats)
		if err == nil {
			lthStats := r.tracker.UpdateFromQuotes(ctx, quotes, u.Name)
			stats.Add(lthStats)
			log.Printf("[INFO] %s: %d stocks processed, %d LTH updated, %d new records, %d errors",
				u.Name, stats.Processed, stats.Updated, stats.Created, stats.Errors)
			err = ctx.Err()
		}
		run.Stats.Add(stats)
		if err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("universe %s: %w", u.Name, err))
			if ctx.Err() != nil {
				break
			}
		}
	}
	return r.finish(ctx, run, runErr)
}

// RunAll runs the breakout, moving-average and incremental LTH jobs in turn.
func (r *Runner) RunAll(ctx context.Context) error {
	var errs error
	for _, kind := range []strategy.Kind{strategy.KindBreakout, strategy.KindMovingAverage} {
		if _, err := r.ProcessSignals(ctx, kind); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if _, err := r.ProcessLTH(ctx, LTHOptions{UpdateOnly: true}); err != nil {
		errs = errors.Join(errs, err)
	}
	return errs
}

// fetch reads the universe list and its quotes. Symbols that fail to load
// are added to stats as processed errors. Only an unreadable list or
// cancellation is returned as an error.
func (r *Runner) fetch(ctx context.Context, u config.Universe, start, end time.Time, stats *model.RunStats) ([]string, model.Quotes, error) {
	symbols, err := r.readList(u.Source)
	if err != nil {
		log.Printf("[ERROR] %s: %v", u.Name, err)
		stats.Errors++
		return nil, nil, nil
	}
	quotes, fetchErrs, err := r.collector.GetQuotes(ctx, symbols, start, end)
	if err != nil {
		return nil, nil, err
	}
	stats.Processed += len(fetchErrs)
	stats.Errors += len(fetchErrs)
	return symbols, quotes, nil
}

func (r *Runner) begin(job string) model.RunRecord {
	now := r.now()
	run := model.RunRecord{ID: runid.New(now), Job: job, StartedAt: now}
	log.Printf("[INFO] run %s (%s) started", run.ID, job)
	return run
}

func (r *Runner) finish(ctx context.Context, run model.RunRecord, runErr error) (model.RunRecord, error) {
	run.FinishedAt = r.now()
	st := run.Stats
	if runErr != nil {
		log.Printf("[ERROR] run %s (%s) failed: %v", run.ID, run.Job, runErr)
	} else {
		log.Printf("[INFO] run %s (%s) done: processed=%d created=%d updated=%d unchanged=%d errors=%d",
			run.ID, run.Job, st.Processed, st.Created, st.Updated, st.Unchanged, st.Errors)
	}

	// The run log and notifications outlive a cancelled batch context.
	bg := context.WithoutCancel(ctx)
	if err := r.store.RecordRun(bg, run); err != nil {
		log.Printf("[ERROR] record run %s: %v", run.ID, err)
	}
	r.metrics.ObserveRun(run, runErr)
	if r.notifier != nil {
		if err := r.notifier.NotifyRun(bg, run, runErr); err != nil {
			log.Printf("[WARN] notify run %s: %v", run.ID, err)
		}
	}
	return run, runErr
}
