// Package lth maintains one life-time-high record per symbol.
package lth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"tradewise/internal/calculator"
	"tradewise/internal/model"
	"tradewise/internal/store"

	"github.com/shopspring/decimal"
)

// maxAttempts bounds retries when another writer changes the record between
// read and write.
const maxAttempts = 3

// Tracker applies higher closes to the LTH store.
type Tracker struct {
	store store.LTHStore
	now   func() time.Time
}

func NewTracker(s store.LTHStore) *Tracker {
	return &Tracker{store: s, now: time.Now}
}

// UpdateIfHigher records price as the life-time high of symbol when it beats
// the stored one. Equal prices keep the earliest date, so the final record
// depends only on the set of closes supplied, not their order.
func (t *Tracker) UpdateIfHigher(ctx context.Context, symbol string, price float64, date time.Time, universe string) (model.Outcome, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return model.OutcomeUnchanged, fmt.Errorf("%s: invalid price %v", symbol, price)
	}
	p := decimal.NewFromFloat(price).Round(model.LTHPlaces)
	day := model.Day(date)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		now := t.now().UTC()
		cur, err := t.store.GetLTH(ctx, symbol)
		if errors.Is(err, store.ErrNotFound) {
			err = t.store.CreateLTH(ctx, model.LTHRecord{
				Symbol:      symbol,
				Price:       p,
				Date:        day,
				Universe:    universe,
				LastUpdated: now,
			})
			if errors.Is(err, store.ErrExists) {
				continue
			}
			if err != nil {
				return model.OutcomeUnchanged, err
			}
			return model.OutcomeCreated, nil
		}
		if err != nil {
			return model.OutcomeUnchanged, err
		}

		next, outcome := cur, model.OutcomeUnchanged
		next.LastUpdated = now
		if p.GreaterThan(cur.Price) || (p.Equal(cur.Price) && day.Before(cur.Date)) {
			next.Price = p
			next.Date = day
			if universe != "" {
				next.Universe = universe
			}
			outcome = model.OutcomeUpdated
		} else if cur.Universe == "" {
			next.Universe = universe
		}

		err = t.store.UpdateLTH(ctx, next)
		if errors.Is(err, store.ErrStale) || errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return model.OutcomeUnchanged, err
		}
		return outcome, nil
	}
	return model.OutcomeUnchanged, fmt.Errorf("%s: lth record kept changing under update", symbol)
}

// UpdateFromQuotes reduces each series to its highest close and applies one
// update per symbol. A failing symbol is logged and counted; it never stops
// the others. Cancellation stops the walk; the remaining symbols are not
// counted.
func (t *Tracker) UpdateFromQuotes(ctx context.Context, quotes model.Quotes, universe string) model.RunStats {
	symbols := make([]string, 0, len(quotes))
	for s := range quotes {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var stats model.RunStats
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			log.Printf("[WARN] lth update stopped after %d of %d symbols: %v", stats.Processed, len(symbols), ctx.Err())
			break
		}
		stats.Processed++
		outcome, err := t.updateSeries(ctx, symbol, quotes[symbol], universe)
		if err != nil {
			log.Printf("[WARN] lth %s: %v", symbol, err)
			stats.Errors++
			continue
		}
		stats.Record(outcome)
	}
	return stats
}

func (t *Tracker) updateSeries(ctx context.Context, symbol string, bars []model.OHLCV, universe string) (model.Outcome, error) {
	if err := calculator.ValidateSeries(bars); err != nil {
		return model.OutcomeUnchanged, err
	}
	price, date, err := calculator.MaxClose(bars)
	if err != nil {
		return model.OutcomeUnchanged, err
	}
	return t.UpdateIfHigher(ctx, symbol, price, date, universe)
}

// Distance returns how far current is from the stored high of symbol. ok is
// false when symbol has no record or the record cannot serve as a base.
func (t *Tracker) Distance(ctx context.Context, symbol string, current float64) (pct float64, ok bool, err error) {
	rec, err := t.store.GetLTH(ctx, symbol)
	if errors.Is(err, store.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	high, _ := rec.Price.Float64()
	pct, ok = calculator.DistanceFromLTH(current, high)
	return pct, ok, nil
}
