// Package report lists stored signals with live price and LTH annotations.
package report

import (
	"context"
	"log"
	"time"

	"tradewise/internal/calculator"
	"tradewise/internal/model"
	"tradewise/internal/store"
	"tradewise/internal/strategy"
)

// PriceSource returns the current price of a symbol.
type PriceSource interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// Row is one listed signal and its annotations. The *OK flags mark values
// that could be computed; a false flag means unavailable, not zero.
type Row struct {
	Signal model.Signal
	IsNew  bool

	Current   float64
	CurrentOK bool
	ChangePct float64
	ChangeOK  bool

	LTH        model.LTHRecord
	LTHOK      bool
	Distance   float64
	DistanceOK bool
	Near       bool
}

// Options controls a listing.
type Options struct {
	Filter store.SignalFilter
	// Live fetches current prices for change and distance annotations.
	Live bool
	// BelowLTHPct, when positive, keeps only rows at least this far below
	// their life-time high. Rows without a distance are dropped.
	BelowLTHPct      float64
	NewWithinDays    int
	NearThresholdPct float64
}

// Lister builds annotated signal listings.
type Lister struct {
	signals store.SignalStore
	lth     store.LTHStore
	prices  PriceSource
	now     func() time.Time
}

func NewLister(signals store.SignalStore, lth store.LTHStore, prices PriceSource) *Lister {
	return &Lister{signals: signals, lth: lth, prices: prices, now: time.Now}
}

// List returns deduplicated, annotated signals newest first.
func (l *Lister) List(ctx context.Context, opts Options) ([]Row, error) {
	signals, err := l.signals.ListSignals(ctx, opts.Filter)
	if err != nil {
		return nil, err
	}
	signals = strategy.Dedupe(signals)

	var symbols []string
	seen := make(map[string]bool)
	for _, s := range signals {
		if !seen[s.Symbol] {
			seen[s.Symbol] = true
			symbols = append(symbols, s.Symbol)
		}
	}
	highs := make(map[string]model.LTHRecord, len(symbols))
	if len(symbols) > 0 {
		recs, err := l.lth.ListLTH(ctx, symbols)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			highs[r.Symbol] = r
		}
	}

	today := model.Day(l.now())
	newSince := today.AddDate(0, 0, -opts.NewWithinDays)
	prices := make(map[string]*float64)

	rows := make([]Row, 0, len(signals))
	for _, s := range signals {
		row := Row{Signal: s, IsNew: opts.NewWithinDays > 0 && !s.Date.Before(newSince)}
		row.LTH, row.LTHOK = highs[s.Symbol]

		if opts.Live && l.prices != nil {
			if p := l.price(ctx, prices, s.Symbol); p != nil {
				row.Current, row.CurrentOK = *p, true
				ref, _ := s.Price.Float64()
				row.ChangePct, row.ChangeOK = calculator.PriceChangePct(*p, ref)
				if row.LTHOK {
					high, _ := row.LTH.Price.Float64()
					row.Distance, row.DistanceOK = calculator.DistanceFromLTH(*p, high)
					row.Near, _ = calculator.IsNearLTH(*p, high, opts.NearThresholdPct)
				}
			}
		}

		if opts.BelowLTHPct > 0 && (!row.DistanceOK || row.Distance > -opts.BelowLTHPct) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// price memoises one lookup per symbol for the duration of a listing.
func (l *Lister) price(ctx context.Context, memo map[string]*float64, symbol string) *float64 {
	if p, ok := memo[symbol]; ok {
		return p
	}
	v, err := l.prices.Price(ctx, symbol)
	if err != nil || v <= 0 {
		if err != nil {
			log.Printf("[WARN] current price %s: %v", symbol, err)
		}
		memo[symbol] = nil
		return nil
	}
	v = calculator.Round2(v)
	memo[symbol] = &v
	return &v
}
