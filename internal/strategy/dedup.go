package strategy

import (
	"tradewise/internal/model"

	"github.com/shopspring/decimal"
)

// Dedupe collapses signals sharing (symbol, date, buy price, sell price).
// Within a group the highest sell price wins, then the highest expected
// gain, then the first seen. Output follows first-seen key order.
func Dedupe(signals []model.Signal) []model.Signal {
	best := make(map[model.SignalKey]int, len(signals))
	out := make([]model.Signal, 0, len(signals))

	for _, s := range signals {
		k := s.Key()
		idx, seen := best[k]
		if !seen {
			best[k] = len(out)
			out = append(out, s)
			continue
		}
		if better(s, out[idx]) {
			out[idx] = s
		}
	}
	return out
}

func better(a, b model.Signal) bool {
	if c := compareNull(a.SellPrice, b.SellPrice); c != 0 {
		return c > 0
	}
	return compareNull(a.ExpectedGain, b.ExpectedGain) > 0
}

// compareNull orders null below every value.
func compareNull(a, b decimal.NullDecimal) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	}
	return a.Decimal.Cmp(b.Decimal)
}
