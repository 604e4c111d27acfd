package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// DistanceFromLTH returns how far current sits from the life-time high, in
// percent rounded to 2 places; negative below the high. ok is false when no
// usable high exists.
func DistanceFromLTH(current, lth float64) (pct float64, ok bool) {
	return percentChange(current, lth)
}

// IsNearLTH reports whether current is within thresholdPct of the high.
func IsNearLTH(current, lth, thresholdPct float64) (near bool, ok bool) {
	d, ok := DistanceFromLTH(current, lth)
	if !ok {
		return false, false
	}
	return math.Abs(d) <= thresholdPct, true
}

// PriceChangePct is the percent move from reference to current.
func PriceChangePct(current, reference float64) (pct float64, ok bool) {
	return percentChange(current, reference)
}

func percentChange(current, base float64) (float64, bool) {
	if base <= 0 || math.IsNaN(base) || math.IsNaN(current) || math.IsInf(current, 0) {
		return 0, false
	}
	pct := (current - base) / base * 100
	return Round2(pct), true
}

// Round2 rounds v half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
