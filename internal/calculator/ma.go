package calculator

import (
	"errors"

	"tradewise/internal/model"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the rolling simple moving average aligned with prices.
// ok[i] is false for the first period-1 entries, which have no average.
func SMASeries(prices []float64, period int) (values []float64, ok []bool, err error) {
	if period <= 0 {
		return nil, nil, errors.New("period must be positive")
	}
	values = make([]float64, len(prices))
	ok = make([]bool, len(prices))
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			values[i] = sum / float64(period)
			ok[i] = true
		}
	}
	return values, ok, nil
}

// Closes extracts the close prices of bars.
func Closes(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
