package calculator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"tradewise/internal/model"
)

var (
	ErrEmptySeries   = errors.New("empty series")
	ErrInvalidSeries = errors.New("invalid series")
)

// ValidateSeries checks that bars are date-ascending without duplicate
// dates and that every close is a finite positive number.
func ValidateSeries(bars []model.OHLCV) error {
	if len(bars) == 0 {
		return ErrEmptySeries
	}
	for i, b := range bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			return fmt.Errorf("%w: bad close %v on %s", ErrInvalidSeries, b.Close, b.Time.Format("2006-01-02"))
		}
		if i > 0 && !model.Day(bars[i-1].Time).Before(model.Day(b.Time)) {
			return fmt.Errorf("%w: %s not after %s", ErrInvalidSeries,
				b.Time.Format("2006-01-02"), bars[i-1].Time.Format("2006-01-02"))
		}
	}
	return nil
}

// MaxClose scans the whole series and returns the highest close and the day
// it was first observed.
func MaxClose(bars []model.OHLCV) (price float64, date time.Time, err error) {
	if len(bars) == 0 {
		return 0, time.Time{}, ErrEmptySeries
	}
	price = math.Inf(-1)
	for _, b := range bars {
		if math.IsNaN(b.Close) {
			return 0, time.Time{}, fmt.Errorf("%w: NaN close on %s", ErrInvalidSeries, b.Time.Format("2006-01-02"))
		}
		if b.Close > price || (b.Close == price && b.Time.Before(date)) {
			price = b.Close
			date = b.Time
		}
	}
	return price, model.Day(date), nil
}
