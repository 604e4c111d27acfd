package strategy

import (
	"errors"

	"tradewise/internal/calculator"
	"tradewise/internal/model"

	"github.com/shopspring/decimal"
)

// Breakout is the V20 trough-to-peak strategy.
//
// A Buy is a close that is the lowest of the trailing NumDays window and is
// not undercut within the next Horizon days. The last bar has no later close
// and is never a Buy. Its Sell is the first confirmed
// local peak above the buy price. The last bar can never confirm a peak, so a
// Buy still waiting for one is emitted open.
type Breakout struct {
	NumDays int
	Horizon int
}

// NewBreakout validates the window parameters. horizon <= 0 defaults to numDays.
func NewBreakout(numDays, horizon int) (*Breakout, error) {
	if numDays <= 0 {
		return nil, errors.New("v20: num_days must be positive")
	}
	if horizon <= 0 {
		horizon = numDays
	}
	return &Breakout{NumDays: numDays, Horizon: horizon}, nil
}

func (b *Breakout) ID() ID       { return V20 }
func (b *Breakout) Kind() Kind   { return KindBreakout }
func (b *Breakout) Name() string { return string(V20) }

// Trade is a matched or open Buy/Sell pair found by Scan.
type Trade struct {
	BuyIndex  int
	SellIndex int // -1 while open
}

// Scan returns the trades found in closes.
func (b *Breakout) Scan(closes []float64) []Trade {
	var trades []Trade
	n := len(closes)
	for i := 0; i < n; i++ {
		if !b.isTrough(closes, i) {
			continue
		}
		sell := -1
		for j := i + 1; j < n-1; j++ {
			if closes[j] > closes[i] && closes[j] >= closes[j-1] && closes[j+1] < closes[j] {
				sell = j
				break
			}
		}
		trades = append(trades, Trade{BuyIndex: i, SellIndex: sell})
		if sell < 0 {
			break
		}
		i = sell
	}
	return trades
}

// isTrough needs at least one later close to confirm the low.
func (b *Breakout) isTrough(closes []float64, i int) bool {
	if i+1 >= len(closes) {
		return false
	}
	start := i - b.NumDays + 1
	if start < 0 {
		start = 0
	}
	for k := start; k < i; k++ {
		if closes[k] < closes[i] {
			return false
		}
	}
	end := i + b.Horizon
	if end > len(closes)-1 {
		end = len(closes) - 1
	}
	for k := i + 1; k <= end; k++ {
		if closes[k] < closes[i] {
			return false
		}
	}
	return true
}

// Generate emits a Buy and, when matched, a Sell signal per trade.
func (b *Breakout) Generate(symbol string, bars []model.OHLCV) ([]model.Signal, error) {
	if err := calculator.ValidateSeries(bars); err != nil {
		return nil, err
	}
	closes := calculator.Closes(bars)

	var signals []model.Signal
	for _, tr := range b.Scan(closes) {
		buy := model.Price(closes[tr.BuyIndex])
		buySig := model.Signal{
			Symbol:   symbol,
			Date:     model.Day(bars[tr.BuyIndex].Time),
			Action:   model.ActionBuy,
			Price:    buy,
			BuyPrice: decimal.NewNullDecimal(buy),
			Strategy: b.Name(),
		}
		if tr.SellIndex < 0 {
			signals = append(signals, buySig)
			continue
		}
		sell := model.Price(closes[tr.SellIndex])
		gain := decimal.NewNullDecimal(expectedGain(closes[tr.BuyIndex], closes[tr.SellIndex]))
		buySig.SellPrice = decimal.NewNullDecimal(sell)
		buySig.ExpectedGain = gain
		signals = append(signals, buySig, model.Signal{
			Symbol:       symbol,
			Date:         model.Day(bars[tr.SellIndex].Time),
			Action:       model.ActionSell,
			Price:        sell,
			BuyPrice:     decimal.NewNullDecimal(buy),
			SellPrice:    decimal.NewNullDecimal(sell),
			ExpectedGain: gain,
			Strategy:     b.Name(),
		})
	}
	return signals, nil
}

// expectedGain is the percent gain from buy to sell.
func expectedGain(buy, sell float64) decimal.Decimal {
	b := decimal.NewFromFloat(buy)
	return decimal.NewFromFloat(sell).Sub(b).Div(b).Mul(decimal.NewFromInt(100)).Round(model.GainPlaces)
}
