package strategy

import (
	"errors"
	"fmt"

	"tradewise/internal/calculator"
	"tradewise/internal/model"

	"github.com/shopspring/decimal"
)

// MACrossover emits a Buy when the short SMA crosses above the long SMA and a
// Sell when it crosses below. When Interest is set, Sell signals are kept
// only for the listed symbols.
type MACrossover struct {
	ShortWindow int
	LongWindow  int
	Interest    map[string]bool
}

// NewMACrossover validates the window lengths.
func NewMACrossover(short, long int) (*MACrossover, error) {
	if short <= 0 || long <= 0 {
		return nil, errors.New("ma_cross: windows must be positive")
	}
	if short >= long {
		return nil, fmt.Errorf("ma_cross: short window %d must be below long window %d", short, long)
	}
	return &MACrossover{ShortWindow: short, LongWindow: long}, nil
}

func (m *MACrossover) ID() ID       { return MACross }
func (m *MACrossover) Kind() Kind   { return KindMovingAverage }
func (m *MACrossover) Name() string { return string(MACross) }

// Generate scans bars for crossovers. Days without a long average are
// skipped, so a series shorter than LongWindow+1 yields nothing.
func (m *MACrossover) Generate(symbol string, bars []model.OHLCV) ([]model.Signal, error) {
	if err := calculator.ValidateSeries(bars); err != nil {
		return nil, err
	}
	closes := calculator.Closes(bars)
	short, shortOK, err := calculator.SMASeries(closes, m.ShortWindow)
	if err != nil {
		return nil, err
	}
	long, longOK, err := calculator.SMASeries(closes, m.LongWindow)
	if err != nil {
		return nil, err
	}

	var signals []model.Signal
	for i := 1; i < len(closes); i++ {
		if !longOK[i-1] || !shortOK[i-1] {
			continue
		}
		var action model.Action
		switch {
		case short[i-1] <= long[i-1] && short[i] > long[i]:
			action = model.ActionBuy
		case short[i-1] >= long[i-1] && short[i] < long[i]:
			action = model.ActionSell
		default:
			continue
		}
		if action == model.ActionSell && m.Interest != nil && !m.Interest[symbol] {
			continue
		}
		price := model.Price(closes[i])
		sig := model.Signal{
			Symbol:   symbol,
			Date:     model.Day(bars[i].Time),
			Action:   action,
			Price:    price,
			Strategy: m.Name(),
		}
		if action == model.ActionBuy {
			sig.BuyPrice = decimal.NewNullDecimal(price)
		} else {
			sig.SellPrice = decimal.NewNullDecimal(price)
		}
		signals = append(signals, sig)
	}
	return signals, nil
}
