package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action is the side of a trading signal.
type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Sell"
)

// ParseAction accepts "buy"/"sell" in any case.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return ActionBuy, nil
	case "sell":
		return ActionSell, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Price and gain precision used by the signal store.
const (
	PricePlaces = 2
	GainPlaces  = 2
)

// Signal is a single Buy or Sell event emitted by a strategy.
//
// BuyPrice and SellPrice describe the trade the event belongs to: a breakout
// Buy still waiting for its peak has an invalid SellPrice, and a moving-average
// event only fills the side it represents.
type Signal struct {
	ID           int64
	Symbol       string
	Date         time.Time
	Action       Action
	Price        decimal.Decimal
	BuyPrice     decimal.NullDecimal
	SellPrice    decimal.NullDecimal
	ExpectedGain decimal.NullDecimal
	Strategy     string
	Universe     string
}

// SignalKey is the de-facto uniqueness key of a stored signal.
type SignalKey struct {
	Symbol    string
	Date      string
	BuyPrice  string
	SellPrice string
}

// Key returns the dedup key of s.
func (s Signal) Key() SignalKey {
	return SignalKey{
		Symbol:    s.Symbol,
		Date:      s.Date.Format("2006-01-02"),
		BuyPrice:  nullString(s.BuyPrice),
		SellPrice: nullString(s.SellPrice),
	}
}

func (s Signal) String() string {
	return fmt.Sprintf("%s %s %s @ %s", s.Symbol, s.Date.Format("2006-01-02"), s.Action, s.Price.StringFixed(PricePlaces))
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "null"
	}
	return d.Decimal.StringFixed(PricePlaces)
}

// Price rounds a raw float price to store precision.
func Price(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(PricePlaces)
}

// NullPrice is Price wrapped as a valid NullDecimal.
func NullPrice(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(Price(v))
}
