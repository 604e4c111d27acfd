package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LTHPlaces is the precision at which life-time-high prices are stored.
const LTHPlaces = 4

// LTHRecord holds the highest close ever observed for a symbol.
type LTHRecord struct {
	Symbol      string
	Price       decimal.Decimal
	Date        time.Time
	Universe    string // empty when unknown
	LastUpdated time.Time
}

// Outcome classifies the effect of a single LTH update.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeCreated
	OutcomeUpdated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}
