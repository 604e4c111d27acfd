package strategy

import (
	"errors"
	"fmt"
	"strings"

	"tradewise/internal/model"
)

// ID enumerates the supported strategies.
type ID string

const (
	V20     ID = "v20"
	MACross ID = "ma_cross"
)

// Kind groups strategies by the batch job that runs them.
type Kind string

const (
	KindBreakout      Kind = "breakout"
	KindMovingAverage Kind = "moving_average"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseID resolves a configured strategy name.
func ParseID(name string) (ID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "v20", "breakout":
		return V20, nil
	case "ma_cross", "ma", "movingaverage", "moving_average":
		return MACross, nil
	}
	return "", fmt.Errorf("%w %q (supported: v20, ma_cross)", ErrUnknownStrategy, name)
}

// Params carries every tunable a strategy may read.
type Params struct {
	NumDays      int
	Horizon      int
	ShortWindow  int
	LongWindow   int
	InterestFile string
}

// Strategy turns one symbol's daily series into signals.
type Strategy interface {
	ID() ID
	Kind() Kind
	Name() string
	Generate(symbol string, bars []model.OHLCV) ([]model.Signal, error)
}

// New builds the strategy identified by id.
func New(id ID, p Params) (Strategy, error) {
	switch id {
	case V20:
		return NewBreakout(p.NumDays, p.Horizon)
	case MACross:
		ma, err := NewMACrossover(p.ShortWindow, p.LongWindow)
		if err != nil {
			return nil, err
		}
		if p.InterestFile != "" {
			interest, err := LoadInterest(p.InterestFile)
			if err != nil {
				return nil, err
			}
			ma.Interest = interest
		}
		return ma, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownStrategy, id)
}

// Run applies every strategy to one symbol. Any failure discards the
// symbol's whole output.
func Run(strategies []Strategy, symbol, universe string, bars []model.OHLCV) ([]model.Signal, error) {
	var out []model.Signal
	for _, s := range strategies {
		signals, err := s.Generate(symbol, bars)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
		for i := range signals {
			signals[i].Universe = universe
		}
		out = append(out, signals...)
	}
	return out, nil
}
