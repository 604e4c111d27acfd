package strategy

import (
	"testing"
	"time"

	"tradewise/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sig(symbol string, day int, buy float64, sell *float64, gain *float64, universe string) model.Signal {
	s := model.Signal{
		Symbol:   symbol,
		Date:     time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC),
		Action:   model.ActionBuy,
		Price:    model.Price(buy),
		BuyPrice: model.NullPrice(buy),
		Strategy: "v20",
		Universe: universe,
	}
	if sell != nil {
		s.SellPrice = model.NullPrice(*sell)
	}
	if gain != nil {
		s.ExpectedGain = decimal.NewNullDecimal(decimal.NewFromFloat(*gain))
	}
	return s
}

func f(v float64) *float64 { return &v }

func TestDedupe_CollapsesSameKey(t *testing.T) {
	in := []model.Signal{
		sig("ABC", 1, 10, f(12), f(20), "v40"),
		sig("ABC", 1, 10, f(12), f(20), "v40next"),
		sig("XYZ", 2, 5, nil, nil, "v40"),
		sig("ABC", 1, 10, f(12), f(20), "v200"),
	}
	out := Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "ABC", out[0].Symbol)
	assert.Equal(t, "v40", out[0].Universe, "first seen wins a full tie")
	assert.Equal(t, "XYZ", out[1].Symbol)
}

func TestDedupe_TieBreakOnGain(t *testing.T) {
	in := []model.Signal{
		sig("ABC", 1, 10, f(12), nil, "a"),
		sig("ABC", 1, 10, f(12), f(20), "b"),
		sig("ABC", 1, 10, f(12), f(15), "c"),
	}
	out := Dedupe(in)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].Universe)
}

func TestDedupe_OpenAndClosedAreDistinct(t *testing.T) {
	in := []model.Signal{
		sig("ABC", 1, 10, nil, nil, "a"),
		sig("ABC", 1, 10, f(12), f(20), "b"),
	}
	assert.Len(t, Dedupe(in), 2)
}

func TestCompareNull(t *testing.T) {
	one := decimal.NewNullDecimal(decimal.NewFromInt(1))
	two := decimal.NewNullDecimal(decimal.NewFromInt(2))
	null := decimal.NullDecimal{}
	assert.Equal(t, 0, compareNull(null, null))
	assert.Equal(t, -1, compareNull(null, one))
	assert.Equal(t, 1, compareNull(one, null))
	assert.Equal(t, -1, compareNull(one, two))
}
