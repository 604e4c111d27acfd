package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"tradewise/internal/model"
	"tradewise/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

type countingPrices struct {
	prices map[string]float64
	calls  map[string]int
}

func (c *countingPrices) Price(_ context.Context, symbol string) (float64, error) {
	c.calls[symbol]++
	p, ok := c.prices[symbol]
	if !ok {
		return 0, errors.New("no quote")
	}
	return p, nil
}

func seed(t *testing.T) (*store.MemoryStore, *countingPrices) {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	buy := model.Signal{
		Symbol: "INFY", Date: today.AddDate(0, 0, -3), Action: model.ActionBuy,
		Price: model.Price(100), BuyPrice: model.NullPrice(100), Strategy: "v20", Universe: "v40",
	}
	dup := buy
	dup.Universe = "v40next"
	sell := buy
	sell.Date = today.AddDate(0, 0, -1)
	sell.Action = model.ActionSell
	sell.Price = model.Price(120)
	sell.SellPrice = model.NullPrice(120)
	old := model.Signal{
		Symbol: "TCS", Date: today.AddDate(0, 0, -30), Action: model.ActionBuy,
		Price: model.Price(40), BuyPrice: model.NullPrice(40), Strategy: "v20", Universe: "v200",
	}
	_, err := s.BulkCreateSignals(ctx, []model.Signal{buy, dup, sell, old})
	require.NoError(t, err)
	require.NoError(t, s.CreateLTH(ctx, model.LTHRecord{
		Symbol: "INFY", Price: decimal.NewFromInt(200), Date: today.AddDate(-1, 0, 0), LastUpdated: today,
	}))
	return s, &countingPrices{prices: map[string]float64{"INFY": 150, "TCS": 50}, calls: map[string]int{}}
}

func newLister(s *store.MemoryStore, p PriceSource) *Lister {
	l := NewLister(s, s, p)
	l.now = func() time.Time { return today.Add(10 * time.Hour) }
	return l
}

func TestList_DedupesAndFlagsNew(t *testing.T) {
	s, prices := seed(t)
	rows, err := newLister(s, prices).List(context.Background(), Options{NewWithinDays: 7})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, model.ActionSell, rows[0].Signal.Action)
	assert.Equal(t, "v40", rows[1].Signal.Universe, "first seen duplicate kept")
	assert.True(t, rows[1].IsNew)
	assert.False(t, rows[2].IsNew)
	assert.True(t, rows[1].LTHOK)
	assert.False(t, rows[1].DistanceOK, "no live price, no distance")
	assert.Empty(t, prices.calls)
}

func TestList_LiveAnnotations(t *testing.T) {
	s, prices := seed(t)
	rows, err := newLister(s, prices).List(context.Background(), Options{Live: true, NearThresholdPct: 10})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	infy := rows[1]
	assert.True(t, infy.CurrentOK)
	assert.Equal(t, 50.0, infy.ChangePct)
	assert.True(t, infy.DistanceOK)
	assert.Equal(t, -25.0, infy.Distance)
	assert.False(t, infy.Near)

	tcs := rows[2]
	assert.Equal(t, 25.0, tcs.ChangePct)
	assert.False(t, tcs.DistanceOK, "missing LTH is unavailable")

	assert.Equal(t, 1, prices.calls["INFY"], "one lookup per symbol")
}

func TestList_BelowLTHFilter(t *testing.T) {
	s, prices := seed(t)
	l := newLister(s, prices)

	rows, err := l.List(context.Background(), Options{Live: true, BelowLTHPct: 20})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "INFY", r.Signal.Symbol)
	}

	rows, err = l.List(context.Background(), Options{Live: true, BelowLTHPct: 30})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestList_PriceFailureIsUnavailable(t *testing.T) {
	s, prices := seed(t)
	delete(prices.prices, "INFY")
	rows, err := newLister(s, prices).List(context.Background(), Options{Live: true, Filter: store.SignalFilter{Symbol: "INFY"}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].CurrentOK)
	assert.False(t, rows[0].ChangeOK)
	assert.Equal(t, 1, prices.calls["INFY"], "failures are memoised too")
}

func TestWriteSignals(t *testing.T) {
	s, prices := seed(t)
	rows, err := newLister(s, prices).List(context.Background(), Options{Live: true, NewWithinDays: 7, NearThresholdPct: 10})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSignals(&buf, rows))
	out := buf.String()
	assert.Contains(t, out, "FROM LTH")
	assert.Contains(t, out, "-25.00%")
	assert.Contains(t, out, "2024-03-17")
}

func TestWriteLTH(t *testing.T) {
	var buf bytes.Buffer
	recs := []model.LTHRecord{
		{Symbol: "INFY", Price: decimal.RequireFromString("200.5"), Date: today, LastUpdated: today},
		{Symbol: "TCS", Price: decimal.NewFromInt(10), Date: today, LastUpdated: today, Universe: "v40"},
	}
	require.NoError(t, WriteLTH(&buf, recs, map[string]float64{"INFY": -5}))
	out := buf.String()
	assert.Contains(t, out, "200.5000")
	assert.Contains(t, out, "-5.00%")
	assert.Contains(t, out, "v40")
}
