package collector

import (
	"context"
	"fmt"
	"time"

	"tradewise/internal/model"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
)

const polygonPageLimit = 50000

// PolygonFetcher implements Fetcher using Polygon.io daily aggregates.
type PolygonFetcher struct {
	client *polygon.Client
}

// NewPolygonFetcher creates a Polygon client, routed through proxyURL when set.
func NewPolygonFetcher(apiKey, proxyURL string) *PolygonFetcher {
	return &PolygonFetcher{client: polygon.NewWithClient(apiKey, newHTTPClient(proxyURL))}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

func (f *PolygonFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   models.Timespan("day"),
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.
		WithAdjusted(true).
		WithOrder(models.Order("asc")).
		WithLimit(polygonPageLimit)

	it := f.client.ListAggs(ctx, params)
	var bars []model.OHLCV
	for it.Next() {
		agg := it.Item()
		bars = append(bars, model.OHLCV{
			Time:   time.UnixMilli(time.Time(agg.Timestamp).UnixMilli()).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("polygon aggs %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("polygon %s: %w", symbol, ErrNoData)
	}
	return normalize(bars), nil
}

// FetchCurrentPrice returns the latest daily close; the free tier has no
// real-time trade endpoint.
func (f *PolygonFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	end := time.Now().UTC()
	bars, err := f.FetchDailyBars(ctx, symbol, end.AddDate(0, 0, -7), end)
	if err != nil {
		return 0, err
	}
	return bars[len(bars)-1].Close, nil
}
