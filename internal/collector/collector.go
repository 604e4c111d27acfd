package collector

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"tradewise/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Bars   map[string][]model.OHLCV
	Prices map[string]float64
	Errors map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) record(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
}

// Calls reports how many fetches were made for symbol.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	m.record(symbol)
	if err := m.Errors[symbol]; err != nil {
		return nil, err
	}
	if m.Bars != nil {
		bars, ok := m.Bars[symbol]
		if !ok || len(bars) == 0 {
			return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
		}
		return bars, nil
	}
	return generateMockBars(m.Price, start, end), nil
}

func (m *MockFetcher) FetchCurrentPrice(_ context.Context, symbol string) (float64, error) {
	m.record(symbol)
	if err := m.Errors[symbol]; err != nil {
		return 0, err
	}
	if p, ok := m.Prices[symbol]; ok {
		return p, nil
	}
	return m.Price, nil
}

func generateMockBars(basePrice float64, start, end time.Time) []model.OHLCV {
	start, end = model.Day(start), model.Day(end)
	count := int(end.Sub(start).Hours()/24) + 1
	if count <= 0 {
		return nil
	}
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches quotes for a list of symbols from one Fetcher.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// GetQuotes fetches the daily series of every symbol in [start, end].
// A failing symbol is logged and reported in errs; it never stops the others.
// Only a cancelled context aborts the loop.
func (c *Collector) GetQuotes(ctx context.Context, symbols []string, start, end time.Time) (model.Quotes, map[string]error, error) {
	quotes := make(model.Quotes, len(symbols))
	errs := make(map[string]error)
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return quotes, errs, err
		}
		bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, start, end)
		if err != nil {
			log.Printf("[WARN] %s: fetch %s failed: %v", c.Fetcher.Name(), symbol, err)
			errs[symbol] = err
			continue
		}
		if len(bars) == 0 {
			errs[symbol] = fmt.Errorf("%s: %w", symbol, ErrNoData)
			continue
		}
		quotes[symbol] = bars
	}
	log.Printf("[INFO] %s: fetched %d/%d symbols", c.Fetcher.Name(), len(quotes), len(symbols))
	return quotes, errs, nil
}
