package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"tradewise/internal/model"
)

// ErrNoData is returned when a source has no bars for the requested window.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	FetchCurrentPrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}

// Source selects and configures a Fetcher.
type Source struct {
	Provider string // yahoo, polygon, rest or mock
	BaseURL  string
	APIKey   string
	Proxy    string
}

// NewFetcher builds the Fetcher named by src.Provider.
func NewFetcher(src Source) (Fetcher, error) {
	switch src.Provider {
	case "", "yahoo":
		f := NewYahooFetcher(src.Proxy)
		if src.BaseURL != "" {
			f.BaseURL = src.BaseURL
		}
		return f, nil
	case "polygon":
		if src.APIKey == "" {
			return nil, fmt.Errorf("polygon provider requires an api key")
		}
		return NewPolygonFetcher(src.APIKey, src.Proxy), nil
	case "rest":
		if src.BaseURL == "" {
			return nil, fmt.Errorf("rest provider requires a base url")
		}
		return NewRESTFetcher(src.BaseURL, src.APIKey, src.Proxy), nil
	case "mock":
		return &MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", src.Provider)
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// normalize sorts bars by day and keeps the last bar seen for any repeated day.
func normalize(bars []model.OHLCV) []model.OHLCV {
	for i := range bars {
		bars[i].Time = model.Day(bars[i].Time)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
