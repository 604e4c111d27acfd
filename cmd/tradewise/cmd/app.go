package cmd

import (
	"fmt"
	"io"
	"log"

	"tradewise/internal/batch"
	"tradewise/internal/collector"
	"tradewise/internal/config"
	"tradewise/internal/metrics"
	"tradewise/internal/notifier"
	"tradewise/internal/store"

	"github.com/prometheus/client_golang/prometheus"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg      *config.Config
	store    store.Store
	fetcher  collector.Fetcher
	prices   *collector.PriceSource
	notifier *notifier.TelegramNotifier
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	closers []io.Closer
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	fetcher, err := collector.NewFetcher(collector.Source{
		Provider: cfg.DataSource.Provider,
		BaseURL:  cfg.DataSource.BaseURL,
		APIKey:   cfg.DataSource.APIKey,
		Proxy:    cfg.Proxy,
	})
	if err != nil {
		return nil, fmt.Errorf("init data source: %w", err)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	st, err := store.Open(cfg.Database.Driver, cfg.Database.SQLitePath, cfg.Database.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{cfg: cfg, store: st, fetcher: fetcher, closers: []io.Closer{st}}

	var cache collector.PriceCache = collector.NewMemoryCache()
	if cfg.Cache.RedisAddr != "" {
		rc, err := collector.NewRedisCache(cfg.Cache.RedisAddr)
		if err != nil {
			log.Printf("[WARN] redis price cache unavailable, using memory: %v", err)
		} else {
			cache = rc
			a.closers = append(a.closers, rc)
		}
	}
	a.prices = &collector.PriceSource{Fetcher: fetcher, Cache: cache, TTL: cfg.Cache.PriceTTL}

	if cfg.Telegram.BotToken != "" {
		a.notifier = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.New(a.registry)
	return a, nil
}

func (a *app) runner() *batch.Runner {
	opts := []batch.Option{batch.WithMetrics(a.metrics)}
	if a.notifier != nil {
		opts = append(opts, batch.WithNotifier(a.notifier))
	}
	return batch.NewRunner(a.cfg, collector.NewCollector(a.fetcher), a.store, opts...)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("[WARN] close: %v", err)
		}
	}
}
