package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// PriceCache stores recent prices by symbol.
type PriceCache interface {
	Get(ctx context.Context, symbol string) (float64, bool, error)
	Set(ctx context.Context, symbol string, price float64, ttl time.Duration) error
}

type cachedPrice struct {
	price   float64
	expires time.Time
}

// MemoryCache is an in-process PriceCache.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]cachedPrice
	now   func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]cachedPrice), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, symbol string) (float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[symbol]
	if !ok {
		return 0, false, nil
	}
	if c.now().After(item.expires) {
		delete(c.items, symbol)
		return 0, false, nil
	}
	return item.price, true, nil
}

func (c *MemoryCache) Set(_ context.Context, symbol string, price float64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[symbol] = cachedPrice{price: price, expires: c.now().Add(ttl)}
	return nil
}

// RedisCache is a PriceCache shared across processes.
type RedisCache struct {
	client *goredis.Client
	prefix string
}

// NewRedisCache connects to addr and pings the server.
func NewRedisCache(addr string) (*RedisCache, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{client: client, prefix: "tradewise:price:"}, nil
}

func (c *RedisCache) Get(ctx context.Context, symbol string) (float64, bool, error) {
	v, err := c.client.Get(ctx, c.prefix+symbol).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get %s: %w", symbol, err)
	}
	p, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis price %s: %w", symbol, err)
	}
	return p, true, nil
}

func (c *RedisCache) Set(ctx context.Context, symbol string, price float64, ttl time.Duration) error {
	v := strconv.FormatFloat(price, 'f', -1, 64)
	if err := c.client.Set(ctx, c.prefix+symbol, v, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", symbol, err)
	}
	return nil
}

// Close releases the connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }

// PriceSource serves current prices through a cache.
type PriceSource struct {
	Fetcher Fetcher
	Cache   PriceCache
	TTL     time.Duration
}

// Price returns the cached price for symbol, fetching it on a miss.
// Cache failures fall through to the fetcher.
func (s *PriceSource) Price(ctx context.Context, symbol string) (float64, error) {
	if s.Cache != nil {
		if p, ok, err := s.Cache.Get(ctx, symbol); err == nil && ok {
			return p, nil
		}
	}
	p, err := s.Fetcher.FetchCurrentPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if s.Cache != nil && p > 0 {
		if err := s.Cache.Set(ctx, symbol, p, s.TTL); err != nil {
			log.Printf("[WARN] cache price %s: %v", symbol, err)
		}
	}
	return p, nil
}
