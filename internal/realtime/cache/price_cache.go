package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/realtime"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// PriceCache is an in-memory cache for live prices
// ⭐ SSOT: 실시간 가격 캐싱은 이 구조체에서만
// 한 번의 실행 안에서 여러 사이클이 같은 시세를 재사용
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]*realtime.PriceTick
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

// CacheStats represents cache statistics
type CacheStats struct {
	TotalCount int `json:"total_count"`
	StaleCount int `json:"stale_count"`
	YahooCount int `json:"yahoo_count"`
	FillCount  int `json:"fill_count"`
}

// NewPriceCache creates a new price cache
func NewPriceCache(ttl time.Duration, log *logger.Logger) *PriceCache {
	return &PriceCache{
		prices: make(map[string]*realtime.PriceTick),
		ttl:    ttl,
		logger: log.WithField("module", "price_cache"),
		now:    time.Now,
	}
}

// Update stores tick unless the cached one is newer
// 같은 시각이면 우선순위가 높은 소스만 수용
func (c *PriceCache) Update(tick *realtime.PriceTick) bool {
	if tick == nil || tick.Price <= 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.prices[tick.Ticker]; ok {
		if tick.Timestamp.Before(existing.Timestamp) {
			c.logger.WithFields(map[string]interface{}{
				"ticker":   tick.Ticker,
				"new_time": tick.Timestamp,
				"old_time": existing.Timestamp,
			}).Debug("Rejected older price data")
			return false
		}
		if tick.Timestamp.Equal(existing.Timestamp) &&
			realtime.PriceSource(tick.Source).Priority() <= realtime.PriceSource(existing.Source).Priority() {
			return false
		}
	}

	copied := *tick
	copied.IsStale = c.now().Sub(tick.Timestamp) > c.ttl
	c.prices[tick.Ticker] = &copied
	return true
}

// Get returns a copy of the cached tick with staleness evaluated now
func (c *PriceCache) Get(ticker string) (realtime.PriceTick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tick, ok := c.prices[ticker]
	if !ok {
		return realtime.PriceTick{}, false
	}
	out := *tick
	out.IsStale = c.now().Sub(tick.Timestamp) > c.ttl
	return out, true
}

// Fresh returns the price if cached and not stale
func (c *PriceCache) Fresh(ticker string) (float64, bool) {
	tick, ok := c.Get(ticker)
	if !ok || tick.IsStale {
		return 0, false
	}
	return tick.Price, true
}

// Quote implements contracts.QuoteProvider over fresh cached prices
func (c *PriceCache) Quote(_ context.Context, ticker string) (float64, error) {
	if price, ok := c.Fresh(ticker); ok {
		return price, nil
	}
	return 0, fmt.Errorf("%s: %w", ticker, contracts.ErrNoPrice)
}

// Prices returns fresh prices for tickers
func (c *PriceCache) Prices(tickers []string) map[string]float64 {
	out := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		if price, ok := c.Fresh(t); ok {
			out[t] = price
		}
	}
	return out
}

// Len returns the number of prices in cache
func (c *PriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prices)
}

// Clear clears all prices from cache
func (c *PriceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prices = make(map[string]*realtime.PriceTick)
	c.logger.Info("Cleared price cache")
}

// CleanStale removes stale prices from cache
func (c *PriceCache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for ticker, tick := range c.prices {
		if now.Sub(tick.Timestamp) > c.ttl {
			delete(c.prices, ticker)
			count++
		}
	}
	if count > 0 {
		c.logger.WithField("count", count).Info("Cleaned stale prices from cache")
	}
	return count
}

// Stats returns cache statistics
func (c *PriceCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{TotalCount: len(c.prices)}
	now := c.now()
	for _, tick := range c.prices {
		if now.Sub(tick.Timestamp) > c.ttl {
			stats.StaleCount++
		}
		switch realtime.PriceSource(tick.Source) {
		case realtime.SourceYahoo:
			stats.YahooCount++
		case realtime.SourceFill:
			stats.FillCount++
		}
	}
	return stats
}
