package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Provider wraps a MarketDataProvider with the daily cache
// 캐시 오류는 경고만 남기고 원본 제공자로 진행
type Provider struct {
	inner  contracts.MarketDataProvider
	store  Store
	logger *logger.Logger
	now    func() time.Time
}

// NewProvider creates a caching provider
func NewProvider(inner contracts.MarketDataProvider, store Store, log *logger.Logger) *Provider {
	return &Provider{
		inner:  inner,
		store:  store,
		logger: log.WithField("module", "data_cache"),
		now:    time.Now,
	}
}

type infoEntry struct {
	MarketCap *float64 `json:"market_cap"`
}

// History returns cached bars for today, fetching on miss
func (p *Provider) History(ctx context.Context, ticker, period string) ([]contracts.PriceBar, error) {
	now := p.now()
	key := HistoryKey(now, ticker)

	var bars []contracts.PriceBar
	if p.load(ctx, key, &bars) {
		return bars, nil
	}

	bars, err := p.inner.History(ctx, ticker, period)
	if err != nil {
		return nil, err
	}
	p.save(ctx, key, bars, now)
	return bars, nil
}

// MarketCap returns cached market cap for today, fetching on miss
// nil 시가총액도 캐시 (당일 재조회 방지)
func (p *Provider) MarketCap(ctx context.Context, ticker string) (*float64, error) {
	now := p.now()
	key := InfoKey(now, ticker)

	var entry infoEntry
	if p.load(ctx, key, &entry) {
		return entry.MarketCap, nil
	}

	mcap, err := p.inner.MarketCap(ctx, ticker)
	if err != nil {
		return nil, err
	}
	p.save(ctx, key, infoEntry{MarketCap: mcap}, now)
	return mcap, nil
}

func (p *Provider) load(ctx context.Context, key string, dest interface{}) bool {
	data, found, err := p.store.Get(ctx, key)
	if err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Cache entry corrupt, refetching")
		return false
	}
	return true
}

func (p *Provider) save(ctx context.Context, key string, value interface{}, now time.Time) {
	data, err := json.Marshal(value)
	if err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Cache encode failed")
		return
	}
	if err := p.store.Set(ctx, key, data, TTLUntilMidnight(now)); err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}
