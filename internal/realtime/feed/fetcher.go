package feed

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/realtime"
	"github.com/wonny/momentum/backend/internal/realtime/cache"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// QuoteFetcher fans out live quote requests with bounded concurrency
// ⭐ SSOT: 실시간 시세 조회는 여기서만
// 종목별 실패는 격리 (하나의 실패가 다른 요청을 취소하지 않음)
type QuoteFetcher struct {
	provider    contracts.QuoteProvider
	cache       *cache.PriceCache
	limiter     *rate.Limiter
	concurrency int
	timeout     time.Duration
	logger      *logger.Logger
	now         func() time.Time
}

// Config holds fan-out settings
type Config struct {
	Concurrency    int
	RequestsPerSec float64
	Timeout        time.Duration // 종목별 제한 시간
}

// NewQuoteFetcher creates a fetcher; priceCache may be nil
func NewQuoteFetcher(provider contracts.QuoteProvider, priceCache *cache.PriceCache, cfg Config, log *logger.Logger) *QuoteFetcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Concurrency)
	}
	return &QuoteFetcher{
		provider:    provider,
		cache:       priceCache,
		limiter:     limiter,
		concurrency: cfg.Concurrency,
		timeout:     cfg.Timeout,
		logger:      log.WithField("module", "quote_fetcher"),
		now:         time.Now,
	}
}

// Fetch returns live prices for tickers
// ctx 취소 시에만 에러 반환
func (f *QuoteFetcher) Fetch(ctx context.Context, tickers []string) (*realtime.FetchResult, error) {
	result := &realtime.FetchResult{
		Prices: make(map[string]float64, len(tickers)),
		Failed: make(map[string]error),
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(f.concurrency)

	seen := make(map[string]bool, len(tickers))
	cached := 0
	for _, ticker := range tickers {
		if seen[ticker] {
			continue
		}
		seen[ticker] = true

		if f.cache != nil {
			if price, ok := f.cache.Fresh(ticker); ok {
				result.Prices[ticker] = price
				cached++
				continue
			}
		}

		ticker := ticker
		g.Go(func() error {
			price, err := f.fetchOne(ctx, ticker)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[ticker] = err
				return nil
			}
			result.Prices[ticker] = price
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	for ticker, err := range result.Failed {
		f.logger.WithError(err).WithField("ticker", ticker).Warn("Live quote unavailable")
	}
	f.logger.WithFields(map[string]interface{}{
		"requested": len(seen),
		"cached":    cached,
		"priced":    len(result.Prices),
		"failed":    len(result.Failed),
	}).Info("Live quotes fetched")
	return result, nil
}

func (f *QuoteFetcher) fetchOne(ctx context.Context, ticker string) (float64, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	price, err := f.provider.Quote(ctx, ticker)
	if err != nil {
		return 0, err
	}
	if price <= 0 {
		return 0, contracts.ErrNoPrice
	}

	if f.cache != nil {
		f.cache.Update(&realtime.PriceTick{
			Ticker:    ticker,
			Price:     price,
			Timestamp: f.now(),
			Source:    string(realtime.SourceYahoo),
		})
	}
	return price, nil
}
