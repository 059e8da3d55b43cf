package collector

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Collector acquires price history and market cap for the universe
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	provider contracts.MarketDataProvider
	limiter  *rate.Limiter
	logger   *logger.Logger
	now      func() time.Time
}

// Config holds collector configuration
type Config struct {
	Workers        int     // Number of concurrent workers
	RequestsPerSec float64 // 0 = 제한 없음
	Period         string  // 이력 기간 (예: "2y")
}

// NewCollector creates a new Collector instance
func NewCollector(provider contracts.MarketDataProvider, cfg Config, log *logger.Logger) *Collector {
	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		burst := int(cfg.RequestsPerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), burst)
	}

	return &Collector{
		provider: provider,
		limiter:  limiter,
		logger:   log.WithField("module", "collector"),
		now:      time.Now,
	}
}

// FetchResult represents the result of one ticker's fetch
type FetchResult struct {
	Ticker     string
	PriceCount int
	MarketCap  *float64
	HistoryErr error
	InfoErr    error
}

// Failed reports whether any call for the ticker failed
func (r FetchResult) Failed() bool {
	return r.HistoryErr != nil || r.InfoErr != nil
}

// Collect fetches history and market cap for every entry
// 종목 단위 실패는 경고 후 해당 데이터 없이 진행 (사이클 중단 없음)
func (c *Collector) Collect(ctx context.Context, entries []contracts.UniverseEntry, cfg Config) (*contracts.MarketData, []FetchResult, error) {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker_count": len(entries),
		"period":       cfg.Period,
		"workers":      workers,
	}).Info("Starting market data collection")

	results := make([]FetchResult, len(entries))
	bars := make([][]contracts.PriceBar, len(entries))

	// 종목별 실패는 결과에 기록, 그룹 에러로 전파하지 않음 (인덱스별 기록이라 잠금 불필요)
	var g errgroup.Group
	g.SetLimit(workers)
	for i, e := range entries {
		i, ticker := i, e.Ticker
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = FetchResult{Ticker: ticker, HistoryErr: err, InfoErr: err}
				return nil
			}
			results[i], bars[i] = c.fetchOne(ctx, ticker, cfg.Period)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, results, fmt.Errorf("collect market data: %w", err)
	}

	data := &contracts.MarketData{
		AsOf:     c.now(),
		Universe: make([]contracts.UniverseEntry, len(entries)),
		Prices:   make(map[string]contracts.PriceSeries, len(entries)),
	}

	failCount := 0
	for i, e := range entries {
		e.MarketCap = results[i].MarketCap
		data.Universe[i] = e
		if len(bars[i]) > 0 {
			data.Prices[e.Ticker] = contracts.NewPriceSeries(e.Ticker, bars[i])
		}
		if results[i].Failed() {
			failCount++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success": len(entries) - failCount,
		"failed":  failCount,
		"priced":  len(data.Prices),
	}).Info("Market data collection completed")

	return data, results, nil
}

// fetchOne fetches history and market cap for a single ticker
func (c *Collector) fetchOne(ctx context.Context, ticker, period string) (FetchResult, []contracts.PriceBar) {
	result := FetchResult{Ticker: ticker}
	var bars []contracts.PriceBar

	if err := c.wait(ctx); err != nil {
		result.HistoryErr, result.InfoErr = err, err
		return result, nil
	}
	history, err := c.provider.History(ctx, ticker, period)
	if err != nil {
		result.HistoryErr = err
		c.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to fetch price history")
	} else {
		bars = history
		result.PriceCount = len(history)
	}

	if err := c.wait(ctx); err != nil {
		result.InfoErr = err
		return result, bars
	}
	mcap, err := c.provider.MarketCap(ctx, ticker)
	if err != nil {
		result.InfoErr = err
		c.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to fetch market cap")
	} else {
		result.MarketCap = mcap
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"bars":   result.PriceCount,
	}).Debug("Fetched market data")

	return result, bars
}

func (c *Collector) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}
