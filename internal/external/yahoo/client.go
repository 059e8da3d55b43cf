package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/multi"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Client handles communication with Yahoo Finance
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
// 가격 이력, 시가총액, 실시간 호가 제공자를 모두 구현
type Client struct {
	timeout time.Duration
	logger  *logger.Logger
}

// NewClient creates a new Yahoo Finance client
// timeout은 호출 단위 (초과 시 해당 종목만 실패 처리)
func NewClient(timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		timeout: timeout,
		logger:  log.WithField("module", "yahoo"),
	}
}

// History returns daily bars over period (e.g. "2y")
func (c *Client) History(ctx context.Context, symbol, period string) ([]contracts.PriceBar, error) {
	bars, err := withTimeout(ctx, c.timeout, func() ([]models.Bar, error) {
		t, err := ticker.New(symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to create ticker: %w", err)
		}
		defer t.Close()

		return t.History(models.HistoryParams{
			Period:   period,
			Interval: "1d",
		})
	})
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}

	return toPriceBars(bars), nil
}

// MarketCap returns market capitalization, nil when Yahoo reports none
func (c *Client) MarketCap(ctx context.Context, symbol string) (*float64, error) {
	raw, err := withTimeout(ctx, c.timeout, func() (int64, error) {
		t, err := ticker.New(symbol)
		if err != nil {
			return 0, fmt.Errorf("failed to create ticker: %w", err)
		}
		defer t.Close()

		info, err := t.Info()
		if err != nil || info == nil {
			return 0, err
		}
		return info.MarketCap, nil
	})
	if err != nil {
		return nil, fmt.Errorf("info %s: %w", symbol, err)
	}

	if raw <= 0 {
		return nil, nil
	}
	mcap := float64(raw)
	return &mcap, nil
}

// Quote returns the current tradable price
// 정규장 → 프리마켓 → 애프터마켓 순으로 양수 가격 사용
func (c *Client) Quote(ctx context.Context, symbol string) (float64, error) {
	prices, err := withTimeout(ctx, c.timeout, func() ([3]float64, error) {
		t, err := ticker.New(symbol)
		if err != nil {
			return [3]float64{}, fmt.Errorf("failed to create ticker: %w", err)
		}
		defer t.Close()

		quote, err := t.Quote()
		if err != nil || quote == nil {
			return [3]float64{}, err
		}
		return [3]float64{quote.RegularMarketPrice, quote.PreMarketPrice, quote.PostMarketPrice}, nil
	})
	if err != nil {
		return 0, fmt.Errorf("quote %s: %w", symbol, err)
	}

	return pickPrice(prices[0], prices[1], prices[2], symbol)
}

type batchCloses struct {
	closes map[string]float64
	failed map[string]error
}

// LastCloses downloads recent bars in one batch and returns each symbol's last close
// 상태 조회(평가)용. 주문 가격에는 Quote 사용
func (c *Client) LastCloses(ctx context.Context, symbols []string) (map[string]float64, map[string]error) {
	if len(symbols) == 0 {
		return map[string]float64{}, map[string]error{}
	}

	batch, err := withTimeout(ctx, c.timeout, func() (batchCloses, error) {
		out := batchCloses{closes: make(map[string]float64), failed: make(map[string]error)}

		params := models.DefaultDownloadParams()
		params.Symbols = symbols
		params.Period = "5d"
		params.Interval = "1d"
		result, err := multi.Download(symbols, &params)
		if err != nil {
			return out, err
		}

		for _, s := range symbols {
			if bars, ok := result.Data[s]; ok && len(bars) > 0 {
				if last := bars[len(bars)-1].Close; last > 0 {
					out.closes[s] = last
					continue
				}
			}
			if e, ok := result.Errors[s]; ok && e != nil {
				out.failed[s] = e
				continue
			}
			out.failed[s] = contracts.ErrNoPrice
		}
		return out, nil
	})
	if err != nil {
		failed := make(map[string]error, len(symbols))
		for _, s := range symbols {
			failed[s] = err
		}
		return map[string]float64{}, failed
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"priced":    len(batch.closes),
	}).Debug("Downloaded last closes")
	return batch.closes, batch.failed
}

// toPriceBars converts library bars, falling back to Close when AdjClose is absent
func toPriceBars(bars []models.Bar) []contracts.PriceBar {
	out := make([]contracts.PriceBar, 0, len(bars))
	for _, bar := range bars {
		adj := bar.AdjClose
		if adj <= 0 {
			adj = bar.Close
		}
		out = append(out, contracts.PriceBar{
			Date:     bar.Date,
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: adj,
			Volume:   int64(bar.Volume),
		})
	}
	return out
}

func pickPrice(regular, pre, post float64, symbol string) (float64, error) {
	for _, p := range []float64{regular, pre, post} {
		if p > 0 {
			return p, nil
		}
	}
	return 0, fmt.Errorf("quote %s: %w", symbol, contracts.ErrNoPrice)
}

// withTimeout runs a blocking library call under ctx and the per-call timeout
// 라이브러리가 context를 받지 않으므로 고루틴으로 감싸서 대기
func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{val: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
