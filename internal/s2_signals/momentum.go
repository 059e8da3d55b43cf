package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// MomentumCalculator calculates lagged momentum
// ⭐ SSOT: 모멘텀 시그널 계산은 여기서만
type MomentumCalculator struct {
	logger *logger.Logger
}

// NewMomentumCalculator creates a new momentum calculator
func NewMomentumCalculator(log *logger.Logger) *MomentumCalculator {
	return &MomentumCalculator{
		logger: log.WithField("module", "s2_momentum"),
	}
}

// Momentum returns p[n-1-lag] / p[n-1-lookback] - 1 over a resampled price sequence
// lookback-lag 기간 수익률, 최근 lag 기간 제외
func Momentum(prices []float64, lookback, lag int) (float64, error) {
	if lag < 0 || lookback-lag < 1 {
		return 0, fmt.Errorf("%w: lookback - lag must be >= 1 (lookback=%d, lag=%d)",
			contracts.ErrInvalidConfig, lookback, lag)
	}

	n := len(prices)
	if n < lookback+1 {
		return 0, fmt.Errorf("%w: need %d periods, have %d", contracts.ErrInsufficientHistory, lookback+1, n)
	}

	recent := prices[n-1-lag]
	base := prices[n-1-lookback]
	if base <= 0 || math.IsNaN(base) || math.IsNaN(recent) {
		return 0, fmt.Errorf("%w: undefined base price", contracts.ErrInsufficientHistory)
	}
	return recent/base - 1, nil
}

// Calculate computes the momentum of one ticker at timeframe granularity
func (c *MomentumCalculator) Calculate(series contracts.PriceSeries, tf contracts.Timeframe, lookback, lag int) (float64, error) {
	return Momentum(Prices(Resample(series, tf)), lookback, lag)
}

// CalculateAll computes momentum for tickers in order, dropping undefined values
// 반환: 계산된 모멘텀, 제외 종목(사유)
// 설정 오류는 즉시 반환 (사이클 중단)
func (c *MomentumCalculator) CalculateAll(data *contracts.MarketData, tickers []string, tf contracts.Timeframe, lookback, lag int) (map[string]float64, map[string]error, error) {
	if lag < 0 || lookback-lag < 1 {
		return nil, nil, fmt.Errorf("%w: lookback - lag must be >= 1 (lookback=%d, lag=%d)",
			contracts.ErrInvalidConfig, lookback, lag)
	}

	scores := make(map[string]float64, len(tickers))
	dropped := make(map[string]error)

	for _, ticker := range tickers {
		series, ok := data.Series(ticker)
		if !ok {
			dropped[ticker] = fmt.Errorf("%w: no price history", contracts.ErrInsufficientHistory)
			continue
		}
		m, err := c.Calculate(series, tf, lookback, lag)
		if err != nil {
			dropped[ticker] = err
			continue
		}
		scores[ticker] = m
	}

	for ticker, err := range dropped {
		c.logger.WithError(err).WithField("ticker", ticker).Debug("Momentum undefined, ticker dropped")
	}
	c.logger.WithFields(map[string]interface{}{
		"timeframe": tf,
		"lookback":  lookback,
		"lag":       lag,
		"computed":  len(scores),
		"dropped":   len(dropped),
	}).Info("Momentum calculated")

	return scores, dropped, nil
}
