package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
	"github.com/wonny/momentum/backend/pkg/stats"
)

// Engine estimates the risk of a target book from the run's price history
// ⭐ SSOT: 포트폴리오 리스크 산출은 여기서만 (주문에는 영향 없음)
type Engine struct {
	config Config
	logger *logger.Logger
}

// NewEngine creates a risk engine
func NewEngine(cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		config: cfg,
		logger: log.WithField("module", "risk"),
	}
}

// Weights returns the equal-slot weights of a target: +1/n per long, -1/n per short
// n = longs + shorts (주문 계산과 같은 슬롯 규칙)
func Weights(target *contracts.TargetPortfolio) map[string]float64 {
	slots := len(target.Longs) + len(target.Shorts)
	weights := make(map[string]float64, slots)
	if slots == 0 {
		return weights
	}
	w := 1.0 / float64(slots)
	for _, t := range target.Longs {
		weights[t] += w
	}
	for _, t := range target.Shorts {
		weights[t] -= w
	}
	return weights
}

// PortfolioReturns returns daily weighted returns over the last lookback days
// on which every weighted ticker has a close
func PortfolioReturns(weights map[string]float64, data *contracts.MarketData, lookback int) ([]float64, error) {
	if len(weights) == 0 {
		return []float64{}, nil
	}

	closes := make(map[string]map[string]float64, len(weights))
	counts := make(map[string]int)
	for ticker := range weights {
		series, ok := data.Series(ticker)
		if !ok {
			return nil, fmt.Errorf("%w: no history for %s", ErrInsufficientData, ticker)
		}
		byDay := make(map[string]float64, series.Len())
		for _, b := range series.Bars {
			day := b.Date.Format("2006-01-02")
			if _, dup := byDay[day]; !dup {
				counts[day]++
			}
			byDay[day] = b.AdjClose
		}
		closes[ticker] = byDay
	}

	// 모든 종목이 거래된 날짜만 사용
	var days []string
	for day, n := range counts {
		if n == len(weights) {
			days = append(days, day)
		}
	}
	sort.Strings(days)
	if lookback > 0 && len(days) > lookback+1 {
		days = days[len(days)-lookback-1:]
	}
	if len(days) < 2 {
		return []float64{}, nil
	}

	out := make([]float64, 0, len(days)-1)
	for i := 1; i < len(days); i++ {
		var r float64
		for ticker, w := range weights {
			prev, cur := closes[ticker][days[i-1]], closes[ticker][days[i]]
			r += w * (cur/prev - 1)
		}
		out = append(out, r)
	}
	return out, nil
}

// Assess builds the risk snapshot of target held for holdingDays
func (e *Engine) Assess(target *contracts.TargetPortfolio, data *contracts.MarketData, holdingDays int) (*contracts.RiskSnapshot, error) {
	weights := Weights(target)
	snap := &contracts.RiskSnapshot{
		Confidence:  e.config.Confidence,
		HoldingDays: holdingDays,
	}
	for _, w := range weights {
		snap.GrossExposure += math.Abs(w)
		snap.NetExposure += w
	}
	if len(weights) == 0 {
		return snap, nil
	}

	returns, err := PortfolioReturns(weights, data, e.config.LookbackDays)
	if err != nil {
		return nil, err
	}
	if len(returns) < e.config.MinSamples {
		return nil, fmt.Errorf("%w: %d aligned returns, need %d", ErrInsufficientData, len(returns), e.config.MinSamples)
	}
	snap.Samples = len(returns)

	hist := CalculateVaR(returns, e.config.Confidence)
	snap.VaR = hist.VaR
	snap.CVaR = hist.CVaR
	snap.DailyVolatility = stats.StdDev(returns)
	snap.ParametricVaR = CalculateParametricVaR(stats.Mean(returns), snap.DailyVolatility, e.config.Confidence).VaR

	snap.HoldingVaR = hist.VaR
	if holdingDays > 1 {
		paths := Bootstrap(returns, holdingDays, e.config.Simulations, e.config.Seed)
		snap.HoldingVaR = CalculateVaR(paths, e.config.Confidence).VaR
	}

	limits := e.config.Limits
	if limits.MaxVaR > 0 && snap.VaR > limits.MaxVaR {
		snap.Breaches = append(snap.Breaches, fmt.Sprintf("var %.4f > limit %.4f", snap.VaR, limits.MaxVaR))
	}
	if limits.MaxCVaR > 0 && snap.CVaR > limits.MaxCVaR {
		snap.Breaches = append(snap.Breaches, fmt.Sprintf("cvar %.4f > limit %.4f", snap.CVaR, limits.MaxCVaR))
	}

	e.logger.WithFields(map[string]interface{}{
		"samples":     snap.Samples,
		"var":         snap.VaR,
		"cvar":        snap.CVaR,
		"holding_var": snap.HoldingVaR,
		"breaches":    len(snap.Breaches),
	}).Debug("Risk assessed")
	return snap, nil
}
