package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
)

func TestCalculateVaR(t *testing.T) {
	// 20개 표본, 95% → idx = floor(0.05*20) = 1
	returns := []float64{
		0.01, -0.05, 0.02, -0.03, 0.00, 0.01, 0.02, 0.03, 0.01, -0.01,
		0.02, 0.01, 0.00, 0.01, 0.02, -0.02, 0.01, 0.03, 0.01, 0.02,
	}
	res := CalculateVaR(returns, 0.95)
	assert.Equal(t, 0.95, res.Confidence)
	assert.InDelta(t, 0.03, res.VaR, 1e-12)
	assert.InDelta(t, 0.04, res.CVaR, 1e-12)

	// 입력 순서 보존
	assert.Equal(t, 0.01, returns[0])
}

func TestCalculateVaR_Edges(t *testing.T) {
	assert.Equal(t, VaRResult{Confidence: 0.99}, CalculateVaR(nil, 0.99))

	gains := CalculateVaR([]float64{0.01, 0.02, 0.03}, 0.95)
	assert.Zero(t, gains.VaR)
	assert.Zero(t, gains.CVaR)

	// confidence 0 → 전체가 tail
	all := CalculateVaR([]float64{-0.02, -0.04}, 0)
	assert.InDelta(t, 0.02, all.VaR, 1e-12)
	assert.InDelta(t, 0.03, all.CVaR, 1e-12)
}

func TestCalculateParametricVaR(t *testing.T) {
	res := CalculateParametricVaR(0, 0.01, 0.95)
	assert.InDelta(t, 0.016449, res.VaR, 1e-5)
	// φ(1.6449)/0.05 ≈ 2.0627
	assert.InDelta(t, 0.020627, res.CVaR, 1e-5)

	assert.Zero(t, CalculateParametricVaR(0, 0, 0.95).VaR)
	assert.Zero(t, CalculateParametricVaR(0.5, 0.01, 0.95).VaR)
}

func TestBootstrap(t *testing.T) {
	daily := []float64{-0.02, 0.01, 0.015, -0.005}

	a := Bootstrap(daily, 5, 100, 7)
	b := Bootstrap(daily, 5, 100, 7)
	require.Len(t, a, 100)
	assert.Equal(t, a, b)

	constant := Bootstrap([]float64{0.01}, 3, 10, 1)
	for _, r := range constant {
		assert.InDelta(t, 1.01*1.01*1.01-1, r, 1e-12)
	}

	assert.Empty(t, Bootstrap(nil, 5, 10, 1))
	assert.Empty(t, Bootstrap(daily, 0, 10, 1))
}

func TestHoldingDays(t *testing.T) {
	assert.Equal(t, 1, HoldingDays(contracts.TimeframeDaily))
	assert.Equal(t, 5, HoldingDays(contracts.TimeframeWeekly))
	assert.Equal(t, 21, HoldingDays(contracts.TimeframeMonthly))
}

func TestWeights(t *testing.T) {
	w := Weights(&contracts.TargetPortfolio{Longs: []string{"A", "B"}, Shorts: []string{"C", "D"}})
	assert.InDelta(t, 0.25, w["A"], 1e-12)
	assert.InDelta(t, 0.25, w["B"], 1e-12)
	assert.InDelta(t, -0.25, w["C"], 1e-12)
	assert.InDelta(t, -0.25, w["D"], 1e-12)

	assert.Empty(t, Weights(&contracts.TargetPortfolio{}))
}

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func series(ticker string, closes map[int]float64) contracts.PriceSeries {
	var bars []contracts.PriceBar
	for i, c := range closes {
		bars = append(bars, contracts.PriceBar{Date: day(i), Close: c, AdjClose: c})
	}
	return contracts.NewPriceSeries(ticker, bars)
}

func TestPortfolioReturns(t *testing.T) {
	data := &contracts.MarketData{Prices: map[string]contracts.PriceSeries{
		"A": series("A", map[int]float64{0: 100, 1: 110, 2: 121, 3: 121}),
		"B": series("B", map[int]float64{0: 50, 1: 50, 3: 55}), // day 2 없음
	}}

	// 정렬된 공통 날짜: 0, 1, 3
	got, err := PortfolioReturns(map[string]float64{"A": 0.5, "B": -0.5}, data, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.5*0.10, got[0], 1e-12)
	assert.InDelta(t, 0.5*0.10-0.5*0.10, got[1], 1e-12)

	// lookback 1 → 마지막 수익률만
	last, err := PortfolioReturns(map[string]float64{"A": 0.5, "B": -0.5}, data, 1)
	require.NoError(t, err)
	assert.Len(t, last, 1)

	_, err = PortfolioReturns(map[string]float64{"ZZZ": 1}, data, 0)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func trendingData(days int) *contracts.MarketData {
	up := make(map[int]float64, days)
	down := make(map[int]float64, days)
	for i := 0; i < days; i++ {
		// 롱은 홀짝으로 흔들리며 하락, 숏은 고정
		if i%2 == 0 {
			up[i] = 100
		} else {
			up[i] = 90
		}
		down[i] = 100
	}
	return &contracts.MarketData{Prices: map[string]contracts.PriceSeries{
		"L": series("L", up),
		"S": series("S", down),
	}}
}

func TestEngine_Assess(t *testing.T) {
	engine := NewEngine(DefaultConfig(), logger.NewNop())
	target := &contracts.TargetPortfolio{Longs: []string{"L"}, Shorts: []string{"S"}}

	snap, err := engine.Assess(target, trendingData(61), 21)
	require.NoError(t, err)
	assert.Equal(t, 60, snap.Samples)
	assert.Equal(t, 21, snap.HoldingDays)
	assert.InDelta(t, 1.0, snap.GrossExposure, 1e-12)
	assert.InDelta(t, 0.0, snap.NetExposure, 1e-12)

	// 롱 절반 가중치로 -10% → 일 손실 5%
	assert.InDelta(t, 0.05, snap.VaR, 1e-12)
	assert.InDelta(t, 0.05, snap.CVaR, 1e-12)
	assert.Greater(t, snap.DailyVolatility, 0.0)
	assert.Greater(t, snap.HoldingVaR, snap.VaR)
	assert.Len(t, snap.Breaches, 0)
}

func TestEngine_AssessBreaches(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits = Limits{MaxVaR: 0.01, MaxCVaR: 0.01}
	engine := NewEngine(cfg, logger.NewNop())

	snap, err := engine.Assess(&contracts.TargetPortfolio{Longs: []string{"L"}}, trendingData(40), 1)
	require.NoError(t, err)
	assert.Len(t, snap.Breaches, 2)
	assert.Equal(t, snap.VaR, snap.HoldingVaR)
}

func TestEngine_AssessInsufficient(t *testing.T) {
	engine := NewEngine(DefaultConfig(), logger.NewNop())
	target := &contracts.TargetPortfolio{Longs: []string{"L"}, Shorts: []string{"S"}}

	_, err := engine.Assess(target, trendingData(10), 5)
	assert.ErrorIs(t, err, ErrInsufficientData)

	empty, err := engine.Assess(&contracts.TargetPortfolio{}, trendingData(10), 5)
	require.NoError(t, err)
	assert.Zero(t, empty.Samples)
}
