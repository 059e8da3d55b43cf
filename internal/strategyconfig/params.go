package strategyconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// Params is the immutable parameter set of one (strategy, timeframe) cycle
// ⭐ 사이클마다 새로 생성해서 모든 단계에 값으로 전달 (공유 전역 상태 없음)
type Params struct {
	Strategy  contracts.StrategyName
	Timeframe contracts.Timeframe

	Lookback int
	Lag      int

	TopPercentileCutoff float64
	LiquidityPercentile float64
	ExcludedSectors     []string

	SmoothMinPositive          int
	VolatilityLookbackDays     int
	VolatilityCutoffPercentile float64

	OrderType          contracts.OrderType
	DelayBetweenOrders time.Duration
	OutsideRTH         bool
	InitialCash        float64

	ConfigHash string
}

// Params builds the cycle parameters for a strategy/timeframe pair
func (c *Config) Params(strategy contracts.StrategyName, timeframe contracts.Timeframe) (Params, error) {
	hash, err := Hash(c)
	if err != nil {
		return Params{}, fmt.Errorf("hash config: %w", err)
	}

	excluded := make([]string, len(c.Universe.ExcludeSectors))
	copy(excluded, c.Universe.ExcludeSectors)

	p := Params{
		Strategy:                   strategy,
		Timeframe:                  timeframe,
		Lookback:                   c.Momentum.Lookback,
		Lag:                        c.Momentum.Lag,
		TopPercentileCutoff:        c.Selection.TopPercentileCutoff,
		LiquidityPercentile:        c.Universe.LiquidityPercentile,
		ExcludedSectors:            excluded,
		SmoothMinPositive:          c.Smooth.MinPositivePeriods,
		VolatilityLookbackDays:     c.FrogInPan.VolatilityLookbackDays,
		VolatilityCutoffPercentile: c.FrogInPan.VolatilityCutoffPercentile,
		OrderType:                  contracts.OrderType(strings.ToUpper(c.Execution.OrderType)),
		DelayBetweenOrders:         c.Execution.DelayBetweenOrders,
		OutsideRTH:                 c.Execution.OutsideRTH,
		InitialCash:                c.Execution.InitialCash,
		ConfigHash:                 hash,
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Span returns the momentum return window in periods (lookback - lag)
func (p Params) Span() int {
	return p.Lookback - p.Lag
}

// Validate checks the invariants every pipeline stage relies on
// 실패 시 contracts.ErrInvalidConfig로 래핑 (사이클 중단)
func (p Params) Validate() error {
	if _, err := contracts.ParseStrategy(string(p.Strategy)); err != nil {
		return err
	}
	if _, err := contracts.ParseTimeframe(string(p.Timeframe)); err != nil {
		return err
	}
	if p.Lag < 0 {
		return fmt.Errorf("%w: lag must be >= 0, got %d", contracts.ErrInvalidConfig, p.Lag)
	}
	if p.Span() < 1 {
		return fmt.Errorf("%w: lookback - lag must be >= 1 (lookback=%d, lag=%d)",
			contracts.ErrInvalidConfig, p.Lookback, p.Lag)
	}
	if p.TopPercentileCutoff <= 0 || p.TopPercentileCutoff > 1 {
		return fmt.Errorf("%w: top percentile cutoff must be in (0, 1], got %v",
			contracts.ErrInvalidConfig, p.TopPercentileCutoff)
	}
	if p.LiquidityPercentile < 0 || p.LiquidityPercentile >= 1 {
		return fmt.Errorf("%w: liquidity percentile must be in [0, 1), got %v",
			contracts.ErrInvalidConfig, p.LiquidityPercentile)
	}
	if p.Strategy == contracts.StrategyFrogInPan {
		if p.VolatilityLookbackDays < 2 {
			return fmt.Errorf("%w: volatility lookback must be >= 2 days", contracts.ErrInvalidConfig)
		}
		if p.VolatilityCutoffPercentile <= 0 || p.VolatilityCutoffPercentile > 1 {
			return fmt.Errorf("%w: volatility cutoff percentile must be in (0, 1]", contracts.ErrInvalidConfig)
		}
	}
	if p.OrderType != contracts.OrderTypeMarket && p.OrderType != contracts.OrderTypeLimit {
		return fmt.Errorf("%w: order type must be MKT or LMT, got %q", contracts.ErrInvalidConfig, p.OrderType)
	}
	return nil
}
