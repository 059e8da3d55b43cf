package strategyconfig

import (
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// Config는 모멘텀 전략의 전체 설정
// ⭐ SSOT: 전략 파라미터는 이 구조체에서만 정의
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Run       Run       `yaml:"run" json:"run"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Momentum  Momentum  `yaml:"momentum" json:"momentum"`
	Selection Selection `yaml:"selection" json:"selection"`
	Smooth    Smooth    `yaml:"smooth" json:"smooth"`
	FrogInPan FrogInPan `yaml:"frog_in_pan" json:"frog_in_pan"`
	Execution Execution `yaml:"execution" json:"execution"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"`
}

// Run 실행 대상 (전략 × 타임프레임)
type Run struct {
	Strategies []string `yaml:"strategies" json:"strategies"`
	Timeframes []string `yaml:"timeframes" json:"timeframes"`
}

// Universe S0/S1: 유니버스와 필터
type Universe struct {
	TickersCSV          string   `yaml:"tickers_csv" json:"tickers_csv"`
	HistoryPeriod       string   `yaml:"history_period" json:"history_period"` // 예: "2y"
	LiquidityPercentile float64  `yaml:"liquidity_percentile" json:"liquidity_percentile"`
	ExcludeSectors      []string `yaml:"exclude_sectors" json:"exclude_sectors"`
}

// Momentum S2: lookback/lag (타임프레임 단위)
type Momentum struct {
	Lookback int `yaml:"lookback" json:"lookback"`
	Lag      int `yaml:"lag" json:"lag"`
}

// Selection S4: 상/하위 비율
type Selection struct {
	TopPercentileCutoff float64 `yaml:"top_percentile_cutoff" json:"top_percentile_cutoff"`
}

// Smooth SMOOTH 전략 스크린
type Smooth struct {
	MinPositivePeriods int `yaml:"min_positive_periods" json:"min_positive_periods"`
}

// FrogInPan FROG_IN_PAN 전략 스크린 (일간 수익률 기준)
type FrogInPan struct {
	VolatilityLookbackDays     int     `yaml:"volatility_lookback_days" json:"volatility_lookback_days"`
	VolatilityCutoffPercentile float64 `yaml:"volatility_cutoff_percentile" json:"volatility_cutoff_percentile"`
}

// Execution 주문 집행
type Execution struct {
	OrderType          string        `yaml:"order_type" json:"order_type"` // MKT | LMT
	DelayBetweenOrders time.Duration `yaml:"delay_between_orders" json:"delay_between_orders"`
	OutsideRTH         bool          `yaml:"outside_rth" json:"outside_rth"`
	InitialCash        float64       `yaml:"initial_cash" json:"initial_cash"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "us_momentum",
			Version:    "1",
			Timezone:   "America/New_York",
		},
		Run: Run{
			Strategies: []string{
				string(contracts.StrategyCore),
				string(contracts.StrategySmooth),
				string(contracts.StrategyFrogInPan),
			},
			Timeframes: []string{
				string(contracts.TimeframeMonthly),
				string(contracts.TimeframeWeekly),
				string(contracts.TimeframeDaily),
			},
		},
		Universe: Universe{
			TickersCSV:          "data/sp500_tickers.csv",
			HistoryPeriod:       "2y",
			LiquidityPercentile: 0.20,
			ExcludeSectors:      []string{"Financial Services", "Financials"},
		},
		Momentum:  Momentum{Lookback: 12, Lag: 2},
		Selection: Selection{TopPercentileCutoff: 0.01},
		Smooth:    Smooth{MinPositivePeriods: 7},
		FrogInPan: FrogInPan{
			VolatilityLookbackDays:     252,
			VolatilityCutoffPercentile: 0.80,
		},
		Execution: Execution{
			OrderType:          string(contracts.OrderTypeMarket),
			DelayBetweenOrders: time.Second,
			OutsideRTH:         false,
			InitialCash:        10000,
		},
	}
}

// Strategies returns the parsed strategy list
func (c *Config) Strategies() ([]contracts.StrategyName, error) {
	out := make([]contracts.StrategyName, 0, len(c.Run.Strategies))
	for _, s := range c.Run.Strategies {
		name, err := contracts.ParseStrategy(s)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

// Timeframes returns the parsed timeframe list
func (c *Config) Timeframes() ([]contracts.Timeframe, error) {
	out := make([]contracts.Timeframe, 0, len(c.Run.Timeframes))
	for _, s := range c.Run.Timeframes {
		tf, err := contracts.ParseTimeframe(s)
		if err != nil {
			return nil, err
		}
		out = append(out, tf)
	}
	return out, nil
}

// DecisionSnapshot 의사결정 스냅샷 (재현성용)
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
}
