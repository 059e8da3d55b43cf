package strategyconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match contracts.ErrInvalidConfig
func (e ValidationError) Unwrap() error {
	return contracts.ErrInvalidConfig
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if cfg.Meta.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
			return ValidationError{"meta.timezone", err.Error()}
		}
	}

	// === Run ===
	if len(cfg.Run.Strategies) == 0 {
		return ValidationError{"run.strategies", "must not be empty"}
	}
	if _, err := cfg.Strategies(); err != nil {
		return ValidationError{"run.strategies", err.Error()}
	}
	if len(cfg.Run.Timeframes) == 0 {
		return ValidationError{"run.timeframes", "must not be empty"}
	}
	if _, err := cfg.Timeframes(); err != nil {
		return ValidationError{"run.timeframes", err.Error()}
	}

	// === Universe ===
	if cfg.Universe.TickersCSV == "" {
		return ValidationError{"universe.tickers_csv", "required"}
	}
	if cfg.Universe.HistoryPeriod == "" {
		return ValidationError{"universe.history_period", "required"}
	}
	if cfg.Universe.LiquidityPercentile < 0 || cfg.Universe.LiquidityPercentile >= 1 {
		return ValidationError{"universe.liquidity_percentile", "must be in range [0, 1)"}
	}

	// === Momentum ===
	if cfg.Momentum.Lag < 0 {
		return ValidationError{"momentum.lag", "must be >= 0"}
	}
	if cfg.Momentum.Lookback-cfg.Momentum.Lag < 1 {
		return ValidationError{"momentum", fmt.Sprintf("lookback - lag must be >= 1 (lookback=%d, lag=%d)",
			cfg.Momentum.Lookback, cfg.Momentum.Lag)}
	}

	// === Selection ===
	if cfg.Selection.TopPercentileCutoff <= 0 || cfg.Selection.TopPercentileCutoff > 1 {
		return ValidationError{"selection.top_percentile_cutoff", "must be in range (0, 1]"}
	}

	// === Screens ===
	if cfg.Smooth.MinPositivePeriods < 0 {
		return ValidationError{"smooth.min_positive_periods", "must be >= 0"}
	}
	if cfg.FrogInPan.VolatilityLookbackDays < 2 {
		return ValidationError{"frog_in_pan.volatility_lookback_days", "must be >= 2"}
	}
	if cfg.FrogInPan.VolatilityCutoffPercentile <= 0 || cfg.FrogInPan.VolatilityCutoffPercentile > 1 {
		return ValidationError{"frog_in_pan.volatility_cutoff_percentile", "must be in range (0, 1]"}
	}

	// === Execution ===
	switch contracts.OrderType(strings.ToUpper(cfg.Execution.OrderType)) {
	case contracts.OrderTypeMarket, contracts.OrderTypeLimit:
	default:
		return ValidationError{"execution.order_type", "must be MKT or LMT"}
	}
	if cfg.Execution.DelayBetweenOrders < 0 {
		return ValidationError{"execution.delay_between_orders", "must be >= 0"}
	}
	if cfg.Execution.InitialCash <= 0 {
		return ValidationError{"execution.initial_cash", "must be > 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// lookback 대비 lag 과다
	if cfg.Momentum.Lag*2 > cfg.Momentum.Lookback {
		warnings = append(warnings, Warning{
			Code:    "LARGE_LAG",
			Message: "lag이 lookback의 절반 초과: 수익률 구간이 짧음",
		})
	}

	// 상/하위 비율이 크면 롱/숏이 중앙값 근처까지 내려옴
	if cfg.Selection.TopPercentileCutoff > 0.5 {
		warnings = append(warnings, Warning{
			Code:    "WIDE_CUTOFF",
			Message: "top_percentile_cutoff > 0.5: 숏 레그가 롱과 겹치지 않도록 축소됨",
		})
	}

	// SMOOTH 최소 양수 기간이 lookback보다 크면 전 종목 탈락
	if cfg.Smooth.MinPositivePeriods > cfg.Momentum.Lookback {
		warnings = append(warnings, Warning{
			Code:    "UNREACHABLE_SMOOTHNESS",
			Message: "min_positive_periods > lookback: SMOOTH 전략 생존 종목 없음",
		})
	}

	if cfg.Execution.DelayBetweenOrders == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_ORDER_DELAY",
			Message: "delay_between_orders = 0: 브로커 API 속도 제한 위험",
		})
	}

	return warnings
}
