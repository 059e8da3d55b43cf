package risk

import (
	"errors"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// VaRConvention VaR 부호 규약
// ⭐ SSOT: Loss를 양수로 표현 (VaR=0.05 → 5% 손실 가능)
const VaRConvention = "loss_positive"

// ErrInsufficientData is returned when fewer aligned returns than MinSamples exist
var ErrInsufficientData = errors.New("insufficient data for risk estimate")

// VaRResult VaR 계산 결과
// - VaR=0.05 → 95% 신뢰수준에서 최대 5% 손실 가능
// - CVaR=0.07 → 5% tail에서 평균 7% 손실 예상
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
}

// Limits are advisory thresholds; a breach is reported, never enforced
type Limits struct {
	MaxVaR  float64 `yaml:"max_var" json:"max_var"`
	MaxCVaR float64 `yaml:"max_cvar" json:"max_cvar"`
}

// Config controls the per-cycle risk estimate
// ⭐ SSOT: 재현성을 위해 Seed 고정
type Config struct {
	Confidence   float64 `json:"confidence"`    // 신뢰수준 (기본 0.95)
	LookbackDays int     `json:"lookback_days"` // 일별 수익률 표본 (기본 252)
	MinSamples   int     `json:"min_samples"`   // fail-closed (기본 30)
	Simulations  int     `json:"simulations"`   // 보유기간 bootstrap 경로 수
	Seed         uint64  `json:"seed"`
	Limits       Limits  `json:"limits"`
}

// DefaultConfig returns the default risk configuration
func DefaultConfig() Config {
	return Config{
		Confidence:   0.95,
		LookbackDays: 252,
		MinSamples:   30,
		Simulations:  5000,
		Seed:         1,
		Limits: Limits{
			MaxVaR:  0.05, // 5% VaR
			MaxCVaR: 0.07, // 7% CVaR
		},
	}
}

// HoldingDays returns the trading days a book is held until the next rebalance
func HoldingDays(tf contracts.Timeframe) int {
	switch tf {
	case contracts.TimeframeWeekly:
		return 5
	case contracts.TimeframeMonthly:
		return 21
	default:
		return 1
	}
}
