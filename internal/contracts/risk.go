package contracts

// RiskSnapshot is the historical risk of a target book when a cycle ran
// ⭐ SSOT: 손실은 양수로 표현 (VaR=0.03 → 3% 손실 가능)
type RiskSnapshot struct {
	Confidence      float64  `json:"confidence"`
	Samples         int      `json:"samples"`          // 일별 수익률 표본 수
	HoldingDays     int      `json:"holding_days"`     // 다음 리밸런스까지 거래일
	DailyVolatility float64  `json:"daily_volatility"` // 표본 표준편차
	VaR             float64  `json:"var"`              // 1일 historical VaR
	CVaR            float64  `json:"cvar"`             // 1일 expected shortfall
	ParametricVaR   float64  `json:"parametric_var"`   // 1일 정규분포 VaR
	HoldingVaR      float64  `json:"holding_var"`      // 보유기간 bootstrap VaR
	GrossExposure   float64  `json:"gross_exposure"`   // Σ|w|
	NetExposure     float64  `json:"net_exposure"`     // Σw
	Breaches        []string `json:"breaches,omitempty"`
}
