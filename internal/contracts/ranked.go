package contracts

// EligibilityRecord is the per-ticker ranking output of one cycle
// ⭐ SSOT: S4 → S5 랭킹 결과 전달 (리포트 행)
type EligibilityRecord struct {
	Ticker          string   `json:"ticker"`
	Sector          string   `json:"sector"`
	MarketCap       *float64 `json:"market_cap,omitempty"`
	Momentum        float64  `json:"momentum"`
	Volatility      *float64 `json:"volatility,omitempty"`       // FROG_IN_PAN 전용
	PositivePeriods *int     `json:"positive_periods,omitempty"` // SMOOTH 전용
	Rank            int      `json:"rank"`                       // 1-based, 동점 없음
	Decile          int      `json:"decile"`                     // 1~10, 리포트 전용
}

// IsTopRanked checks if the record is in top N ranks
func (r *EligibilityRecord) IsTopRanked(n int) bool {
	return r.Rank <= n && r.Rank > 0
}
