package contracts

import "time"

// TargetPortfolio represents the long/short target passed from S5 to S6
// ⭐ SSOT: S5 → S6 목표 포트폴리오 전달
// ⭐ 계약: Longs와 Shorts는 항상 서로소
type TargetPortfolio struct {
	Strategy  StrategyName        `json:"strategy"`
	Timeframe Timeframe           `json:"timeframe"`
	Date      time.Time           `json:"date"`
	Longs     []string            `json:"longs"`
	Shorts    []string            `json:"shorts"`
	CutoffN   int                 `json:"cutoff_n"`
	Report    []EligibilityRecord `json:"report"` // 순위순 전체 생존 종목
}

// Count returns the number of target slots
func (tp *TargetPortfolio) Count() int {
	return len(tp.Longs) + len(tp.Shorts)
}

// IsLong checks if a ticker is a long target
func (tp *TargetPortfolio) IsLong(ticker string) bool {
	return containsTicker(tp.Longs, ticker)
}

// IsShort checks if a ticker is a short target
func (tp *TargetPortfolio) IsShort(ticker string) bool {
	return containsTicker(tp.Shorts, ticker)
}

// Overlap returns tickers present in both legs (always empty for a valid target)
func (tp *TargetPortfolio) Overlap() []string {
	var out []string
	for _, t := range tp.Longs {
		if tp.IsShort(t) {
			out = append(out, t)
		}
	}
	return out
}

// Tickers returns longs followed by shorts
func (tp *TargetPortfolio) Tickers() []string {
	out := make([]string, 0, tp.Count())
	out = append(out, tp.Longs...)
	return append(out, tp.Shorts...)
}

func containsTicker(list []string, ticker string) bool {
	for _, t := range list {
		if t == ticker {
			return true
		}
	}
	return false
}
