package realtime

import "time"

// PriceTick is one live quote observation
// ⭐ SSOT: 실시간 가격 데이터 구조
type PriceTick struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`   // "YAHOO", "FILL"
	IsStale   bool      `json:"is_stale"` // TTL 초과 여부
}

// PriceSource represents where a tick came from
type PriceSource string

const (
	SourceYahoo PriceSource = "YAHOO"
	SourceFill  PriceSource = "FILL" // 체결가
)

// Priority returns priority for source (higher = better)
func (s PriceSource) Priority() int {
	switch s {
	case SourceFill:
		return 2
	case SourceYahoo:
		return 1
	default:
		return 0
	}
}

// FetchResult is the fan-in of one quote batch
// 종목별 실패는 Failed에 기록, 다른 종목 처리에 영향 없음
type FetchResult struct {
	Prices map[string]float64 `json:"prices"`
	Failed map[string]error   `json:"-"`
}

// Missing returns requested tickers without a price, in request order
func (r *FetchResult) Missing(tickers []string) []string {
	var out []string
	for _, t := range tickers {
		if _, ok := r.Prices[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}
