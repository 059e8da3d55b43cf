package contracts

import (
	"strings"
	"time"
)

// UniverseEntry is one candidate ticker with its fundamentals
// ⭐ SSOT: S0 → S1 유니버스 항목
type UniverseEntry struct {
	Ticker    string   `json:"ticker"`
	Sector    string   `json:"sector"`
	MarketCap *float64 `json:"market_cap,omitempty"` // nil = 시가총액 미확인
}

// HasMarketCap reports whether market cap is known
func (e UniverseEntry) HasMarketCap() bool {
	return e.MarketCap != nil
}

// NormalizedSector returns the trimmed sector label
func (e UniverseEntry) NormalizedSector() string {
	return strings.TrimSpace(e.Sector)
}

// Universe represents the filtered investable set passed from S1 to S2
// ⭐ SSOT: S1 → S2 투자 가능 종목 전달
type Universe struct {
	Date       time.Time         `json:"date"`
	Entries    []UniverseEntry   `json:"entries"`
	Excluded   map[string]string `json:"excluded"`              // 제외 종목: 사유
	TotalCount int               `json:"total_count,omitempty"` // 필터 전 전체 종목 수
}

// Tickers returns the surviving tickers in universe order
func (u *Universe) Tickers() []string {
	out := make([]string, 0, len(u.Entries))
	for _, e := range u.Entries {
		out = append(out, e.Ticker)
	}
	return out
}

// Contains checks if a ticker is in the universe
func (u *Universe) Contains(ticker string) bool {
	_, ok := u.Lookup(ticker)
	return ok
}

// Lookup finds the entry for a ticker
func (u *Universe) Lookup(ticker string) (UniverseEntry, bool) {
	for _, e := range u.Entries {
		if e.Ticker == ticker {
			return e, true
		}
	}
	return UniverseEntry{}, false
}

// IsExcluded checks if a ticker is excluded with reason
func (u *Universe) IsExcluded(ticker string) (bool, string) {
	reason, exists := u.Excluded[ticker]
	return exists, reason
}

// Count returns the number of investable tickers
func (u *Universe) Count() int {
	return len(u.Entries)
}
