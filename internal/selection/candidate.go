package selection

import (
	"github.com/wonny/momentum/backend/internal/contracts"
)

// Candidate is a ticker moving through the pipeline with its computed metrics
// 파이프라인 단계마다 새 슬라이스 반환, 입력 순서(유니버스 순서) 유지
type Candidate struct {
	Entry           contracts.UniverseEntry
	Momentum        float64
	Volatility      *float64
	PositivePeriods *int
}

// Ticker returns the candidate's ticker
func (c Candidate) Ticker() string {
	return c.Entry.Ticker
}

// CandidatesFrom wraps universe entries
func CandidatesFrom(entries []contracts.UniverseEntry) []Candidate {
	out := make([]Candidate, len(entries))
	for i, e := range entries {
		out[i] = Candidate{Entry: e}
	}
	return out
}

// Entries unwraps the universe entries
func Entries(cands []Candidate) []contracts.UniverseEntry {
	out := make([]contracts.UniverseEntry, len(cands))
	for i, c := range cands {
		out[i] = c.Entry
	}
	return out
}

// Tickers returns tickers in candidate order
func Tickers(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Ticker()
	}
	return out
}

// Keep returns candidates whose ticker is in allowed, preserving order
func Keep(cands []Candidate, allowed []string) []Candidate {
	set := make(map[string]bool, len(allowed))
	for _, t := range allowed {
		set[t] = true
	}
	out := make([]Candidate, 0, len(allowed))
	for _, c := range cands {
		if set[c.Ticker()] {
			out = append(out, c)
		}
	}
	return out
}
