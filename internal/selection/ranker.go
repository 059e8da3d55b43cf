package selection

import (
	"sort"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Ranker implements S4: momentum ranking
// ⭐ SSOT: S4 랭킹 로직은 여기서만
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(log *logger.Logger) *Ranker {
	return &Ranker{
		logger: log.WithField("module", "ranker"),
	}
}

// Rank sorts candidates by momentum descending and assigns rank and decile
// 동점은 입력 순서 유지 (stable, "first")
func (r *Ranker) Rank(cands []Candidate) []contracts.EligibilityRecord {
	sorted := make([]Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Momentum > sorted[j].Momentum
	})

	n := len(sorted)
	records := make([]contracts.EligibilityRecord, n)
	for i, c := range sorted {
		records[i] = contracts.EligibilityRecord{
			Ticker:          c.Ticker(),
			Sector:          c.Entry.NormalizedSector(),
			MarketCap:       c.Entry.MarketCap,
			Momentum:        c.Momentum,
			Volatility:      c.Volatility,
			PositivePeriods: c.PositivePeriods,
			Rank:            i + 1,
			Decile:          Decile(i+1, n),
		}
	}

	if n > 0 {
		r.logger.WithFields(map[string]interface{}{
			"total":        n,
			"top_ticker":   records[0].Ticker,
			"top_momentum": records[0].Momentum,
		}).Info("Ranking completed")
	}
	return records
}

// Decile buckets rank 1..n into 10 equal quantile bins of the rank distribution
// n < 10이면 모두 1. 경계: 1 + (n-1)·k/10 (선형 보간 분위수)
func Decile(rank, n int) int {
	if n < 10 {
		return 1
	}
	const eps = 1e-9
	r := float64(rank)
	for k := 1; k <= 10; k++ {
		edge := 1 + float64(n-1)*float64(k)/10
		if r <= edge+eps {
			return k
		}
	}
	return 10
}
