package quality

import (
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// QualityGate validates acquired market data coverage before ranking
type QualityGate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MinPriceCoverage     float64 `yaml:"min_price_coverage"`      // 0.90
	MinMarketCapCoverage float64 `yaml:"min_market_cap_coverage"` // 0.80
	MinHistoryBars       int     `yaml:"min_history_bars"`        // 252 (약 1년)
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:     0.90,
		MinMarketCapCoverage: 0.80,
		MinHistoryBars:       252,
	}
}

// Snapshot is the coverage report of one MarketData acquisition
type Snapshot struct {
	Date         time.Time          `json:"date"`
	TotalTickers int                `json:"total_tickers"`
	ValidTickers int                `json:"valid_tickers"` // 가격 + 시가총액 + 충분한 이력
	Coverage     map[string]float64 `json:"coverage"`
	QualityScore float64            `json:"quality_score"`
	Passed       bool               `json:"passed"`
	Issues       []string           `json:"issues,omitempty"`
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	return &QualityGate{config: config}
}

// Check computes coverage of prices, market caps, sectors and history depth
// ⭐ SSOT: S0 → S1 품질 검증 (경고용, 사이클을 막지 않음)
func (g *QualityGate) Check(data *contracts.MarketData) *Snapshot {
	snapshot := &Snapshot{
		Date:         data.AsOf,
		TotalTickers: len(data.Universe),
		Coverage:     make(map[string]float64),
	}
	if snapshot.TotalTickers == 0 {
		snapshot.Issues = append(snapshot.Issues, "empty universe")
		return snapshot
	}

	var priced, capped, sectored, deep, valid int
	for _, e := range data.Universe {
		series, hasPrice := data.Series(e.Ticker)
		if hasPrice {
			priced++
		}
		if e.HasMarketCap() {
			capped++
		}
		if e.NormalizedSector() != "" {
			sectored++
		}
		hasDepth := hasPrice && series.Len() >= g.config.MinHistoryBars
		if hasDepth {
			deep++
		}
		if hasDepth && e.HasMarketCap() {
			valid++
		}
	}

	total := float64(snapshot.TotalTickers)
	snapshot.Coverage["price"] = float64(priced) / total
	snapshot.Coverage["market_cap"] = float64(capped) / total
	snapshot.Coverage["sector"] = float64(sectored) / total
	snapshot.Coverage["history"] = float64(deep) / total
	snapshot.ValidTickers = valid
	snapshot.QualityScore = g.calculateScore(snapshot.Coverage)

	snapshot.Passed = true
	if snapshot.Coverage["price"] < g.config.MinPriceCoverage {
		snapshot.Passed = false
		snapshot.Issues = append(snapshot.Issues, "price coverage below threshold")
	}
	if snapshot.Coverage["market_cap"] < g.config.MinMarketCapCoverage {
		snapshot.Passed = false
		snapshot.Issues = append(snapshot.Issues, "market cap coverage below threshold")
	}

	return snapshot
}

// calculateScore calculates overall quality score using weighted average
func (g *QualityGate) calculateScore(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := map[string]float64{
		"price":      0.40, // 가격 데이터 필수
		"market_cap": 0.30, // 유동성 필터 입력
		"history":    0.20, // 모멘텀/변동성 계산 깊이
		"sector":     0.10,
	}

	score := 0.0
	for key, weight := range weights {
		if cov, exists := coverage[key]; exists {
			score += cov * weight
		}
	}

	return score
}
