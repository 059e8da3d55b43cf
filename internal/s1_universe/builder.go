package s1_universe

import (
	"fmt"
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
	"github.com/wonny/momentum/backend/pkg/stats"
)

// Builder constructs the investable universe
type Builder struct {
	config Config
	logger *logger.Logger
}

// Config holds universe filter criteria
type Config struct {
	LiquidityPercentile float64  `yaml:"liquidity_percentile"` // 시가총액 하위 분위 제외
	ExcludeSectors      []string `yaml:"exclude_sectors"`      // 제외 섹터
}

// NewBuilder creates a new Universe Builder
func NewBuilder(config Config, log *logger.Logger) *Builder {
	return &Builder{
		config: config,
		logger: log.WithField("module", "s1_universe"),
	}
}

// Build applies the liquidity then sector filters
// ⭐ SSOT: S1 → S2 유니버스 생성
// 결과 종목은 FilterLiquidity → FilterSectors와 동일, 제외 사유를 함께 기록
func (b *Builder) Build(date time.Time, entries []contracts.UniverseEntry) *contracts.Universe {
	universe := &contracts.Universe{
		Date:       date,
		Entries:    make([]contracts.UniverseEntry, 0, len(entries)),
		Excluded:   make(map[string]string),
		TotalCount: len(entries),
	}

	cutoff, hasCutoff := b.liquidityCutoff(entries)
	excludedSectors := sectorSet(b.config.ExcludeSectors)

	var noCap, illiquid, sector int
	for _, e := range entries {
		reason := ""
		switch {
		case !e.HasMarketCap():
			reason = "시가총액 없음"
			noCap++
		case hasCutoff && *e.MarketCap < cutoff:
			reason = fmt.Sprintf("시가총액 미달 (%.0f < %.0f)", *e.MarketCap, cutoff)
			illiquid++
		case excludedSectors[e.NormalizedSector()]:
			reason = fmt.Sprintf("제외 섹터 (%s)", e.NormalizedSector())
			sector++
		}

		if reason != "" {
			universe.Excluded[e.Ticker] = reason
			b.logger.WithFields(map[string]interface{}{
				"ticker": e.Ticker,
				"reason": reason,
			}).Debug("Ticker excluded from universe")
			continue
		}
		universe.Entries = append(universe.Entries, e)
	}

	b.logger.WithFields(map[string]interface{}{
		"total":           len(entries),
		"no_market_cap":   noCap,
		"illiquid":        illiquid,
		"excluded_sector": sector,
		"remaining":       len(universe.Entries),
	}).Info("Universe filters applied")

	return universe
}

// liquidityCutoff returns the market cap quantile over entries with known market cap
func (b *Builder) liquidityCutoff(entries []contracts.UniverseEntry) (float64, bool) {
	if b.config.LiquidityPercentile <= 0 {
		return 0, false
	}
	caps := make([]float64, 0, len(entries))
	for _, e := range entries {
		if e.HasMarketCap() {
			caps = append(caps, *e.MarketCap)
		}
	}
	if len(caps) == 0 {
		return 0, false
	}
	return stats.Quantile(caps, b.config.LiquidityPercentile), true
}
