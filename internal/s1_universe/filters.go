package s1_universe

import (
	"strings"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/stats"
)

// FilterLiquidity drops entries without market cap, then entries below the
// percentile of the remaining market caps
// percentile 0 = 결측 제거만 수행
func FilterLiquidity(entries []contracts.UniverseEntry, percentile float64) []contracts.UniverseEntry {
	known := make([]contracts.UniverseEntry, 0, len(entries))
	caps := make([]float64, 0, len(entries))
	for _, e := range entries {
		if e.HasMarketCap() {
			known = append(known, e)
			caps = append(caps, *e.MarketCap)
		}
	}
	if len(known) == 0 || percentile <= 0 {
		return known
	}

	cutoff := stats.Quantile(caps, percentile)
	out := make([]contracts.UniverseEntry, 0, len(known))
	for _, e := range known {
		if *e.MarketCap >= cutoff {
			out = append(out, e)
		}
	}
	return out
}

// FilterSectors drops entries whose trimmed sector is in excluded
func FilterSectors(entries []contracts.UniverseEntry, excluded []string) []contracts.UniverseEntry {
	set := sectorSet(excluded)
	out := make([]contracts.UniverseEntry, 0, len(entries))
	for _, e := range entries {
		if !set[e.NormalizedSector()] {
			out = append(out, e)
		}
	}
	return out
}

func sectorSet(sectors []string) map[string]bool {
	set := make(map[string]bool, len(sectors))
	for _, s := range sectors {
		set[strings.TrimSpace(s)] = true
	}
	return set
}
