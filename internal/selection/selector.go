package selection

import (
	"math"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// CutoffN returns max(1, floor(n×cutoff)) for n > 0, else 0
func CutoffN(n int, cutoff float64) int {
	if n <= 0 {
		return 0
	}
	k := int(math.Floor(float64(n) * cutoff))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// Select takes the head of the ranked report as longs and the tail as shorts
// 숏 개수는 min(cutoffN, n-cutoffN)으로 제한 → 롱/숏은 항상 서로소
func Select(report []contracts.EligibilityRecord, cutoff float64) (longs, shorts []string, cutoffN int) {
	n := len(report)
	cutoffN = CutoffN(n, cutoff)

	longs = make([]string, 0, cutoffN)
	for _, r := range report[:cutoffN] {
		longs = append(longs, r.Ticker)
	}

	shortN := cutoffN
	if n-cutoffN < shortN {
		shortN = n - cutoffN
	}
	shorts = make([]string, 0, shortN)
	for _, r := range report[n-shortN:] {
		shorts = append(shorts, r.Ticker)
	}
	return longs, shorts, cutoffN
}
