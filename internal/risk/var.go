package risk

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// CalculateVaR 과거 수익률 기반 VaR 계산 (Historical Simulation)
// returns: 수익률 배열 (양수=이익, 음수=손실)
// 반환값: VaR는 손실을 양수로 표현 (예: 0.05 = 5% 손실 가능)
func CalculateVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence}
	}

	// 오름차순: 손실이 앞에
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        lossPositive(sorted[idx]),
		CVaR:       CalculateCVaR(sorted, idx),
	}
}

// CalculateCVaR averages the tail sorted[0..varIdx] (Expected Shortfall)
func CalculateCVaR(sorted []float64, varIdx int) float64 {
	if len(sorted) == 0 || varIdx < 0 {
		return 0
	}
	if varIdx >= len(sorted) {
		varIdx = len(sorted) - 1
	}

	var sum float64
	for i := 0; i <= varIdx; i++ {
		sum += sorted[i]
	}
	return lossPositive(sum / float64(varIdx+1))
}

// CalculateParametricVaR 정규분포 가정 VaR
// VaR = z·σ - μ, CVaR = σ·φ(z)/(1-c) - μ
func CalculateParametricVaR(mean, stdDev, confidence float64) VaRResult {
	if stdDev <= 0 || math.IsNaN(stdDev) {
		return VaRResult{Confidence: confidence}
	}

	z := distuv.UnitNormal.Quantile(confidence)
	return VaRResult{
		Confidence: confidence,
		VaR:        math.Max(0, z*stdDev-mean),
		CVaR:       math.Max(0, stdDev*distuv.UnitNormal.Prob(z)/(1-confidence)-mean),
	}
}

// Bootstrap compounds holding-period returns by resampling daily returns
// 동일 seed → 동일 결과
func Bootstrap(daily []float64, holdingDays, paths int, seed uint64) []float64 {
	if len(daily) == 0 || holdingDays <= 0 || paths <= 0 {
		return []float64{}
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, paths)
	for p := range out {
		growth := 1.0
		for d := 0; d < holdingDays; d++ {
			growth *= 1 + daily[rng.IntN(len(daily))]
		}
		out[p] = growth - 1
	}
	return out
}

func lossPositive(r float64) float64 {
	if r < 0 {
		return -r
	}
	return 0
}
