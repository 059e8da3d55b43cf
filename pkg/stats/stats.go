package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StdDev returns the sample standard deviation (n-1 denominator)
// NaN 값은 제외, 유효 표본 2개 미만이면 NaN
func StdDev(data []float64) float64 {
	clean := DropNaN(data)
	if len(clean) < 2 {
		return math.NaN()
	}
	return stat.StdDev(clean, nil)
}

// Mean returns the arithmetic mean ignoring NaN values
func Mean(data []float64) float64 {
	clean := DropNaN(data)
	if len(clean) == 0 {
		return math.NaN()
	}
	return stat.Mean(clean, nil)
}

// Quantile returns the p-quantile using linear interpolation between
// closest ranks: h = (n-1)p, q = x[floor(h)] + (h-floor(h))(x[floor(h)+1]-x[floor(h)])
// gonum stat.Quantile의 LinInterp는 경험적 CDF 기반이라 값이 다름
func Quantile(data []float64, p float64) float64 {
	clean := DropNaN(data)
	if len(clean) == 0 || math.IsNaN(p) {
		return math.NaN()
	}

	sorted := make([]float64, len(clean))
	copy(sorted, clean)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}

	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[i]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// Returns converts prices to simple period returns
// Returns[i] = Price[i+1]/Price[i] - 1, 이전 가격이 0 이하면 NaN
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || math.IsNaN(prices[i-1]) || math.IsNaN(prices[i]) {
			returns[i-1] = math.NaN()
			continue
		}
		returns[i-1] = prices[i]/prices[i-1] - 1
	}

	return returns
}

// DropNaN returns data without NaN/Inf entries
func DropNaN(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Tail returns the last n elements (all of them if n >= len)
func Tail(data []float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n >= len(data) {
		return data
	}
	return data[len(data)-n:]
}
