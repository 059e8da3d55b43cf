package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		p    float64
		want float64
	}{
		{"20th percentile of five", []float64{10, 20, 30, 40, 50}, 0.20, 18},
		{"median odd", []float64{3, 1, 2}, 0.5, 2},
		{"median even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"80th percentile", []float64{0.01, 0.02, 0.03, 0.04, 0.05}, 0.80, 0.042},
		{"zero is min", []float64{5, 1, 9}, 0, 1},
		{"one is max", []float64{5, 1, 9}, 1, 9},
		{"single value", []float64{7}, 0.3, 7},
		{"ignores NaN", []float64{10, math.NaN(), 20, 30, 40, 50}, 0.20, 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(tt.data, tt.p), 1e-12)
		})
	}

	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestStdDev(t *testing.T) {
	// sample std (n-1): [2,4,4,4,5,5,7,9] → var=32/7
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, math.Sqrt(32.0/7.0), got, 1e-12)

	assert.True(t, math.IsNaN(StdDev([]float64{1})))
	assert.True(t, math.IsNaN(StdDev([]float64{math.NaN(), 1})))
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3, math.NaN()}), 1e-12)
	assert.True(t, math.IsNaN(Mean(nil)))
}

func TestReturns(t *testing.T) {
	got := Returns([]float64{100, 110, 99, 0, 10})
	assert.Len(t, got, 4)
	assert.InDelta(t, 0.10, got[0], 1e-12)
	assert.InDelta(t, -0.10, got[1], 1e-12)
	assert.InDelta(t, -1.0, got[2], 1e-12)
	assert.True(t, math.IsNaN(got[3]))

	assert.Empty(t, Returns([]float64{100}))
}

func TestTail(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	assert.Equal(t, []float64{3, 4}, Tail(data, 2))
	assert.Equal(t, data, Tail(data, 10))
	assert.Empty(t, Tail(data, 0))
}
