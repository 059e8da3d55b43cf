package selection

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/strategyconfig"
	"github.com/wonny/momentum/backend/pkg/logger"
)

func cand(ticker string, momentum float64) Candidate {
	return Candidate{Entry: contracts.UniverseEntry{Ticker: ticker, Sector: "Tech"}, Momentum: momentum}
}

func reportOf(n int) []contracts.EligibilityRecord {
	out := make([]contracts.EligibilityRecord, n)
	for i := range out {
		out[i] = contracts.EligibilityRecord{Ticker: fmt.Sprintf("T%03d", i+1), Rank: i + 1}
	}
	return out
}

func TestRank_StableDescending(t *testing.T) {
	r := NewRanker(logger.NewNop())
	records := r.Rank([]Candidate{
		cand("A", 0.1),
		cand("B", 0.5),
		cand("C", 0.1),
		cand("D", -0.2),
	})

	require.Len(t, records, 4)
	assert.Equal(t, []string{"B", "A", "C", "D"}, []string{records[0].Ticker, records[1].Ticker, records[2].Ticker, records[3].Ticker})
	for i, rec := range records {
		assert.Equal(t, i+1, rec.Rank)
		assert.Equal(t, 1, rec.Decile) // 10개 미만
	}
}

func TestDecile(t *testing.T) {
	tests := []struct {
		rank, n, want int
	}{
		{1, 5, 1},
		{5, 5, 1},
		{1, 10, 1},
		{2, 10, 2},
		{10, 10, 10},
		{1, 100, 1},
		{10, 100, 1},
		{11, 100, 2},
		{100, 100, 10},
		{50, 100, 5},
		{51, 100, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decile(tt.rank, tt.n), "rank %d of %d", tt.rank, tt.n)
	}
}

func TestCutoffN_Monotonic(t *testing.T) {
	assert.Equal(t, 0, CutoffN(0, 0.5))
	for _, c := range []float64{0.01, 0.05, 0.1, 0.25, 0.29, 0.5, 0.57, 0.99} {
		prev := 0
		for n := 1; n <= 500; n++ {
			got := CutoffN(n, c)
			want := int(float64(n) * c)
			if want < 1 {
				want = 1
			}
			assert.Equal(t, want, got, "n=%d c=%v", n, c)
			assert.GreaterOrEqual(t, got, prev)
			assert.GreaterOrEqual(t, got, 1)
			prev = got
		}
	}
	assert.Equal(t, 5, CutoffN(500, 0.01))
	assert.Equal(t, 1, CutoffN(99, 0.01))
	// n×c = 28.999999999999996 → floor 28 (반올림 금지)
	assert.Equal(t, 28, CutoffN(100, 0.29))
	assert.Equal(t, 56, CutoffN(100, 0.57))
}

func TestSelect_Disjoint(t *testing.T) {
	for n := 0; n <= 60; n++ {
		for _, c := range []float64{0.01, 0.1, 0.3, 0.5, 0.8, 1} {
			longs, shorts, cutoffN := Select(reportOf(n), c)
			assert.Len(t, longs, cutoffN)

			seen := map[string]bool{}
			for _, l := range longs {
				seen[l] = true
			}
			for _, s := range shorts {
				assert.False(t, seen[s], "overlap n=%d c=%v ticker=%s", n, c, s)
			}
			if n >= 2*cutoffN {
				assert.Len(t, shorts, cutoffN, "n=%d c=%v", n, c)
			}
		}
	}
}

func TestSelect_HeadAndTail(t *testing.T) {
	longs, shorts, cutoffN := Select(reportOf(10), 0.2)
	assert.Equal(t, 2, cutoffN)
	assert.Equal(t, []string{"T001", "T002"}, longs)
	assert.Equal(t, []string{"T009", "T010"}, shorts)

	// 1개면 롱만
	longs, shorts, _ = Select(reportOf(1), 0.01)
	assert.Equal(t, []string{"T001"}, longs)
	assert.Empty(t, shorts)

	// 비어 있으면 양쪽 모두 비어 있음
	longs, shorts, cutoffN = Select(nil, 0.1)
	assert.Empty(t, longs)
	assert.Empty(t, shorts)
	assert.Equal(t, 0, cutoffN)
}

func dailySeries(ticker string, prices []float64) contracts.PriceSeries {
	bars := make([]contracts.PriceBar, len(prices))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range prices {
		bars[i] = contracts.PriceBar{Date: start.AddDate(0, 0, i), AdjClose: p}
	}
	return contracts.NewPriceSeries(ticker, bars)
}

func monthlySeries(ticker string, prices []float64) contracts.PriceSeries {
	bars := make([]contracts.PriceBar, len(prices))
	start := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	for i, p := range prices {
		bars[i] = contracts.PriceBar{Date: start.AddDate(0, i, 0), AdjClose: p}
	}
	return contracts.NewPriceSeries(ticker, bars)
}

func TestScreener_Volatility(t *testing.T) {
	data := &contracts.MarketData{Prices: map[string]contracts.PriceSeries{
		"CALM":  dailySeries("CALM", []float64{100, 101, 102, 103, 104}),
		"MID":   dailySeries("MID", []float64{100, 103, 100, 103, 100}),
		"WILD":  dailySeries("WILD", []float64{100, 150, 80, 160, 70}),
		"SHORT": dailySeries("SHORT", []float64{100, 101}),
	}}
	s := NewScreener(logger.NewNop())

	out := s.Volatility([]Candidate{cand("WILD", 0), cand("CALM", 0), cand("SHORT", 0), cand("MID", 0), cand("NONE", 0)}, data, 252, 0.5)

	// 정의된 변동성: CALM, MID, WILD → 중앙값 이하만 유지
	assert.Equal(t, []string{"CALM", "MID"}, Tickers(out))
	for _, c := range out {
		require.NotNil(t, c.Volatility)
	}
}

func TestScreener_Smoothness(t *testing.T) {
	data := &contracts.MarketData{Prices: map[string]contracts.PriceSeries{
		// 수익률 5개 모두 양수
		"STEADY": monthlySeries("STEADY", []float64{100, 101, 102, 103, 104, 105}),
		// 양수 2개
		"JUMPY": monthlySeries("JUMPY", []float64{100, 90, 80, 70, 120, 130}),
	}}
	s := NewScreener(logger.NewNop())

	in := []Candidate{cand("STEADY", 0.05), cand("JUMPY", 0.3), cand("DOWN", -0.1)}
	out := s.Smoothness(in, data, contracts.TimeframeMonthly, 12, 3)

	require.Equal(t, []string{"STEADY"}, Tickers(out))
	require.NotNil(t, out[0].PositivePeriods)
	assert.Equal(t, 5, *out[0].PositivePeriods)
}

func TestForName(t *testing.T) {
	screener := NewScreener(logger.NewNop())
	tests := []struct {
		name  contracts.StrategyName
		stage Stage
	}{
		{contracts.StrategyCore, StageAfterMomentum},
		{contracts.StrategySmooth, StageAfterMomentum},
		{contracts.StrategyFrogInPan, StageBeforeUniverse},
	}
	for _, tt := range tests {
		s, err := ForName(tt.name, screener)
		require.NoError(t, err)
		assert.Equal(t, tt.name, s.Name())
		assert.Equal(t, tt.stage, s.Stage())
	}

	_, err := ForName("VALUE", screener)
	assert.ErrorIs(t, err, contracts.ErrInvalidConfig)
}

func TestCore_Identity(t *testing.T) {
	in := []Candidate{cand("A", -1), cand("B", 2)}
	out := Core{}.Apply(in, &contracts.MarketData{}, strategyconfig.Params{})
	assert.Equal(t, in, out)
}

func TestKeep(t *testing.T) {
	in := []Candidate{cand("A", 1), cand("B", 2), cand("C", 3)}
	assert.Equal(t, []string{"A", "C"}, Tickers(Keep(in, []string{"C", "A"})))
}
