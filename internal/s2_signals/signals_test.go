package s2_signals

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/logger"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func seriesOf(ticker string, dates []time.Time, prices []float64) contracts.PriceSeries {
	bars := make([]contracts.PriceBar, len(dates))
	for i := range dates {
		bars[i] = contracts.PriceBar{Date: dates[i], AdjClose: prices[i], Close: prices[i]}
	}
	return contracts.NewPriceSeries(ticker, bars)
}

// monthlySeries puts one observation mid-month starting Jan 2023
func monthlySeries(prices []float64) contracts.PriceSeries {
	dates := make([]time.Time, len(prices))
	for i := range prices {
		dates[i] = d(2023, time.January, 15).AddDate(0, i, 0)
	}
	return seriesOf("TEST", dates, prices)
}

func TestResample_MonthlyLastObservation(t *testing.T) {
	s := seriesOf("A",
		[]time.Time{d(2024, 1, 2), d(2024, 1, 31), d(2024, 2, 1), d(2024, 2, 15)},
		[]float64{10, 11, 12, 13})

	points := Resample(s, contracts.TimeframeMonthly)
	require.Len(t, points, 2)
	assert.Equal(t, d(2024, 1, 31), points[0].PeriodEnd)
	assert.Equal(t, 11.0, points[0].Price)
	assert.Equal(t, d(2024, 2, 29), points[1].PeriodEnd)
	assert.Equal(t, 13.0, points[1].Price)
}

func TestResample_MonthlyForwardFill(t *testing.T) {
	s := seriesOf("A",
		[]time.Time{d(2023, 11, 15), d(2024, 2, 10)},
		[]float64{10, 20})

	points := Resample(s, contracts.TimeframeMonthly)
	assert.Equal(t, []float64{10, 10, 10, 20}, Prices(points))
	assert.Equal(t, d(2023, 12, 31), points[1].PeriodEnd)
	assert.Equal(t, d(2024, 1, 31), points[2].PeriodEnd)
}

func TestResample_WeeklyEndsSunday(t *testing.T) {
	// 2024-01-01 = 월요일
	s := seriesOf("A",
		[]time.Time{d(2024, 1, 1), d(2024, 1, 3), d(2024, 1, 7), d(2024, 1, 16)},
		[]float64{1, 2, 3, 4})

	points := Resample(s, contracts.TimeframeWeekly)
	require.Len(t, points, 3)
	assert.Equal(t, d(2024, 1, 7), points[0].PeriodEnd) // 일요일 포함
	assert.Equal(t, 3.0, points[0].Price)
	assert.Equal(t, d(2024, 1, 14), points[1].PeriodEnd) // 빈 주 forward-fill
	assert.Equal(t, 3.0, points[1].Price)
	assert.Equal(t, d(2024, 1, 21), points[2].PeriodEnd)
	assert.Equal(t, 4.0, points[2].Price)
}

func TestResample_Daily(t *testing.T) {
	s := seriesOf("A", []time.Time{d(2024, 1, 3), d(2024, 1, 2)}, []float64{2, 1})
	assert.Equal(t, []float64{1, 2}, Prices(Resample(s, contracts.TimeframeDaily)))
	assert.Nil(t, Resample(contracts.PriceSeries{}, contracts.TimeframeDaily))
}

func TestMomentum_Formula(t *testing.T) {
	prices := []float64{100, 105, 110, 95, 120, 125, 130, 128, 135, 140, 150, 145, 160, 170}
	n := len(prices)

	got, err := Momentum(prices, 12, 2)
	require.NoError(t, err)

	// t = n-1: price[t-2] / price[t-12] - 1
	want := prices[n-1-2]/prices[n-1-12] - 1
	assert.InDelta(t, want, got, 1e-9)
	assert.InDelta(t, 145.0/105.0-1, got, 1e-9)

	// 월간 리샘플 경유도 동일
	calc := NewMomentumCalculator(logger.NewNop())
	viaSeries, err := calc.Calculate(monthlySeries(prices), contracts.TimeframeMonthly, 12, 2)
	require.NoError(t, err)
	assert.InDelta(t, want, viaSeries, 1e-9)
}

func TestMomentum_Errors(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		lookback int
		lag      int
		wantErr  error
	}{
		{"lag equals lookback", []float64{1, 2, 3}, 2, 2, contracts.ErrInvalidConfig},
		{"lag above lookback", []float64{1, 2, 3}, 1, 2, contracts.ErrInvalidConfig},
		{"negative lag", []float64{1, 2, 3}, 2, -1, contracts.ErrInvalidConfig},
		{"too short", []float64{1, 2, 3}, 3, 1, contracts.ErrInsufficientHistory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Momentum(tt.prices, tt.lookback, tt.lag)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// 정확히 lookback+1개면 계산 가능
	m, err := Momentum([]float64{100, 999, 110}, 2, 1)
	require.NoError(t, err)
	assert.InDelta(t, 9.99-1, m, 1e-9)
}

func TestCalculateAll(t *testing.T) {
	data := &contracts.MarketData{
		Prices: map[string]contracts.PriceSeries{
			"LONG":  monthlySeries([]float64{100, 110, 120, 130, 140}),
			"SHORT": monthlySeries([]float64{100, 110}),
		},
	}
	calc := NewMomentumCalculator(logger.NewNop())

	scores, dropped, err := calc.CalculateAll(data, []string{"LONG", "SHORT", "NONE"}, contracts.TimeframeMonthly, 3, 1)
	require.NoError(t, err)

	assert.InDelta(t, 130.0/110.0-1, scores["LONG"], 1e-9)
	assert.Len(t, scores, 1)
	assert.ErrorIs(t, dropped["SHORT"], contracts.ErrInsufficientHistory)
	assert.ErrorIs(t, dropped["NONE"], contracts.ErrInsufficientHistory)

	_, _, err = calc.CalculateAll(data, []string{"LONG"}, contracts.TimeframeMonthly, 2, 2)
	assert.True(t, errors.Is(err, contracts.ErrInvalidConfig))
}

func TestPositivePeriods(t *testing.T) {
	// 수익률: +, +, -, +, 0, +
	s := monthlySeries([]float64{100, 110, 120, 100, 105, 105, 110})

	n, err := PositivePeriods(s, contracts.TimeframeMonthly, 12)
	require.NoError(t, err)
	assert.Equal(t, 4, n) // 0은 양수 아님

	n, err = PositivePeriods(s, contracts.TimeframeMonthly, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n) // 마지막 3개: +, 0, +
}

func TestPositivePeriods_Insufficient(t *testing.T) {
	_, err := PositivePeriods(monthlySeries([]float64{100}), contracts.TimeframeMonthly, 12)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
}

func TestDailyVolatility(t *testing.T) {
	s := seriesOf("A",
		[]time.Time{d(2024, 1, 2), d(2024, 1, 3), d(2024, 1, 4), d(2024, 1, 5)},
		[]float64{100, 110, 99, 108.9})

	// 수익률 [0.1, -0.1, 0.1], 표본 표준편차
	vol, err := DailyVolatility(s, 3)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt((24.0/900)/2), vol, 1e-9)

	// 최근 2개 [-0.1, 0.1]
	vol, err = DailyVolatility(s, 2)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.02), vol, 1e-9)

	_, err = DailyVolatility(seriesOf("B", []time.Time{d(2024, 1, 2), d(2024, 1, 3)}, []float64{1, 2}), 252)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
}
