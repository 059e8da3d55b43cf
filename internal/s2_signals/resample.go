package s2_signals

import (
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// Point is one period-end price of a resampled series
type Point struct {
	PeriodEnd time.Time
	Price     float64
}

// Resample converts a daily series to the timeframe's period-end prices
// MONTHLY: 달력 월 마지막 관측값, WEEKLY: 일요일 종료 주 마지막 관측값, DAILY: 원본
// 첫 관측과 마지막 관측 사이의 빈 기간은 직전 가격으로 채움
func Resample(series contracts.PriceSeries, tf contracts.Timeframe) []Point {
	if series.Len() == 0 {
		return nil
	}

	if tf == contracts.TimeframeDaily {
		out := make([]Point, series.Len())
		for i, b := range series.Bars {
			out[i] = Point{PeriodEnd: dateOnly(b.Date), Price: b.AdjClose}
		}
		return out
	}

	// 1. 기간별 마지막 관측값
	var buckets []Point
	for _, b := range series.Bars {
		end := periodEnd(b.Date, tf)
		if n := len(buckets); n > 0 && buckets[n-1].PeriodEnd.Equal(end) {
			buckets[n-1].Price = b.AdjClose
			continue
		}
		buckets = append(buckets, Point{PeriodEnd: end, Price: b.AdjClose})
	}

	// 2. 빈 기간 forward-fill
	out := make([]Point, 0, len(buckets))
	for i, p := range buckets {
		if i > 0 {
			prev := out[len(out)-1]
			for gap := nextPeriodEnd(prev.PeriodEnd, tf); gap.Before(p.PeriodEnd); gap = nextPeriodEnd(gap, tf) {
				out = append(out, Point{PeriodEnd: gap, Price: prev.Price})
			}
		}
		out = append(out, p)
	}
	return out
}

// Prices extracts the price column of resampled points
func Prices(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Price
	}
	return out
}

// periodEnd returns the label date of the period containing t
func periodEnd(t time.Time, tf contracts.Timeframe) time.Time {
	d := dateOnly(t)
	switch tf {
	case contracts.TimeframeMonthly:
		// 다음 달 1일 - 1일 = 월말
		return time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	case contracts.TimeframeWeekly:
		daysToSunday := (7 - int(d.Weekday())) % 7
		return d.AddDate(0, 0, daysToSunday)
	}
	return d
}

func nextPeriodEnd(end time.Time, tf contracts.Timeframe) time.Time {
	switch tf {
	case contracts.TimeframeMonthly:
		return periodEnd(end.AddDate(0, 0, 1), tf)
	case contracts.TimeframeWeekly:
		return end.AddDate(0, 0, 7)
	}
	return end.AddDate(0, 0, 1)
}

// dateOnly drops the clock and normalizes to UTC calendar date
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
