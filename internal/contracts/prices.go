package contracts

import (
	"sort"
	"time"
)

// PriceBar is one daily OHLCV observation
type PriceBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// PriceSeries is the date-ordered adjusted close history of one ticker
// ⭐ SSOT: S0 → S2 가격 시계열 (읽기 전용)
type PriceSeries struct {
	Ticker string     `json:"ticker"`
	Bars   []PriceBar `json:"bars"`
}

// NewPriceSeries sorts bars by date and drops non-positive adjusted closes
func NewPriceSeries(ticker string, bars []PriceBar) PriceSeries {
	clean := make([]PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.AdjClose > 0 {
			clean = append(clean, b)
		}
	}
	sort.SliceStable(clean, func(i, j int) bool {
		return clean[i].Date.Before(clean[j].Date)
	})
	return PriceSeries{Ticker: ticker, Bars: clean}
}

// Len returns the number of observations
func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// AdjCloses returns the adjusted close column
func (s PriceSeries) AdjCloses() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.AdjClose
	}
	return out
}

// Last returns the most recent bar
func (s PriceSeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// MarketData bundles everything acquired once per run
// ⭐ SSOT: S0 산출물, 모든 사이클이 공유 (읽기 전용)
type MarketData struct {
	AsOf     time.Time              `json:"as_of"`
	Universe []UniverseEntry        `json:"universe"`
	Prices   map[string]PriceSeries `json:"prices"`
}

// Series returns the price series for a ticker
func (m *MarketData) Series(ticker string) (PriceSeries, bool) {
	s, ok := m.Prices[ticker]
	return s, ok && s.Len() > 0
}
