package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/realtime"
	"github.com/wonny/momentum/backend/pkg/logger"
)

func newCache(now time.Time) *PriceCache {
	c := NewPriceCache(time.Minute, logger.NewNop())
	c.now = func() time.Time { return now }
	return c
}

func TestPriceCache_UpdateOrdering(t *testing.T) {
	now := time.Date(2024, 7, 1, 14, 0, 0, 0, time.UTC)
	c := newCache(now)

	require.True(t, c.Update(&realtime.PriceTick{Ticker: "AAPL", Price: 150, Timestamp: now, Source: "YAHOO"}))
	// 오래된 데이터 거부
	assert.False(t, c.Update(&realtime.PriceTick{Ticker: "AAPL", Price: 149, Timestamp: now.Add(-time.Second), Source: "YAHOO"}))
	// 같은 시각: 우선순위 높은 체결가만 수용
	assert.False(t, c.Update(&realtime.PriceTick{Ticker: "AAPL", Price: 151, Timestamp: now, Source: "YAHOO"}))
	assert.True(t, c.Update(&realtime.PriceTick{Ticker: "AAPL", Price: 150.5, Timestamp: now, Source: "FILL"}))
	// 0 이하 가격 거부
	assert.False(t, c.Update(&realtime.PriceTick{Ticker: "MSFT", Price: 0, Timestamp: now}))

	price, ok := c.Fresh("AAPL")
	require.True(t, ok)
	assert.Equal(t, 150.5, price)
	assert.Equal(t, 1, c.Len())

	stats := c.Stats()
	assert.Equal(t, 1, stats.FillCount)
}

func TestPriceCache_Staleness(t *testing.T) {
	now := time.Date(2024, 7, 1, 14, 0, 0, 0, time.UTC)
	c := newCache(now)
	c.Update(&realtime.PriceTick{Ticker: "OLD", Price: 10, Timestamp: now.Add(-2 * time.Minute), Source: "YAHOO"})
	c.Update(&realtime.PriceTick{Ticker: "NEW", Price: 20, Timestamp: now, Source: "YAHOO"})

	tick, ok := c.Get("OLD")
	require.True(t, ok)
	assert.True(t, tick.IsStale)

	assert.Equal(t, map[string]float64{"NEW": 20}, c.Prices([]string{"OLD", "NEW", "NONE"}))

	_, err := c.Quote(context.Background(), "OLD")
	assert.ErrorIs(t, err, contracts.ErrNoPrice)
	q, err := c.Quote(context.Background(), "NEW")
	require.NoError(t, err)
	assert.Equal(t, 20.0, q)

	assert.Equal(t, 1, c.CleanStale())
	c.Clear()
	assert.Zero(t, c.Len())
}
