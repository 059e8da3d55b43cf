package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is a byte cache with per-entry TTL
// ⭐ SSOT: 일 단위 시장 데이터 캐시 백엔드 (badger 또는 redis)
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context) (int, error)
	Close() error
}

// HistoryKey scopes a price history entry to its calendar date
func HistoryKey(date time.Time, ticker string) string {
	return fmt.Sprintf("history:%s:%s", date.Format("2006-01-02"), ticker)
}

// InfoKey scopes a fundamentals entry to its calendar date
func InfoKey(date time.Time, ticker string) string {
	return fmt.Sprintf("info:%s:%s", date.Format("2006-01-02"), ticker)
}

// TTLUntilMidnight returns the time left until the next midnight of now's location
// 최소 1분 (자정 직전 저장 시 즉시 만료 방지)
func TTLUntilMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	ttl := next.Sub(now)
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}
