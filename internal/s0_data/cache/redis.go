package cache

import (
	"context"
	"time"

	"github.com/wonny/momentum/backend/pkg/redis"
)

// RedisStore is the shared cache backend (REDIS_ENABLED)
type RedisStore struct {
	cache  *redis.Cache
	client *redis.Client
}

// NewRedisStore wraps a redis client under the given key prefix
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		cache:  redis.NewCache(client, prefix),
		client: client,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.cache.Get(ctx, key)
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.cache.Set(ctx, key, value, ttl)
}

func (s *RedisStore) Clear(ctx context.Context) (int, error) {
	return s.cache.Flush(ctx)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
