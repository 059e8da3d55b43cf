package jobs

import (
	"context"

	"github.com/wonny/momentum/backend/internal/realtime/cache"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// CacheCleanupJob evicts stale live quotes between runs
type CacheCleanupJob struct {
	cache  *cache.PriceCache
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(priceCache *cache.PriceCache, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  priceCache,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run removes quotes past their TTL
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	count := j.cache.CleanStale()

	if count > 0 {
		j.logger.WithField("removed", count).Info("Quote cache cleanup completed")
	}

	return nil
}
