package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/s0_data/universe"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// ConstituentSource fetches the current index constituents
type ConstituentSource interface {
	Fetch(ctx context.Context, sourceURL string) ([]contracts.UniverseEntry, error)
}

// UniverseJob refreshes the universe CSV from the constituents page
// ⭐ SSOT: 유니버스 CSV 갱신 스케줄은 이 Job에서만
type UniverseJob struct {
	source    ConstituentSource
	sourceURL string
	path      string
	minCount  int
	logger    *logger.Logger
}

// NewUniverseJob creates a new universe job
// minCount 미만이면 기존 CSV 유지 (스크래핑 결과 이상)
func NewUniverseJob(source ConstituentSource, sourceURL, path string, minCount int, log *logger.Logger) *UniverseJob {
	return &UniverseJob{
		source:    source,
		sourceURL: sourceURL,
		path:      path,
		minCount:  minCount,
		logger:    log,
	}
}

// Name returns the job name
func (j *UniverseJob) Name() string {
	return "universe_refresh"
}

// Schedule returns the cron schedule (Sunday 18:00, before the weekly rebalance)
func (j *UniverseJob) Schedule() string {
	return "0 0 18 * * SUN"
}

// Run fetches constituents and rewrites the universe CSV
func (j *UniverseJob) Run(ctx context.Context) error {
	entries, err := j.source.Fetch(ctx, j.sourceURL)
	if err != nil {
		return fmt.Errorf("fetch constituents: %w", err)
	}
	if len(entries) < j.minCount {
		return fmt.Errorf("constituent count %d below minimum %d, keeping %s", len(entries), j.minCount, j.path)
	}

	if err := universe.WriteCSV(j.path, entries); err != nil {
		return fmt.Errorf("write universe: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"count": len(entries),
		"path":  j.path,
	}).Info("Universe refreshed")
	return nil
}
