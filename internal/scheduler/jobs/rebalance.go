package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/momentum/backend/internal/brain"
	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/execution"
	"github.com/wonny/momentum/backend/internal/scheduler"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Runner executes one rebalance run (brain.Orchestrator)
type Runner interface {
	Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error)
}

// RebalanceJob triggers the daily rebalance check
// ⭐ SSOT: 리밸런스 스케줄은 이 Job에서만
// 달력 판정은 Orchestrator가 수행 (평일마다 트리거, 해당 타임프레임만 실행)
type RebalanceJob struct {
	runner   Runner
	schedule string
	execute  bool
	logger   *logger.Logger
}

// NewRebalanceJob creates a rebalance job
// execute=false 이면 dry-run (주문 계산까지만)
func NewRebalanceJob(runner Runner, schedule string, execute bool, log *logger.Logger) *RebalanceJob {
	return &RebalanceJob{
		runner:   runner,
		schedule: schedule,
		execute:  execute,
		logger:   log.WithField("job", "rebalance"),
	}
}

// Name returns the job name
func (j *RebalanceJob) Name() string {
	return "rebalance"
}

// Schedule returns the cron schedule
func (j *RebalanceJob) Schedule() string {
	return j.schedule
}

// Run executes one unattended rebalance
// 중단/중복 실행은 재시도하지 않음
func (j *RebalanceJob) Run(ctx context.Context) error {
	result, err := j.runner.Run(ctx, brain.RunConfig{
		DryRun:    !j.execute,
		Confirmer: execution.AutoConfirmer{},
	})
	if errors.Is(err, brain.ErrRunInProgress) || errors.Is(err, contracts.ErrAborted) {
		return scheduler.Permanent(err)
	}
	if err != nil {
		return err
	}

	failed := result.Failed()
	j.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"due":      result.Due,
		"cycles":   len(result.Cycles),
		"failed":   len(failed),
		"duration": result.Duration,
	}).Info("Scheduled rebalance finished")

	// 사이클 실패는 재시도해도 같은 결과 (설정/데이터 문제)
	if len(failed) > 0 {
		return scheduler.Permanent(fmt.Errorf("%d of %d cycles failed", len(failed), len(result.Cycles)))
	}
	return nil
}
