package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// RunRepository persists cycle history (optional, Postgres)
type RunRepository interface {
	SaveRun(ctx context.Context, run *CycleRecord) error
	LatestRuns(ctx context.Context, limit int) ([]*CycleRecord, error)
}

// CycleRecord is the audit record of one (strategy, timeframe) cycle
type CycleRecord struct {
	RunID      string        `json:"run_id"`
	Strategy   StrategyName  `json:"strategy"`
	Timeframe  Timeframe     `json:"timeframe"`
	ConfigHash string        `json:"config_hash"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Longs      []string      `json:"longs"`
	Shorts     []string      `json:"shorts"`
	Survivors  int           `json:"survivors"`
	TotalValue float64       `json:"total_value"`
	Cash       float64       `json:"cash"`
	Orders     []Order       `json:"orders"`
	Fills      []Fill        `json:"fills"`
	Executed   bool          `json:"executed"`
	Risk       *RiskSnapshot `json:"risk,omitempty"`
	Status     string        `json:"status"` // completed, skipped, failed, aborted
	Error      string        `json:"error,omitempty"`
	ReportPath string        `json:"report_path,omitempty"`
	StatePath  string        `json:"state_path,omitempty"`
}
