package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// Repository handles cycle history persistence
// ⭐ SSOT: 실행 이력 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new audit repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS audit;
	CREATE TABLE IF NOT EXISTS audit.cycle_runs (
		id           BIGSERIAL PRIMARY KEY,
		run_id       TEXT        NOT NULL,
		strategy     TEXT        NOT NULL,
		timeframe    TEXT        NOT NULL,
		config_hash  TEXT        NOT NULL,
		started_at   TIMESTAMPTZ NOT NULL,
		finished_at  TIMESTAMPTZ NOT NULL,
		status       TEXT        NOT NULL,
		error        TEXT,
		survivors    INTEGER     NOT NULL,
		total_value  DOUBLE PRECISION NOT NULL,
		cash         DOUBLE PRECISION NOT NULL,
		executed     BOOLEAN     NOT NULL,
		longs        JSONB       NOT NULL,
		shorts       JSONB       NOT NULL,
		orders       JSONB       NOT NULL,
		fills        JSONB       NOT NULL,
		risk         JSONB,
		report_path  TEXT,
		state_path   TEXT,
		UNIQUE (run_id, strategy, timeframe)
	);
	ALTER TABLE audit.cycle_runs ADD COLUMN IF NOT EXISTS risk JSONB;
	CREATE INDEX IF NOT EXISTS idx_cycle_runs_started ON audit.cycle_runs (started_at DESC);
`

// EnsureSchema creates the audit tables if they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure audit schema: %w", err)
	}
	return nil
}

// SaveRun saves one cycle record
func (r *Repository) SaveRun(ctx context.Context, run *contracts.CycleRecord) error {
	longs, err := json.Marshal(nonNil(run.Longs))
	if err != nil {
		return fmt.Errorf("failed to marshal longs: %w", err)
	}
	shorts, err := json.Marshal(nonNil(run.Shorts))
	if err != nil {
		return fmt.Errorf("failed to marshal shorts: %w", err)
	}
	orders, err := json.Marshal(run.Orders)
	if err != nil {
		return fmt.Errorf("failed to marshal orders: %w", err)
	}
	fills, err := json.Marshal(run.Fills)
	if err != nil {
		return fmt.Errorf("failed to marshal fills: %w", err)
	}
	// 리스크 미산출 사이클은 NULL
	var risk []byte
	if run.Risk != nil {
		if risk, err = json.Marshal(run.Risk); err != nil {
			return fmt.Errorf("failed to marshal risk: %w", err)
		}
	}

	query := `
		INSERT INTO audit.cycle_runs (
			run_id, strategy, timeframe, config_hash, started_at, finished_at,
			status, error, survivors, total_value, cash, executed,
			longs, shorts, orders, fills, risk, report_path, state_path
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (run_id, strategy, timeframe) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			survivors = EXCLUDED.survivors,
			total_value = EXCLUDED.total_value,
			cash = EXCLUDED.cash,
			executed = EXCLUDED.executed,
			longs = EXCLUDED.longs,
			shorts = EXCLUDED.shorts,
			orders = EXCLUDED.orders,
			fills = EXCLUDED.fills,
			risk = EXCLUDED.risk,
			report_path = EXCLUDED.report_path,
			state_path = EXCLUDED.state_path
	`

	_, err = r.pool.Exec(ctx, query,
		run.RunID, string(run.Strategy), string(run.Timeframe), run.ConfigHash, run.StartedAt, run.FinishedAt,
		run.Status, run.Error, run.Survivors, run.TotalValue, run.Cash, run.Executed,
		longs, shorts, orders, fills, risk, run.ReportPath, run.StatePath,
	)
	if err != nil {
		return fmt.Errorf("failed to save cycle run: %w", err)
	}
	return nil
}

// LatestRuns returns the most recent cycle records, newest first
func (r *Repository) LatestRuns(ctx context.Context, limit int) ([]*contracts.CycleRecord, error) {
	query := `
		SELECT run_id, strategy, timeframe, config_hash, started_at, finished_at,
			status, COALESCE(error, ''), survivors, total_value, cash, executed,
			longs, shorts, orders, fills, risk, COALESCE(report_path, ''), COALESCE(state_path, '')
		FROM audit.cycle_runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle runs: %w", err)
	}
	defer rows.Close()

	var out []*contracts.CycleRecord
	for rows.Next() {
		var run contracts.CycleRecord
		var strategy, timeframe string
		var longs, shorts, orders, fills, risk []byte

		if err := rows.Scan(
			&run.RunID, &strategy, &timeframe, &run.ConfigHash, &run.StartedAt, &run.FinishedAt,
			&run.Status, &run.Error, &run.Survivors, &run.TotalValue, &run.Cash, &run.Executed,
			&longs, &shorts, &orders, &fills, &risk, &run.ReportPath, &run.StatePath,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cycle run: %w", err)
		}
		run.Strategy = contracts.StrategyName(strategy)
		run.Timeframe = contracts.Timeframe(timeframe)

		for _, col := range []struct {
			raw  []byte
			dest interface{}
		}{
			{longs, &run.Longs}, {shorts, &run.Shorts}, {orders, &run.Orders}, {fills, &run.Fills},
		} {
			if err := json.Unmarshal(col.raw, col.dest); err != nil {
				return nil, fmt.Errorf("failed to unmarshal cycle run: %w", err)
			}
		}
		if len(risk) > 0 {
			run.Risk = &contracts.RiskSnapshot{}
			if err := json.Unmarshal(risk, run.Risk); err != nil {
				return nil, fmt.Errorf("failed to unmarshal cycle risk: %w", err)
			}
		}
		out = append(out, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cycle runs: %w", err)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// MemoryRepository keeps the most recent cycle records in process
// DATABASE_URL이 없을 때 API의 최근 실행 조회용
type MemoryRepository struct {
	mu    sync.RWMutex
	runs  []*contracts.CycleRecord
	limit int
}

// NewMemoryRepository creates a ring of at most limit records
func NewMemoryRepository(limit int) *MemoryRepository {
	if limit <= 0 {
		limit = 100
	}
	return &MemoryRepository{limit: limit}
}

// SaveRun stores a copy of run
func (m *MemoryRepository) SaveRun(_ context.Context, run *contracts.CycleRecord) error {
	copied := *run
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, &copied)
	if len(m.runs) > m.limit {
		m.runs = m.runs[len(m.runs)-m.limit:]
	}
	return nil
}

// LatestRuns returns up to limit records, newest first
func (m *MemoryRepository) LatestRuns(_ context.Context, limit int) ([]*contracts.CycleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.runs) {
		limit = len(m.runs)
	}
	out := make([]*contracts.CycleRecord, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

// MultiRepository fans a record out to several repositories
// 첫 번째 저장소가 조회를 담당
type MultiRepository []contracts.RunRepository

// SaveRun saves to every repository, returning the first error
func (m MultiRepository) SaveRun(ctx context.Context, run *contracts.CycleRecord) error {
	var first error
	for _, repo := range m {
		if err := repo.SaveRun(ctx, run); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LatestRuns reads from the first repository
func (m MultiRepository) LatestRuns(ctx context.Context, limit int) ([]*contracts.CycleRecord, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return m[0].LatestRuns(ctx, limit)
}
