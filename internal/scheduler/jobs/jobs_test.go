package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/backend/internal/brain"
	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/execution"
	"github.com/wonny/momentum/backend/internal/realtime"
	"github.com/wonny/momentum/backend/internal/realtime/cache"
	"github.com/wonny/momentum/backend/internal/s0_data/universe"
	"github.com/wonny/momentum/backend/internal/scheduler"
	"github.com/wonny/momentum/backend/pkg/logger"
)

type fakeRunner struct {
	got    brain.RunConfig
	result *brain.RunResult
	err    error
}

func (f *fakeRunner) Run(_ context.Context, cfg brain.RunConfig) (*brain.RunResult, error) {
	f.got = cfg
	return f.result, f.err
}

func TestRebalanceJob(t *testing.T) {
	ok := &brain.RunResult{RunID: "r1", Cycles: []*contracts.CycleRecord{{Status: brain.StatusCompleted}}}
	failed := &brain.RunResult{RunID: "r2", Cycles: []*contracts.CycleRecord{{Status: brain.StatusFailed}}}

	tests := []struct {
		name          string
		runner        *fakeRunner
		wantErr       bool
		wantPermanent bool
	}{
		{"success", &fakeRunner{result: ok}, false, false},
		{"cycle failed", &fakeRunner{result: failed}, true, true},
		{"in progress", &fakeRunner{err: brain.ErrRunInProgress}, true, true},
		{"aborted", &fakeRunner{err: contracts.ErrAborted}, true, true},
		{"transient", &fakeRunner{err: errors.New("collect market data: timeout")}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewRebalanceJob(tt.runner, "0 35 9 * * MON-FRI", true, logger.NewNop())
			err := job.Run(context.Background())
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantPermanent, scheduler.IsPermanent(err))
		})
	}
}

func TestRebalanceJob_DryRunByDefault(t *testing.T) {
	runner := &fakeRunner{result: &brain.RunResult{}}
	job := NewRebalanceJob(runner, "@daily", false, logger.NewNop())

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, runner.got.DryRun)
	assert.IsType(t, execution.AutoConfirmer{}, runner.got.Confirmer)
	assert.Equal(t, "rebalance", job.Name())
	assert.Equal(t, "@daily", job.Schedule())
}

type fakeSource struct {
	entries []contracts.UniverseEntry
	err     error
}

func (f fakeSource) Fetch(_ context.Context, _ string) ([]contracts.UniverseEntry, error) {
	return f.entries, f.err
}

func TestUniverseJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.csv")
	entries := []contracts.UniverseEntry{
		{Ticker: "AAPL", Sector: "Information Technology"},
		{Ticker: "BRK-B", Sector: "Financials"},
	}

	require.NoError(t, NewUniverseJob(fakeSource{entries: entries}, "http://x", path, 2, logger.NewNop()).Run(context.Background()))
	got, err := universe.LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	// 최소 종목 수 미달 → 기존 파일 유지
	err = NewUniverseJob(fakeSource{entries: entries[:1]}, "http://x", path, 2, logger.NewNop()).Run(context.Background())
	assert.Error(t, err)
	got, err = universe.LoadCSV(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	err = NewUniverseJob(fakeSource{err: errors.New("503")}, "http://x", path, 2, logger.NewNop()).Run(context.Background())
	assert.Error(t, err)
}

func TestCacheCleanupJob(t *testing.T) {
	c := cache.NewPriceCache(time.Millisecond, logger.NewNop())
	c.Update(&realtime.PriceTick{Ticker: "AAPL", Price: 190, Timestamp: time.Now().Add(-time.Hour), Source: string(realtime.SourceYahoo)})
	require.Equal(t, 1, c.Len())

	require.NoError(t, NewCacheCleanupJob(c, logger.NewNop()).Run(context.Background()))
	assert.Equal(t, 0, c.Len())
}
