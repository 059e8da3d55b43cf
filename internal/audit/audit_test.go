package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/config"
	"github.com/wonny/momentum/backend/pkg/database"
)

func TestReportPath(t *testing.T) {
	at := time.Date(2024, 7, 1, 9, 35, 7, 0, time.UTC)
	got := ReportPath("output", contracts.StrategyFrogInPan, contracts.TimeframeMonthly, at)
	assert.Equal(t, filepath.Join("output", "FROG_IN_PAN_MONTHLY_report_2024-07-01_09-35-07.csv"), got)
}

func TestWriteReport(t *testing.T) {
	vol := 0.0123
	pos := 9
	mcap := 3.1e12
	target := &contracts.TargetPortfolio{
		Strategy:  contracts.StrategySmooth,
		Timeframe: contracts.TimeframeWeekly,
		Report: []contracts.EligibilityRecord{
			{Ticker: "NVDA", Rank: 1, Decile: 1, Momentum: 0.85, PositivePeriods: &pos, MarketCap: &mcap, Sector: "Information Technology"},
			{Ticker: "XOM", Rank: 2, Decile: 1, Momentum: -0.1, Volatility: &vol, Sector: "Energy"},
		},
	}

	dir := filepath.Join(t.TempDir(), "reports")
	path, err := WriteReport(dir, target, time.Date(2024, 7, 1, 9, 35, 0, 0, time.UTC))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Ticker,Rank,Decile,Momentum,Volatility,PositivePeriods,MarketCap,Sector\n"+
			"NVDA,1,1,0.85,,9,3100000000000,Information Technology\n"+
			"XOM,2,1,-0.1,0.0123,,,Energy\n",
		string(raw))
}

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository(2)
	ctx := context.Background()

	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, repo.SaveRun(ctx, &contracts.CycleRecord{RunID: id}))
	}

	runs, err := repo.LatestRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].RunID)
	assert.Equal(t, "r2", runs[1].RunID)

	runs, err = repo.LatestRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestMultiRepository(t *testing.T) {
	a, b := NewMemoryRepository(5), NewMemoryRepository(5)
	multi := MultiRepository{a, b}

	require.NoError(t, multi.SaveRun(context.Background(), &contracts.CycleRecord{RunID: "x"}))
	runs, _ := b.LatestRuns(context.Background(), 0)
	assert.Len(t, runs, 1)

	runs, err := multi.LatestRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "x", runs[0].RunID)
}

func TestRepository_Postgres(t *testing.T) {
	if testing.Short() || os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db.Pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	now := time.Now().UTC().Truncate(time.Second)
	run := &contracts.CycleRecord{
		RunID:      "test-" + now.Format("150405.000000000"),
		Strategy:   contracts.StrategyCore,
		Timeframe:  contracts.TimeframeDaily,
		ConfigHash: "abc",
		StartedAt:  now,
		FinishedAt: now.Add(time.Second),
		Longs:      []string{"NVDA"},
		Orders:     []contracts.Order{{Ticker: "NVDA", Action: contracts.ActionBuy, Quantity: 3}},
		Status:     "completed",
	}
	require.NoError(t, repo.SaveRun(ctx, run))

	runs, err := repo.LatestRuns(ctx, 50)
	require.NoError(t, err)

	var found *contracts.CycleRecord
	for _, r := range runs {
		if r.RunID == run.RunID {
			found = r
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, []string{"NVDA"}, found.Longs)
	assert.Empty(t, found.Shorts)
	require.Len(t, found.Orders, 1)
	assert.Equal(t, 3, found.Orders[0].Quantity)
}
