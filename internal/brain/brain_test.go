package brain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/backend/internal/audit"
	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/execution"
	"github.com/wonny/momentum/backend/internal/portfolio"
	"github.com/wonny/momentum/backend/internal/realtime"
	"github.com/wonny/momentum/backend/internal/risk"
	"github.com/wonny/momentum/backend/internal/s0_data/collector"
	"github.com/wonny/momentum/backend/internal/s0_data/quality"
	"github.com/wonny/momentum/backend/internal/strategyconfig"
	"github.com/wonny/momentum/backend/pkg/logger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 35, 0, 0, time.UTC)
}

func TestIsRebalanceDay(t *testing.T) {
	tests := []struct {
		name string
		tf   contracts.Timeframe
		date time.Time
		want bool
	}{
		{"daily any day", contracts.TimeframeDaily, day(2024, 7, 3), true},
		{"weekly monday", contracts.TimeframeWeekly, day(2024, 7, 8), true},
		{"weekly tuesday", contracts.TimeframeWeekly, day(2024, 7, 9), false},
		{"weekly sunday", contracts.TimeframeWeekly, day(2024, 7, 7), false},
		{"monthly first is monday", contracts.TimeframeMonthly, day(2024, 7, 1), true},
		{"monthly second day", contracts.TimeframeMonthly, day(2024, 7, 2), false},
		{"monthly first is saturday", contracts.TimeframeMonthly, day(2024, 6, 1), false},
		{"monthly monday after weekend", contracts.TimeframeMonthly, day(2024, 6, 3), true},
		{"monthly first is sunday", contracts.TimeframeMonthly, day(2024, 9, 2), true},
		{"unknown timeframe", contracts.Timeframe("HOURLY"), day(2024, 7, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRebalanceDay(tt.tf, tt.date))
		})
	}
}

func TestFirstBusinessDay(t *testing.T) {
	assert.Equal(t, time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC), FirstBusinessDayOfWeek(day(2024, 7, 12)))
	assert.Equal(t, time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC), FirstBusinessDayOfWeek(day(2024, 7, 14)))
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), FirstBusinessDayOfMonth(day(2024, 6, 20)))
}

func TestDueTimeframes(t *testing.T) {
	all := contracts.AllTimeframes

	assert.Equal(t, all, DueTimeframes(all, day(2024, 7, 1), false))
	assert.Equal(t, []contracts.Timeframe{contracts.TimeframeWeekly, contracts.TimeframeDaily},
		DueTimeframes(all, day(2024, 7, 8), false))
	assert.Equal(t, []contracts.Timeframe{contracts.TimeframeDaily}, DueTimeframes(all, day(2024, 7, 10), false))
	assert.Equal(t, all, DueTimeframes(all, day(2024, 7, 10), true))
}

// --- orchestrator fixtures ---

func mcap(v float64) *float64 { return &v }

func monthly(ticker string, prices ...float64) contracts.PriceSeries {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.PriceBar, len(prices))
	for i, p := range prices {
		bars[i] = contracts.PriceBar{Date: start.AddDate(0, i, 0), AdjClose: p}
	}
	return contracts.NewPriceSeries(ticker, bars)
}

// T01..T10: 모멘텀 = i% → 롱 T10,T09 / 숏 T02,T01
type fakeCollector struct {
	calls int
}

func (f *fakeCollector) Collect(_ context.Context, entries []contracts.UniverseEntry, _ collector.Config) (*contracts.MarketData, []collector.FetchResult, error) {
	f.calls++
	data := &contracts.MarketData{
		AsOf:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Prices: map[string]contracts.PriceSeries{},
	}
	for i, e := range entries {
		e.MarketCap = mcap(float64(i+1) * 1e9)
		data.Universe = append(data.Universe, e)
		data.Prices[e.Ticker] = monthly(e.Ticker, 100, 100, 100, 100, 100*(1+float64(i+1)/100), 90)
	}
	return data, nil, nil
}

type fakeQuotes map[string]float64

func (f fakeQuotes) Fetch(_ context.Context, tickers []string) (*realtime.FetchResult, error) {
	res := &realtime.FetchResult{Prices: map[string]float64{}, Failed: map[string]error{}}
	for _, t := range tickers {
		if p, ok := f[t]; ok {
			res.Prices[t] = p
		} else {
			res.Failed[t] = contracts.ErrNoPrice
		}
	}
	return res, nil
}

type confirmFunc func(ctx context.Context, label string, orders []contracts.Order) (execution.Decision, error)

func (f confirmFunc) Confirm(ctx context.Context, label string, orders []contracts.Order) (execution.Decision, error) {
	return f(ctx, label, orders)
}

type liveBroker struct {
	reject map[string]bool
	calls  int
}

func (b *liveBroker) Name() string { return "fake-live" }
func (b *liveBroker) Live() bool   { return true }

func (b *liveBroker) SubmitOrder(_ context.Context, req execution.OrderRequest) (*contracts.Fill, error) {
	b.calls++
	if b.reject[req.Ticker] {
		return nil, fmt.Errorf("%s: rejected", req.Ticker)
	}
	return &contracts.Fill{Ticker: req.Ticker, Action: req.Action, Quantity: req.Quantity, Price: 100}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type harness struct {
	orch      *Orchestrator
	collector *fakeCollector
	states    *portfolio.StateStore
	runs      *audit.MemoryRepository
	events    *recordingPublisher
	outputDir string
}

func testConfig() *strategyconfig.Config {
	cfg := strategyconfig.Defaults()
	cfg.Run.Strategies = []string{"CORE"}
	cfg.Run.Timeframes = []string{"MONTHLY"}
	cfg.Universe.LiquidityPercentile = 0
	cfg.Universe.ExcludeSectors = nil
	cfg.Momentum = strategyconfig.Momentum{Lookback: 3, Lag: 1}
	cfg.Selection.TopPercentileCutoff = 0.2
	cfg.Execution.DelayBetweenOrders = 0
	cfg.Execution.InitialCash = 10000
	return cfg
}

func newHarness(t *testing.T, quotes fakeQuotes, broker execution.Broker) *harness {
	t.Helper()
	dir := t.TempDir()

	var sb strings.Builder
	sb.WriteString("Ticker,Sector\n")
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&sb, "T%02d,Tech\n", i)
	}
	universePath := filepath.Join(dir, "universe.csv")
	require.NoError(t, os.WriteFile(universePath, []byte(sb.String()), 0o644))

	h := &harness{
		collector: &fakeCollector{},
		states:    portfolio.NewStateStore(filepath.Join(dir, "state"), logger.NewNop()),
		runs:      audit.NewMemoryRepository(10),
		events:    &recordingPublisher{},
		outputDir: filepath.Join(dir, "reports"),
	}
	h.orch = NewOrchestrator(Deps{
		Config:       testConfig(),
		UniversePath: universePath,
		Collector:    h.collector,
		QualityGate:  quality.NewQualityGate(quality.DefaultConfig()),
		Quotes:       quotes,
		Broker:       broker,
		States:       h.states,
		Runs:         h.runs,
		Events:       h.events,
		OutputDir:    h.outputDir,
	}, logger.NewNop())
	return h
}

func allQuotes() fakeQuotes {
	return fakeQuotes{"T01": 100, "T02": 100, "T09": 100, "T10": 100}
}

func TestOrchestrator_PaperRun(t *testing.T) {
	h := newHarness(t, allQuotes(), nil)

	result, err := h.orch.Run(context.Background(), RunConfig{RunID: "run-1", Date: day(2024, 7, 1)})
	require.NoError(t, err)

	assert.Equal(t, []contracts.Timeframe{contracts.TimeframeMonthly}, result.Due)
	assert.Equal(t, 1, h.collector.calls)
	require.NotNil(t, result.Quality)
	require.Len(t, result.Cycles, 1)

	cycle := result.Cycles[0]
	assert.Equal(t, StatusCompleted, cycle.Status)
	assert.True(t, cycle.Executed)
	assert.Equal(t, []string{"T10", "T09"}, cycle.Longs)
	assert.Equal(t, []string{"T02", "T01"}, cycle.Shorts)
	assert.Equal(t, 10, cycle.Survivors)
	assert.InDelta(t, 10000, cycle.TotalValue, 1e-9)
	require.Len(t, cycle.Orders, 4)
	assert.Len(t, cycle.Fills, 4)
	assert.FileExists(t, cycle.ReportPath)

	// 10000 / 4 슬롯 = 2500 → 25주
	book, err := h.states.Load(contracts.StrategyCore, contracts.TimeframeMonthly, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"T10": 25, "T09": 25, "T02": -25, "T01": -25}, book.Positions())
	assert.InDelta(t, 10000, book.Cash(), 1e-9)

	runs, err := h.runs.LatestRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)

	types := h.events.types()
	require.NotEmpty(t, types)
	assert.Equal(t, EventCycleStarted, types[0])
	assert.Equal(t, EventCycleFinished, types[len(types)-1])
	assert.Contains(t, types, EventOrdersCalculated)
	assert.Contains(t, types, EventOrderFilled)
}

func TestOrchestrator_SecondRunIsIdempotent(t *testing.T) {
	h := newHarness(t, allQuotes(), nil)

	_, err := h.orch.Run(context.Background(), RunConfig{Date: day(2024, 7, 1)})
	require.NoError(t, err)

	result, err := h.orch.Run(context.Background(), RunConfig{Date: day(2024, 7, 1)})
	require.NoError(t, err)
	require.Len(t, result.Cycles, 1)
	assert.Empty(t, result.Cycles[0].Orders)
}

func TestOrchestrator_DryRun(t *testing.T) {
	h := newHarness(t, allQuotes(), nil)

	result, err := h.orch.Run(context.Background(), RunConfig{Date: day(2024, 7, 1), DryRun: true})
	require.NoError(t, err)
	require.Len(t, result.Cycles, 1)
	assert.Equal(t, StatusDryRun, result.Cycles[0].Status)
	assert.Len(t, result.Cycles[0].Orders, 4)
	assert.False(t, result.Cycles[0].Executed)

	_, err = os.Stat(h.states.Path(contracts.StrategyCore, contracts.TimeframeMonthly))
	assert.True(t, os.IsNotExist(err))
}

func TestOrchestrator_NotDue(t *testing.T) {
	h := newHarness(t, allQuotes(), nil)

	result, err := h.orch.Run(context.Background(), RunConfig{Date: day(2024, 7, 2)})
	require.NoError(t, err)
	assert.Empty(t, result.Due)
	assert.Empty(t, result.Cycles)
	assert.Equal(t, 0, h.collector.calls)

	result, err = h.orch.Run(context.Background(), RunConfig{Date: day(2024, 7, 2), Force: true, DryRun: true})
	require.NoError(t, err)
	assert.Len(t, result.Cycles, 1)
}

func TestOrchestrator_Skip(t *testing.T) {
	h := newHarness(t, allQuotes(), nil)

	skip := confirmFunc(func(context.Context, string, []contracts.Order) (execution.Decision, error) {
		return execution.DecisionSkip, nil
	})
	result, err := h.orch.Run(context.Background(), RunConfig{Date: day(2024, 7, 1), Confirmer: skip})
	require.NoError(t, err)

	cycle := result.Cycles[0]
	assert.Equal(t, StatusSkipped, cycle.Status)
	assert.False(t, cycle.Executed)
	assert.Empty(t, cycle.Fills)

	book, err := h.states.Load(contracts.StrategyCore, contracts.TimeframeMonthly, 0)
	require.NoError(t, err)
	assert.Equal(t, 25, book.Quantity("T10"))
	assert.Equal(t, -25, book.Quantity("T01"))
}

func TestOrchestrator_Abort(t *testing.T) {
	h := newHarness(t, allQuotes(), nil)

	abort := confirmFunc(func(context.Context, string, []contracts.Order) (execution.Decision, error) {
		return "", contracts.ErrAborted
	})
	result, err := h.orch.Run(context.Background(), RunConfig{Date: day(2024, 7, 1), Confirmer: abort})
	assert.ErrorIs(t, err, contracts.ErrAborted)
	require.Len(t, result.Cycles, 1)
	assert.Equal(t, StatusAborted, result.Cycles[0].Status)

	_, statErr := os.Stat(h.states.Path(contracts.StrategyCore, contracts.TimeframeMonthly))
	assert.True(t, os.IsNotExist(statErr))
}

func TestOrchestrator_MissingQuote(t *testing.T) {
	quotes := allQuotes()
	delete(quotes, "T01")
	h := newHarness(t, quotes, nil)

	result, err := h.orch.Run(context.Background(), RunConfig{Date: day(2024, 7, 1)})
	require.NoError(t, err)

	cycle := result.Cycles[0]
	require.Len(t, cycle.Orders, 3)
	for _, o := range cycle.Orders {
		assert.NotEqual(t, "T01", o.Ticker)
	}

	book, err := h.states.Load(contracts.StrategyCore, contracts.TimeframeMonthly, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, book.Quantity("T01"))
}

func TestOrchestrator_LiveBrokerPartialFailure(t *testing.T) {
	broker := &liveBroker{reject: map[string]bool{"T02": true}}
	h := newHarness(t, allQuotes(), broker)

	result, err := h.orch.Run(context.Background(), RunConfig{Date: day(2024, 7, 1)})
	require.NoError(t, err)

	cycle := result.Cycles[0]
	assert.Equal(t, StatusCompleted, cycle.Status)
	assert.Equal(t, 4, broker.calls)
	assert.Len(t, cycle.Fills, 3)

	book, err := h.states.Load(contracts.StrategyCore, contracts.TimeframeMonthly, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"T10": 25, "T09": 25, "T01": -25}, book.Positions())
	// 매수 2건(-5000) + 공매도 1건(+2500)
	assert.InDelta(t, 7500, book.Cash(), 1e-9)
}

func TestOrchestrator_CycleFailureContinues(t *testing.T) {
	h := newHarness(t, allQuotes(), nil)
	h.orch.deps.Config.Run.Strategies = []string{"CORE", "SMOOTH"}
	h.orch.deps.Config.Momentum.Lag = 3 // lookback - lag < 1 → 모든 사이클 설정 오류

	result, err := h.orch.Run(context.Background(), RunConfig{Date: day(2024, 7, 1)})
	require.NoError(t, err)
	require.Len(t, result.Cycles, 2)
	assert.Len(t, result.Failed(), 2)
	for _, c := range result.Cycles {
		assert.Contains(t, c.Error, contracts.ErrInvalidConfig.Error())
	}
}

func TestOrchestrator_UniverseMissing(t *testing.T) {
	h := newHarness(t, allQuotes(), nil)
	h.orch.deps.UniversePath = filepath.Join(t.TempDir(), "missing.csv")

	_, err := h.orch.Run(context.Background(), RunConfig{Date: day(2024, 7, 1)})
	require.Error(t, err)
	assert.False(t, errors.Is(err, contracts.ErrAborted))
	assert.Equal(t, 0, h.collector.calls)
}

func TestOrchestrator_RiskSnapshot(t *testing.T) {
	h := newHarness(t, allQuotes(), nil)
	cfg := risk.DefaultConfig()
	cfg.MinSamples = 3
	h.orch.deps.Risk = risk.NewEngine(cfg, logger.NewNop())

	result, err := h.orch.Run(context.Background(), RunConfig{RunID: "run-risk", Date: day(2024, 7, 1), DryRun: true})
	require.NoError(t, err)
	require.Len(t, result.Cycles, 1)

	snap := result.Cycles[0].Risk
	require.NotNil(t, snap)
	assert.Equal(t, 5, snap.Samples)
	assert.Equal(t, 21, snap.HoldingDays)
	assert.InDelta(t, 1.0, snap.GrossExposure, 1e-12)
	assert.InDelta(t, 0.0, snap.NetExposure, 1e-12)
}

func TestOrchestrator_RiskUnavailableDoesNotFailCycle(t *testing.T) {
	h := newHarness(t, allQuotes(), nil)
	h.orch.deps.Risk = risk.NewEngine(risk.DefaultConfig(), logger.NewNop())

	result, err := h.orch.Run(context.Background(), RunConfig{RunID: "run-risk", Date: day(2024, 7, 1)})
	require.NoError(t, err)
	require.Len(t, result.Cycles, 1)
	assert.Equal(t, StatusCompleted, result.Cycles[0].Status)
	assert.Nil(t, result.Cycles[0].Risk)
}
