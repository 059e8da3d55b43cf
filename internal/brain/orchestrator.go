package brain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/momentum/backend/internal/audit"
	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/execution"
	"github.com/wonny/momentum/backend/internal/portfolio"
	"github.com/wonny/momentum/backend/internal/realtime"
	"github.com/wonny/momentum/backend/internal/risk"
	"github.com/wonny/momentum/backend/internal/s0_data/collector"
	"github.com/wonny/momentum/backend/internal/s0_data/quality"
	"github.com/wonny/momentum/backend/internal/s0_data/universe"
	"github.com/wonny/momentum/backend/internal/strategyconfig"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// ErrRunInProgress is returned when Run is called while another run holds the lock
var ErrRunInProgress = errors.New("rebalance run already in progress")

// Cycle statuses recorded in contracts.CycleRecord
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusDryRun    = "dry_run"
	StatusFailed    = "failed"
	StatusAborted   = "aborted"
)

// DataCollector acquires market data for the universe once per run
type DataCollector interface {
	Collect(ctx context.Context, entries []contracts.UniverseEntry, cfg collector.Config) (*contracts.MarketData, []collector.FetchResult, error)
}

// QuoteSource returns live prices (realtime/feed.QuoteFetcher)
type QuoteSource interface {
	Fetch(ctx context.Context, tickers []string) (*realtime.FetchResult, error)
}

// Deps bundles the collaborators of the orchestrator
type Deps struct {
	Config        *strategyconfig.Config
	UniversePath  string // 비어 있으면 Config.Universe.TickersCSV
	Collector     DataCollector
	CollectConfig collector.Config
	QualityGate   *quality.QualityGate
	Risk          *risk.Engine // optional, 주문에는 영향 없음
	Quotes        QuoteSource
	Broker        execution.Broker // nil 또는 Live()=false → 모의 체결
	States        *portfolio.StateStore
	Runs          contracts.RunRepository // optional
	Events        Publisher               // optional
	OutputDir     string
	SubmitTimeout time.Duration
}

// Orchestrator runs the full rebalance flow for every due (timeframe, strategy) pair
// ⭐ SSOT: 파이프라인 조율은 여기서만
// S0(수집) → S1(유니버스) → S2(모멘텀) → S3/S4(스크린/순위) → S5(목표) → S6(주문) → S7(감사)
type Orchestrator struct {
	deps        Deps
	constructor *portfolio.Constructor
	rebalancer  *portfolio.Rebalancer

	mu     sync.Mutex
	logger *logger.Logger
	now    func() time.Time
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID      string
	Date       time.Time // 달력 판정 기준일 (zero = now)
	Strategies []contracts.StrategyName
	Timeframes []contracts.Timeframe
	Force      bool // 달력 무시
	DryRun     bool // 주문 계산까지만, 상태 저장 없음
	Confirmer  execution.Confirmer
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID      string                   `json:"run_id"`
	Date       time.Time                `json:"date"`
	ConfigHash string                   `json:"config_hash"`
	Due        []contracts.Timeframe    `json:"due"`
	Quality    *quality.Snapshot        `json:"quality,omitempty"`
	Cycles     []*contracts.CycleRecord `json:"cycles"`
	Duration   time.Duration            `json:"duration"`
}

// Failed returns the cycles that ended in failure
func (r *RunResult) Failed() []*contracts.CycleRecord {
	var out []*contracts.CycleRecord
	for _, c := range r.Cycles {
		if c.Status == StatusFailed {
			out = append(out, c)
		}
	}
	return out
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(deps Deps, log *logger.Logger) *Orchestrator {
	if deps.Events == nil {
		deps.Events = nopPublisher{}
	}
	if deps.UniversePath == "" && deps.Config != nil {
		deps.UniversePath = deps.Config.Universe.TickersCSV
	}
	return &Orchestrator{
		deps:        deps,
		constructor: portfolio.NewConstructor(log),
		rebalancer:  portfolio.NewRebalancer(log),
		logger:      log.WithField("module", "orchestrator"),
		now:         time.Now,
	}
}

// Run executes every due cycle
// 데이터 수집은 실행당 1회, 사이클 실패는 기록 후 다음 사이클 진행
// ErrAborted(사용자 중단/취소)는 즉시 전체 중단
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	startTime := o.now()
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.Date.IsZero() {
		cfg.Date = startTime
	}
	if cfg.Confirmer == nil {
		cfg.Confirmer = execution.AutoConfirmer{}
	}

	strategies, timeframes, err := o.targets(cfg)
	if err != nil {
		return nil, err
	}

	hash, err := strategyconfig.Hash(o.deps.Config)
	if err != nil {
		return nil, fmt.Errorf("hash config: %w", err)
	}

	result := &RunResult{
		RunID:      cfg.RunID,
		Date:       cfg.Date,
		ConfigHash: hash,
		Due:        DueTimeframes(timeframes, cfg.Date, cfg.Force),
	}
	defer func() { result.Duration = o.now().Sub(startTime) }()

	o.logger.WithFields(map[string]interface{}{
		"run_id":     cfg.RunID,
		"date":       cfg.Date.Format("2006-01-02"),
		"due":        result.Due,
		"strategies": strategies,
		"force":      cfg.Force,
		"dry_run":    cfg.DryRun,
	}).Info("Starting rebalance run")

	if len(result.Due) == 0 {
		o.logger.Info("No timeframe due today, nothing to do")
		return result, nil
	}

	// S0: 유니버스 로드 + 데이터 수집 (1회)
	entries, err := universe.LoadCSV(o.deps.UniversePath)
	if err != nil {
		return result, fmt.Errorf("load universe: %w", err)
	}
	data, _, err := o.deps.Collector.Collect(ctx, entries, o.deps.CollectConfig)
	if err != nil {
		return result, fmt.Errorf("collect market data: %w", err)
	}
	if o.deps.QualityGate != nil {
		result.Quality = o.deps.QualityGate.Check(data)
		if !result.Quality.Passed {
			o.logger.WithFields(map[string]interface{}{
				"score":  result.Quality.QualityScore,
				"issues": result.Quality.Issues,
			}).Warn("Market data quality below threshold")
		}
	}

	for _, tf := range result.Due {
		for _, strategy := range strategies {
			record, err := o.runCycle(ctx, cfg, data, strategy, tf)
			result.Cycles = append(result.Cycles, record)
			o.record(ctx, record)

			if errors.Is(err, contracts.ErrAborted) {
				o.logger.Warn("Run aborted, remaining cycles skipped")
				return result, err
			}
			if err != nil {
				o.logger.WithError(err).WithFields(map[string]interface{}{
					"strategy":  strategy,
					"timeframe": tf,
				}).Error("Cycle failed")
			}
		}
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id": cfg.RunID,
		"cycles": len(result.Cycles),
		"failed": len(result.Failed()),
	}).Info("Rebalance run completed")
	return result, nil
}

func (o *Orchestrator) targets(cfg RunConfig) ([]contracts.StrategyName, []contracts.Timeframe, error) {
	strategies := cfg.Strategies
	if len(strategies) == 0 {
		s, err := o.deps.Config.Strategies()
		if err != nil {
			return nil, nil, err
		}
		strategies = s
	}
	timeframes := cfg.Timeframes
	if len(timeframes) == 0 {
		t, err := o.deps.Config.Timeframes()
		if err != nil {
			return nil, nil, err
		}
		timeframes = t
	}
	return strategies, timeframes, nil
}

// runCycle runs S1 → S7 for one (strategy, timeframe)
func (o *Orchestrator) runCycle(ctx context.Context, cfg RunConfig, data *contracts.MarketData, strategy contracts.StrategyName, tf contracts.Timeframe) (*contracts.CycleRecord, error) {
	record := &contracts.CycleRecord{
		RunID:     cfg.RunID,
		Strategy:  strategy,
		Timeframe: tf,
		StartedAt: o.now(),
		StatePath: o.deps.States.Path(strategy, tf),
	}
	log := o.logger.WithFields(map[string]interface{}{
		"strategy":  strategy,
		"timeframe": tf,
	})
	o.publish(EventCycleStarted, cfg.RunID, strategy, tf, nil)

	finish := func(status string, err error) (*contracts.CycleRecord, error) {
		record.Status = status
		record.FinishedAt = o.now()
		if err != nil {
			record.Error = err.Error()
		}
		o.publish(EventCycleFinished, cfg.RunID, strategy, tf, record)
		return record, err
	}

	params, err := o.deps.Config.Params(strategy, tf)
	if err != nil {
		return finish(StatusFailed, err)
	}
	record.ConfigHash = params.ConfigHash

	book, err := o.deps.States.Load(strategy, tf, params.InitialCash)
	if err != nil {
		return finish(StatusFailed, err)
	}

	// S1~S5
	target, err := o.constructor.Generate(data, params)
	if err != nil {
		return finish(StatusFailed, err)
	}
	record.Longs = target.Longs
	record.Shorts = target.Shorts
	record.Survivors = len(target.Report)

	if o.deps.Risk != nil {
		snap, err := o.deps.Risk.Assess(target, data, risk.HoldingDays(tf))
		if err != nil {
			log.WithError(err).Warn("Risk estimate unavailable")
		} else {
			record.Risk = snap
			for _, b := range snap.Breaches {
				log.WithField("breach", b).Warn("Target book exceeds risk limit")
			}
		}
	}

	// S7: 순위 리포트 (실패는 로그만)
	if path, err := audit.WriteReport(o.deps.OutputDir, target, o.now()); err != nil {
		log.WithError(err).Warn("Failed to write ranking report")
	} else {
		record.ReportPath = path
	}

	// S6: 실시간 시세 → 평가 → 주문
	tickers := quoteUniverse(book, target)
	quotes, err := o.deps.Quotes.Fetch(ctx, tickers)
	if err != nil {
		return finish(StatusAborted, fmt.Errorf("%w: %v", contracts.ErrAborted, err))
	}
	prices := quotes.Prices

	totalValue, unpriced := book.TotalValue(prices)
	if len(unpriced) > 0 {
		log.WithField("tickers", unpriced).Warn("Held positions without live price excluded from valuation")
	}
	record.TotalValue = totalValue

	orders := o.rebalancer.Calculate(target, book.Positions(), totalValue, prices)
	planner := execution.NewPlanner(execution.PlanConfig{
		OrderType:  params.OrderType,
		OutsideRTH: params.OutsideRTH,
	}, o.logger)
	orders = planner.Plan(orders, prices)
	record.Orders = orders
	o.publish(EventOrdersCalculated, cfg.RunID, strategy, tf, orders)

	log.WithFields(map[string]interface{}{
		"total_value": totalValue,
		"longs":       len(target.Longs),
		"shorts":      len(target.Shorts),
		"orders":      len(orders),
	}).Info("Orders calculated")

	if cfg.DryRun {
		record.Cash = book.Cash()
		return finish(StatusDryRun, nil)
	}

	label := fmt.Sprintf("%s %s", strategy, tf)
	decision, err := cfg.Confirmer.Confirm(ctx, label, orders)
	if err != nil {
		return finish(StatusAborted, err)
	}

	status := StatusCompleted
	switch {
	case decision == execution.DecisionSkip:
		// 주문 없이 실시간 가격으로 모의 반영
		status = StatusSkipped
		for ticker, err := range book.ApplyAll(orders, prices) {
			log.WithError(err).WithField("ticker", ticker).Warn("Simulated order not applied")
		}
		if err := o.deps.States.Save(strategy, tf, book); err != nil {
			return finish(StatusFailed, err)
		}

	case o.deps.Broker != nil && o.deps.Broker.Live():
		// 체결마다 즉시 상태 저장 (중단 시에도 체결분 유지)
		record.Executed = true
		executor := execution.NewExecutor(o.deps.Broker, params.DelayBetweenOrders, o.deps.SubmitTimeout, o.logger)
		res, err := executor.Execute(ctx, orders, func(fill contracts.Fill) error {
			if err := book.ApplyFill(fill); err != nil {
				return err
			}
			o.publish(EventOrderFilled, cfg.RunID, strategy, tf, fill)
			return o.deps.States.Save(strategy, tf, book)
		})
		if res != nil {
			record.Fills = res.Fills
			for ticker, ferr := range res.Failed {
				log.WithError(ferr).WithField("ticker", ticker).Warn("Order not filled")
			}
		}
		if err != nil {
			record.Cash = book.Cash()
			if errors.Is(err, contracts.ErrAborted) {
				return finish(StatusAborted, err)
			}
			return finish(StatusFailed, err)
		}

	default:
		// 모의 브로커: 실시간 가격으로 체결, 마지막에 1회 저장
		record.Executed = true
		executor := execution.NewExecutor(execution.NewPaperBroker(execution.StaticQuotes(prices)), 0, o.deps.SubmitTimeout, o.logger)
		res, err := executor.Execute(ctx, orders, func(fill contracts.Fill) error {
			o.publish(EventOrderFilled, cfg.RunID, strategy, tf, fill)
			return book.ApplyFill(fill)
		})
		if res != nil {
			record.Fills = res.Fills
		}
		if err != nil {
			record.Cash = book.Cash()
			if errors.Is(err, contracts.ErrAborted) {
				return finish(StatusAborted, err)
			}
			return finish(StatusFailed, err)
		}
		if err := o.deps.States.Save(strategy, tf, book); err != nil {
			return finish(StatusFailed, err)
		}
	}

	record.Cash = book.Cash()
	log.WithFields(map[string]interface{}{
		"status": status,
		"cash":   record.Cash,
		"fills":  len(record.Fills),
	}).Info("Cycle completed")
	return finish(status, nil)
}

// quoteUniverse returns held ∪ longs ∪ shorts, sorted
func quoteUniverse(book *portfolio.Book, target *contracts.TargetPortfolio) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(tickers []string) {
		for _, t := range tickers {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	add(book.Tickers())
	add(target.Longs)
	add(target.Shorts)
	sort.Strings(out)
	return out
}

func (o *Orchestrator) record(ctx context.Context, record *contracts.CycleRecord) {
	if o.deps.Runs == nil {
		return
	}
	// 취소된 실행도 감사 기록은 남김
	if err := o.deps.Runs.SaveRun(context.WithoutCancel(ctx), record); err != nil {
		o.logger.WithError(err).WithField("run_id", record.RunID).Warn("Failed to save cycle record")
	}
}

func (o *Orchestrator) publish(t EventType, runID string, strategy contracts.StrategyName, tf contracts.Timeframe, data interface{}) {
	o.deps.Events.Publish(Event{
		Type:      t,
		RunID:     runID,
		Strategy:  strategy,
		Timeframe: tf,
		Time:      o.now(),
		Data:      data,
	})
}
