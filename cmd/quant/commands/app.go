package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/momentum/backend/internal/audit"
	"github.com/wonny/momentum/backend/internal/brain"
	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/execution"
	"github.com/wonny/momentum/backend/internal/external/gateway"
	"github.com/wonny/momentum/backend/internal/external/yahoo"
	"github.com/wonny/momentum/backend/internal/portfolio"
	quotecache "github.com/wonny/momentum/backend/internal/realtime/cache"
	"github.com/wonny/momentum/backend/internal/realtime/feed"
	"github.com/wonny/momentum/backend/internal/risk"
	datacache "github.com/wonny/momentum/backend/internal/s0_data/cache"
	"github.com/wonny/momentum/backend/internal/s0_data/collector"
	"github.com/wonny/momentum/backend/internal/s0_data/quality"
	"github.com/wonny/momentum/backend/internal/s0_data/universe"
	"github.com/wonny/momentum/backend/internal/strategyconfig"
	"github.com/wonny/momentum/backend/pkg/config"
	"github.com/wonny/momentum/backend/pkg/database"
	"github.com/wonny/momentum/backend/pkg/httputil"
	"github.com/wonny/momentum/backend/pkg/logger"
	"github.com/wonny/momentum/backend/pkg/redis"
)

// quoteTTL is how long a live quote is reused within a run
const quoteTTL = time.Minute

// app holds the process-wide wiring shared by every command
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg          *config.Config
	strategy     *strategyconfig.Config
	strategyYAML []byte
	log          *logger.Logger

	closers []func()
}

// loadApp loads env config, logger and the strategy YAML
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	var (
		strat *strategyconfig.Config
		raw   []byte
	)
	if strategyFile != "" {
		strat, raw, err = strategyconfig.Load(strategyFile)
	} else {
		strat, raw, err = strategyconfig.LoadOrDefault(cfg.Paths.StrategyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("load strategy config: %w", err)
	}
	for _, w := range strategyconfig.Warn(strat) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	return &app{cfg: cfg, strategy: strat, strategyYAML: raw, log: log}, nil
}

// Close releases every resource opened through the app, newest first
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// dataCache opens the shared redis cache when enabled, else the local badger cache
func (a *app) dataCache(ctx context.Context) (datacache.Store, error) {
	if a.cfg.Redis.Enabled {
		client, err := redis.New(ctx, a.cfg)
		if err != nil {
			return nil, err
		}
		store := datacache.NewRedisStore(client, "momentum:")
		a.closers = append(a.closers, func() { _ = store.Close() })
		return store, nil
	}

	store, err := datacache.OpenBadger(a.cfg.Paths.CacheDir)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = store.Close() })
	return store, nil
}

func (a *app) yahoo() *yahoo.Client {
	return yahoo.NewClient(a.cfg.Yahoo.RequestTimeout, a.log)
}

func (a *app) states() *portfolio.StateStore {
	return portfolio.NewStateStore(a.cfg.Paths.DataDir, a.log)
}

// broker returns the live gateway, or nil for paper trading
func (a *app) broker() execution.Broker {
	if !a.cfg.Broker.IsLive() {
		return nil
	}
	return gateway.NewClient(a.cfg.Broker, a.log)
}

// runRepository keeps recent cycles in memory and in Postgres when configured
// DB 연결 실패는 경고 후 메모리만 사용
func (a *app) runRepository(ctx context.Context) contracts.RunRepository {
	mem := audit.NewMemoryRepository(200)
	if !a.cfg.Database.Enabled() {
		return mem
	}

	db, err := database.New(ctx, a.cfg)
	if err != nil {
		a.log.WithError(err).Warn("Database unavailable, cycle history kept in memory only")
		return mem
	}
	a.closers = append(a.closers, db.Close)

	repo := audit.NewRepository(db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		a.log.WithError(err).Warn("Failed to ensure audit schema, cycle history kept in memory only")
		return mem
	}
	return audit.MultiRepository{mem, repo}
}

// pipeline bundles the orchestrator and the pieces other commands reuse
type pipeline struct {
	orchestrator *brain.Orchestrator
	quotes       *quotecache.PriceCache
	runs         contracts.RunRepository
	states       *portfolio.StateStore
}

// newPipeline wires S0 → S7 for this process
func (a *app) newPipeline(ctx context.Context, events brain.Publisher) (*pipeline, error) {
	store, err := a.dataCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("open data cache: %w", err)
	}

	yc := a.yahoo()
	provider := datacache.NewProvider(yc, store, a.log)
	collectCfg := collector.Config{
		Workers:        a.cfg.Yahoo.Concurrency,
		RequestsPerSec: a.cfg.Yahoo.RequestsPerSec,
		Period:         a.strategy.Universe.HistoryPeriod,
	}

	priceCache := quotecache.NewPriceCache(quoteTTL, a.log)
	fetcher := feed.NewQuoteFetcher(yc, priceCache, feed.Config{
		Concurrency:    a.cfg.Yahoo.Concurrency,
		RequestsPerSec: a.cfg.Yahoo.RequestsPerSec,
		Timeout:        a.cfg.Yahoo.RequestTimeout,
	}, a.log)

	runs := a.runRepository(ctx)
	states := a.states()

	orch := brain.NewOrchestrator(brain.Deps{
		Config:        a.strategy,
		Collector:     collector.NewCollector(provider, collectCfg, a.log),
		CollectConfig: collectCfg,
		QualityGate:   quality.NewQualityGate(quality.DefaultConfig()),
		Risk:          risk.NewEngine(risk.DefaultConfig(), a.log),
		Quotes:        fetcher,
		Broker:        a.broker(),
		States:        states,
		Runs:          runs,
		Events:        events,
		OutputDir:     a.cfg.Paths.OutputDir,
		SubmitTimeout: 30 * time.Second,
	}, a.log)

	return &pipeline{orchestrator: orch, quotes: priceCache, runs: runs, states: states}, nil
}

// scraper returns the constituents scraper with retry and a polite rate limit
func (a *app) scraper() *universe.Scraper {
	client := httputil.NewWithTimeout(a.log, 30*time.Second).
		WithRetry(3, 2*time.Second).
		WithRateLimit(1, 1).
		WithHeader("User-Agent", "momentum-rebalancer/1.0")
	return universe.NewScraper(client, a.log)
}

func (a *app) strategyHash() (string, error) {
	return strategyconfig.Hash(a.strategy)
}
