package portfolio

import (
	"fmt"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/s1_universe"
	"github.com/wonny/momentum/backend/internal/s2_signals"
	"github.com/wonny/momentum/backend/internal/selection"
	"github.com/wonny/momentum/backend/internal/strategyconfig"
	"github.com/wonny/momentum/backend/pkg/logger"
)

// Constructor implements S5: target portfolio construction
// ⭐ SSOT: S5 포트폴리오 구성 로직은 여기서만
type Constructor struct {
	momentum *s2_signals.MomentumCalculator
	screener *selection.Screener
	ranker   *selection.Ranker
	logger   *logger.Logger
}

// NewConstructor creates a new portfolio constructor
func NewConstructor(log *logger.Logger) *Constructor {
	return &Constructor{
		momentum: s2_signals.NewMomentumCalculator(log),
		screener: selection.NewScreener(log),
		ranker:   selection.NewRanker(log),
		logger:   log.WithField("module", "portfolio"),
	}
}

// Generate runs the ranking pipeline for one (strategy, timeframe) cycle
// 순서: [전략 사전 스크린] → 유니버스 필터 → 모멘텀 → [전략 사후 스크린] → 랭킹 → 롱/숏 선택
// 설정 오류는 ErrInvalidConfig로 반환 (해당 사이클만 중단)
func (c *Constructor) Generate(data *contracts.MarketData, p strategyconfig.Params) (*contracts.TargetPortfolio, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	strategy, err := selection.ForName(p.Strategy, c.screener)
	if err != nil {
		return nil, err
	}

	log := c.logger.WithFields(map[string]interface{}{
		"strategy":  p.Strategy,
		"timeframe": p.Timeframe,
	})

	cands := selection.CandidatesFrom(data.Universe)
	log.WithField("total", len(cands)).Info("Portfolio generation started")

	// 1. 변동성 스크린은 가장 넓은 모집단에 적용
	if strategy.Stage() == selection.StageBeforeUniverse {
		cands = strategy.Apply(cands, data, p)
	}

	// 2. 유니버스 필터 (유동성 → 섹터)
	builder := s1_universe.NewBuilder(s1_universe.Config{
		LiquidityPercentile: p.LiquidityPercentile,
		ExcludeSectors:      p.ExcludedSectors,
	}, c.logger)
	universe := builder.Build(data.AsOf, selection.Entries(cands))
	cands = selection.Keep(cands, universe.Tickers())

	// 3. 모멘텀 (계산 불가 종목 제외)
	scores, _, err := c.momentum.CalculateAll(data, selection.Tickers(cands), p.Timeframe, p.Lookback, p.Lag)
	if err != nil {
		return nil, fmt.Errorf("momentum: %w", err)
	}
	withMomentum := make([]selection.Candidate, 0, len(scores))
	for _, cand := range cands {
		m, ok := scores[cand.Ticker()]
		if !ok {
			continue
		}
		cand.Momentum = m
		withMomentum = append(withMomentum, cand)
	}
	cands = withMomentum

	// 4. 모멘텀 이후 스크린 (SMOOTH)
	if strategy.Stage() == selection.StageAfterMomentum {
		cands = strategy.Apply(cands, data, p)
	}

	// 5. 랭킹 + 선택
	report := c.ranker.Rank(cands)
	longs, shorts, cutoffN := selection.Select(report, p.TopPercentileCutoff)

	target := &contracts.TargetPortfolio{
		Strategy:  p.Strategy,
		Timeframe: p.Timeframe,
		Date:      data.AsOf,
		Longs:     longs,
		Shorts:    shorts,
		CutoffN:   cutoffN,
		Report:    report,
	}

	log.WithFields(map[string]interface{}{
		"survivors": len(report),
		"cutoff_n":  cutoffN,
		"longs":     longs,
		"shorts":    shorts,
	}).Info("Target portfolio generated")

	return target, nil
}
