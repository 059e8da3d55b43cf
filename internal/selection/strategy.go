package selection

import (
	"fmt"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/strategyconfig"
)

// Stage is where a strategy's screen runs in the pipeline
type Stage int

const (
	// StageBeforeUniverse runs on every acquired ticker before liquidity/sector filters
	StageBeforeUniverse Stage = iota
	// StageAfterMomentum runs on tickers with defined momentum
	StageAfterMomentum
)

// Strategy is one screening variant
// 전략 이름 문자열 분기 대신 변형별 구현을 조합
type Strategy interface {
	Name() contracts.StrategyName
	Stage() Stage
	Apply(cands []Candidate, data *contracts.MarketData, p strategyconfig.Params) []Candidate
}

// ForName returns the strategy implementation for name
func ForName(name contracts.StrategyName, screener *Screener) (Strategy, error) {
	switch name {
	case contracts.StrategyCore:
		return Core{}, nil
	case contracts.StrategySmooth:
		return Smooth{screener: screener}, nil
	case contracts.StrategyFrogInPan:
		return FrogInPan{screener: screener}, nil
	}
	return nil, fmt.Errorf("%w: unknown strategy %q", contracts.ErrInvalidConfig, name)
}

// Core ranks on momentum alone
type Core struct{}

func (Core) Name() contracts.StrategyName { return contracts.StrategyCore }
func (Core) Stage() Stage                 { return StageAfterMomentum }

func (Core) Apply(cands []Candidate, _ *contracts.MarketData, _ strategyconfig.Params) []Candidate {
	return cands
}

// Smooth keeps positive-momentum tickers with steady period gains
type Smooth struct {
	screener *Screener
}

func (Smooth) Name() contracts.StrategyName { return contracts.StrategySmooth }
func (Smooth) Stage() Stage                 { return StageAfterMomentum }

func (s Smooth) Apply(cands []Candidate, data *contracts.MarketData, p strategyconfig.Params) []Candidate {
	return s.screener.Smoothness(cands, data, p.Timeframe, p.Lookback, p.SmoothMinPositive)
}

// FrogInPan drops the most volatile tickers from the broadest set
type FrogInPan struct {
	screener *Screener
}

func (FrogInPan) Name() contracts.StrategyName { return contracts.StrategyFrogInPan }
func (FrogInPan) Stage() Stage                 { return StageBeforeUniverse }

func (f FrogInPan) Apply(cands []Candidate, data *contracts.MarketData, p strategyconfig.Params) []Candidate {
	return f.screener.Volatility(cands, data, p.VolatilityLookbackDays, p.VolatilityCutoffPercentile)
}
