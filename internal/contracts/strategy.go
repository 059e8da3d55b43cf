package contracts

import (
	"fmt"
	"strings"
)

// Timeframe is the momentum resampling granularity
type Timeframe string

const (
	TimeframeDaily   Timeframe = "DAILY"
	TimeframeWeekly  Timeframe = "WEEKLY"
	TimeframeMonthly Timeframe = "MONTHLY"
)

// AllTimeframes in default run order
var AllTimeframes = []Timeframe{TimeframeMonthly, TimeframeWeekly, TimeframeDaily}

// ParseTimeframe parses a timeframe name (case-insensitive)
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	switch tf {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly:
		return tf, nil
	}
	return "", fmt.Errorf("%w: unknown timeframe %q", ErrInvalidConfig, s)
}

// StrategyName identifies a screening variant
type StrategyName string

const (
	StrategyCore      StrategyName = "CORE"
	StrategySmooth    StrategyName = "SMOOTH"
	StrategyFrogInPan StrategyName = "FROG_IN_PAN"
)

// AllStrategies in default run order
var AllStrategies = []StrategyName{StrategyCore, StrategySmooth, StrategyFrogInPan}

// ParseStrategy parses a strategy name (case-insensitive)
func ParseStrategy(s string) (StrategyName, error) {
	name := StrategyName(strings.ToUpper(strings.TrimSpace(s)))
	switch name {
	case StrategyCore, StrategySmooth, StrategyFrogInPan:
		return name, nil
	}
	return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, s)
}
