package s2_signals

import (
	"fmt"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/stats"
)

// PositivePeriods counts strictly positive returns among the last lookback
// period returns of the timeframe-resampled series
// 수익률이 lookback개 미만이면 있는 만큼만 집계
func PositivePeriods(series contracts.PriceSeries, tf contracts.Timeframe, lookback int) (int, error) {
	returns := stats.Returns(Prices(Resample(series, tf)))
	if len(returns) == 0 {
		return 0, fmt.Errorf("%w: no period returns", contracts.ErrInsufficientHistory)
	}

	count := 0
	for _, r := range stats.Tail(returns, lookback) {
		if r > 0 {
			count++
		}
	}
	return count, nil
}
