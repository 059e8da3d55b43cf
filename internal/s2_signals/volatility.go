package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/pkg/stats"
)

// DailyVolatility returns the sample standard deviation of the last days
// daily returns, regardless of the ranking timeframe
// 유효 수익률 2개 미만이면 ErrInsufficientHistory
func DailyVolatility(series contracts.PriceSeries, days int) (float64, error) {
	returns := stats.Tail(stats.Returns(series.AdjCloses()), days)
	vol := stats.StdDev(returns)
	if math.IsNaN(vol) {
		return 0, fmt.Errorf("%w: need 2 daily returns for volatility", contracts.ErrInsufficientHistory)
	}
	return vol, nil
}
