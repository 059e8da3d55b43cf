package selection

import (
	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/s2_signals"
	"github.com/wonny/momentum/backend/pkg/logger"
	"github.com/wonny/momentum/backend/pkg/stats"
)

// Screener implements the strategy-specific eligibility screens
// ⭐ SSOT: 스크리닝 로직은 여기서만
type Screener struct {
	logger *logger.Logger
}

// NewScreener creates a new screener
func NewScreener(log *logger.Logger) *Screener {
	return &Screener{
		logger: log.WithField("module", "screener"),
	}
}

// Volatility drops tickers with undefined daily volatility, then tickers above
// the pct quantile of the surviving volatilities
// 타임프레임과 무관하게 일간 수익률 사용
func (s *Screener) Volatility(cands []Candidate, data *contracts.MarketData, days int, pct float64) []Candidate {
	defined := make([]Candidate, 0, len(cands))
	vols := make([]float64, 0, len(cands))
	for _, c := range cands {
		series, ok := data.Series(c.Ticker())
		if !ok {
			s.dropped(c.Ticker(), "no price history")
			continue
		}
		vol, err := s2_signals.DailyVolatility(series, days)
		if err != nil {
			s.dropped(c.Ticker(), err.Error())
			continue
		}
		v := vol
		c.Volatility = &v
		defined = append(defined, c)
		vols = append(vols, vol)
	}
	if len(defined) == 0 {
		s.logger.WithFields(map[string]interface{}{
			"removed": len(cands),
		}).Info("Volatility screen: no ticker with defined volatility")
		return defined
	}

	cutoff := stats.Quantile(vols, pct)
	out := make([]Candidate, 0, len(defined))
	for _, c := range defined {
		if *c.Volatility <= cutoff {
			out = append(out, c)
			continue
		}
		s.dropped(c.Ticker(), "volatility above cutoff")
	}

	s.logger.WithFields(map[string]interface{}{
		"undefined":    len(cands) - len(defined),
		"too_volatile": len(defined) - len(out),
		"cutoff":       cutoff,
		"percentile":   pct,
		"remaining":    len(out),
	}).Info("Volatility screen applied")
	return out
}

// Smoothness drops non-positive momentum, then tickers with fewer than
// minPositive positive periods among the last lookback period returns
func (s *Screener) Smoothness(cands []Candidate, data *contracts.MarketData, tf contracts.Timeframe, lookback, minPositive int) []Candidate {
	positive := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Momentum > 0 {
			positive = append(positive, c)
			continue
		}
		s.dropped(c.Ticker(), "non-positive momentum")
	}

	out := make([]Candidate, 0, len(positive))
	for _, c := range positive {
		series, ok := data.Series(c.Ticker())
		if !ok {
			s.dropped(c.Ticker(), "no price history")
			continue
		}
		count, err := s2_signals.PositivePeriods(series, tf, lookback)
		if err != nil {
			s.dropped(c.Ticker(), err.Error())
			continue
		}
		n := count
		c.PositivePeriods = &n
		if count < minPositive {
			s.dropped(c.Ticker(), "too few positive periods")
			continue
		}
		out = append(out, c)
	}

	s.logger.WithFields(map[string]interface{}{
		"non_positive": len(cands) - len(positive),
		"not_smooth":   len(positive) - len(out),
		"min_positive": minPositive,
		"remaining":    len(out),
	}).Info("Smoothness screen applied")
	return out
}

func (s *Screener) dropped(ticker, reason string) {
	s.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"reason": reason,
	}).Debug("Ticker screened out")
}
