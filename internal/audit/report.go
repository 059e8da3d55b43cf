package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wonny/momentum/backend/internal/contracts"
)

// reportHeader is the ranked report column order
var reportHeader = []string{"Ticker", "Rank", "Decile", "Momentum", "Volatility", "PositivePeriods", "MarketCap", "Sector"}

// ReportPath returns {dir}/{STRATEGY}_{TIMEFRAME}_report_{YYYY-MM-DD_HH-MM-SS}.csv
func ReportPath(dir string, strategy contracts.StrategyName, tf contracts.Timeframe, at time.Time) string {
	name := fmt.Sprintf("%s_%s_report_%s.csv", strategy, tf, at.Format("2006-01-02_15-04-05"))
	return filepath.Join(dir, name)
}

// WriteReport writes the ranked report of one cycle and returns its path
// ⭐ SSOT: 랭킹 리포트 CSV 형식은 여기서만
func WriteReport(dir string, target *contracts.TargetPortfolio, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := ReportPath(dir, target.Strategy, target.Timeframe, at)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		return "", fmt.Errorf("write report header: %w", err)
	}
	for _, r := range target.Report {
		if err := w.Write(reportRow(r)); err != nil {
			return "", fmt.Errorf("write report row %s: %w", r.Ticker, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush report: %w", err)
	}
	return path, nil
}

func reportRow(r contracts.EligibilityRecord) []string {
	row := []string{
		r.Ticker,
		strconv.Itoa(r.Rank),
		strconv.Itoa(r.Decile),
		strconv.FormatFloat(r.Momentum, 'f', -1, 64),
		"", "", "",
		r.Sector,
	}
	if r.Volatility != nil {
		row[4] = strconv.FormatFloat(*r.Volatility, 'f', -1, 64)
	}
	if r.PositivePeriods != nil {
		row[5] = strconv.Itoa(*r.PositivePeriods)
	}
	if r.MarketCap != nil {
		row[6] = strconv.FormatFloat(*r.MarketCap, 'f', 0, 64)
	}
	return row
}
