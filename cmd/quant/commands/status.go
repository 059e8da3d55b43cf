package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/backend/internal/portfolio"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "포트폴리오 상태 조회",
	Long: `저장된 모든 (전략, 타임프레임) 상태 파일을 읽어 보여줍니다.

표시 정보:
- 현금 잔고
- 보유 포지션 (양수=롱, 음수=숏)
- 최근 종가 기준 평가액 (--offline 시 생략)

Example:
  go run ./cmd/quant status
  go run ./cmd/quant status --offline`,
	RunE: runStatus,
}

var statusOffline bool

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusOffline, "offline", false, "시세 조회 없이 수량만 표시")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	summaries, err := a.states().List()
	if err != nil {
		return fmt.Errorf("list states: %w", err)
	}
	if len(summaries) == 0 {
		PrintInfo(fmt.Sprintf("No portfolio state in %s", a.cfg.Paths.DataDir))
		return nil
	}

	var prices map[string]float64
	if !statusOffline {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		var errs map[string]error
		prices, errs = a.yahoo().LastCloses(ctx, heldTickers(summaries))
		for ticker, err := range errs {
			a.log.WithError(err).WithField("ticker", ticker).Warn("No last close")
		}
	}

	PrintHeader("Portfolio Status", map[string]string{
		"States": fmt.Sprintf("%d", len(summaries)),
		"Dir":    a.cfg.Paths.DataDir,
	})
	for _, s := range summaries {
		printState(s, prices)
	}
	PrintDoubleSeparator()
	return nil
}

// heldTickers returns every ticker held by any state, sorted
func heldTickers(summaries []portfolio.StateSummary) []string {
	seen := make(map[string]struct{})
	for _, s := range summaries {
		for ticker := range s.Positions {
			seen[ticker] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for ticker := range seen {
		out = append(out, ticker)
	}
	sort.Strings(out)
	return out
}

func printState(s portfolio.StateSummary, prices map[string]float64) {
	fmt.Println()
	fmt.Printf("[%s/%s]\n", s.Strategy, s.Timeframe)
	PrintKeyValue("Cash", fmt.Sprintf("%.2f", s.Cash), 9)

	tickers := make([]string, 0, len(s.Positions))
	for ticker := range s.Positions {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	if len(tickers) == 0 {
		PrintKeyValue("Positions", "none", 9)
		return
	}

	widths := []int{8, 8, 10, 12}
	PrintTableHeader([]string{"Ticker", "Quantity", "Close", "Value"}, widths)

	// 평가액 = 현금 + Σ 수량 × 종가 (숏은 음수 기여)
	total := s.Cash
	missing := 0
	for _, ticker := range tickers {
		qty := s.Positions[ticker]
		closeStr, valueStr := "-", "-"
		if price, ok := prices[ticker]; ok {
			value := float64(qty) * price
			total += value
			closeStr = fmt.Sprintf("%.2f", price)
			valueStr = fmt.Sprintf("%.2f", value)
		} else {
			missing++
		}
		fmt.Print("   ")
		PrintTableRow([]string{ticker, fmt.Sprintf("%d", qty), closeStr, valueStr}, widths)
	}

	if prices == nil {
		return
	}
	if missing > 0 {
		PrintKeyValue("Value", fmt.Sprintf("%.2f (%d unpriced)", total, missing), 9)
	} else {
		PrintKeyValue("Value", fmt.Sprintf("%.2f", total), 9)
	}
}
