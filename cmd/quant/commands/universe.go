package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/backend/internal/s0_data/universe"
	"github.com/wonny/momentum/backend/internal/s1_universe"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "유니버스 CSV 관리",
	Long: `S&P 500 구성 종목 CSV(Ticker,Sector)를 관리합니다.

Subcommands:
  fetch   - 구성 종목 페이지를 스크래핑하여 CSV 갱신
  show    - 현재 CSV 요약 (섹터별 종목 수)

Example:
  go run ./cmd/quant universe fetch
  go run ./cmd/quant universe fetch --out data/sp500.csv
  go run ./cmd/quant universe show`,
}

var (
	universeFetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "구성 종목 스크래핑 후 CSV 저장",
		RunE:  runUniverseFetch,
	}

	universeShowCmd = &cobra.Command{
		Use:   "show",
		Short: "유니버스 CSV 요약",
		RunE:  runUniverseShow,
	}
)

var (
	universeURL string
	universeOut string
)

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeFetchCmd)
	universeCmd.AddCommand(universeShowCmd)

	universeFetchCmd.Flags().StringVar(&universeURL, "url", universe.DefaultSourceURL, "구성 종목 HTML 페이지")
	universeCmd.PersistentFlags().StringVar(&universeOut, "out", "", "CSV 경로 (기본: 전략 설정 universe.tickers_csv)")
}

func universePath(a *app) string {
	if universeOut != "" {
		return universeOut
	}
	return a.strategy.Universe.TickersCSV
}

func runUniverseFetch(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := a.scraper().Fetch(ctx, universeURL)
	if err != nil {
		return fmt.Errorf("fetch constituents: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no constituents found at %s", universeURL)
	}

	path := universePath(a)
	if err := universe.WriteCSV(path, entries); err != nil {
		return fmt.Errorf("write universe: %w", err)
	}
	PrintSuccess(fmt.Sprintf("Wrote %d tickers to %s", len(entries), path))
	return nil
}

func runUniverseShow(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	path := universePath(a)
	entries, err := universe.LoadCSV(path)
	if err != nil {
		return err
	}

	bySector := make(map[string]int)
	for _, e := range entries {
		bySector[e.NormalizedSector()]++
	}
	sectors := make([]string, 0, len(bySector))
	for s := range bySector {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)

	PrintHeader("Universe", map[string]string{
		"Path":    path,
		"Tickers": fmt.Sprintf("%d", len(entries)),
	})
	widths := []int{28, 6}
	PrintTableHeader([]string{"Sector", "Count"}, widths)
	for _, s := range sectors {
		fmt.Print("   ")
		PrintTableRow([]string{s, fmt.Sprintf("%d", bySector[s])}, widths)
	}

	kept := s1_universe.FilterSectors(entries, a.strategy.Universe.ExcludeSectors)
	fmt.Println()
	PrintKeyValue("Excluded", strings.Join(a.strategy.Universe.ExcludeSectors, ", "), 8)
	PrintKeyValue("Eligible", fmt.Sprintf("%d", len(kept)), 8)
	return nil
}
