package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	env          string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "US 모멘텀 롱/숏 리밸런싱 시스템",
	Long: `Momentum Unified CLI

S&P 500 유니버스를 대상으로 모멘텀 순위를 계산하고
전략(CORE, SMOOTH, FROG_IN_PAN) × 타임프레임(DAILY, WEEKLY, MONTHLY)별
롱/숏 포트폴리오를 리밸런싱합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant check
  go run ./cmd/quant run --dry-run
  go run ./cmd/quant run --strategies CORE --timeframes MONTHLY --force
  go run ./cmd/quant status
  go run ./cmd/quant universe fetch
  go run ./cmd/quant cache clear
  go run ./cmd/quant scheduler start --execute
  go run ./cmd/quant api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "config", "", "strategy YAML (default: STRATEGY_CONFIG or configs/momentum.yaml)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug log level)")
}
