package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wonny/momentum/backend/internal/brain"
	"github.com/wonny/momentum/backend/internal/contracts"
	"github.com/wonny/momentum/backend/internal/execution"
	"github.com/wonny/momentum/backend/internal/strategyconfig"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "리밸런스 1회 실행",
	Long: `오늘 리밸런스 대상인 타임프레임에 대해 전체 파이프라인을 실행합니다.

실행 순서:
1. 달력 판정 (DAILY=매일, WEEKLY=주 첫 영업일, MONTHLY=월 첫 영업일)
2. 유니버스 로드 + 가격 이력/시가총액 수집 (1회)
3. 타임프레임 × 전략별: 순위 → 목표 → 실시간 시세 → 주문 계산
4. 확인 프롬프트 (Enter=실행, skip=체결 없이 상태만 반영)
5. 주문 집행 및 상태 파일 저장

Ctrl+C는 남은 주문을 취소하고 이미 체결된 내용만 유지합니다.

Example:
  go run ./cmd/quant run --dry-run
  go run ./cmd/quant run --strategies CORE,SMOOTH --timeframes MONTHLY --force
  go run ./cmd/quant run --yes`,
	RunE: runRebalance,
}

var (
	runStrategies []string
	runTimeframes []string
	runForce      bool
	runDryRun     bool
	runYes        bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&runStrategies, "strategies", nil, "실행할 전략 (기본: 설정 파일)")
	runCmd.Flags().StringSliceVar(&runTimeframes, "timeframes", nil, "실행할 타임프레임 (기본: 설정 파일)")
	runCmd.Flags().BoolVar(&runForce, "force", false, "달력 무시하고 모든 타임프레임 실행")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "주문 계산까지만 (상태 저장/주문 없음)")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "확인 프롬프트 없이 실행")
}

func runRebalance(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	strategies, timeframes, err := parseTargets(runStrategies, runTimeframes)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := a.newPipeline(ctx, nil)
	if err != nil {
		return err
	}

	var confirmer execution.Confirmer = execution.NewPromptConfirmer(os.Stdin, os.Stdout)
	if runYes || runDryRun {
		confirmer = execution.AutoConfirmer{}
	}

	mode := "paper"
	if a.cfg.Broker.IsLive() {
		mode = "LIVE (" + a.cfg.Broker.GatewayURL + ")"
	}
	PrintHeader("Momentum Rebalance", map[string]string{
		"Broker":   mode,
		"Strategy": a.strategy.Meta.StrategyID,
		"Dry run":  fmt.Sprintf("%v", runDryRun),
	})

	runID := uuid.NewString()
	result, runErr := p.orchestrator.Run(ctx, brain.RunConfig{
		RunID:      runID,
		Strategies: strategies,
		Timeframes: timeframes,
		Force:      runForce,
		DryRun:     runDryRun,
		Confirmer:  confirmer,
	})
	if result != nil {
		PrintRunResult(result)
		if err := saveDecisionSnapshot(a.cfg.Paths.OutputDir, a.strategy, a.strategyYAML, runID); err != nil {
			a.log.WithError(err).Warn("Failed to save decision snapshot")
		}
	}
	if runErr != nil {
		return runErr
	}
	if failed := result.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d cycles failed", len(failed), len(result.Cycles))
	}
	return nil
}

// parseTargets parses --strategies / --timeframes (comma separated, case-insensitive)
func parseTargets(strategies, timeframes []string) ([]contracts.StrategyName, []contracts.Timeframe, error) {
	var outS []contracts.StrategyName
	for _, s := range strategies {
		if strings.TrimSpace(s) == "" {
			continue
		}
		name, err := contracts.ParseStrategy(s)
		if err != nil {
			return nil, nil, err
		}
		outS = append(outS, name)
	}

	var outT []contracts.Timeframe
	for _, s := range timeframes {
		if strings.TrimSpace(s) == "" {
			continue
		}
		tf, err := contracts.ParseTimeframe(s)
		if err != nil {
			return nil, nil, err
		}
		outT = append(outT, tf)
	}
	return outS, outT, nil
}

// saveDecisionSnapshot writes the config used by a run next to its reports
func saveDecisionSnapshot(dir string, cfg *strategyconfig.Config, raw []byte, runID string) error {
	snap, err := strategyconfig.NewDecisionSnapshot(cfg, raw, runID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	runsDir := filepath.Join(dir, "runs")
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runsDir, runID+".json"), data, 0o644)
}
