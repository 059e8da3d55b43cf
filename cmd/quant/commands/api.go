package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/backend/internal/api"
	"github.com/wonny/momentum/backend/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 포트폴리오 상태 / 실행 이력 조회 엔드포인트 제공
- 리밸런스 트리거 제공 (기본 dry-run)
- WebSocket으로 실행 진행 이벤트 전송

Endpoints:
  GET  /health                                  - Health check
  GET  /api/portfolios                          - 전체 상태 목록
  GET  /api/portfolios/{strategy}/{timeframe}   - 상태 상세
  GET  /api/runs/latest?limit=N                 - 최근 사이클 이력
  POST /api/runs                                - 리밸런스 트리거
  GET  /api/scheduler/jobs                      - 작업 통계 (--scheduler)
  GET  /ws/events                               - 실행 이벤트 스트림

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --scheduler
  go run ./cmd/quant api --allow-execute`,
	RunE: runAPIServer,
}

var (
	apiPort         string
	apiAllowExecute bool
	apiScheduler    bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&apiAllowExecute, "allow-execute", false, "dry_run=false 요청 및 예약 리밸런스의 실제 실행 허용")
	apiCmd.Flags().BoolVar(&apiScheduler, "scheduler", false, "API 서버 안에서 스케줄러도 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port":          a.cfg.Port,
		"env":           a.cfg.Env,
		"allow_execute": apiAllowExecute,
		"scheduler":     apiScheduler,
	}).Info("Initializing API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := handlers.NewEventHub(a.log)
	defer hub.Close()

	// 스케줄러와 API 트리거가 같은 Orchestrator를 공유 (동시 실행 방지)
	h := api.Handlers{Events: hub}
	var p *pipeline
	if apiScheduler {
		sched, sp, err := initScheduler(ctx, a, hub, apiAllowExecute)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()

		p = sp
		h.Scheduler = handlers.NewSchedulerHandler(sched)
	} else {
		p, err = a.newPipeline(ctx, hub)
		if err != nil {
			return err
		}
	}

	h.Portfolio = handlers.NewPortfolioHandler(p.states, p.runs, a.log)
	h.Runs = handlers.NewRunHandler(ctx, p.orchestrator, apiAllowExecute, a.log)

	server := api.New(a.cfg, h, a.log)
	if err := server.Listen(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
