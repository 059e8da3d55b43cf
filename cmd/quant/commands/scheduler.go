package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/backend/internal/brain"
	"github.com/wonny/momentum/backend/internal/s0_data/universe"
	"github.com/wonny/momentum/backend/internal/scheduler"
	"github.com/wonny/momentum/backend/internal/scheduler/jobs"
)

// minUniverseSize guards the universe refresh against a broken scrape
const minUniverseSize = 400

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

이 명령어는:
- 스케줄러 데몬 시작
- 등록된 작업 조회
- 작업 실행 이력 조회

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler start --execute
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run rebalance`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- rebalance: 평일 09:35 (REBALANCE_CRON, MARKET_TIMEZONE 기준)
- universe_refresh: 매주 일요일 18:00 (유니버스 CSV 갱신)
- cache_cleanup: 5분마다 (실시간 시세 캐시 정리)

--execute 없이 시작하면 rebalance는 dry-run으로만 동작합니다.
스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 스케줄 및 다음 실행 시각 조회",
		RunE:  showStatus,
	}
)

var schedulerExecute bool

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)

	schedulerCmd.PersistentFlags().BoolVar(&schedulerExecute, "execute", false, "rebalance 작업이 실제 주문/상태 저장까지 수행")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, _, err := initScheduler(ctx, a, nil, schedulerExecute)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	PrintHeader("Momentum Scheduler", map[string]string{
		"Timezone": a.cfg.Scheduler.Timezone,
		"Execute":  fmt.Sprintf("%v", schedulerExecute),
	})
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	PrintSuccess("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, _, err := initScheduler(cmd.Context(), a, nil, schedulerExecute)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, _, err := initScheduler(ctx, a, nil, schedulerExecute)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Stop 호출 시 진행 중 작업도 취소됨
	go func() {
		<-ctx.Done()
		sched.Stop()
	}()

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunJobSync(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempt(s): %s", jobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}
	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, _, err := initScheduler(cmd.Context(), a, nil, schedulerExecute)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// cron은 Start 이후에만 다음 실행 시각을 계산함
	sched.Start()
	defer sched.Stop()

	fmt.Println("Job Statistics:")
	printJobs(sched)
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stat := stats[name]
		fmt.Println()
		fmt.Printf("📊 %s\n", name)
		PrintKeyValue("Schedule", stat.Schedule, 9)
		if stat.NextRun != nil {
			PrintKeyValue("Next Run", stat.NextRun.Format("2006-01-02 15:04:05 MST"), 9)
		}
		if stat.TotalRuns > 0 {
			PrintKeyValue("Runs", fmt.Sprintf("%d (%.1f%% success)", stat.TotalRuns, stat.SuccessRate*100), 9)
		}
	}
}

// initScheduler registers the rebalance, universe refresh and cache cleanup jobs
func initScheduler(ctx context.Context, a *app, events brain.Publisher, execute bool) (*scheduler.Scheduler, *pipeline, error) {
	loc, err := time.LoadLocation(a.cfg.Scheduler.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("load timezone %q: %w", a.cfg.Scheduler.Timezone, err)
	}

	p, err := a.newPipeline(ctx, events)
	if err != nil {
		return nil, nil, err
	}

	// 사이클 실패/중단은 Permanent (재시도 없음), 데이터 수집·스크래핑 실패만 재시도
	sched := scheduler.New(a.log, scheduler.WithLocation(loc), scheduler.WithRetry(2, 5*time.Minute))

	csvPath := a.strategy.Universe.TickersCSV
	for _, job := range []scheduler.Job{
		jobs.NewRebalanceJob(p.orchestrator, a.cfg.Scheduler.RebalanceSpec, execute, a.log),
		jobs.NewUniverseJob(a.scraper(), universe.DefaultSourceURL, csvPath, minUniverseSize, a.log),
		jobs.NewCacheCleanupJob(p.quotes, a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return nil, nil, err
		}
	}
	return sched, p, nil
}
