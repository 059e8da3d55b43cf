package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "일일 시장 데이터 캐시 관리",
	Long: `가격 이력/시가총액 일일 캐시(badger 또는 redis)를 관리합니다.

캐시 항목은 자정에 자동 만료되므로 보통은 관리가 필요 없습니다.
데이터 소스 오류 후 같은 날 다시 수집하려면 clear를 사용하세요.

Example:
  go run ./cmd/quant cache clear`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "캐시 전체 삭제",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.dataCache(cmd.Context())
	if err != nil {
		return fmt.Errorf("open data cache: %w", err)
	}

	n, err := store.Clear(cmd.Context())
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	backend := "badger (" + a.cfg.Paths.CacheDir + ")"
	if a.cfg.Redis.Enabled {
		backend = "redis"
	}
	PrintSuccess(fmt.Sprintf("Removed %d entries from %s", n, backend))
	return nil
}
