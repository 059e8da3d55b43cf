package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
// 전략 파라미터(lookback, cutoff 등)는 strategyconfig YAML에서 관리
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (선택: 실행 이력 저장)
	Database DatabaseConfig

	// Redis (선택: 일일 데이터 캐시 공유)
	Redis RedisConfig

	// Paths
	Paths PathConfig

	// External APIs
	Yahoo  YahooConfig
	Broker BrokerConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   LogFileConfig
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// PathConfig holds on-disk locations
type PathConfig struct {
	DataDir      string // 포트폴리오 상태 CSV, 유니버스 CSV
	OutputDir    string // 리포트 CSV
	CacheDir     string // badger 일일 캐시
	StrategyFile string // 전략 YAML
}

// YahooConfig holds Yahoo Finance fetch settings
type YahooConfig struct {
	Concurrency    int
	RequestsPerSec float64
	RequestTimeout time.Duration
}

// BrokerConfig holds order routing configuration
type BrokerConfig struct {
	Mode       string // paper, gateway
	GatewayURL string
	APIKey     string
	Account    string
}

// IsLive reports whether orders leave the process
func (b BrokerConfig) IsLive() bool {
	return b.Mode == BrokerModeGateway
}

// SchedulerConfig holds cron settings
type SchedulerConfig struct {
	RebalanceSpec string // cron spec (with seconds)
	Timezone      string
}

// LogFileConfig holds rotating log file settings (lumberjack)
type LogFileConfig struct {
	Path       string // 비어 있으면 파일 로그 비활성
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

const (
	BrokerModePaper   = "paper"
	BrokerModeGateway = "gateway"
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Paths: PathConfig{
			DataDir:      getEnv("DATA_DIR", "data"),
			OutputDir:    getEnv("OUTPUT_DIR", "output"),
			CacheDir:     getEnv("CACHE_DIR", filepath.Join("data", "cache")),
			StrategyFile: getEnv("STRATEGY_CONFIG", filepath.Join("configs", "momentum.yaml")),
		},

		// External APIs
		Yahoo: YahooConfig{
			Concurrency:    getEnvAsInt("YAHOO_CONCURRENCY", 8),
			RequestsPerSec: getEnvAsFloat("YAHOO_RPS", 10),
			RequestTimeout: getEnvAsDuration("YAHOO_TIMEOUT", "15s"),
		},

		Broker: BrokerConfig{
			Mode:       getEnv("BROKER_MODE", BrokerModePaper),
			GatewayURL: getEnv("BROKER_GATEWAY_URL", "http://127.0.0.1:7497"),
			APIKey:     getEnv("BROKER_API_KEY", ""),
			Account:    getEnv("BROKER_ACCOUNT", ""),
		},

		Scheduler: SchedulerConfig{
			RebalanceSpec: getEnv("REBALANCE_CRON", "0 35 9 * * MON-FRI"),
			Timezone:      getEnv("MARKET_TIMEZONE", "America/New_York"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile: LogFileConfig{
			Path:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_FILE_MAX_SIZE_MB", 50),
			MaxBackups: getEnvAsInt("LOG_FILE_MAX_BACKUPS", 7),
			MaxAgeDays: getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", 30),
			Compress:   getEnvAsBool("LOG_FILE_COMPRESS", true),
		},
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Broker.Mode {
	case BrokerModePaper:
	case BrokerModeGateway:
		if c.Broker.GatewayURL == "" {
			return fmt.Errorf("BROKER_GATEWAY_URL is required when BROKER_MODE=gateway")
		}
	default:
		return fmt.Errorf("BROKER_MODE must be one of: paper, gateway")
	}

	if c.Yahoo.Concurrency < 1 {
		return fmt.Errorf("YAHOO_CONCURRENCY must be >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
