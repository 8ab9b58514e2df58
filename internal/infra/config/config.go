package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"

	RunMarkerBackendSQLite = "sqlite"
	RunMarkerBackendRedis  = "redis"
	RunMarkerBackendMemory = "memory"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	OwnerID             string
	DatabaseURL         string
	StorageBackend      string
	RunMarkerBackend    string
	RunMarkerSQLitePath string
	RedisAddr           string // Empty disables Redis; the lease is then held in process
	RedisPassword       string
	RedisDB             int
	LeaseTTL            time.Duration
	WatermarkPolicy     string
	CronSpecBatch       string
	TelegramToken       string // Empty disables the bot
	AdminTelegramID     int64
	UpcomingDaysDefault int
	LogLevel            string
	Environment         string
}

// BotEnabled reports whether a Telegram token was configured.
func (c *AppConfig) BotEnabled() bool {
	return c.TelegramToken != ""
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.OwnerID = os.Getenv("OWNER_ID")
	if cfg.OwnerID == "" {
		return nil, fmt.Errorf("OWNER_ID is not set")
	}

	cfg.StorageBackend = strings.ToLower(os.Getenv("STORAGE_BACKEND"))
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = StorageBackendPostgres
	}
	switch cfg.StorageBackend {
	case StorageBackendPostgres, StorageBackendMemory:
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" && cfg.StorageBackend == StorageBackendPostgres {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		cfg.RedisDB, err = strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
	}

	cfg.RunMarkerBackend = strings.ToLower(os.Getenv("RUN_MARKER_BACKEND"))
	if cfg.RunMarkerBackend == "" {
		cfg.RunMarkerBackend = RunMarkerBackendSQLite
	}
	switch cfg.RunMarkerBackend {
	case RunMarkerBackendSQLite, RunMarkerBackendMemory:
	case RunMarkerBackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when RUN_MARKER_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("invalid RUN_MARKER_BACKEND %q", cfg.RunMarkerBackend)
	}

	cfg.RunMarkerSQLitePath = os.Getenv("RUN_MARKER_SQLITE_PATH")
	if cfg.RunMarkerSQLitePath == "" {
		cfg.RunMarkerSQLitePath = "data/runmarker.db"
	}

	cfg.LeaseTTL = 10 * time.Minute // Longer than the scheduler's 5m run timeout
	if ttlStr := os.Getenv("LEASE_TTL"); ttlStr != "" {
		cfg.LeaseTTL, err = time.ParseDuration(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid LEASE_TTL: %w", err)
		}
		if cfg.LeaseTTL <= 0 {
			return nil, fmt.Errorf("invalid LEASE_TTL: must be positive, got %s", cfg.LeaseTTL)
		}
	}

	// Validated by app.ParseWatermarkPolicy at wiring time.
	cfg.WatermarkPolicy = strings.ToLower(os.Getenv("WATERMARK_POLICY"))

	cfg.CronSpecBatch = os.Getenv("CRON_SPEC_BATCH")
	if cfg.CronSpecBatch == "" {
		cfg.CronSpecBatch = "5 0 * * *" // Default: 00:05 daily
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if cfg.TelegramToken != "" && adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	if adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.UpcomingDaysDefault = 30
	if daysStr := os.Getenv("UPCOMING_DAYS_DEFAULT"); daysStr != "" {
		cfg.UpcomingDaysDefault, err = strconv.Atoi(daysStr)
		if err != nil || cfg.UpcomingDaysDefault < 0 {
			return nil, fmt.Errorf("invalid UPCOMING_DAYS_DEFAULT: %q", daysStr)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}
