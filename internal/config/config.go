package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Refund   RefundConfig
	Job      JobConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

// RefundConfig holds the refund lifecycle policy knobs.
type RefundConfig struct {
	// AllowMultipleActive lets an order carry more than one refund under review.
	AllowMultipleActive bool
	// ReportCacheTTL is how long report views stay in Redis. Zero disables caching.
	ReportCacheTTL time.Duration
}

// JobConfig holds settings for the expired order cleanup job.
type JobConfig struct {
	ExpiredOrderCleanupCron string
	RetentionDays           int
	BatchSize               int
	LockTTL                 time.Duration
	Timeout                 time.Duration
	MaxRetry                int
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Delivery Refund API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "delivery"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		Refund: RefundConfig{
			AllowMultipleActive: getEnvBool("REFUND_ALLOW_MULTIPLE_ACTIVE", true),
			ReportCacheTTL:      getEnvDuration("REFUND_REPORT_CACHE_TTL", 30*time.Second),
		},
		Job: LoadJobConfig(),
	}

	// Validate critical config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadJobConfig reads the cleanup job settings used by the scheduler, the
// worker handler and the manual enqueue.
func LoadJobConfig() JobConfig {
	return JobConfig{
		ExpiredOrderCleanupCron: getEnv("JOB_EXPIRED_ORDER_CLEANUP_CRON", "0 4 * * *"),
		RetentionDays:           getEnvInt("JOB_CLEANUP_RETENTION_DAYS", 30),
		BatchSize:               getEnvInt("JOB_CLEANUP_BATCH_SIZE", 100),
		LockTTL:                 getEnvDuration("JOB_CLEANUP_LOCK_TTL", 15*time.Minute),
		Timeout:                 getEnvDuration("JOB_CLEANUP_TIMEOUT", 10*time.Minute),
		MaxRetry:                getEnvInt("JOB_CLEANUP_MAX_RETRY", 2),
	}
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	// Production environment phải có JWT secret
	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	if c.Refund.ReportCacheTTL < 0 {
		return fmt.Errorf("REFUND_REPORT_CACHE_TTL must not be negative")
	}

	return c.Job.Validate()
}

// Validate checks the cleanup schedule and its limits.
func (j JobConfig) Validate() error {
	if _, err := cron.ParseStandard(j.ExpiredOrderCleanupCron); err != nil {
		return fmt.Errorf("invalid JOB_EXPIRED_ORDER_CLEANUP_CRON %q: %w", j.ExpiredOrderCleanupCron, err)
	}
	if j.RetentionDays <= 0 {
		return fmt.Errorf("JOB_CLEANUP_RETENTION_DAYS must be positive")
	}
	if j.BatchSize <= 0 {
		return fmt.Errorf("JOB_CLEANUP_BATCH_SIZE must be positive")
	}
	// Lock không được hết hạn khi sweep còn chạy
	if j.Timeout > 0 && j.LockTTL <= j.Timeout {
		return fmt.Errorf("JOB_CLEANUP_LOCK_TTL (%s) must exceed JOB_CLEANUP_TIMEOUT (%s)", j.LockTTL, j.Timeout)
	}
	return nil
}

// Retention returns the retention window as a duration.
func (j JobConfig) Retention() time.Duration {
	return time.Duration(j.RetentionDays) * 24 * time.Hour
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
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

func getEnvBool(key string, defaultValue bool) bool {
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
