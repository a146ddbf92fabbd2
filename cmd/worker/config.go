package main

import (
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"delivery-backend/pkg/container"
)

// Config holds the worker-only settings; shared settings come from the container.
type Config struct {
	Concurrency int
	HealthAddr  string
}

// loadConfig loads configuration from environment variables
func loadConfig(c *container.Container) *Config {
	cfg := &Config{
		Concurrency: getEnvInt("WORKER_CONCURRENCY", 10),
		HealthAddr:  getEnv("WORKER_HEALTH_ADDR", ":9999"),
	}

	log.Info().
		Str("redis", c.Config.Redis.Host).
		Int("concurrency", cfg.Concurrency).
		Str("cleanup_cron", c.Config.Job.ExpiredOrderCleanupCron).
		Int("retention_days", c.Config.Job.RetentionDays).
		Msg("[Config] Worker configuration loaded")

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
