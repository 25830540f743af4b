// Package config loads grantd settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the grantd binary needs. The engine itself takes no
// config; intervals and addresses are deployment concerns.
type Config struct {
	DatabaseURL string
	RedisURL    string
	Schema      string
	HTTPAddr    string

	PromotionSweepInterval    time.Duration
	VerificationSweepInterval time.Duration
	OrphanSweepInterval       time.Duration
	SweepRunTimeout           time.Duration

	// NotifyQueue disabled means lifecycle notifications go to the log only.
	NotifyQueue bool
}

// Load reads the environment. A .env in the working directory is merged in
// when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Schema:      getEnv("GRANTKIT_SCHEMA", "marketplace"),
		HTTPAddr:    getEnv("GRANTKIT_HTTP_ADDR", ":8087"),
		NotifyQueue: getEnv("GRANTKIT_NOTIFY_QUEUE", "true") == "true",
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is required")
	}

	var err error
	if cfg.PromotionSweepInterval, err = getDuration("GRANTKIT_PROMOTION_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.VerificationSweepInterval, err = getDuration("GRANTKIT_VERIFICATION_SWEEP_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OrphanSweepInterval, err = getDuration("GRANTKIT_ORPHAN_SWEEP_INTERVAL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SweepRunTimeout, err = getDuration("GRANTKIT_SWEEP_TIMEOUT", 4*time.Minute); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, d)
	}
	return d, nil
}
