package config

import (
	"os"
	"strings"
	"time"

	"pulselog/pkg/logger"
)

// Config carries the process configuration read from the environment.
type Config struct {
	Addr          string
	SnapshotPath  string
	FlushInterval time.Duration
	JWTSecret     string
}

// Load reads the configuration from environment variables, applying defaults
// for anything unset. A malformed flush interval is fatal: silently falling
// back would change the durability window without warning.
func Load() Config {
	cfg := Config{
		Addr:          ":8080",
		SnapshotPath:  "data/database.json",
		FlushInterval: time.Second,
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Addr = ":" + port
	}
	if path := strings.TrimSpace(os.Getenv("SNAPSHOT_PATH")); path != "" {
		cfg.SnapshotPath = path
	}
	if raw := strings.TrimSpace(os.Getenv("FLUSH_INTERVAL")); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval <= 0 {
			logger.Sugar.Fatalf("Invalid FLUSH_INTERVAL %q: %v", raw, err)
		}
		cfg.FlushInterval = interval
	}

	return cfg
}
