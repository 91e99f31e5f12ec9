package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	Preset      string
	PresetsFile string
	TimeControl string

	RedisURL    string
	DatabaseURL string
	SQLitePath  string

	MessagesDir string
	SnapshotDir string

	SnapshotTTLSec int
	HistoryLimit   int
}

// Load reads the environment. Every setting is optional; malformed numbers
// keep their defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Preset:         "blitz",
		SnapshotDir:    "data/snapshots",
		SnapshotTTLSec: 86400,
		HistoryLimit:   10,
	}

	if v := strings.TrimSpace(os.Getenv("CLOCK_PRESET")); v != "" {
		cfg.Preset = v
	}
	cfg.PresetsFile = strings.TrimSpace(os.Getenv("CLOCK_PRESETS_FILE"))
	cfg.TimeControl = strings.TrimSpace(os.Getenv("CLOCK_TIME_CONTROL"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.SQLitePath = strings.TrimSpace(os.Getenv("SQLITE_PATH"))

	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	if v := strings.TrimSpace(os.Getenv("CLOCK_SNAPSHOT_DIR")); v != "" {
		cfg.SnapshotDir = v
	}

	if v := strings.TrimSpace(os.Getenv("CLOCK_SNAPSHOT_TTL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SnapshotTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CLOCK_HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}

	return cfg, nil
}

func (c *AppConfig) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSec) * time.Second
}
