// Package clockbuilder assembles the clock service from configuration.
package clockbuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-clock/internal/clockfeed"
	"github.com/park285/cheese-clock/internal/config"
	"github.com/park285/cheese-clock/internal/msgcat"
	"github.com/park285/cheese-clock/internal/results"
	svcclock "github.com/park285/cheese-clock/internal/service/clock"
	"github.com/park285/cheese-clock/internal/store"
	"github.com/park285/cheese-clock/internal/timecontrol"
	"github.com/park285/cheese-clock/pkg/clockdto"
	"go.uber.org/zap"
)

type Deps struct {
	Service   *svcclock.Service
	Presets   *timecontrol.Presets
	Messages  *msgcat.Catalog
	Snapshots store.Store
	Results   results.Repository
	Feed      *clockfeed.Feed // nil unless REDIS_URL is set
}

const feedTimeout = 2 * time.Second

// New wires the backends named by cfg: Redis snapshots when REDIS_URL is set
// (snapshot files under SnapshotDir otherwise), and postgres, sqlite or
// in-memory results in that order of preference.
func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	presets, err := timecontrol.LoadPresets(cfg.PresetsFile)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	messages, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	d := &Deps{Presets: presets, Messages: messages}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rs, err := store.NewRedis(ctx, cfg.RedisURL, store.WithTTL(cfg.SnapshotTTL()))
		cancel()
		if err != nil {
			return nil, fmt.Errorf("init snapshot store: %w", err)
		}
		d.Snapshots = rs
		logger.Info("snapshot_store_ready", zap.String("backend", "redis"))
		feed, err := clockfeed.New(rs.Client(), clockfeed.WithTTL(cfg.SnapshotTTL()))
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init clock feed: %w", err)
		}
		d.Feed = feed
	} else {
		fs, err := store.NewFileStore(cfg.SnapshotDir, store.CBOR)
		if err != nil {
			return nil, fmt.Errorf("init snapshot store: %w", err)
		}
		d.Snapshots = fs
		logger.Info("snapshot_store_ready", zap.String("backend", "file"), zap.String("dir", cfg.SnapshotDir))
	}

	switch {
	case strings.TrimSpace(cfg.DatabaseURL) != "":
		repo, err := results.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init postgres results: %w", err)
		}
		d.Results = repo
		logger.Info("results_repository_ready", zap.String("backend", "postgres"))
	case strings.TrimSpace(cfg.SQLitePath) != "":
		repo, err := results.NewSQLite(cfg.SQLitePath)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init sqlite results: %w", err)
		}
		d.Results = repo
		logger.Info("results_repository_ready", zap.String("backend", "sqlite"))
	default:
		d.Results = results.NewMemory()
		logger.Info("results_repository_ready", zap.String("backend", "memory"))
	}

	service, err := svcclock.NewService(svcclock.Deps{
		Presets:   presets,
		Snapshots: d.Snapshots,
		Results:   d.Results,
		Logger:    logger,
	}, svcclock.Config{
		DefaultPreset: cfg.Preset,
		HistoryLimit:  cfg.HistoryLimit,
	})
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Service = service
	if d.Feed != nil {
		feed := d.Feed
		service.OnSignal(func(id string, sig clockdto.SignalInfo) {
			ctx, cancel := context.WithTimeout(context.Background(), feedTimeout)
			defer cancel()
			if _, err := feed.Record(ctx, id, sig.Kind, sig.Side); err != nil {
				logger.Warn("clock_feed_record_failed", zap.String("game", id), zap.Error(err))
			}
		})
	}
	return d, nil
}

// Close stops the service and releases the backends it opened.
func (d *Deps) Close() {
	if d == nil {
		return
	}
	if d.Service != nil {
		_ = d.Service.Close()
	}
	if c, ok := d.Snapshots.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	if d.Results != nil {
		_ = d.Results.Close()
	}
}
