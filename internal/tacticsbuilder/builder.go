package tacticsbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/squad-tactics/internal/config"
	"github.com/park285/squad-tactics/internal/eventbus"
	"github.com/park285/squad-tactics/internal/msgcat"
	"github.com/park285/squad-tactics/internal/pvptactics"
)

type Deps struct {
	Manager *pvptactics.Manager
	Bus     *eventbus.Bus
	Catalog *msgcat.Catalog
	Repo    pvptactics.ResultRepository
}

// New wires the session stack from cfg. Redis and Postgres are optional:
// without REDIS_URL sessions live in memory, without DATABASE_URL finished
// games are archived in memory.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	layout, err := config.LoadLayout(cfg.LayoutFile)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	var store pvptactics.Store
	if cfg.RedisURL != "" {
		rdb, err := pvptactics.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		store = pvptactics.NewRedisStore(rdb, cfg.GameTTL)
		logger.Info("tactics_store", zap.String("backend", "redis"), zap.Duration("ttl", cfg.GameTTL))
	} else {
		store = pvptactics.NewMemoryStore()
		logger.Warn("tactics_store", zap.String("backend", "memory"))
	}

	var repo pvptactics.ResultRepository
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pg, err := pvptactics.NewRepository(cfg.DatabaseURL)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = pg.EnsureSchema(sctx)
		cancel()
		if err != nil {
			_ = pg.Close()
			_ = store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		repo = pg
		logger.Info("tactics_results", zap.String("backend", "postgres"))
	} else {
		repo = pvptactics.NewMemoryRepository()
		logger.Warn("tactics_results", zap.String("backend", "memory"))
	}

	bus := eventbus.New()
	mgr := pvptactics.NewManager(store,
		pvptactics.WithLayout(layout),
		pvptactics.WithEventSink(bus),
		pvptactics.WithDefaultMaxTurns(cfg.DefaultMaxTurns),
	)
	mgr.AttachRepository(repo)

	return &Deps{Manager: mgr, Bus: bus, Catalog: cat, Repo: repo}, nil
}

// Close releases the bus, the session store and the repository.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.Bus != nil {
		errs = append(errs, d.Bus.Close())
	}
	if d.Manager != nil {
		errs = append(errs, d.Manager.Close())
	}
	if d.Repo != nil {
		errs = append(errs, d.Repo.Close())
	}
	return errors.Join(errs...)
}
