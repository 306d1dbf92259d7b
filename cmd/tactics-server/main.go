package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appcfg "github.com/park285/squad-tactics/internal/config"
	"github.com/park285/squad-tactics/internal/httpapi"
	"github.com/park285/squad-tactics/internal/obslog"
	"github.com/park285/squad-tactics/internal/spectate"
	"github.com/park285/squad-tactics/internal/tacticsbuilder"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := tacticsbuilder.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("tactics_init_error", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("tactics_close_error", zap.Error(err))
		}
	}()

	api := httpapi.New(deps.Manager, deps.Catalog)
	feed := spectate.New(deps.Bus)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return api.ListenAndServe(gctx, cfg.HTTPAddr) })
	g.Go(func() error { return feed.ListenAndServe(gctx, cfg.SpectatorAddr) })

	logger.Info("tactics_server_start",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("spectator_addr", cfg.SpectatorAddr),
		zap.Int("default_max_turns", cfg.DefaultMaxTurns),
	)
	if err := g.Wait(); err != nil {
		logger.Error("tactics_server_error", zap.Error(err))
	}
	logger.Info("tactics_server_stop")
}
