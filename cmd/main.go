package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwise1/civic_reports/config"
	deps "github.com/bwise1/civic_reports/internal/debs"
	api "github.com/bwise1/civic_reports/internal/http/rest"
	"github.com/bwise1/civic_reports/internal/observability"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	allowConnectionsAfterShutdown = 1 * time.Second
	limiterJanitorInterval        = 10 * time.Minute
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.InitLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dependencies, err := deps.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer dependencies.Close()

	a := &api.API{
		Config: cfg,
		Deps:   dependencies,
	}

	go dependencies.WebSocket.Run(ctx)
	go dependencies.VoteLimiter.RunJanitor(ctx, limiterJanitorInterval)
	go a.RunVoteReconciler(ctx, cfg.ReconcileInterval)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.Int("port", cfg.Port))
		serveErr <- a.Serve()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
		}
		return
	case <-ctx.Done():
	}

	logger.Info("shutdown requested, draining", zap.Duration("grace", allowConnectionsAfterShutdown))
	time.Sleep(allowConnectionsAfterShutdown)

	if err := a.Shutdown(); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
