package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/furnicost/internal/config"
	"github.com/Simplici0/furnicost/internal/db"
	"github.com/Simplici0/furnicost/internal/estimate"
	"github.com/Simplici0/furnicost/internal/logger"
	"github.com/Simplici0/furnicost/internal/migrations"
	"github.com/Simplici0/furnicost/internal/observability"
	"github.com/Simplici0/furnicost/internal/seed"
	"github.com/Simplici0/furnicost/internal/store"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Error("server stopped", logger.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, zlog *zap.Logger) error {
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.ShouldMigrate() {
		applied, err := migrations.Up(ctx, database)
		if err != nil {
			return fmt.Errorf("run database migrations: %w", err)
		}
		zlog.Info("migrations applied", logger.Int("count", applied))
	} else {
		zlog.Warn("skipping migrations outside development; set AUTO_MIGRATE=true to apply them at startup",
			logger.String("app_env", cfg.AppEnv))
	}

	if cfg.SeedDefaults {
		stats, err := seed.Run(ctx, database)
		if err != nil {
			return fmt.Errorf("seed defaults: %w", err)
		}
		zlog.Info("seed completed", logger.Int("inserts", stats.Inserts))
	}

	rules := cfg.Rules()
	metrics := observability.NewMetrics()
	records := store.New(database)
	srv := newServer(cfg, zlog, records, estimate.NewService(records, rules, zlog, metrics), metrics)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("listening",
			logger.String("addr", httpServer.Addr),
			logger.String("wastage_policy", rules.Wastage.String()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	sdCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(sdCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
