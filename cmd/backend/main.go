package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/api"
	"github.com/ricirt/hello-game/internal/config"
	"github.com/ricirt/hello-game/internal/db"
	"github.com/ricirt/hello-game/internal/logger"
	"github.com/ricirt/hello-game/internal/metrics"
	"github.com/ricirt/hello-game/internal/repository"
	"github.com/ricirt/hello-game/internal/service"
	"github.com/ricirt/hello-game/internal/worker"
)

func main() {
	// ---- configuration ----
	cfg, err := config.LoadBackend()
	if err != nil {
		boot, _ := zap.NewProduction()
		boot.Fatal("failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		boot, _ := zap.NewProduction()
		boot.Fatal("failed to build logger", zap.Error(err))
	}
	defer log.Sync() //nolint:errcheck
	log = log.With(zap.String("service", "hello-backend"), zap.String("environment", cfg.Environment))

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart {
		if err := db.Migrate(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		log.Info("database migrations applied")
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	repo := repository.NewPgSubmissionRepository(pool)
	svc := service.NewSubmissionService(repo, log, m.FallbackHook("database"))

	// ---- background probe ----
	// Context for all background goroutines; cancelled on shutdown signal.
	bgCtx, cancelBackground := context.WithCancel(ctx)
	defer cancelBackground()

	probe := worker.NewHealthProbe(repo, cfg.HealthProbeDelay, cfg.HealthProbeInterval, log)
	probeDone := make(chan struct{})
	go func() {
		defer close(probeDone)
		probe.Run(bgCtx)
	}()

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      api.NewRouter(svc, reg, log),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the health probe before the pool is closed.
	cancelBackground()
	<-probeDone

	log.Info("server stopped cleanly")
}
