package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/broker"
	"github.com/ricirt/hello-game/internal/config"
	"github.com/ricirt/hello-game/internal/consumer"
	"github.com/ricirt/hello-game/internal/db"
	"github.com/ricirt/hello-game/internal/logger"
	"github.com/ricirt/hello-game/internal/metrics"
	"github.com/ricirt/hello-game/internal/repository"
	"github.com/ricirt/hello-game/internal/worker"
)

func main() {
	// ---- configuration ----
	cfg, err := config.LoadConsumer()
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
	log = log.With(zap.String("service", "hello-function"), zap.String("environment", cfg.Environment))

	// ---- database ----
	ctx := context.Background()
	sqlDB, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer sqlDB.Close()

	// ---- broker ----
	js, err := broker.Connect(ctx, cfg.NATS, "hello-function", log)
	if err != nil {
		log.Fatal("failed to connect to broker", zap.Error(err))
	}

	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	src, err := js.Source(workerCtx, broker.ConsumerOptions{
		Durable:    cfg.Durable,
		AckWait:    cfg.AckWait,
		MaxDeliver: cfg.MaxDeliver,
	})
	if err != nil {
		log.Fatal("failed to bind consumer", zap.Error(err))
	}

	// ---- worker pool ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	onPersisted, onFailed, onDeadLettered := m.ConsumeHooks()
	handler := consumer.NewHandler(repository.NewSQLSessionFactory(sqlDB), log)
	pool := worker.NewPool(cfg.Workers, src, handler, js, worker.Options{
		MaxDeliver: cfg.MaxDeliver,
		Backoff:    cfg.RetryBackoff,
	}, log, worker.MetricHooks{
		OnPersisted:    onPersisted,
		OnFailed:       onFailed,
		OnDeadLettered: onDeadLettered,
	})
	pool.Start(workerCtx)
	log.Info("consumer started", zap.String("durable", cfg.Durable), zap.Int("workers", cfg.Workers))

	// ---- metrics server ----
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		log.Info("metrics server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutdown signal received")

	// 1. Stop fetching; workers finish and settle their current message.
	cancelWorkers()
	pool.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	// 2. Flush pending acks; returns once the broker connection is closed.
	if err := js.Close(shutdownCtx); err != nil {
		log.Error("broker close error", zap.Error(err))
	}

	// 3. Stop serving metrics.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown error", zap.Error(err))
	}

	log.Info("consumer stopped cleanly")
}
