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

	"github.com/ricirt/hello-game/internal/broker"
	"github.com/ricirt/hello-game/internal/config"
	"github.com/ricirt/hello-game/internal/logger"
	"github.com/ricirt/hello-game/internal/metrics"
	"github.com/ricirt/hello-game/internal/publisher"
	"github.com/ricirt/hello-game/internal/ratelimiter"
	"github.com/ricirt/hello-game/internal/statsclient"
	"github.com/ricirt/hello-game/internal/web"
)

func main() {
	// ---- configuration ----
	cfg, err := config.LoadFrontend()
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
	log = log.With(zap.String("service", "hello-frontend"), zap.String("environment", cfg.Environment))

	// ---- broker ----
	ctx := context.Background()
	js, err := broker.Connect(ctx, cfg.NATS, "hello-frontend", log)
	if err != nil {
		log.Fatal("failed to connect to broker", zap.Error(err))
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	onPublished, onPublishFailed := m.PublishHooks()
	pub := publisher.New(js, cfg.PublishTimeout, log, publisher.MetricHooks{
		OnPublished: onPublished,
		OnFailed:    onPublishFailed,
	})
	client := statsclient.New(cfg.BackendURL, cfg.BackendTimeout, cfg.BackendAuthToken)
	limiter := ratelimiter.New(cfg.PlayRateLimit)
	h := web.NewHandler(pub, client, limiter, log, m.FallbackHook("backend"))

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      web.NewRouter(h, reg, log),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

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

	// 1. Stop accepting new plays.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Let detached publishes finish; each is bounded by PUBLISH_TIMEOUT.
	pub.Wait()

	// 3. Drain and close the broker connection.
	if err := js.Close(shutdownCtx); err != nil {
		log.Error("broker close error", zap.Error(err))
	}

	log.Info("server stopped cleanly")
}
