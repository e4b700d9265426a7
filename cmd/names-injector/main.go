package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/injector"
	"github.com/ricirt/hello-game/internal/logger"
)

func main() {
	frontendURL := pflag.String("frontend-url", os.Getenv("FRONTEND_URL"), "frontend base URL (defaults to $FRONTEND_URL)")
	count := pflag.IntP("count", "n", 50, "number of names to post")
	delay := pflag.DurationP("delay", "d", 2*time.Second, "pause between posts")
	timeout := pflag.Duration("timeout", 10*time.Second, "per-request timeout")
	logLevel := pflag.String("log-level", "info", "log level")
	pflag.Parse()

	log, err := logger.New(*logLevel, "console")
	if err != nil {
		boot, _ := zap.NewProduction()
		boot.Fatal("failed to build logger", zap.Error(err))
	}
	defer log.Sync() //nolint:errcheck

	if *frontendURL == "" {
		log.Fatal("frontend URL is required: pass --frontend-url or set FRONTEND_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := injector.New(*frontendURL, *timeout, log).Run(ctx, *count, *delay)
	log.Info("injection finished", zap.Int("posted", res.Posted), zap.Int("failed", res.Failed))
	if res.Failed > 0 {
		os.Exit(1)
	}
}
