package worker

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthProbe periodically pings the database and logs the outcome.
// It is diagnostic only; nothing on the request path reads its result.
type HealthProbe struct {
	db       Pinger
	delay    time.Duration
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewHealthProbe(db Pinger, delay, interval time.Duration, logger *zap.Logger) *HealthProbe {
	return &HealthProbe{db: db, delay: delay, interval: interval, timeout: 5 * time.Second, logger: logger}
}

// Run waits for the initial delay, probes once, then probes every interval.
// Stops cleanly when ctx is cancelled.
func (hp *HealthProbe) Run(ctx context.Context) {
	hp.logger.Info("db health probe started",
		zap.Duration("delay", hp.delay),
		zap.Duration("interval", hp.interval),
	)

	select {
	case <-ctx.Done():
		hp.logger.Info("db health probe stopping")
		return
	case <-time.After(hp.delay):
	}
	hp.probe(ctx)

	ticker := time.NewTicker(hp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			hp.logger.Info("db health probe stopping")
			return
		case <-ticker.C:
			hp.probe(ctx)
		}
	}
}

func (hp *HealthProbe) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, hp.timeout)
	defer cancel()

	if err := hp.db.Ping(ctx); err != nil {
		hp.logger.Error("DB health check: FAILED", zap.String("error", firstLine(err.Error())))
		return
	}
	hp.logger.Info("DB health check: SUCCESS")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
