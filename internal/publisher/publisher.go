// Package publisher accepts submitted names and hands them to the queue
// without holding up the caller.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/domain"
)

// DefaultTimeout bounds a single publish round-trip.
const DefaultTimeout = 5 * time.Second

// Broker is the queue client the publisher writes to.
type Broker interface {
	Publish(ctx context.Context, data []byte) (messageID string, err error)
}

// MetricHooks carries the metric callbacks injected by main. Nil fields are no-ops.
type MetricHooks struct {
	OnPublished func()
	OnFailed    func(reason string)
}

// Publisher validates and normalizes names, then publishes each one from a
// detached goroutine. Publish outcomes are reported only through the logger
// and hooks.
type Publisher struct {
	broker  Broker
	timeout time.Duration
	logger  *zap.Logger
	hooks   MetricHooks
	wg      conc.WaitGroup
}

// New constructs a Publisher. A non-positive timeout selects DefaultTimeout.
func New(b Broker, timeout time.Duration, logger *zap.Logger, hooks MetricHooks) *Publisher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if hooks.OnPublished == nil {
		hooks.OnPublished = func() {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func(string) {}
	}
	return &Publisher{broker: b, timeout: timeout, logger: logger, hooks: hooks}
}

// Submit validates raw and, if it is acceptable, schedules exactly one
// publish of the normalized name and returns that name immediately.
// Invalid input returns a validation error and nothing is published.
func (p *Publisher) Submit(raw string) (string, error) {
	name, err := domain.ValidateName(raw)
	if err != nil {
		return "", err
	}

	p.wg.Go(func() { p.publish(name) })

	return name, nil
}

// Wait blocks until every publish started by Submit has finished.
// Call it during shutdown before closing the broker. A panic inside a
// publish is logged here instead of crashing the process.
func (p *Publisher) Wait() {
	if r := p.wg.WaitAndRecover(); r != nil {
		p.logger.Error("publish panicked", zap.Error(r.AsError()))
	}
}

// publish runs on its own goroutine with a context detached from any request.
func (p *Publisher) publish(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	log := p.logger.With(zap.String("name", name))

	id, err := p.broker.Publish(ctx, []byte(name))
	if err != nil {
		err = classify(err)
		reason := Reason(err)
		log.Error("publish failed", zap.String("reason", reason), zap.Error(err))
		p.hooks.OnFailed(reason)
		return
	}

	p.hooks.OnPublished()
	log.Info("name published", zap.String("message_id", id))
}

// classify makes sure err carries exactly one publish-failure sentinel.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrPublishTimeout),
		errors.Is(err, domain.ErrPublishAuthz),
		errors.Is(err, domain.ErrPublishTransport):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", domain.ErrPublishTimeout, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrPublishTransport, err)
	}
}

// Reason returns the metric label for a classified publish error.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrPublishTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrPublishAuthz):
		return "authz"
	default:
		return "transport"
	}
}
