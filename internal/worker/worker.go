package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/broker"
	"github.com/ricirt/hello-game/internal/domain"
)

// MessageHandler processes the payload of one delivery.
type MessageHandler interface {
	Handle(ctx context.Context, data []byte, meta domain.DeliveryMetadata) (*domain.Submission, error)
}

// Options holds the redelivery policy shared by every worker in a pool.
type Options struct {
	MaxDeliver int
	Backoff    []time.Duration
}

// Worker is a single goroutine that pulls deliveries from the source, hands
// them to the handler and settles each one: ack on success, nak with backoff
// on a transient failure, dead-letter then term when retrying cannot help.
type Worker struct {
	id      int
	src     broker.Source
	handler MessageHandler
	dlq     broker.DeadLetterer
	opts    Options
	logger  *zap.Logger

	// Hooks for metrics, injected by the pool so the worker stays metrics-agnostic.
	onPersisted    func(latency time.Duration)
	onFailed       func(reason string)
	onDeadLettered func()
}

// NewWorker constructs a worker. Nil hooks are no-ops.
func NewWorker(
	id int,
	src broker.Source,
	handler MessageHandler,
	dlq broker.DeadLetterer,
	opts Options,
	logger *zap.Logger,
	hooks MetricHooks,
) *Worker {
	if hooks.OnPersisted == nil {
		hooks.OnPersisted = func(time.Duration) {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func(string) {}
	}
	if hooks.OnDeadLettered == nil {
		hooks.OnDeadLettered = func() {}
	}
	return &Worker{
		id: id, src: src, handler: handler, dlq: dlq,
		opts: opts, logger: logger,
		onPersisted:    hooks.OnPersisted,
		onFailed:       hooks.OnFailed,
		onDeadLettered: hooks.OnDeadLettered,
	}
}

// Run blocks until ctx is cancelled or the source closes, processing one
// delivery per iteration. A delivery already being processed is finished
// and settled even if ctx is cancelled meanwhile.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", zap.Int("id", w.id))
	for {
		msg, err := w.src.Next(ctx)
		if err != nil {
			if errors.Is(err, broker.ErrSourceClosed) || ctx.Err() != nil {
				w.logger.Info("worker stopping", zap.Int("id", w.id))
				return
			}
			w.logger.Warn("failed to fetch message", zap.Error(err))
			select {
			case <-ctx.Done():
				w.logger.Info("worker stopping", zap.Int("id", w.id))
				return
			case <-time.After(time.Second):
			}
			continue
		}
		w.process(context.WithoutCancel(ctx), msg)
	}
}

func (w *Worker) process(ctx context.Context, msg broker.Message) {
	start := time.Now()
	meta := msg.Metadata()
	log := w.logger.With(
		zap.String("message_id", meta.MessageID),
		zap.Int("attempt", meta.Attempt),
	)

	_, err := w.handler.Handle(ctx, msg.Data(), meta)

	switch broker.Decide(err, meta.Attempt, w.opts.MaxDeliver) {
	case broker.Ack:
		if aerr := msg.Ack(); aerr != nil {
			log.Error("failed to ack message", zap.Error(aerr))
			return
		}
		w.onPersisted(time.Since(start))

	case broker.Retry:
		delay := broker.RetryDelay(w.opts.Backoff, meta.Attempt)
		log.Warn("message processing failed, redelivering",
			zap.Error(err),
			zap.Duration("delay", delay),
		)
		w.onFailed(failureReason(err))
		if nerr := msg.Nak(delay); nerr != nil {
			log.Error("failed to nak message", zap.Error(nerr))
		}

	case broker.DeadLetter:
		w.onFailed(failureReason(err))
		w.deadLetter(ctx, msg, meta, err, log)
	}
}

// deadLetter records the failure and terminates the delivery. If the record
// cannot be written the message is nak'd so it is not lost.
func (w *Worker) deadLetter(ctx context.Context, msg broker.Message, meta domain.DeliveryMetadata, cause error, log *zap.Logger) {
	failureType := broker.FailureTypeExhausted
	if errors.Is(cause, domain.ErrMalformedMessage) {
		failureType = broker.FailureTypeMalformed
	}

	rec := broker.DeadLetterRecord{
		MessageID:       meta.MessageID,
		OriginalMessage: msg.Data(),
		Attempts:        meta.Attempt,
		FailureType:     failureType,
		LastError:       cause.Error(),
		PublishedAt:     meta.PublishedAt,
		LastAttemptAt:   time.Now().UTC(),
	}
	if err := w.dlq.DeadLetter(ctx, rec); err != nil {
		log.Error("failed to dead-letter message", zap.Error(err))
		if nerr := msg.Nak(broker.RetryDelay(w.opts.Backoff, meta.Attempt)); nerr != nil {
			log.Error("failed to nak message", zap.Error(nerr))
		}
		return
	}

	if err := msg.Term(); err != nil {
		log.Error("failed to terminate message", zap.Error(err))
	}
	w.onDeadLettered()
	log.Warn("message dead-lettered",
		zap.String("failure_type", failureType),
		zap.Error(cause),
	)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedMessage):
		return "malformed"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	default:
		return "unknown"
	}
}
