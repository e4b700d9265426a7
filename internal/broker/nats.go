package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nuid"
	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/config"
	"github.com/ricirt/hello-game/internal/domain"
)

// JetStream publishes names to, and consumes them from, a JetStream stream.
// The stream captures both the names subject and the dead-letter subject.
type JetStream struct {
	nc                *nats.Conn
	js                jetstream.JetStream
	stream            string
	subject           string
	deadLetterSubject string
	closed            chan struct{}
}

// Connect dials NATS and ensures the stream exists.
func Connect(ctx context.Context, cfg config.NATSConfig, name string, logger *zap.Logger) (*JetStream, error) {
	closed := make(chan struct{})
	nc, err := nats.Connect(cfg.URL,
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
		nats.Name(name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.Stream,
		Subjects:   []string{cfg.Subject, cfg.DeadLetterSubject},
		Storage:    jetstream.FileStorage,
		Retention:  jetstream.LimitsPolicy,
		Duplicates: 2 * time.Minute,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", cfg.Stream, err)
	}

	return &JetStream{
		nc:                nc,
		js:                js,
		stream:            cfg.Stream,
		subject:           cfg.Subject,
		deadLetterSubject: cfg.DeadLetterSubject,
		closed:            closed,
	}, nil
}

// Publish stores data on the names subject and waits for the stream ack.
// The returned id is also sent as Nats-Msg-Id so the stream drops duplicates.
func (j *JetStream) Publish(ctx context.Context, data []byte) (string, error) {
	id := nuid.Next()
	if _, err := j.js.Publish(ctx, j.subject, data, jetstream.WithMsgID(id)); err != nil {
		return "", ClassifyPublishError(err)
	}
	return id, nil
}

// DeadLetter publishes rec as JSON to the dead-letter subject.
func (j *JetStream) DeadLetter(ctx context.Context, rec DeadLetterRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal dead-letter record: %w", err)
	}
	if _, err := j.js.Publish(ctx, j.deadLetterSubject, payload, jetstream.WithMsgID(rec.MessageID+".dlq")); err != nil {
		return fmt.Errorf("publish dead-letter record: %w", ClassifyPublishError(err))
	}
	return nil
}

// ConsumerOptions configures the durable pull consumer behind a Source.
type ConsumerOptions struct {
	Durable    string
	AckWait    time.Duration
	MaxDeliver int
}

// Source binds a durable pull consumer on the names subject and starts
// fetching. The source stops when ctx is cancelled.
func (j *JetStream) Source(ctx context.Context, opts ConsumerOptions) (*JetStreamSource, error) {
	cons, err := j.js.CreateOrUpdateConsumer(ctx, j.stream, jetstream.ConsumerConfig{
		Durable:       opts.Durable,
		FilterSubject: j.subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       opts.AckWait,
		MaxDeliver:    opts.MaxDeliver,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure consumer %s: %w", opts.Durable, err)
	}

	iter, err := cons.Messages()
	if err != nil {
		return nil, fmt.Errorf("start message iterator: %w", err)
	}

	src := &JetStreamSource{iter: iter}
	go func() {
		<-ctx.Done()
		src.Stop()
	}()
	return src, nil
}

// Close drains the connection and blocks until it is closed, so pending
// publishes and acks have reached the server when it returns. If ctx ends
// first the connection is closed without waiting for the drain.
func (j *JetStream) Close(ctx context.Context) error {
	if err := j.nc.Drain(); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return nil
		}
		j.nc.Close()
		return fmt.Errorf("drain nats connection: %w", err)
	}
	select {
	case <-j.closed:
		return nil
	case <-ctx.Done():
		j.nc.Close()
		return fmt.Errorf("drain nats connection: %w", ctx.Err())
	}
}

// ClassifyPublishError maps a JetStream publish failure onto the publish
// error taxonomy. Missing streams and permission problems are configuration
// bugs; deadlines are timeouts; anything else is treated as transport.
func ClassifyPublishError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
		return fmt.Errorf("%w: %v", domain.ErrPublishTimeout, err)
	case errors.Is(err, jetstream.ErrNoStreamResponse),
		errors.Is(err, jetstream.ErrStreamNotFound),
		errors.Is(err, nats.ErrNoResponders),
		errors.Is(err, nats.ErrPermissionViolation),
		errors.Is(err, nats.ErrAuthorization):
		return fmt.Errorf("%w: %v", domain.ErrPublishAuthz, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrPublishTransport, err)
	}
}

// JetStreamSource adapts a pull-consumer message iterator to Source.
type JetStreamSource struct {
	mu   sync.Mutex
	iter jetstream.MessagesContext
	once sync.Once
}

var _ Source = (*JetStreamSource)(nil)

// Next blocks until the iterator yields a message. Concurrent callers take
// turns. The iterator is shared, so cancelling ctx here stops the whole
// source, as do Stop and cancelling the context passed to JetStream.Source.
func (s *JetStreamSource) Next(ctx context.Context) (Message, error) {
	if ctx.Err() != nil {
		return nil, ErrSourceClosed
	}
	stop := context.AfterFunc(ctx, s.Stop)
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.iter.Next()
	if err != nil {
		if errors.Is(err, jetstream.ErrMsgIteratorClosed) {
			return nil, ErrSourceClosed
		}
		return nil, fmt.Errorf("next message: %w", err)
	}
	return &jetStreamMessage{msg: msg}, nil
}

// Stop ends the iterator; blocked and future Next calls return ErrSourceClosed.
func (s *JetStreamSource) Stop() {
	s.once.Do(s.iter.Stop)
}

type jetStreamMessage struct {
	msg jetstream.Msg
}

func (m *jetStreamMessage) Data() []byte { return m.msg.Data() }

func (m *jetStreamMessage) Metadata() domain.DeliveryMetadata {
	meta := domain.DeliveryMetadata{Attempt: 1}
	if h := m.msg.Headers(); h != nil {
		meta.MessageID = h.Get(nats.MsgIdHdr)
	}
	md, err := m.msg.Metadata()
	if err != nil {
		return meta
	}
	meta.PublishedAt = md.Timestamp
	meta.Attempt = int(md.NumDelivered)
	if meta.MessageID == "" {
		meta.MessageID = fmt.Sprintf("%s:%d", md.Stream, md.Sequence.Stream)
	}
	return meta
}

func (m *jetStreamMessage) Ack() error                    { return m.msg.Ack() }
func (m *jetStreamMessage) Nak(delay time.Duration) error { return m.msg.NakWithDelay(delay) }
func (m *jetStreamMessage) Term() error                   { return m.msg.Term() }
