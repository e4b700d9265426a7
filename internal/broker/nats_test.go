package broker_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/broker"
	"github.com/ricirt/hello-game/internal/config"
	"github.com/ricirt/hello-game/internal/domain"
)

func TestClassifyPublishError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", context.DeadlineExceeded, domain.ErrPublishTimeout},
		{"nats timeout", nats.ErrTimeout, domain.ErrPublishTimeout},
		{"no stream", jetstream.ErrNoStreamResponse, domain.ErrPublishAuthz},
		{"no responders", fmt.Errorf("publish: %w", nats.ErrNoResponders), domain.ErrPublishAuthz},
		{"permission", nats.ErrPermissionViolation, domain.ErrPublishAuthz},
		{"other", errors.New("connection reset"), domain.ErrPublishTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, broker.ClassifyPublishError(tt.err), tt.want)
		})
	}
	assert.NoError(t, broker.ClassifyPublishError(nil))
}

func connectTest(t *testing.T, url string) (*broker.JetStream, config.NATSConfig) {
	t.Helper()

	cfg := config.NATSConfig{
		URL:               url,
		Stream:            "HELLO_GAME_TEST",
		Subject:           "hello-game-test.names",
		DeadLetterSubject: "hello-game-test.names.dead-letter",
		MaxReconnects:     0,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	js, err := broker.Connect(ctx, cfg, "hello-game-test", zap.NewNop())
	require.NoError(t, err)
	return js, cfg
}

func TestJetStream_RoundTrip(t *testing.T) {
	srv := broker.RunJetStreamServer(t)
	js, _ := connectTest(t, srv.ClientURL())
	defer js.Close(context.Background()) //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	src, err := js.Source(ctx, broker.ConsumerOptions{
		Durable:    "roundtrip",
		AckWait:    5 * time.Second,
		MaxDeliver: 3,
	})
	require.NoError(t, err)
	defer src.Stop()

	id, err := js.Publish(ctx, []byte("Alice"))
	require.NoError(t, err)

	msg, err := src.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, msg.Ack())

	assert.Equal(t, id, msg.Metadata().MessageID)
	assert.Equal(t, "Alice", string(msg.Data()))
	assert.Equal(t, 1, msg.Metadata().Attempt)
}

func TestJetStream_CloseWaitsForAcks(t *testing.T) {
	srv := broker.RunJetStreamServer(t)
	js, cfg := connectTest(t, srv.ClientURL())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	src, err := js.Source(ctx, broker.ConsumerOptions{
		Durable:    "close-acks",
		AckWait:    30 * time.Second,
		MaxDeliver: 3,
	})
	require.NoError(t, err)

	_, err = js.Publish(ctx, []byte("Bob"))
	require.NoError(t, err)
	msg, err := src.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, msg.Ack())
	src.Stop()

	require.NoError(t, js.Close(ctx))
	assert.True(t, js.IsClosed(), "connection must be closed once Close returns")

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer nc.Close()
	check, err := jetstream.New(nc)
	require.NoError(t, err)
	cons, err := check.Consumer(ctx, cfg.Stream, "close-acks")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		info, err := cons.Info(ctx)
		return err == nil && info.NumAckPending == 0 && info.AckFloor.Stream == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestJetStream_CloseTwice(t *testing.T) {
	srv := broker.RunJetStreamServer(t)
	js, _ := connectTest(t, srv.ClientURL())

	require.NoError(t, js.Close(context.Background()))
	assert.NoError(t, js.Close(context.Background()))
}

func TestJetStreamSource_NextHonoursCallerContext(t *testing.T) {
	srv := broker.RunJetStreamServer(t)
	js, _ := connectTest(t, srv.ClientURL())
	defer js.Close(context.Background()) //nolint:errcheck

	src, err := js.Source(context.Background(), broker.ConsumerOptions{
		Durable:    "idle",
		AckWait:    5 * time.Second,
		MaxDeliver: 1,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := src.Next(ctx)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, broker.ErrSourceClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not return after its context expired")
	}
}
