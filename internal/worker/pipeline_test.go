package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/broker"
	"github.com/ricirt/hello-game/internal/consumer"
	"github.com/ricirt/hello-game/internal/domain"
	"github.com/ricirt/hello-game/internal/publisher"
	"github.com/ricirt/hello-game/internal/repository"
	"github.com/ricirt/hello-game/internal/stats"
	"github.com/ricirt/hello-game/internal/worker"
)

// flakySessions writes through to a mock repository but fails the first
// failFirst inserts, simulating a database that recovers.
type flakySessions struct {
	repo      *repository.MockSubmissionRepository
	failFirst int32
	inserts   atomic.Int32
	closes    atomic.Int32
}

func (f *flakySessions) Connect(context.Context) (repository.Session, error) {
	return &flakySession{f: f}, nil
}

type flakySession struct{ f *flakySessions }

func (s *flakySession) InsertSubmission(ctx context.Context, name string) (*domain.Submission, error) {
	if s.f.inserts.Add(1) <= s.f.failFirst {
		return nil, errors.New("connection reset by peer")
	}
	return s.f.repo.Create(ctx, name)
}

func (s *flakySession) Close() error {
	s.f.closes.Add(1)
	return nil
}

func TestPipeline_PublishConsumeAggregate(t *testing.T) {
	b := broker.NewMemoryBroker(100)
	sessions := &flakySessions{repo: repository.NewMockSubmissionRepository(), failFirst: 1}

	ctx, cancel := context.WithCancel(context.Background())
	pool := worker.NewPool(2, b, consumer.NewHandler(sessions, zap.NewNop()), b, worker.Options{
		MaxDeliver: 3,
		Backoff:    []time.Duration{time.Millisecond},
	}, zap.NewNop(), worker.MetricHooks{})
	pool.Start(ctx)
	defer func() {
		cancel()
		pool.Wait()
	}()

	pub := publisher.New(b, time.Second, zap.NewNop(), publisher.MetricHooks{})
	for _, raw := range []string{"alice", "  ALICE ", "bob", "   "} {
		_, _ = pub.Submit(raw)
	}
	pub.Wait()

	waitFor(t, func() bool { return len(b.Acked()) == 3 })

	rows := sessions.repo.Submissions()
	require.Len(t, rows, 3, "one failed insert is redelivered, the blank name is never published")
	assert.Equal(t, int32(4), sessions.closes.Load(), "every session is closed, including the failed one")
	assert.Empty(t, b.DeadLetters())

	snap, err := stats.NewAggregator(sessions.repo).Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.TotalPlayers)
	assert.Equal(t, 2, snap.UniqueNames)
	assert.Equal(t, "Alice", *snap.MostPopular)
}
