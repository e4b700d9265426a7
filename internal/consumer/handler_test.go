package consumer_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/consumer"
	"github.com/ricirt/hello-game/internal/domain"
	"github.com/ricirt/hello-game/internal/repository"
)

// fakeSessions hands out sessions backed by a mock repository and counts
// every Connect and Close.
type fakeSessions struct {
	repo       *repository.MockSubmissionRepository
	connectErr error
	insertErr  error

	mu       sync.Mutex
	connects int
	closes   int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{repo: repository.NewMockSubmissionRepository()}
}

func (f *fakeSessions) Connect(context.Context) (repository.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return &fakeSession{f: f}, nil
}

type fakeSession struct{ f *fakeSessions }

func (s *fakeSession) InsertSubmission(ctx context.Context, name string) (*domain.Submission, error) {
	if s.f.insertErr != nil {
		return nil, s.f.insertErr
	}
	return s.f.repo.Create(ctx, name)
}

func (s *fakeSession) Close() error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.closes++
	return nil
}

func meta() domain.DeliveryMetadata {
	return domain.DeliveryMetadata{MessageID: "m-1", Attempt: 1}
}

func TestHandle_PersistsNormalizedName(t *testing.T) {
	sessions := newFakeSessions()
	h := consumer.NewHandler(sessions, zap.NewNop())

	sub, err := h.Handle(context.Background(), []byte("  alice "), meta())
	require.NoError(t, err)

	assert.Equal(t, "Alice", sub.Name)
	assert.Equal(t, 1, sessions.closes)
	rows := sessions.repo.Submissions()
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0].Name)
}

func TestHandle_DuplicateDeliveriesProduceTwoRows(t *testing.T) {
	sessions := newFakeSessions()
	h := consumer.NewHandler(sessions, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := h.Handle(context.Background(), []byte("Bob"), meta())
		require.NoError(t, err)
	}

	rows := sessions.repo.Submissions()
	require.Len(t, rows, 2)
	assert.Equal(t, rows[0].Name, rows[1].Name)
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
}

func TestHandle_PersistenceFailureClosesSessionOnce(t *testing.T) {
	sessions := newFakeSessions()
	sessions.insertErr = errors.New("connection reset by peer")
	h := consumer.NewHandler(sessions, zap.NewNop())

	_, err := h.Handle(context.Background(), []byte("carol"), meta())

	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, 1, sessions.connects)
	assert.Equal(t, 1, sessions.closes)
	assert.Empty(t, sessions.repo.Submissions())
}

func TestHandle_ConnectFailure(t *testing.T) {
	sessions := newFakeSessions()
	sessions.connectErr = errors.New("too many connections")
	h := consumer.NewHandler(sessions, zap.NewNop())

	_, err := h.Handle(context.Background(), []byte("dave"), meta())

	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Zero(t, sessions.closes)
}

func TestHandle_MalformedPayloads(t *testing.T) {
	payloads := map[string][]byte{
		"invalid utf-8": {0xff, 0xfe, 0xfd},
		"empty":         {},
		"blank":         []byte("   "),
		"too long":      []byte(strings.Repeat("a", domain.MaxNameLength+1)),
	}
	for name, data := range payloads {
		t.Run(name, func(t *testing.T) {
			sessions := newFakeSessions()
			h := consumer.NewHandler(sessions, zap.NewNop())

			_, err := h.Handle(context.Background(), data, meta())

			require.ErrorIs(t, err, domain.ErrMalformedMessage)
			assert.Zero(t, sessions.connects, "malformed payloads must not touch the database")
		})
	}
}
