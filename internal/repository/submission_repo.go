package repository

import (
	"context"

	"github.com/ricirt/hello-game/internal/domain"
)

// SubmissionRepository defines the backend's persistence operations.
// The pgx implementation is in pg_submission_repo.go.
// Tests use a hand-written mock (mock_submission_repo.go).
type SubmissionRepository interface {
	// Create stores an already-normalized name. Duplicates are allowed.
	Create(ctx context.Context, name string) (*domain.Submission, error)
	// NameCounts returns one row per distinct stored name, highest count
	// first and ties broken by name ascending.
	NameCounts(ctx context.Context) ([]domain.NameCount, error)
	Ping(ctx context.Context) error
}

// Session is a single dedicated database connection used to persist one
// consumed message. Close must be called exactly once.
type Session interface {
	InsertSubmission(ctx context.Context, name string) (*domain.Submission, error)
	Close() error
}

// SessionFactory opens a Session per message.
type SessionFactory interface {
	Connect(ctx context.Context) (Session, error)
}
