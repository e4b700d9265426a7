package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/ricirt/hello-game/internal/domain"
)

// SQLSessionFactory checks out one dedicated connection from a database/sql
// pool per Session.
type SQLSessionFactory struct {
	db *sql.DB
}

// NewSQLSessionFactory returns a SessionFactory over db.
func NewSQLSessionFactory(db *sql.DB) *SQLSessionFactory {
	return &SQLSessionFactory{db: db}
}

var _ SessionFactory = (*SQLSessionFactory)(nil)

func (f *SQLSessionFactory) Connect(ctx context.Context) (Session, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &sqlSession{conn: conn}, nil
}

type sqlSession struct {
	conn      *sql.Conn
	closeOnce sync.Once
	closeErr  error
}

// InsertSubmission writes name in its own transaction and returns the stored row.
func (s *sqlSession) InsertSubmission(ctx context.Context, name string) (*domain.Submission, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	var sub domain.Submission
	if err := tx.QueryRowContext(ctx, insertSubmissionSQL, name).Scan(&sub.ID, &sub.Name, &sub.SubmittedAt); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("insert submission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &sub, nil
}

func (s *sqlSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
