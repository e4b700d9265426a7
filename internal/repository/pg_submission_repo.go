package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricirt/hello-game/internal/domain"
)

type pgSubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewPgSubmissionRepository returns a SubmissionRepository backed by PostgreSQL.
func NewPgSubmissionRepository(pool *pgxpool.Pool) SubmissionRepository {
	return &pgSubmissionRepository{pool: pool}
}

func (r *pgSubmissionRepository) Create(ctx context.Context, name string) (*domain.Submission, error) {
	var s domain.Submission
	err := r.pool.QueryRow(ctx, insertSubmissionSQL, name).Scan(&s.ID, &s.Name, &s.SubmittedAt)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	return &s, nil
}

func (r *pgSubmissionRepository) NameCounts(ctx context.Context) ([]domain.NameCount, error) {
	rows, err := r.pool.Query(ctx, nameCountsSQL)
	if err != nil {
		return nil, fmt.Errorf("query name counts: %w", err)
	}
	defer rows.Close()

	var counts []domain.NameCount
	for rows.Next() {
		var nc domain.NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, fmt.Errorf("scan name count: %w", err)
		}
		counts = append(counts, nc)
	}
	return counts, rows.Err()
}

func (r *pgSubmissionRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
