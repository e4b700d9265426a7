package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/domain"
	"github.com/ricirt/hello-game/internal/repository"
	"github.com/ricirt/hello-game/internal/stats"
)

// SubmissionService backs the JSON API. HTTP handlers depend on this
// service, not on the repository or aggregator directly.
type SubmissionService struct {
	repo       repository.SubmissionRepository
	agg        *stats.Aggregator
	logger     *zap.Logger
	onFallback func()
}

// NewSubmissionService wires the service. onFallback is optional (nil = no-op)
// and fires each time Stats serves the canned payload.
func NewSubmissionService(
	repo repository.SubmissionRepository,
	logger *zap.Logger,
	onFallback func(),
) *SubmissionService {
	if onFallback == nil {
		onFallback = func() {}
	}
	return &SubmissionService{
		repo:       repo,
		agg:        stats.NewAggregator(repo),
		logger:     logger,
		onFallback: onFallback,
	}
}

// Submit validates and normalizes raw, then stores it synchronously.
func (s *SubmissionService) Submit(ctx context.Context, raw string) (*domain.Submission, error) {
	name, err := domain.ValidateName(raw)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	s.logger.Info("submission stored", zap.String("name", sub.Name), zap.Int64("id", sub.ID))
	return sub, nil
}

// Stats returns the live snapshot or, when the database cannot be read,
// the fallback snapshot carrying the error text. It never fails.
func (s *SubmissionService) Stats(ctx context.Context) *domain.StatsSnapshot {
	snap, err := s.agg.Compute(ctx)
	if err != nil {
		s.logger.Error("stats query failed, serving fallback", zap.Error(err))
		s.onFallback()
		return stats.FallbackSnapshot(err)
	}
	return snap
}

// Health pings the database.
func (s *SubmissionService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
