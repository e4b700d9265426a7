// Package stats derives the player statistics served by the backend and
// shown on the frontend stats page.
package stats

import (
	"context"
	"fmt"
	"sort"

	"github.com/ricirt/hello-game/internal/domain"
)

// NameCounter returns one row per distinct stored name.
type NameCounter interface {
	NameCounts(ctx context.Context) ([]domain.NameCount, error)
}

// Aggregator computes a StatsSnapshot from the stored submissions.
// Every call queries the store; nothing is cached.
type Aggregator struct {
	store NameCounter
}

func NewAggregator(store NameCounter) *Aggregator {
	return &Aggregator{store: store}
}

// Compute returns the current snapshot. Store failures are wrapped with
// domain.ErrDataAccess and returned to the caller.
func (a *Aggregator) Compute(ctx context.Context) (*domain.StatsSnapshot, error) {
	counts, err := a.store.NameCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataAccess, err)
	}
	return Summarize(counts), nil
}

// Summarize orders counts by count descending, then name ascending, and
// derives the totals. The input slice is not modified.
func Summarize(counts []domain.NameCount) *domain.StatsSnapshot {
	data := make([]domain.NameCount, len(counts))
	copy(data, counts)
	sort.SliceStable(data, func(i, j int) bool {
		if data[i].Count != data[j].Count {
			return data[i].Count > data[j].Count
		}
		return data[i].Name < data[j].Name
	})

	snap := &domain.StatsSnapshot{
		UniqueNames: len(data),
		NameData:    data,
	}
	for _, nc := range data {
		snap.TotalPlayers += nc.Count
	}
	if len(data) > 0 {
		top := data[0].Name
		snap.MostPopular = &top
	}
	return snap
}
