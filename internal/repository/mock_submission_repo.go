package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ricirt/hello-game/internal/domain"
)

// MockSubmissionRepository is a hand-written, in-memory implementation of
// SubmissionRepository used in unit tests.
type MockSubmissionRepository struct {
	mu          sync.RWMutex
	submissions []domain.Submission
	nextID      int64

	// Optional error overrides, set in tests to simulate failure paths.
	CreateErr     error
	NameCountsErr error
	PingErr       error
}

func NewMockSubmissionRepository() *MockSubmissionRepository {
	return &MockSubmissionRepository{nextID: 1}
}

func (m *MockSubmissionRepository) Create(_ context.Context, name string) (*domain.Submission, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := domain.Submission{ID: m.nextID, Name: name, SubmittedAt: time.Now().UTC()}
	m.nextID++
	m.submissions = append(m.submissions, s)
	return &s, nil
}

func (m *MockSubmissionRepository) NameCounts(_ context.Context) ([]domain.NameCount, error) {
	if m.NameCountsErr != nil {
		return nil, m.NameCountsErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	byName := make(map[string]int)
	for _, s := range m.submissions {
		byName[s.Name]++
	}
	counts := make([]domain.NameCount, 0, len(byName))
	for name, c := range byName {
		counts = append(counts, domain.NameCount{Name: name, Count: c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
	return counts, nil
}

func (m *MockSubmissionRepository) Ping(_ context.Context) error {
	return m.PingErr
}

// Submissions returns a copy of every stored row in insertion order.
func (m *MockSubmissionRepository) Submissions() []domain.Submission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Submission(nil), m.submissions...)
}
