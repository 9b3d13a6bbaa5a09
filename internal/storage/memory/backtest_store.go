package memory

import (
	"context"
	"sort"
	"sync"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

// BacktestStore is an in-memory implementation of storage.BacktestStore.
type BacktestStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BacktestRun // keyed by run_id
}

// NewBacktestStore creates a new in-memory backtest store.
func NewBacktestStore() *BacktestStore {
	return &BacktestStore{
		data: make(map[string]*domain.BacktestRun),
	}
}

// InsertRun stores a run. Returns ErrDuplicateKey if run_id exists.
func (s *BacktestStore) InsertRun(_ context.Context, run *domain.BacktestRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[run.RunID] = copyRun(run)
	return nil
}

// GetRun retrieves a run with iterations ordered by draw id ASC.
func (s *BacktestStore) GetRun(_ context.Context, runID string) (*domain.BacktestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	c := copyRun(run)
	sort.Slice(c.Iterations, func(i, j int) bool {
		return c.Iterations[i].DrawID < c.Iterations[j].DrawID
	})
	return c, nil
}

func copyRun(run *domain.BacktestRun) *domain.BacktestRun {
	c := *run
	c.Iterations = make([]*domain.BacktestIteration, len(run.Iterations))
	for i, it := range run.Iterations {
		ic := *it
		ic.RunID = run.RunID
		ic.Suggested = append([]int(nil), it.Suggested...)
		ic.Actual = append([]int(nil), it.Actual...)
		c.Iterations[i] = &ic
	}
	return &c
}

// Verify interface compliance
var _ storage.BacktestStore = (*BacktestStore)(nil)
