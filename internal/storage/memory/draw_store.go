package memory

import (
	"context"
	"sort"
	"sync"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

// DrawStore is an in-memory implementation of storage.DrawStore.
type DrawStore struct {
	mu   sync.RWMutex
	data map[int64]domain.Draw // keyed by draw id
}

// NewDrawStore creates a new in-memory draw store.
func NewDrawStore() *DrawStore {
	return &DrawStore{
		data: make(map[int64]domain.Draw),
	}
}

// Upsert inserts the draw if its id is absent.
func (s *DrawStore) Upsert(_ context.Context, d domain.Draw) (bool, error) {
	if err := d.Validate(); err != nil {
		return false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.ID]; exists {
		return false, nil
	}
	s.data[d.ID] = domain.Draw{ID: d.ID, Numbers: domain.SortedCopy(d.Numbers)}
	return true, nil
}

// GetByID retrieves a draw. Returns ErrNotFound if not exists.
func (s *DrawStore) GetByID(_ context.Context, id int64) (*domain.Draw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return &domain.Draw{ID: d.ID, Numbers: domain.SortedCopy(d.Numbers)}, nil
}

// List returns every draw ordered by id ASC.
func (s *DrawStore) List(_ context.Context) ([]domain.Draw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Draw, 0, len(s.data))
	for _, d := range s.data {
		result = append(result, domain.Draw{ID: d.ID, Numbers: domain.SortedCopy(d.Numbers)})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// LatestID returns the newest draw id, or 0 when empty.
func (s *DrawStore) LatestID(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest int64
	for id := range s.data {
		if id > latest {
			latest = id
		}
	}
	return latest, nil
}

// Verify interface compliance
var _ storage.DrawStore = (*DrawStore)(nil)
