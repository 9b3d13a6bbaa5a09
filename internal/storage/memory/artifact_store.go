package memory

import (
	"context"
	"sync"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

// ArtifactStore is an in-memory implementation of storage.ArtifactStore.
type ArtifactStore struct {
	mu    sync.RWMutex
	data  map[int]*domain.ModelArtifact // keyed by number
	saves int
}

// NewArtifactStore creates a new in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		data: make(map[int]*domain.ModelArtifact),
	}
}

// Load returns the artifact for number. Returns ErrNotFound if absent.
func (s *ArtifactStore) Load(_ context.Context, number int) (*domain.ModelArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[number]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyArtifact(a), nil
}

// Save replaces the artifact for a.Number.
func (s *ArtifactStore) Save(_ context.Context, a *domain.ModelArtifact) error {
	if a == nil || a.Number < 1 || a.Number > domain.PoolSize || len(a.Payload) == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[a.Number] = copyArtifact(a)
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *ArtifactStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func copyArtifact(a *domain.ModelArtifact) *domain.ModelArtifact {
	c := *a
	c.Columns = append([]string(nil), a.Columns...)
	c.Payload = append([]byte(nil), a.Payload...)
	return &c
}

// Verify interface compliance
var _ storage.ArtifactStore = (*ArtifactStore)(nil)
