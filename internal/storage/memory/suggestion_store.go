package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

// SuggestionStore is an in-memory implementation of storage.SuggestionStore.
type SuggestionStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.Suggestion // keyed by suggestion id
	seq   map[string]int                // insertion order, for stable newest-first listing
	next  int
	clock func() time.Time
}

// NewSuggestionStore creates a new in-memory suggestion store.
func NewSuggestionStore() *SuggestionStore {
	return &SuggestionStore{
		data:  make(map[string]*domain.Suggestion),
		seq:   make(map[string]int),
		clock: time.Now,
	}
}

// Append stores sg unless one with the same tuple exists. sg.ID is set
// from the tuple.
func (s *SuggestionStore) Append(_ context.Context, sg *domain.Suggestion) (bool, error) {
	if err := storage.AssignSuggestionID(sg); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sg.ID]; exists {
		return false, nil
	}

	c := copySuggestion(sg)
	c.Numbers = domain.SortedCopy(c.Numbers)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.clock().UTC()
	}
	s.data[sg.ID] = c
	s.next++
	s.seq[sg.ID] = s.next
	return true, nil
}

// ListByUser returns a user's suggestions, draw id DESC then newest first.
func (s *SuggestionStore) ListByUser(_ context.Context, userID int64) ([]*domain.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Suggestion
	for _, sg := range s.data {
		if sg.UserID == userID {
			result = append(result, copySuggestion(sg))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DrawID != result[j].DrawID {
			return result[i].DrawID > result[j].DrawID
		}
		return s.seq[result[i].ID] > s.seq[result[j].ID]
	})
	return result, nil
}

// ListPending returns unscored suggestions ordered by draw id ASC.
func (s *SuggestionStore) ListPending(_ context.Context) ([]*domain.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Suggestion
	for _, sg := range s.data {
		if sg.Pending() {
			result = append(result, copySuggestion(sg))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DrawID != result[j].DrawID {
			return result[i].DrawID < result[j].DrawID
		}
		return s.seq[result[i].ID] < s.seq[result[j].ID]
	})
	return result, nil
}

// RecordHits stores the official numbers and hit count for a suggestion.
func (s *SuggestionStore) RecordHits(_ context.Context, id string, drawn []int, hits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sg, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	h := hits
	sg.Drawn = domain.SortedCopy(drawn)
	sg.Hits = &h
	return nil
}

// Delete removes a suggestion owned by userID.
func (s *SuggestionStore) Delete(_ context.Context, userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sg, exists := s.data[id]
	if !exists || sg.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.data, id)
	delete(s.seq, id)
	return nil
}

func copySuggestion(sg *domain.Suggestion) *domain.Suggestion {
	c := *sg
	c.Numbers = append([]int(nil), sg.Numbers...)
	if sg.Drawn != nil {
		c.Drawn = append([]int(nil), sg.Drawn...)
	}
	if sg.Hits != nil {
		h := *sg.Hits
		c.Hits = &h
	}
	return &c
}

// Verify interface compliance
var _ storage.SuggestionStore = (*SuggestionStore)(nil)
