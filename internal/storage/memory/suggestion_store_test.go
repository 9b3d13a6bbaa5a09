package memory

import (
	"context"
	"errors"
	"testing"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/idhash"
	"lotofacil-lab/internal/storage"
)

func appendSuggestion(t *testing.T, store *SuggestionStore, user, draw int64, nums []int) *domain.Suggestion {
	t.Helper()
	sg := &domain.Suggestion{UserID: user, DrawID: draw, Strategy: domain.StrategyMachineLearning, Numbers: nums}
	if _, err := store.Append(context.Background(), sg); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	return sg
}

func TestSuggestionStore_AppendDeduplicates(t *testing.T) {
	store := NewSuggestionStore()
	ctx := context.Background()

	s := &domain.Suggestion{UserID: 1, DrawID: 100, Strategy: domain.StrategyMachineLearning, Numbers: numbers(0)}
	inserted, err := store.Append(ctx, s)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if !inserted {
		t.Error("Expected first Append to insert")
	}
	want := idhash.ComputeSuggestionID(1, 100, domain.StrategyMachineLearning, numbers(0))
	if s.ID != want {
		t.Errorf("Expected ID derived from contents %s, got %s", want, s.ID)
	}

	inserted, err = store.Append(ctx, s)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if inserted {
		t.Error("Expected duplicate Append to be ignored")
	}

	list, _ := store.ListByUser(ctx, 1)
	if len(list) != 1 {
		t.Fatalf("Expected 1 suggestion, got %d", len(list))
	}
	if list[0].CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestSuggestionStore_SameTupleDifferentOrder(t *testing.T) {
	store := NewSuggestionStore()
	ctx := context.Background()

	reversed := numbers(4)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}

	appendSuggestion(t, store, 1, 100, numbers(4))
	inserted, err := store.Append(ctx, &domain.Suggestion{UserID: 1, DrawID: 100, Strategy: domain.StrategyMachineLearning, Numbers: reversed})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if inserted {
		t.Error("Expected the same numbers in another order to be a duplicate")
	}
}

func TestSuggestionStore_RejectsMismatchedID(t *testing.T) {
	store := NewSuggestionStore()
	ctx := context.Background()

	appendSuggestion(t, store, 1, 100, numbers(0))

	forged := &domain.Suggestion{ID: "other", UserID: 1, DrawID: 100, Strategy: domain.StrategyMachineLearning, Numbers: numbers(0)}
	if _, err := store.Append(ctx, forged); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	list, _ := store.ListByUser(ctx, 1)
	if len(list) != 1 {
		t.Errorf("Expected 1 suggestion, got %d", len(list))
	}
}

func TestSuggestionStore_ListByUserOrder(t *testing.T) {
	store := NewSuggestionStore()
	ctx := context.Background()

	a := appendSuggestion(t, store, 1, 100, numbers(0))
	b := appendSuggestion(t, store, 1, 101, numbers(1))
	c := appendSuggestion(t, store, 1, 100, numbers(2))
	appendSuggestion(t, store, 2, 102, numbers(3))

	list, err := store.ListByUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	var ids []string
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	want := []string{b.ID, c.ID, a.ID}
	if len(ids) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, ids)
			break
		}
	}
}

func TestSuggestionStore_RecordHitsAndPending(t *testing.T) {
	store := NewSuggestionStore()
	ctx := context.Background()

	a := appendSuggestion(t, store, 1, 101, numbers(0))
	b := appendSuggestion(t, store, 1, 100, numbers(3))

	pending, _ := store.ListPending(ctx)
	if len(pending) != 2 || pending[0].ID != b.ID {
		t.Fatalf("Expected pending ordered by draw ASC, got %+v", pending)
	}

	if err := store.RecordHits(ctx, b.ID, numbers(3), 15); err != nil {
		t.Fatalf("RecordHits failed: %v", err)
	}
	pending, _ = store.ListPending(ctx)
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Errorf("Expected only a pending, got %+v", pending)
	}

	list, _ := store.ListByUser(ctx, 1)
	for _, s := range list {
		if s.ID == b.ID && (s.Hits == nil || *s.Hits != 15 || len(s.Drawn) != domain.DrawSize) {
			t.Errorf("Hits not recorded: %+v", s)
		}
	}

	if err := store.RecordHits(ctx, "missing", nil, 0); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSuggestionStore_DeleteScopedToUser(t *testing.T) {
	store := NewSuggestionStore()
	ctx := context.Background()

	a := appendSuggestion(t, store, 1, 100, numbers(0))

	if err := store.Delete(ctx, 2, a.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for other user, got %v", err)
	}
	if err := store.Delete(ctx, 1, a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	list, _ := store.ListByUser(ctx, 1)
	if len(list) != 0 {
		t.Errorf("Expected empty list, got %d", len(list))
	}
}

func TestSuggestionStore_RejectsInvalidNumbers(t *testing.T) {
	store := NewSuggestionStore()
	_, err := store.Append(context.Background(), &domain.Suggestion{Numbers: []int{1, 1, 2}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
