package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

func numbers(start int) []int {
	out := make([]int, 0, domain.DrawSize)
	for i := 0; i < domain.DrawSize; i++ {
		out = append(out, (start+i)%domain.PoolSize+1)
	}
	return domain.SortedCopy(out)
}

func TestDrawStore_UpsertIsIdempotent(t *testing.T) {
	store := NewDrawStore()
	ctx := context.Background()

	d := domain.Draw{ID: 7, Numbers: numbers(0)}
	inserted, err := store.Upsert(ctx, d)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if !inserted {
		t.Error("Expected first Upsert to insert")
	}

	// Same id with different numbers must not overwrite.
	inserted, err = store.Upsert(ctx, domain.Draw{ID: 7, Numbers: numbers(5)})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if inserted {
		t.Error("Expected second Upsert to be ignored")
	}

	got, err := store.GetByID(ctx, 7)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if domain.CountHits(got.Numbers, d.Numbers) != domain.DrawSize {
		t.Errorf("Draw was modified: got %v, want %v", got.Numbers, d.Numbers)
	}

	all, _ := store.List(ctx)
	if len(all) != 1 {
		t.Errorf("Expected 1 draw, got %d", len(all))
	}
}

func TestDrawStore_ListOrderedAndLatest(t *testing.T) {
	store := NewDrawStore()
	ctx := context.Background()

	latest, err := store.LatestID(ctx)
	if err != nil {
		t.Fatalf("LatestID failed: %v", err)
	}
	if latest != 0 {
		t.Errorf("Expected 0 for empty store, got %d", latest)
	}

	for _, id := range []int64{30, 10, 20} {
		if _, err := store.Upsert(ctx, domain.Draw{ID: id, Numbers: numbers(int(id))}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != 10 || all[1].ID != 20 || all[2].ID != 30 {
		t.Errorf("List not ordered by id ASC: %+v", all)
	}

	latest, _ = store.LatestID(ctx)
	if latest != 30 {
		t.Errorf("Expected latest 30, got %d", latest)
	}
}

func TestDrawStore_RejectsInvalid(t *testing.T) {
	store := NewDrawStore()
	_, err := store.Upsert(context.Background(), domain.Draw{ID: 1, Numbers: []int{1, 2, 3}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestDrawStore_GetNotFound(t *testing.T) {
	store := NewDrawStore()
	_, err := store.GetByID(context.Background(), 99)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDrawStore_ConcurrentUpsert(t *testing.T) {
	store := NewDrawStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	insertedCount := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Upsert(ctx, domain.Draw{ID: 1, Numbers: numbers(0)})
			if err != nil {
				t.Errorf("Upsert failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				insertedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if insertedCount != 1 {
		t.Errorf("Expected exactly 1 insert, got %d", insertedCount)
	}
}
