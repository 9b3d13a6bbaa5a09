package memory

import (
	"context"
	"errors"
	"testing"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

func TestBacktestStore_InsertAndGet(t *testing.T) {
	store := NewBacktestStore()
	ctx := context.Background()

	run := &domain.BacktestRun{
		RunID:   "run1",
		Horizon: 2,
		Iterations: []*domain.BacktestIteration{
			{DrawID: 92, Suggested: numbers(1), Actual: numbers(2), Hits: 14},
			{DrawID: 91, Suggested: numbers(0), Actual: numbers(0), Hits: 15},
		},
	}
	if err := store.InsertRun(ctx, run); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}

	got, err := store.GetRun(ctx, "run1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if len(got.Iterations) != 2 || got.Iterations[0].DrawID != 91 {
		t.Errorf("Expected iterations ordered by draw ASC, got %+v", got.Iterations)
	}
	if got.Iterations[0].RunID != "run1" {
		t.Errorf("Expected RunID on iteration, got %q", got.Iterations[0].RunID)
	}

	if err := store.InsertRun(ctx, run); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetRun(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
