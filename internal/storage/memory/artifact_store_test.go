package memory

import (
	"context"
	"errors"
	"testing"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

func TestArtifactStore_SaveReplaces(t *testing.T) {
	store := NewArtifactStore()
	ctx := context.Background()

	if _, err := store.Load(ctx, 3); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	first := &domain.ModelArtifact{Number: 3, Columns: []string{"a"}, Payload: []byte("v1"), TrainedThrough: 100}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second := &domain.ModelArtifact{Number: 3, Columns: []string{"a"}, Payload: []byte("v2"), TrainedThrough: 101}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(ctx, 3)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got.Payload) != "v2" || got.TrainedThrough != 101 {
		t.Errorf("Expected replaced artifact, got %+v", got)
	}
	if store.Saves() != 2 {
		t.Errorf("Expected 2 saves, got %d", store.Saves())
	}

	// Mutating the returned copy must not leak into the store.
	got.Payload[0] = 'x'
	again, _ := store.Load(ctx, 3)
	if string(again.Payload) != "v2" {
		t.Error("Store returned shared payload slice")
	}
}

func TestArtifactStore_RejectsInvalid(t *testing.T) {
	store := NewArtifactStore()
	ctx := context.Background()

	cases := []*domain.ModelArtifact{
		nil,
		{Number: 0, Payload: []byte("x")},
		{Number: 26, Payload: []byte("x")},
		{Number: 1},
	}
	for _, a := range cases {
		if err := store.Save(ctx, a); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for %+v, got %v", a, err)
		}
	}
}
