package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/drawtest"
	"lotofacil-lab/internal/features"
	"lotofacil-lab/internal/storage"
	"lotofacil-lab/internal/storage/memory"
)

type failingArtifactStore struct {
	err error
}

func (s failingArtifactStore) Load(context.Context, int) (*domain.ModelArtifact, error) {
	return nil, s.err
}

func (s failingArtifactStore) Save(context.Context, *domain.ModelArtifact) error {
	return s.err
}

// shiftedArtifactStore answers Load(n) with the artifact saved for n+1.
type shiftedArtifactStore struct {
	*memory.ArtifactStore
}

func (s shiftedArtifactStore) Load(ctx context.Context, number int) (*domain.ModelArtifact, error) {
	return s.ArtifactStore.Load(ctx, number+1)
}

func testTable(t *testing.T, count int) *features.Table {
	t.Helper()
	table, err := features.Build(drawtest.Synthetic(count, 11))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return table
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name    string
		present bool
		force   bool
		want    step
	}{
		{"absent", false, false, planTrain},
		{"present", true, false, planLoad},
		{"present forced", true, true, planTrain},
		{"absent forced", false, true, planTrain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := plan(tt.present, tt.force); got != tt.want {
				t.Errorf("plan(%v, %v) = %v, want %v", tt.present, tt.force, got, tt.want)
			}
		})
	}
}

func TestBank_TrainThenLoad(t *testing.T) {
	ctx := context.Background()
	store := memory.NewArtifactStore()
	bank := NewBank(store, BankOptions{Clock: func() time.Time { return time.Unix(0, 0) }})
	table := testTable(t, 80)

	first, outcome, err := bank.LoadOrTrain(ctx, 5, table, false)
	if err != nil {
		t.Fatalf("LoadOrTrain failed: %v", err)
	}
	if outcome != OutcomeTrained {
		t.Errorf("Expected trained, got %s", outcome)
	}
	if first.TrainedThrough != 80 || first.TrainedRows != 30 {
		t.Errorf("Unexpected training metadata: rows=%d through=%d", first.TrainedRows, first.TrainedThrough)
	}

	second, outcome, err := bank.LoadOrTrain(ctx, 5, table, false)
	if err != nil {
		t.Fatalf("LoadOrTrain failed: %v", err)
	}
	if outcome != OutcomeLoaded {
		t.Errorf("Expected loaded, got %s", outcome)
	}
	if store.Saves() != 1 {
		t.Errorf("Expected 1 save, got %d", store.Saves())
	}

	row := table.Rows[len(table.Rows)-1]
	p1, _ := first.Predict(row)
	p2, _ := second.Predict(row)
	if p1 != p2 {
		t.Errorf("Loaded model predicts differently: %v != %v", p1, p2)
	}

	_, outcome, err = bank.LoadOrTrain(ctx, 5, table, true)
	if err != nil {
		t.Fatalf("LoadOrTrain failed: %v", err)
	}
	if outcome != OutcomeTrained || store.Saves() != 2 {
		t.Errorf("Expected forced retrain and save, got %s with %d saves", outcome, store.Saves())
	}
}

func TestBank_LoadFailurePropagates(t *testing.T) {
	cause := errors.New("disk on fire")
	bank := NewBank(failingArtifactStore{err: cause}, BankOptions{})

	_, _, err := bank.LoadOrTrain(context.Background(), 1, testTable(t, 60), false)
	if !errors.Is(err, storage.ErrUnavailable) || !errors.Is(err, cause) {
		t.Errorf("Expected ErrUnavailable wrapping cause, got %v", err)
	}
}

func TestBank_RejectsArtifactForAnotherNumber(t *testing.T) {
	ctx := context.Background()
	table := testTable(t, 70)
	inner := memory.NewArtifactStore()

	seed := NewBank(inner, BankOptions{})
	if _, _, err := seed.LoadOrTrain(ctx, 2, table, false); err != nil {
		t.Fatalf("LoadOrTrain failed: %v", err)
	}

	bank := NewBank(shiftedArtifactStore{inner}, BankOptions{})
	a, _, err := bank.LoadOrTrain(ctx, 1, table, false)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Expected ErrSchemaMismatch, got %v", err)
	}
	if a != nil {
		t.Error("Expected no model")
	}
}

func TestBank_NoRowsFails(t *testing.T) {
	bank := NewBank(memory.NewArtifactStore(), BankOptions{})

	_, _, err := bank.LoadOrTrain(context.Background(), 1, testTable(t, 50), false)
	if !errors.Is(err, ErrNoTrainingRows) {
		t.Errorf("Expected ErrNoTrainingRows, got %v", err)
	}
}

func TestBank_LoadOrTrainAll(t *testing.T) {
	store := memory.NewArtifactStore()
	bank := NewBank(store, BankOptions{})

	models, err := bank.LoadOrTrainAll(context.Background(), testTable(t, 70), false)
	if err != nil {
		t.Fatalf("LoadOrTrainAll failed: %v", err)
	}
	if len(models) != domain.PoolSize {
		t.Fatalf("Expected %d models, got %d", domain.PoolSize, len(models))
	}
	for i, m := range models {
		if m.Number != i+1 {
			t.Errorf("Model at %d has number %d", i, m.Number)
		}
	}
	if store.Saves() != domain.PoolSize {
		t.Errorf("Expected %d saves, got %d", domain.PoolSize, store.Saves())
	}
}

func TestArtifact_SchemaMismatch(t *testing.T) {
	table := testTable(t, 60)
	a, err := Train(3, table, DefaultTrainConfig())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	a.Columns = []string{"delay_3", "freq_10_3"}

	if _, err := a.Predict(table.Rows[0]); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("Expected ErrSchemaMismatch, got %v", err)
	}
}

func TestTrainEphemeral(t *testing.T) {
	table := testTable(t, 70)

	bank, err := TrainEphemeral(table, DefaultTrainConfig())
	if err != nil {
		t.Fatalf("TrainEphemeral failed: %v", err)
	}
	probs, err := PredictAll(bank, table.Rows[0])
	if err != nil {
		t.Fatalf("PredictAll failed: %v", err)
	}
	for i, p := range probs {
		if p <= 0 || p >= 1 {
			t.Errorf("Probability for %d out of (0,1): %v", i+1, p)
		}
	}

	if _, err := TrainEphemeral(testTable(t, 40), DefaultTrainConfig()); !errors.Is(err, ErrNoTrainingRows) {
		t.Errorf("Expected ErrNoTrainingRows, got %v", err)
	}
}
