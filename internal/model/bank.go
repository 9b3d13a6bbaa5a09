package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/features"
	"lotofacil-lab/internal/observability"
	"lotofacil-lab/internal/storage"
)

// Outcome labels how a model was obtained.
type Outcome string

const (
	OutcomeLoaded    Outcome = "loaded"
	OutcomeTrained   Outcome = "trained"
	OutcomeEphemeral Outcome = "ephemeral"
)

type step int

const (
	planLoad step = iota
	planTrain
)

// plan decides between reusing a persisted artifact and training a new one.
func plan(artifactPresent, forceRetrain bool) step {
	if forceRetrain || !artifactPresent {
		return planTrain
	}
	return planLoad
}

// BankOptions configures a Bank.
type BankOptions struct {
	Train  TrainConfig
	Logger *log.Logger
	Clock  func() time.Time
}

// Bank resolves per-number models against a persistent ArtifactStore.
type Bank struct {
	store  storage.ArtifactStore
	cfg    TrainConfig
	logger *log.Logger
	clock  func() time.Time
}

// NewBank creates a bank over store.
func NewBank(store storage.ArtifactStore, opts BankOptions) *Bank {
	if opts.Train == (TrainConfig{}) {
		opts.Train = DefaultTrainConfig()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Bank{store: store, cfg: opts.Train, logger: opts.Logger, clock: opts.Clock}
}

// LoadOrTrain returns number n's model. A persisted artifact is reused
// unless forceRetrain is set; otherwise the model is fit on table and saved.
// Load failures other than not-found are returned as is.
func (b *Bank) LoadOrTrain(ctx context.Context, n int, table *features.Table, forceRetrain bool) (*Artifact, Outcome, error) {
	if n < 1 || n > domain.PoolSize {
		return nil, "", fmt.Errorf("%w: %d", ErrInvalidNumber, n)
	}

	var stored *domain.ModelArtifact
	if !forceRetrain {
		a, err := b.store.Load(ctx, n)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return nil, "", fmt.Errorf("%w: load model %d: %w", storage.ErrUnavailable, n, err)
		default:
			stored = a
		}
	}

	if plan(stored != nil, forceRetrain) == planLoad {
		if stored.Number != n {
			return nil, "", fmt.Errorf("%w: artifact for number %d returned for number %d", ErrSchemaMismatch, stored.Number, n)
		}
		a, err := FromDomain(stored)
		if err != nil {
			return nil, "", err
		}
		observability.RecordModelResolved(string(OutcomeLoaded))
		return a, OutcomeLoaded, nil
	}

	start := time.Now()
	a, err := Train(n, table, b.cfg)
	if err != nil {
		return nil, "", err
	}
	observability.RecordTraining(a.TrainedRows, time.Since(start).Seconds())

	record, err := a.ToDomain(b.clock().UTC())
	if err != nil {
		return nil, "", err
	}
	if err := b.store.Save(ctx, record); err != nil {
		return nil, "", fmt.Errorf("%w: save model %d: %w", storage.ErrUnavailable, n, err)
	}
	b.logger.Printf("trained model %d on %d rows through draw %d", n, a.TrainedRows, a.TrainedThrough)
	observability.RecordModelResolved(string(OutcomeTrained))
	return a, OutcomeTrained, nil
}

// LoadOrTrainAll resolves every number in ascending order.
// The result is indexed by number-1.
func (b *Bank) LoadOrTrainAll(ctx context.Context, table *features.Table, forceRetrain bool) ([]*Artifact, error) {
	bank := make([]*Artifact, domain.PoolSize)
	for n := 1; n <= domain.PoolSize; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, _, err := b.LoadOrTrain(ctx, n, table, forceRetrain)
		if err != nil {
			return nil, err
		}
		bank[n-1] = a
	}
	return bank, nil
}
