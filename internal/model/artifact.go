// Package model trains, persists and applies the 25 per-number classifiers.
package model

import (
	"fmt"
	"slices"
	"time"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/features"
	"lotofacil-lab/internal/observability"
)

// Artifact is a trained classifier for one number plus the schema it
// was trained with.
type Artifact struct {
	Number         int
	Columns        []string
	Classifier     *Classifier
	TrainedRows    int
	TrainedThrough int64
}

// Train fits number n's classifier on every row of table. Only n's own
// columns and labels are read.
func Train(n int, table *features.Table, cfg TrainConfig) (*Artifact, error) {
	if n < 1 || n > domain.PoolSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNumber, n)
	}
	if table == nil || table.Len() == 0 {
		return nil, ErrNoTrainingRows
	}

	x, y := table.Matrix(n)
	clf, err := Fit(x, y, cfg)
	if err != nil {
		return nil, fmt.Errorf("train number %d: %w", n, err)
	}

	return &Artifact{
		Number:         n,
		Columns:        features.Columns(n),
		Classifier:     clf,
		TrainedRows:    table.Len(),
		TrainedThrough: table.Rows[table.Len()-1].DrawID,
	}, nil
}

// TrainEphemeral trains all PoolSize classifiers in memory. Nothing is
// persisted; the result is indexed by number-1.
func TrainEphemeral(table *features.Table, cfg TrainConfig) ([]*Artifact, error) {
	if table == nil || table.Len() == 0 {
		return nil, ErrNoTrainingRows
	}
	bank := make([]*Artifact, domain.PoolSize)
	for n := 1; n <= domain.PoolSize; n++ {
		a, err := Train(n, table, cfg)
		if err != nil {
			return nil, err
		}
		bank[n-1] = a
		observability.RecordModelResolved(string(OutcomeEphemeral))
	}
	return bank, nil
}

// Predict returns the probability that a.Number appears at row.DrawID.
func (a *Artifact) Predict(row *features.Row) (float64, error) {
	if !slices.Equal(a.Columns, features.Columns(a.Number)) {
		return 0, fmt.Errorf("%w: number %d has %v", ErrSchemaMismatch, a.Number, a.Columns)
	}
	p, err := a.Classifier.PredictProba(row.Vector(a.Number))
	if err != nil {
		return 0, fmt.Errorf("predict number %d: %w", a.Number, err)
	}
	return p, nil
}

// PredictAll returns one probability per number, indexed by number-1.
func PredictAll(bank []*Artifact, row *features.Row) ([]float64, error) {
	if len(bank) != domain.PoolSize {
		return nil, fmt.Errorf("%w: bank holds %d models", ErrInvalidNumber, len(bank))
	}
	probs := make([]float64, domain.PoolSize)
	for i, a := range bank {
		p, err := a.Predict(row)
		if err != nil {
			return nil, err
		}
		probs[i] = p
	}
	return probs, nil
}

// ToDomain serializes the artifact for storage.
func (a *Artifact) ToDomain(trainedAt time.Time) (*domain.ModelArtifact, error) {
	payload, err := a.Classifier.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode number %d: %w", a.Number, err)
	}
	return &domain.ModelArtifact{
		Number:         a.Number,
		Columns:        append([]string(nil), a.Columns...),
		Payload:        payload,
		TrainedRows:    a.TrainedRows,
		TrainedThrough: a.TrainedThrough,
		TrainedAt:      trainedAt,
	}, nil
}

// FromDomain decodes a stored artifact.
func FromDomain(m *domain.ModelArtifact) (*Artifact, error) {
	var clf Classifier
	if err := clf.UnmarshalBinary(m.Payload); err != nil {
		return nil, fmt.Errorf("number %d: %w", m.Number, err)
	}
	return &Artifact{
		Number:         m.Number,
		Columns:        append([]string(nil), m.Columns...),
		Classifier:     &clf,
		TrainedRows:    m.TrainedRows,
		TrainedThrough: m.TrainedThrough,
	}, nil
}
