package postgres

import (
	"context"
	"fmt"
	"time"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

// ArtifactStore implements storage.ArtifactStore using PostgreSQL.
// Save is a single upsert statement, so readers see old or new, never partial.
type ArtifactStore struct {
	pool *Pool
}

// NewArtifactStore creates a new ArtifactStore.
func NewArtifactStore(pool *Pool) *ArtifactStore {
	return &ArtifactStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ArtifactStore = (*ArtifactStore)(nil)

// Load returns the artifact for number. Returns ErrNotFound if absent.
func (s *ArtifactStore) Load(ctx context.Context, number int) (a *domain.ModelArtifact, err error) {
	defer func(start time.Time) { observe("load_artifact", start, err) }(time.Now())

	query := `
		SELECT number, columns, payload, trained_rows, trained_through, trained_at
		FROM model_artifacts
		WHERE number = $1
	`

	var m domain.ModelArtifact
	err = s.pool.QueryRow(ctx, query, number).Scan(
		&m.Number,
		&m.Columns,
		&m.Payload,
		&m.TrainedRows,
		&m.TrainedThrough,
		&m.TrainedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	return &m, nil
}

// Save atomically replaces the artifact for a.Number.
func (s *ArtifactStore) Save(ctx context.Context, a *domain.ModelArtifact) (err error) {
	if a == nil || a.Number < 1 || a.Number > domain.PoolSize || len(a.Payload) == 0 {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("save_artifact", start, err) }(time.Now())

	query := `
		INSERT INTO model_artifacts (number, columns, payload, trained_rows, trained_through, trained_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (number) DO UPDATE SET
			columns = EXCLUDED.columns,
			payload = EXCLUDED.payload,
			trained_rows = EXCLUDED.trained_rows,
			trained_through = EXCLUDED.trained_through,
			trained_at = EXCLUDED.trained_at
	`

	_, err = s.pool.Exec(ctx, query,
		a.Number,
		a.Columns,
		a.Payload,
		a.TrainedRows,
		a.TrainedThrough,
		a.TrainedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}
