package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

// ArtifactStore implements storage.ArtifactStore on SQLite.
// INSERT OR REPLACE runs in one implicit transaction.
type ArtifactStore struct {
	db *DB
}

// NewArtifactStore creates a new ArtifactStore.
func NewArtifactStore(db *DB) *ArtifactStore {
	return &ArtifactStore{db: db}
}

var _ storage.ArtifactStore = (*ArtifactStore)(nil)

// Load returns the artifact for number. Returns ErrNotFound if absent.
func (s *ArtifactStore) Load(ctx context.Context, number int) (*domain.ModelArtifact, error) {
	var m domain.ModelArtifact
	var columns string
	err := s.db.QueryRowContext(ctx,
		`SELECT number, columns, payload, trained_rows, trained_through, trained_at
		 FROM model_artifacts WHERE number = ?`, number,
	).Scan(&m.Number, &columns, &m.Payload, &m.TrainedRows, &m.TrainedThrough, &m.TrainedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	m.Columns = strings.Split(columns, ",")
	return &m, nil
}

// Save atomically replaces the artifact for a.Number.
func (s *ArtifactStore) Save(ctx context.Context, a *domain.ModelArtifact) error {
	if a == nil || a.Number < 1 || a.Number > domain.PoolSize || len(a.Payload) == 0 {
		return storage.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO model_artifacts (number, columns, payload, trained_rows, trained_through, trained_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.Number, strings.Join(a.Columns, ","), a.Payload, a.TrainedRows, a.TrainedThrough, a.TrainedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}
