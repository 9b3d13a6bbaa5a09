package storage

import (
	"context"

	"lotofacil-lab/internal/domain"
)

// DrawStore provides access to the draws table.
type DrawStore interface {
	// Upsert inserts the draw if its id is absent. Existing draws are never
	// modified; inserted reports whether a row was written.
	Upsert(ctx context.Context, d domain.Draw) (inserted bool, err error)

	// GetByID retrieves a draw. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Draw, error)

	// List returns every draw ordered by id ASC.
	List(ctx context.Context) ([]domain.Draw, error)

	// LatestID returns the newest draw id, or 0 when the store is empty.
	LatestID(ctx context.Context) (int64, error)
}

// ArtifactStore persists one model artifact per lottery number.
type ArtifactStore interface {
	// Load returns the artifact for number. Returns ErrNotFound if absent.
	Load(ctx context.Context, number int) (*domain.ModelArtifact, error)

	// Save atomically replaces the artifact for a.Number.
	// A concurrent reader sees either the old or the new artifact.
	Save(ctx context.Context, a *domain.ModelArtifact) error
}

// SuggestionStore provides access to saved suggestions.
type SuggestionStore interface {
	// Append stores s unless a suggestion with the same (user, draw,
	// strategy, sorted numbers) exists. s.ID is set from that tuple; a
	// caller-supplied ID that disagrees fails with ErrInvalidInput.
	Append(ctx context.Context, s *domain.Suggestion) (inserted bool, err error)

	// ListByUser returns a user's suggestions ordered by draw id DESC,
	// then most recently created first.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Suggestion, error)

	// ListPending returns suggestions without recorded hits, ordered by draw id ASC.
	ListPending(ctx context.Context) ([]*domain.Suggestion, error)

	// RecordHits stores the official numbers and hit count for a suggestion.
	// Returns ErrNotFound if id does not exist.
	RecordHits(ctx context.Context, id string, drawn []int, hits int) error

	// Delete removes a suggestion owned by userID.
	// Returns ErrNotFound if no such suggestion belongs to the user.
	Delete(ctx context.Context, userID int64, id string) error
}

// BacktestStore persists walk-forward runs and their iterations.
type BacktestStore interface {
	// InsertRun stores the run header and all iterations.
	// Returns ErrDuplicateKey if run_id exists.
	InsertRun(ctx context.Context, run *domain.BacktestRun) error

	// GetRun retrieves a run with iterations ordered by draw id ASC.
	// Returns ErrNotFound if not exists.
	GetRun(ctx context.Context, runID string) (*domain.BacktestRun, error)
}
