// Package filesystem stores model artifacts as one JSON file per number.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

// ArtifactStore persists artifacts under a directory passed explicitly.
// Writes go to a temp file in the same directory, are fsynced, then renamed
// over the target so readers never observe a partial artifact.
type ArtifactStore struct {
	dir string
}

// artifactFile is the on-disk layout.
type artifactFile struct {
	Number         int       `json:"number"`
	Columns        []string  `json:"columns"`
	Payload        []byte    `json:"payload"`
	TrainedRows    int       `json:"trained_rows"`
	TrainedThrough int64     `json:"trained_through"`
	TrainedAt      time.Time `json:"trained_at"`
}

// NewArtifactStore creates dir if needed and returns a store rooted there.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty model directory", storage.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// Dir returns the model directory.
func (s *ArtifactStore) Dir() string {
	return s.dir
}

func (s *ArtifactStore) path(number int) string {
	return filepath.Join(s.dir, fmt.Sprintf("model_%02d.json", number))
}

// Load returns the artifact for number. Returns ErrNotFound if absent.
func (s *ArtifactStore) Load(ctx context.Context, number int) (*domain.ModelArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(number))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact %d: %w", number, err)
	}

	var f artifactFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode artifact %d: %w", number, err)
	}
	if f.Number != number {
		return nil, fmt.Errorf("artifact file for %d holds number %d", number, f.Number)
	}

	return &domain.ModelArtifact{
		Number:         f.Number,
		Columns:        f.Columns,
		Payload:        f.Payload,
		TrainedRows:    f.TrainedRows,
		TrainedThrough: f.TrainedThrough,
		TrainedAt:      f.TrainedAt,
	}, nil
}

// Save atomically replaces the artifact for a.Number.
func (s *ArtifactStore) Save(ctx context.Context, a *domain.ModelArtifact) error {
	if a == nil || a.Number < 1 || a.Number > domain.PoolSize || len(a.Payload) == 0 {
		return storage.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(artifactFile{
		Number:         a.Number,
		Columns:        a.Columns,
		Payload:        a.Payload,
		TrainedRows:    a.TrainedRows,
		TrainedThrough: a.TrainedThrough,
		TrainedAt:      a.TrainedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode artifact %d: %w", a.Number, err)
	}

	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf(".model_%02d-*.tmp", a.Number))
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, s.path(a.Number)); err != nil {
		return fmt.Errorf("rename artifact %d: %w", a.Number, err)
	}
	committed = true

	// Persist the rename itself.
	if d, err := os.Open(s.dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// Verify interface compliance
var _ storage.ArtifactStore = (*ArtifactStore)(nil)
