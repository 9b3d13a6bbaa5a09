package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

// DrawStore implements storage.DrawStore on SQLite.
type DrawStore struct {
	db *DB
}

// NewDrawStore creates a new DrawStore.
func NewDrawStore(db *DB) *DrawStore {
	return &DrawStore{db: db}
}

var _ storage.DrawStore = (*DrawStore)(nil)

// Upsert inserts the draw if its id is absent.
func (s *DrawStore) Upsert(ctx context.Context, d domain.Draw) (inserted bool, err error) {
	if err := d.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	defer func(start time.Time) { observe("upsert_draw", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO draws (draw_id, numbers) VALUES (?, ?)`,
		d.ID, encodeNumbers(domain.SortedCopy(d.Numbers)),
	)
	if err != nil {
		return false, fmt.Errorf("upsert draw: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert draw: %w", err)
	}
	return n == 1, nil
}

// GetByID retrieves a draw. Returns ErrNotFound if not exists.
func (s *DrawStore) GetByID(ctx context.Context, id int64) (*domain.Draw, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx, `SELECT numbers FROM draws WHERE draw_id = ?`, id).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get draw by id: %w", err)
	}
	numbers, err := decodeNumbers(encoded)
	if err != nil {
		return nil, err
	}
	return &domain.Draw{ID: id, Numbers: numbers}, nil
}

// List returns every draw ordered by id ASC.
func (s *DrawStore) List(ctx context.Context) (draws []domain.Draw, err error) {
	defer func(start time.Time) { observe("list_draws", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT draw_id, numbers FROM draws ORDER BY draw_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list draws: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.Draw
		var encoded string
		if err := rows.Scan(&d.ID, &encoded); err != nil {
			return nil, fmt.Errorf("scan draw: %w", err)
		}
		if d.Numbers, err = decodeNumbers(encoded); err != nil {
			return nil, err
		}
		draws = append(draws, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate draws: %w", err)
	}
	return draws, nil
}

// LatestID returns the newest draw id, or 0 when empty.
func (s *DrawStore) LatestID(ctx context.Context) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(draw_id), 0) FROM draws`).Scan(&id); err != nil {
		return 0, fmt.Errorf("latest draw id: %w", err)
	}
	return id, nil
}
