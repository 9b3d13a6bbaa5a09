package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

// DrawStore implements storage.DrawStore using PostgreSQL.
type DrawStore struct {
	pool *Pool
}

// NewDrawStore creates a new DrawStore.
func NewDrawStore(pool *Pool) *DrawStore {
	return &DrawStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DrawStore = (*DrawStore)(nil)

// Upsert inserts the draw if its id is absent.
func (s *DrawStore) Upsert(ctx context.Context, d domain.Draw) (inserted bool, err error) {
	if err := d.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	defer func(start time.Time) { observe("upsert_draw", start, err) }(time.Now())

	query := `
		INSERT INTO draws (draw_id, numbers)
		VALUES ($1, $2)
		ON CONFLICT (draw_id) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query, d.ID, domain.SortedCopy(d.Numbers))
	if err != nil {
		return false, fmt.Errorf("upsert draw: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID retrieves a draw. Returns ErrNotFound if not exists.
func (s *DrawStore) GetByID(ctx context.Context, id int64) (d *domain.Draw, err error) {
	defer func(start time.Time) { observe("get_draw", start, err) }(time.Now())

	query := `
		SELECT draw_id, numbers
		FROM draws
		WHERE draw_id = $1
	`

	d, err = scanDraw(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get draw by id: %w", err)
	}
	return d, nil
}

// List returns every draw ordered by id ASC.
func (s *DrawStore) List(ctx context.Context) (draws []domain.Draw, err error) {
	defer func(start time.Time) { observe("list_draws", start, err) }(time.Now())

	query := `
		SELECT draw_id, numbers
		FROM draws
		ORDER BY draw_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list draws: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draw: %w", err)
		}
		draws = append(draws, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate draws: %w", err)
	}
	return draws, nil
}

// LatestID returns the newest draw id, or 0 when empty.
func (s *DrawStore) LatestID(ctx context.Context) (id int64, err error) {
	defer func(start time.Time) { observe("latest_draw", start, err) }(time.Now())

	query := `SELECT COALESCE(MAX(draw_id), 0) FROM draws`

	if err = s.pool.QueryRow(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("latest draw id: %w", err)
	}
	return id, nil
}

// scanDraw scans a single row into a Draw.
func scanDraw(row pgx.Row) (*domain.Draw, error) {
	var d domain.Draw
	if err := row.Scan(&d.ID, &d.Numbers); err != nil {
		return nil, err
	}
	return &d, nil
}
