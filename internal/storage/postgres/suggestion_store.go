package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

// SuggestionStore implements storage.SuggestionStore using PostgreSQL.
type SuggestionStore struct {
	pool *Pool
}

// NewSuggestionStore creates a new SuggestionStore.
func NewSuggestionStore(pool *Pool) *SuggestionStore {
	return &SuggestionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SuggestionStore = (*SuggestionStore)(nil)

const suggestionColumns = `suggestion_id, user_id, draw_id, strategy, numbers, drawn, hits, created_at`

// Append stores sg unless one with the same tuple exists. sg.ID is set
// from the tuple.
func (s *SuggestionStore) Append(ctx context.Context, sg *domain.Suggestion) (inserted bool, err error) {
	if err := storage.AssignSuggestionID(sg); err != nil {
		return false, err
	}
	defer func(start time.Time) { observe("append_suggestion", start, err) }(time.Now())

	createdAt := sg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO suggestions (suggestion_id, user_id, draw_id, strategy, numbers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (suggestion_id) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		sg.ID,
		sg.UserID,
		sg.DrawID,
		sg.Strategy,
		domain.SortedCopy(sg.Numbers),
		createdAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("append suggestion: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser returns a user's suggestions, draw id DESC then newest first.
func (s *SuggestionStore) ListByUser(ctx context.Context, userID int64) (list []*domain.Suggestion, err error) {
	defer func(start time.Time) { observe("list_suggestions", start, err) }(time.Now())

	query := `
		SELECT ` + suggestionColumns + `
		FROM suggestions
		WHERE user_id = $1
		ORDER BY draw_id DESC, id DESC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list suggestions by user: %w", err)
	}
	defer rows.Close()

	return scanSuggestions(rows)
}

// ListPending returns unscored suggestions ordered by draw id ASC.
func (s *SuggestionStore) ListPending(ctx context.Context) (list []*domain.Suggestion, err error) {
	defer func(start time.Time) { observe("list_pending", start, err) }(time.Now())

	query := `
		SELECT ` + suggestionColumns + `
		FROM suggestions
		WHERE hits IS NULL
		ORDER BY draw_id ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pending suggestions: %w", err)
	}
	defer rows.Close()

	return scanSuggestions(rows)
}

// RecordHits stores the official numbers and hit count for a suggestion.
func (s *SuggestionStore) RecordHits(ctx context.Context, id string, drawn []int, hits int) (err error) {
	defer func(start time.Time) { observe("record_hits", start, err) }(time.Now())

	query := `
		UPDATE suggestions
		SET drawn = $2, hits = $3
		WHERE suggestion_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, domain.SortedCopy(drawn), hits)
	if err != nil {
		return fmt.Errorf("record hits: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a suggestion owned by userID.
func (s *SuggestionStore) Delete(ctx context.Context, userID int64, id string) (err error) {
	defer func(start time.Time) { observe("delete_suggestion", start, err) }(time.Now())

	query := `DELETE FROM suggestions WHERE suggestion_id = $1 AND user_id = $2`

	tag, err := s.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete suggestion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanSuggestions scans multiple rows into Suggestions.
func scanSuggestions(rows pgx.Rows) ([]*domain.Suggestion, error) {
	var result []*domain.Suggestion
	for rows.Next() {
		var sg domain.Suggestion
		if err := rows.Scan(
			&sg.ID,
			&sg.UserID,
			&sg.DrawID,
			&sg.Strategy,
			&sg.Numbers,
			&sg.Drawn,
			&sg.Hits,
			&sg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		result = append(result, &sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suggestions: %w", err)
	}
	return result, nil
}
