package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

// SuggestionStore implements storage.SuggestionStore on SQLite.
type SuggestionStore struct {
	db *DB
}

// NewSuggestionStore creates a new SuggestionStore.
func NewSuggestionStore(db *DB) *SuggestionStore {
	return &SuggestionStore{db: db}
}

var _ storage.SuggestionStore = (*SuggestionStore)(nil)

const selectSuggestions = `SELECT suggestion_id, user_id, draw_id, strategy, numbers, drawn, hits, created_at FROM suggestions`

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

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO suggestions (suggestion_id, user_id, draw_id, strategy, numbers, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sg.ID, sg.UserID, sg.DrawID, sg.Strategy, encodeNumbers(domain.SortedCopy(sg.Numbers)), createdAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("append suggestion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append suggestion: %w", err)
	}
	return n == 1, nil
}

// ListByUser returns a user's suggestions, draw id DESC then newest first.
func (s *SuggestionStore) ListByUser(ctx context.Context, userID int64) ([]*domain.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx, selectSuggestions+` WHERE user_id = ? ORDER BY draw_id DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list suggestions by user: %w", err)
	}
	defer rows.Close()
	return scanSuggestions(rows)
}

// ListPending returns unscored suggestions ordered by draw id ASC.
func (s *SuggestionStore) ListPending(ctx context.Context) ([]*domain.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx, selectSuggestions+` WHERE hits IS NULL ORDER BY draw_id ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending suggestions: %w", err)
	}
	defer rows.Close()
	return scanSuggestions(rows)
}

// RecordHits stores the official numbers and hit count for a suggestion.
func (s *SuggestionStore) RecordHits(ctx context.Context, id string, drawn []int, hits int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE suggestions SET drawn = ?, hits = ? WHERE suggestion_id = ?`,
		encodeNumbers(domain.SortedCopy(drawn)), hits, id,
	)
	if err != nil {
		return fmt.Errorf("record hits: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a suggestion owned by userID.
func (s *SuggestionStore) Delete(ctx context.Context, userID int64, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suggestions WHERE suggestion_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete suggestion: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanSuggestions(rows *sql.Rows) ([]*domain.Suggestion, error) {
	var result []*domain.Suggestion
	for rows.Next() {
		var sg domain.Suggestion
		var numbers string
		var drawn sql.NullString
		var hits sql.NullInt64
		if err := rows.Scan(&sg.ID, &sg.UserID, &sg.DrawID, &sg.Strategy, &numbers, &drawn, &hits, &sg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		var err error
		if sg.Numbers, err = decodeNumbers(numbers); err != nil {
			return nil, err
		}
		if drawn.Valid {
			if sg.Drawn, err = decodeNumbers(drawn.String); err != nil {
				return nil, err
			}
		}
		if hits.Valid {
			h := int(hits.Int64)
			sg.Hits = &h
		}
		result = append(result, &sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suggestions: %w", err)
	}
	return result, nil
}
