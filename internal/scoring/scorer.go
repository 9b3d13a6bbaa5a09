// Package scoring records hit counts for saved suggestions once their draw is known.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/observability"
	"lotofacil-lab/internal/storage"
)

// Scored is one suggestion that received a hit count.
type Scored struct {
	SuggestionID string
	UserID       int64
	DrawID       int64
	Hits         int
}

// Scorer evaluates pending suggestions against stored draws.
type Scorer struct {
	draws       storage.DrawStore
	suggestions storage.SuggestionStore
	logger      *log.Logger
}

// NewScorer creates a scorer. A nil logger discards output.
func NewScorer(draws storage.DrawStore, suggestions storage.SuggestionStore, logger *log.Logger) *Scorer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Scorer{draws: draws, suggestions: suggestions, logger: logger}
}

// EvaluatePending scores every pending suggestion whose draw is stored.
// Suggestions for unknown draws stay pending.
func (s *Scorer) EvaluatePending(ctx context.Context) ([]Scored, error) {
	pending, err := s.suggestions.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list pending suggestions: %w", storage.ErrUnavailable, err)
	}

	cache := make(map[int64]*domain.Draw)
	var scored []Scored
	for _, sg := range pending {
		d, ok := cache[sg.DrawID]
		if !ok {
			d, err = s.draws.GetByID(ctx, sg.DrawID)
			switch {
			case errors.Is(err, storage.ErrNotFound):
				d = nil
			case err != nil:
				return scored, fmt.Errorf("%w: get draw %d: %w", storage.ErrUnavailable, sg.DrawID, err)
			}
			cache[sg.DrawID] = d
		}
		if d == nil {
			continue
		}

		hits := domain.CountHits(sg.Numbers, d.Numbers)
		if err := s.suggestions.RecordHits(ctx, sg.ID, d.Numbers, hits); err != nil {
			return scored, fmt.Errorf("%w: record hits for %s: %w", storage.ErrUnavailable, sg.ID, err)
		}
		scored = append(scored, Scored{SuggestionID: sg.ID, UserID: sg.UserID, DrawID: sg.DrawID, Hits: hits})
	}

	observability.RecordSuggestionsScored(len(scored))
	if len(scored) > 0 {
		s.logger.Printf("scored %d suggestions (%d still pending)", len(scored), len(pending)-len(scored))
	}
	return scored, nil
}
