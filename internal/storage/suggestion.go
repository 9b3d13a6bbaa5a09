package storage

import (
	"fmt"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/idhash"
)

// AssignSuggestionID sets sg.ID from its (user, draw, strategy, sorted
// numbers) tuple, so equal tuples always share one key. A non-empty ID
// that differs from the derived one is rejected.
func AssignSuggestionID(sg *domain.Suggestion) error {
	if sg == nil {
		return fmt.Errorf("%w: nil suggestion", ErrInvalidInput)
	}
	if err := domain.ValidateNumbers(sg.Numbers); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	id := idhash.ComputeSuggestionID(sg.UserID, sg.DrawID, sg.Strategy, sg.Numbers)
	if sg.ID != "" && sg.ID != id {
		return fmt.Errorf("%w: suggestion id %q does not match its contents", ErrInvalidInput, sg.ID)
	}
	sg.ID = id
	return nil
}
