package domain

import "time"

// Strategy tags stored alongside suggestions.
const (
	StrategyMachineLearning = "machine_learning"
)

// Suggestion is a recommended play for a target draw.
// Corresponds to the suggestions table.
type Suggestion struct {
	ID        string    // deterministic hash of (user, draw, strategy, numbers)
	UserID    int64     // owner
	DrawID    int64     // target draw
	Strategy  string    // strategy tag
	Numbers   []int     // DrawSize distinct numbers, ascending
	Drawn     []int     // official numbers once the draw is known, nil while pending
	Hits      *int      // |Numbers ∩ Drawn|, nil while pending
	CreatedAt time.Time // set by the store on first append
}

// Pending reports whether the suggestion has not been scored yet.
func (s *Suggestion) Pending() bool {
	return s.Hits == nil
}
