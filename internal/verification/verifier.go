// Package verification re-runs stored backtest iterations from draw history
// and reports any field where the stored and recomputed results differ.
package verification

import (
	"context"
	"fmt"

	"lotofacil-lab/internal/domain"
)

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single iteration.
type VerificationResult struct {
	RunID        string
	DrawID       int64             // verified held-out draw
	Match        bool              // true if all fields match
	Divergences  []FieldDivergence // list of divergent fields
	StoredHits   int
	ReplayedHits int
}

// VerificationReport contains results for one run.
type VerificationReport struct {
	RunID              string
	TotalIterations    int
	MatchedIterations  int
	DivergentIterations int
	Results            []VerificationResult
}

// Verifier re-executes stored backtest iterations.
type Verifier interface {
	// VerifyIteration replays one held-out draw of a stored run.
	VerifyIteration(ctx context.Context, runID string, drawID int64) (*VerificationResult, error)

	// VerifyRun replays every iteration of a stored run.
	VerifyRun(ctx context.Context, runID string) (*VerificationReport, error)
}

// CompareIterations compares two iterations and returns divergences.
func CompareIterations(stored, replayed *domain.BacktestIteration) []FieldDivergence {
	var divergences []FieldDivergence
	add := func(field string, expected, actual interface{}) {
		divergences = append(divergences, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	if stored.DrawID != replayed.DrawID {
		add("DrawID", stored.DrawID, replayed.DrawID)
	}
	if !equalNumbers(stored.Suggested, replayed.Suggested) {
		add("Suggested", stored.Suggested, replayed.Suggested)
	}
	if !equalNumbers(stored.Actual, replayed.Actual) {
		add("Actual", stored.Actual, replayed.Actual)
	}
	if stored.Hits != replayed.Hits {
		add("Hits", stored.Hits, replayed.Hits)
	}
	if stored.HistorySize != replayed.HistorySize {
		add("HistorySize", stored.HistorySize, replayed.HistorySize)
	}
	if stored.TrainingRows != replayed.TrainingRows {
		add("TrainingRows", stored.TrainingRows, replayed.TrainingRows)
	}
	if stored.TrainedThrough != replayed.TrainedThrough {
		add("TrainedThrough", stored.TrainedThrough, replayed.TrainedThrough)
	}

	return divergences
}

func equalNumbers(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String formats a divergence for logs and CLI output.
func (d FieldDivergence) String() string {
	return fmt.Sprintf("%s: stored=%v replayed=%v", d.Field, d.Expected, d.Actual)
}
