// Package selector turns per-number probabilities into a suggestion.
package selector

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"lotofacil-lab/internal/domain"
)

// DefaultMinHistory is the fewest stored draws a live prediction accepts.
const DefaultMinHistory = 60

// ErrInvalidProbabilities is returned for malformed probability vectors.
var ErrInvalidProbabilities = errors.New("invalid probability vector")

// Ranked is one number with its predicted probability.
type Ranked struct {
	Number      int     `json:"number"`
	Probability float64 `json:"probability"`
}

// Rank orders numbers by probability descending; ties go to the lower number.
// probs is indexed by number-1.
func Rank(probs []float64) ([]Ranked, error) {
	if len(probs) != domain.PoolSize {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidProbabilities, domain.PoolSize, len(probs))
	}
	ranked := make([]Ranked, len(probs))
	for i, p := range probs {
		if math.IsNaN(p) {
			return nil, fmt.Errorf("%w: NaN for number %d", ErrInvalidProbabilities, i+1)
		}
		ranked[i] = Ranked{Number: i + 1, Probability: p}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Probability != ranked[j].Probability {
			return ranked[i].Probability > ranked[j].Probability
		}
		return ranked[i].Number < ranked[j].Number
	})
	return ranked, nil
}

// Select returns the DrawSize most probable numbers in ascending order.
func Select(probs []float64) ([]int, error) {
	ranked, err := Rank(probs)
	if err != nil {
		return nil, err
	}
	numbers := make([]int, domain.DrawSize)
	for i := range numbers {
		numbers[i] = ranked[i].Number
	}
	sort.Ints(numbers)
	return numbers, nil
}

// CheckHistory refuses to select when fewer than minHistory draws exist.
func CheckHistory(historySize, minHistory int) error {
	if historySize < minHistory {
		return fmt.Errorf("%w: have %d draws, need %d", domain.ErrInsufficientData, historySize, minHistory)
	}
	return nil
}
