package domain

import (
	"fmt"
	"sort"
)

// Lottery geometry: DrawSize distinct numbers out of 1..PoolSize.
const (
	PoolSize = 25
	DrawSize = 15
)

// Draw is one recorded lottery event. Immutable once stored.
type Draw struct {
	ID      int64 // official draw number, unique and strictly increasing
	Numbers []int // DrawSize distinct numbers in [1, PoolSize], ascending
}

// NewDraw validates numbers and returns a Draw holding a sorted copy.
func NewDraw(id int64, numbers []int) (Draw, error) {
	if id <= 0 {
		return Draw{}, fmt.Errorf("%w: draw id %d must be positive", ErrInvalidDraw, id)
	}
	if err := ValidateNumbers(numbers); err != nil {
		return Draw{}, fmt.Errorf("draw %d: %w", id, err)
	}
	return Draw{ID: id, Numbers: SortedCopy(numbers)}, nil
}

// ValidateNumbers checks the DrawSize / distinct / range invariant shared by
// draws and suggestions.
func ValidateNumbers(numbers []int) error {
	if len(numbers) != DrawSize {
		return fmt.Errorf("%w: expected %d numbers, got %d", ErrInvalidDraw, DrawSize, len(numbers))
	}
	var seen [PoolSize + 1]bool
	for _, n := range numbers {
		if n < 1 || n > PoolSize {
			return fmt.Errorf("%w: number %d outside [1,%d]", ErrInvalidDraw, n, PoolSize)
		}
		if seen[n] {
			return fmt.Errorf("%w: number %d repeated", ErrInvalidDraw, n)
		}
		seen[n] = true
	}
	return nil
}

// Validate re-checks a Draw that did not come through NewDraw (e.g. loaded
// from storage).
func (d Draw) Validate() error {
	if d.ID <= 0 {
		return fmt.Errorf("%w: draw id %d must be positive", ErrInvalidDraw, d.ID)
	}
	if err := ValidateNumbers(d.Numbers); err != nil {
		return fmt.Errorf("draw %d: %w", d.ID, err)
	}
	return nil
}

// Mask returns presence flags indexed by number-1.
func (d Draw) Mask() [PoolSize]bool {
	var m [PoolSize]bool
	for _, n := range d.Numbers {
		if n >= 1 && n <= PoolSize {
			m[n-1] = true
		}
	}
	return m
}

// Sum returns the sum of the drawn numbers.
func (d Draw) Sum() int {
	total := 0
	for _, n := range d.Numbers {
		total += n
	}
	return total
}

// SortedCopy returns an ascending copy of numbers.
func SortedCopy(numbers []int) []int {
	out := make([]int, len(numbers))
	copy(out, numbers)
	sort.Ints(out)
	return out
}

// CountHits returns the size of the intersection of two number sets.
func CountHits(a, b []int) int {
	var inA [PoolSize + 1]bool
	for _, n := range a {
		if n >= 1 && n <= PoolSize {
			inA[n] = true
		}
	}
	hits := 0
	for _, n := range b {
		if n >= 1 && n <= PoolSize && inA[n] {
			hits++
			inA[n] = false
		}
	}
	return hits
}
