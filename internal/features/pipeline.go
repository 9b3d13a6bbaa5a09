// Package features turns ordered draw history into causally aligned feature rows.
//
// Every value in the row for draw d is computed from draws with id < d only:
// the walker emits a row before it absorbs the draw the row describes.
package features

import (
	"fmt"

	"lotofacil-lab/internal/domain"
)

// NumWindows is the number of rolling frequency windows.
const NumWindows = 3

// Windows are the rolling frequency window sizes, ascending.
var Windows = [NumWindows]int{10, 20, 50}

// WarmUp is the number of leading draws without a complete row.
// It equals the largest window.
const WarmUp = 50

// Build computes one labeled row per complete draw.
// Draws must be valid and strictly ascending by id.
func Build(draws []domain.Draw) (*Table, error) {
	if err := validateHistory(draws); err != nil {
		return nil, err
	}

	w := newWalker(len(draws))
	table := &Table{HistorySize: len(draws)}
	if n := len(draws) - WarmUp; n > 0 {
		table.Rows = make([]*Row, 0, n)
	}

	for _, d := range draws {
		if w.complete() {
			row := w.row(d.ID)
			row.Label = d.Mask()
			row.Labeled = true
			table.Rows = append(table.Rows, row)
		}
		w.push(d)
	}
	if len(draws) > 0 {
		table.LastDrawID = draws[len(draws)-1].ID
	}
	return table, nil
}

func validateHistory(draws []domain.Draw) error {
	var prev int64
	for i, d := range draws {
		if err := d.Validate(); err != nil {
			return err
		}
		if i > 0 && d.ID <= prev {
			return fmt.Errorf("%w: draw %d follows %d", ErrUnorderedHistory, d.ID, prev)
		}
		prev = d.ID
	}
	return nil
}

// walker accumulates history and emits rows for the next draw.
type walker struct {
	lastSeen [domain.PoolSize]int64 // 0 means never seen
	masks    [][domain.PoolSize]bool
	cum      [][domain.PoolSize]int // cum[i][n] = occurrences of n+1 in masks[:i]
	prevSum  int
}

func newWalker(capacity int) *walker {
	w := &walker{
		masks: make([][domain.PoolSize]bool, 0, capacity),
		cum:   make([][domain.PoolSize]int, 1, capacity+1),
	}
	return w
}

func (w *walker) complete() bool {
	return len(w.masks) >= WarmUp
}

// row builds features for a draw with the given id that follows every
// pushed draw. Callers check complete() first.
func (w *walker) row(id int64) *Row {
	i := len(w.masks)
	r := &Row{DrawID: id, SumPrev: w.prevSum}
	prev := w.masks[i-1]

	for n := 0; n < domain.PoolSize; n++ {
		if w.lastSeen[n] == 0 {
			// Never seen: anchored to the draw id itself.
			r.Delay[n] = id
		} else {
			r.Delay[n] = id - w.lastSeen[n]
		}
		for k, size := range Windows {
			r.Freq[k][n] = w.cum[i][n] - w.cum[i-size][n]
		}
		if prev[n] {
			r.Lag[n] = 1
		}
	}
	return r
}

func (w *walker) push(d domain.Draw) {
	mask := d.Mask()
	next := w.cum[len(w.cum)-1]
	for n := 0; n < domain.PoolSize; n++ {
		if mask[n] {
			next[n]++
			w.lastSeen[n] = d.ID
		}
	}
	w.masks = append(w.masks, mask)
	w.cum = append(w.cum, next)
	w.prevSum = d.Sum()
}
