package features

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	"lotofacil-lab/internal/domain"
)

// Row holds the features of one draw for every number.
// Arrays are indexed by number-1.
type Row struct {
	DrawID  int64
	Delay   [domain.PoolSize]int64
	Freq    [NumWindows][domain.PoolSize]int // aligned with Windows
	Lag     [domain.PoolSize]int
	SumPrev int

	Label   [domain.PoolSize]bool // number drawn at DrawID
	Labeled bool
}

// NumColumns is the width of a per-number feature vector.
const NumColumns = 3 + NumWindows

// Columns returns the ordered feature column names for number n.
func Columns(n int) []string {
	cols := make([]string, 0, NumColumns)
	cols = append(cols, fmt.Sprintf("delay_%d", n))
	for _, size := range Windows {
		cols = append(cols, fmt.Sprintf("freq_%d_%d", size, n))
	}
	cols = append(cols, fmt.Sprintf("lag_%d", n), "sum_prev")
	return cols
}

// Vector returns number n's features in Columns(n) order.
func (r *Row) Vector(n int) []float64 {
	i := n - 1
	v := make([]float64, 0, NumColumns)
	v = append(v, float64(r.Delay[i]))
	for k := range Windows {
		v = append(v, float64(r.Freq[k][i]))
	}
	v = append(v, float64(r.Lag[i]), float64(r.SumPrev))
	return v
}

// Target returns 1 if number n was drawn at DrawID, else 0.
func (r *Row) Target(n int) float64 {
	if r.Label[n-1] {
		return 1
	}
	return 0
}

// Table is the ordered set of complete, labeled rows.
type Table struct {
	Rows        []*Row
	HistorySize int   // draws consumed, including warm-up
	LastDrawID  int64 // newest draw consumed, 0 when empty
}

// Len returns the number of complete rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Latest returns the most recent complete row. Models score this row
// when suggesting numbers for the next draw.
func (t *Table) Latest() (*Row, error) {
	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("%w: have %d draws, need more than %d", ErrInsufficientWarmUp, t.HistorySize, WarmUp)
	}
	return t.Rows[len(t.Rows)-1], nil
}

// Matrix returns number n's design matrix and targets.
// Only number n's own columns and labels are read.
func (t *Table) Matrix(n int) ([][]float64, []float64) {
	x := make([][]float64, len(t.Rows))
	y := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		x[i] = r.Vector(n)
		y[i] = r.Target(n)
	}
	return x, y
}

// Digest returns a hex SHA-256 over the canonical encoding of every row.
func (t *Table) Digest() string {
	h := sha256.New()
	for _, r := range t.Rows {
		r.encode(h)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns a hex SHA-256 of the row's canonical encoding.
func (r *Row) Digest() string {
	h := sha256.New()
	r.encode(h)
	return hex.EncodeToString(h.Sum(nil))
}

func (r *Row) encode(h hash.Hash) {
	var buf [8]byte
	put := func(v int64) {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}

	put(r.DrawID)
	for n := 0; n < domain.PoolSize; n++ {
		put(r.Delay[n])
		for k := range Windows {
			put(int64(r.Freq[k][n]))
		}
		put(int64(r.Lag[n]))
		if r.Label[n] {
			put(1)
		} else {
			put(0)
		}
	}
	put(int64(r.SumPrev))
	if r.Labeled {
		put(1)
	} else {
		put(0)
	}
}
