package reporting

import (
	"math"
	"sort"

	"lotofacil-lab/internal/domain"
)

// MinPrizeHits is the lowest hit count that wins a prize.
const MinPrizeHits = 11

// HitStats describes the hit distribution of a run.
type HitStats struct {
	Mean         float64
	Stddev       float64 // sample, n-1 denominator
	Median       float64
	P10          float64
	P90          float64
	Min          int
	Max          int
	PrizeRate    float64 // share of iterations with >= MinPrizeHits
	LongestNoWin int     // longest run of consecutive iterations below MinPrizeHits
}

// computeHitStats expects iterations in draw id order.
func computeHitStats(iterations []*domain.BacktestIteration) HitStats {
	n := len(iterations)
	if n == 0 {
		return HitStats{}
	}

	hits := make([]float64, n)
	prizes := 0
	streak, longest := 0, 0
	for i, it := range iterations {
		hits[i] = float64(it.Hits)
		if it.Hits >= MinPrizeHits {
			prizes++
			streak = 0
			continue
		}
		streak++
		if streak > longest {
			longest = streak
		}
	}

	sorted := make([]float64, n)
	copy(sorted, hits)
	sort.Float64s(sorted)

	mean := computeMean(hits)
	return HitStats{
		Mean:         mean,
		Stddev:       computeStddev(hits, mean),
		Median:       computePercentile(sorted, 0.50),
		P10:          computePercentile(sorted, 0.10),
		P90:          computePercentile(sorted, 0.90),
		Min:          int(sorted[0]),
		Max:          int(sorted[n-1]),
		PrizeRate:    float64(prizes) / float64(n),
		LongestNoWin: longest,
	}
}

func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation. sorted must be ascending.
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
