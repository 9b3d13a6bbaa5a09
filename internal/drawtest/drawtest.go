// Package drawtest provides deterministic draw histories for tests.
package drawtest

import (
	"math/rand"
	"sort"

	"lotofacil-lab/internal/domain"
)

// Synthetic returns count valid draws with ids 1..count.
// The same seed always yields the same history.
func Synthetic(count int, seed int64) []domain.Draw {
	return SyntheticFrom(1, count, seed)
}

// SyntheticFrom returns count valid draws with ids firstID..firstID+count-1.
func SyntheticFrom(firstID int64, count int, seed int64) []domain.Draw {
	rng := rand.New(rand.NewSource(seed))
	draws := make([]domain.Draw, count)
	for i := range draws {
		draws[i] = domain.Draw{ID: firstID + int64(i), Numbers: pick(rng, nil)}
	}
	return draws
}

// Without returns a valid draw that excludes every number in excluded.
func Without(id int64, rng *rand.Rand, excluded ...int) domain.Draw {
	return domain.Draw{ID: id, Numbers: pick(rng, excluded)}
}

// With returns a valid draw that contains every number in included.
func With(id int64, rng *rand.Rand, included ...int) domain.Draw {
	skip := make(map[int]bool, len(included))
	for _, n := range included {
		skip[n] = true
	}
	numbers := append([]int(nil), included...)
	for _, n := range rng.Perm(domain.PoolSize) {
		if len(numbers) == domain.DrawSize {
			break
		}
		if !skip[n+1] {
			numbers = append(numbers, n+1)
		}
	}
	sort.Ints(numbers)
	return domain.Draw{ID: id, Numbers: numbers}
}

func pick(rng *rand.Rand, excluded []int) []int {
	skip := make(map[int]bool, len(excluded))
	for _, n := range excluded {
		skip[n] = true
	}
	numbers := make([]int, 0, domain.DrawSize)
	for _, n := range rng.Perm(domain.PoolSize) {
		if len(numbers) == domain.DrawSize {
			break
		}
		if !skip[n+1] {
			numbers = append(numbers, n+1)
		}
	}
	sort.Ints(numbers)
	return numbers
}
