package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lotofacil-lab/internal/backtest"
	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	store storage.BacktestStore
	now   func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. store may be nil when only
// FromRun is used.
func NewGenerator(store storage.BacktestStore) *Generator {
	return &Generator{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads a stored run and builds its report.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	if g.store == nil {
		return nil, fmt.Errorf("%w: no backtest store configured", storage.ErrUnavailable)
	}
	run, err := g.store.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return g.FromRun(run), nil
}

// FromRun builds a report from an in-memory run.
func (g *Generator) FromRun(run *domain.BacktestRun) *Report {
	iterations := make([]*domain.BacktestIteration, len(run.Iterations))
	copy(iterations, run.Iterations)
	sort.Slice(iterations, func(i, j int) bool {
		return iterations[i].DrawID < iterations[j].DrawID
	})

	r := &Report{
		GeneratedAt: g.now(),
		RunID:       run.RunID,
		Horizon:     run.Horizon,
		FirstDrawID: run.FirstDrawID,
		LastDrawID:  run.LastDrawID,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		Tested:      len(iterations),
	}

	total := 0
	for _, it := range iterations {
		total += it.Hits
		if it.Hits > r.Best {
			r.Best = it.Hits
		}
		r.Iterations = append(r.Iterations, IterationRow{
			DrawID:         it.DrawID,
			Hits:           it.Hits,
			Suggested:      it.Suggested,
			Actual:         it.Actual,
			TrainingRows:   it.TrainingRows,
			TrainedThrough: it.TrainedThrough,
		})
	}
	if r.Tested > 0 {
		r.Mean = float64(total) / float64(r.Tested)
	}
	r.Stats = computeHitStats(iterations)

	for _, bin := range backtest.Histogram(iterations) {
		row := HistogramRow{Hits: bin.Hits, Count: bin.Count}
		if r.Tested > 0 {
			row.Share = float64(bin.Count) / float64(r.Tested)
		}
		r.Histogram = append(r.Histogram, row)
	}
	return r
}
