// Package reporting renders backtest runs as Markdown and CSV.
package reporting

import "time"

// Report summarizes one walk-forward run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	Horizon     int
	FirstDrawID int64
	LastDrawID  int64
	StartedAt   time.Time
	FinishedAt  time.Time

	// Summary
	Tested int     // iterations evaluated
	Best   int     // highest hit count, 0 for an empty run
	Mean   float64 // average hit count
	Stats  HitStats

	// Histogram sorted by hits DESC
	Histogram []HistogramRow

	// Per-draw detail sorted by draw id ASC
	Iterations []IterationRow
}

// HistogramRow is one hit-count bucket.
type HistogramRow struct {
	Hits  int
	Count int
	Share float64 // Count / Tested
}

// IterationRow is one held-out draw.
type IterationRow struct {
	DrawID         int64
	Hits           int
	Suggested      []int
	Actual         []int
	TrainingRows   int
	TrainedThrough int64
}
