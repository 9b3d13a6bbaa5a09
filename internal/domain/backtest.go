package domain

import "time"

// BacktestIteration is the outcome of one walk-forward test point.
type BacktestIteration struct {
	RunID          string // owning run
	DrawID         int64  // held-out draw being predicted
	Suggested      []int  // selector output, ascending
	Actual         []int  // official numbers of DrawID, ascending
	Hits           int    // |Suggested ∩ Actual|
	HistorySize    int    // draws visible to this iteration (all with id < DrawID)
	TrainingRows   int    // complete feature rows used for training
	TrainedThrough int64  // newest draw id the models were trained on
}

// BacktestRun is the header of a persisted walk-forward run.
type BacktestRun struct {
	RunID       string
	Horizon     int
	FirstDrawID int64
	LastDrawID  int64
	StartedAt   time.Time
	FinishedAt  time.Time
	Iterations  []*BacktestIteration
}

// HistogramBin is one {hit_count → occurrence_count} entry.
type HistogramBin struct {
	Hits  int `json:"hits"`
	Count int `json:"count"`
}
