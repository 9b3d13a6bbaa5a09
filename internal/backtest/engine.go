// Package backtest evaluates the prediction pipeline walk-forward over
// held-out draws, retraining ephemeral models for every test point.
package backtest

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/features"
	"lotofacil-lab/internal/idhash"
	"lotofacil-lab/internal/model"
	"lotofacil-lab/internal/observability"
	"lotofacil-lab/internal/selector"
	"lotofacil-lab/internal/storage"
)

// Observer receives every completed iteration in order.
type Observer interface {
	OnIteration(it *domain.BacktestIteration, done, total int)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(it *domain.BacktestIteration, done, total int)

// OnIteration calls f.
func (f ObserverFunc) OnIteration(it *domain.BacktestIteration, done, total int) {
	f(it, done, total)
}

// Options configures an Engine.
type Options struct {
	Train      model.TrainConfig
	MinHistory int // draws required beyond the horizon, default selector.DefaultMinHistory
	Logger     *log.Logger
	Observer   Observer
	Clock      func() time.Time
}

// Result holds a finished walk-forward run.
type Result struct {
	RunID      string                      `json:"run_id"`
	Horizon    int                         `json:"horizon"`
	Iterations []*domain.BacktestIteration `json:"-"`
	Histogram  []domain.HistogramBin       `json:"histogram"`
	StartedAt  time.Time                   `json:"started_at"`
	FinishedAt time.Time                   `json:"finished_at"`
}

// Tested returns the number of evaluated draws.
func (r *Result) Tested() int {
	return len(r.Iterations)
}

// Best returns the highest hit count, or 0 for an empty run.
func (r *Result) Best() int {
	if len(r.Histogram) == 0 {
		return 0
	}
	return r.Histogram[0].Hits
}

// Mean returns the average hit count.
func (r *Result) Mean() float64 {
	if len(r.Iterations) == 0 {
		return 0
	}
	total := 0
	for _, it := range r.Iterations {
		total += it.Hits
	}
	return float64(total) / float64(len(r.Iterations))
}

// ToRun converts the result into its persisted form.
func (r *Result) ToRun() *domain.BacktestRun {
	run := &domain.BacktestRun{
		RunID:      r.RunID,
		Horizon:    r.Horizon,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Iterations: r.Iterations,
	}
	if len(r.Iterations) > 0 {
		run.FirstDrawID = r.Iterations[0].DrawID
		run.LastDrawID = r.Iterations[len(r.Iterations)-1].DrawID
	}
	return run
}

// Engine runs walk-forward backtests over a DrawStore.
// It never touches an ArtifactStore.
type Engine struct {
	draws storage.DrawStore
	opts  Options
}

// NewEngine creates a new backtest engine.
func NewEngine(draws storage.DrawStore, opts Options) *Engine {
	if opts.Train == (model.TrainConfig{}) {
		opts.Train = model.DefaultTrainConfig()
	}
	if opts.MinHistory <= 0 {
		opts.MinHistory = selector.DefaultMinHistory
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{draws: draws, opts: opts}
}

// Run evaluates the newest horizon draws, oldest first. Each iteration sees
// only draws older than the one it predicts.
func (e *Engine) Run(ctx context.Context, horizon int) (*Result, error) {
	start := time.Now()
	result, err := e.run(ctx, horizon)
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.RecordBacktestRun(status, time.Since(start).Seconds())
	if err == nil {
		observability.RecordBacktestCompleted(float64(result.FinishedAt.Unix()))
	}
	return result, err
}

func (e *Engine) run(ctx context.Context, horizon int) (*Result, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizon)
	}

	draws, err := e.draws.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list draws: %w", storage.ErrUnavailable, err)
	}
	if need := horizon + e.opts.MinHistory; len(draws) < need {
		return nil, fmt.Errorf("%w: have %d draws, need %d for horizon %d", domain.ErrInsufficientHistory, len(draws), need, horizon)
	}

	testStart := len(draws) - horizon
	result := &Result{
		RunID:      idhash.ComputeRunID(horizon, draws[testStart].ID, draws[len(draws)-1].ID, configDigest(e.opts.Train)),
		Horizon:    horizon,
		Iterations: make([]*domain.BacktestIteration, 0, horizon),
		StartedAt:  e.opts.Clock().UTC(),
	}
	e.opts.Logger.Printf("run %s: %d held-out draws %d..%d", result.RunID, horizon, draws[testStart].ID, draws[len(draws)-1].ID)

	for i := testStart; i < len(draws); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		target := draws[i]
		// Capacity-limited so nothing past the target is reachable.
		it, err := Evaluate(draws[:i:i], target, e.opts.Train)
		if err != nil {
			return nil, &IterationError{DrawID: target.ID, Err: err}
		}
		it.RunID = result.RunID
		result.Iterations = append(result.Iterations, it)

		observability.RecordBacktestIteration(it.Hits)
		done := len(result.Iterations)
		e.opts.Logger.Printf("draw %d: %d hits (%d/%d)", target.ID, it.Hits, done, horizon)
		if e.opts.Observer != nil {
			e.opts.Observer.OnIteration(it, done, horizon)
		}
	}

	result.Histogram = Histogram(result.Iterations)
	result.FinishedAt = e.opts.Clock().UTC()
	return result, nil
}

// Evaluate predicts target from history alone and scores the suggestion.
// history must hold only draws older than target. The models score the
// latest complete row of history, as live prediction does.
func Evaluate(history []domain.Draw, target domain.Draw, cfg model.TrainConfig) (*domain.BacktestIteration, error) {
	table, err := features.Build(history)
	if err != nil {
		return nil, err
	}
	row, err := table.Latest()
	if err != nil {
		return nil, err
	}
	bank, err := model.TrainEphemeral(table, cfg)
	if err != nil {
		return nil, err
	}
	probs, err := model.PredictAll(bank, row)
	if err != nil {
		return nil, err
	}
	suggested, err := selector.Select(probs)
	if err != nil {
		return nil, err
	}

	return &domain.BacktestIteration{
		DrawID:         target.ID,
		Suggested:      suggested,
		Actual:         domain.SortedCopy(target.Numbers),
		Hits:           domain.CountHits(suggested, target.Numbers),
		HistorySize:    len(history),
		TrainingRows:   table.Len(),
		TrainedThrough: table.LastDrawID,
	}, nil
}

// Histogram counts iterations per hit value, highest hit count first.
func Histogram(iterations []*domain.BacktestIteration) []domain.HistogramBin {
	counts := make(map[int]int)
	for _, it := range iterations {
		counts[it.Hits]++
	}
	bins := make([]domain.HistogramBin, 0, len(counts))
	for hits, count := range counts {
		bins = append(bins, domain.HistogramBin{Hits: hits, Count: count})
	}
	sort.Slice(bins, func(i, j int) bool {
		return bins[i].Hits > bins[j].Hits
	})
	return bins
}

func configDigest(cfg model.TrainConfig) string {
	return fmt.Sprintf("logreg;l2=%g;iter=%d;tol=%g", cfg.L2, cfg.MaxIter, cfg.Tolerance)
}
