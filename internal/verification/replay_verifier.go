package verification

import (
	"context"
	"errors"
	"fmt"

	"lotofacil-lab/internal/backtest"
	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/model"
	"lotofacil-lab/internal/storage"
)

var (
	// ErrRunNotFound is returned when run ID doesn't exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrIterationNotFound is returned when a run has no iteration for a draw.
	ErrIterationNotFound = errors.New("iteration not found")

	// ErrDrawNotFound is returned when the held-out draw is missing from history.
	ErrDrawNotFound = errors.New("draw not found")
)

// ReplayVerifier implements Verifier against stored runs and draws.
// Train must match the configuration the run was produced with.
type ReplayVerifier struct {
	runs  storage.BacktestStore
	draws storage.DrawStore
	train model.TrainConfig
}

// NewReplayVerifier creates a new ReplayVerifier. A zero train config uses
// model.DefaultTrainConfig.
func NewReplayVerifier(runs storage.BacktestStore, draws storage.DrawStore, train model.TrainConfig) *ReplayVerifier {
	if train == (model.TrainConfig{}) {
		train = model.DefaultTrainConfig()
	}
	return &ReplayVerifier{runs: runs, draws: draws, train: train}
}

// VerifyIteration replays one iteration of a stored run.
func (v *ReplayVerifier) VerifyIteration(ctx context.Context, runID string, drawID int64) (*VerificationResult, error) {
	run, err := v.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	draws, err := v.draws.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list draws: %w", storage.ErrUnavailable, err)
	}
	for _, it := range run.Iterations {
		if it.DrawID == drawID {
			return v.verify(draws, it)
		}
	}
	return nil, fmt.Errorf("%w: run %s draw %d", ErrIterationNotFound, runID, drawID)
}

// VerifyRun replays all iterations of a stored run. Replay failures are
// recorded as divergences rather than aborting the report.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationReport, error) {
	run, err := v.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	draws, err := v.draws.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list draws: %w", storage.ErrUnavailable, err)
	}

	report := &VerificationReport{
		RunID:           runID,
		TotalIterations: len(run.Iterations),
		Results:         make([]VerificationResult, 0, len(run.Iterations)),
	}

	for _, it := range run.Iterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := v.verify(draws, it)
		if err != nil {
			report.Results = append(report.Results, VerificationResult{
				RunID:      runID,
				DrawID:     it.DrawID,
				StoredHits: it.Hits,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentIterations++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedIterations++
		} else {
			report.DivergentIterations++
		}
	}

	return report, nil
}

func (v *ReplayVerifier) loadRun(ctx context.Context, runID string) (*domain.BacktestRun, error) {
	run, err := v.runs.GetRun(ctx, runID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load run %s: %w", storage.ErrUnavailable, runID, err)
	}
	return run, nil
}

// verify rebuilds the iteration from draws strictly older than its target.
func (v *ReplayVerifier) verify(draws []domain.Draw, stored *domain.BacktestIteration) (*VerificationResult, error) {
	idx := -1
	for i, d := range draws {
		if d.ID == stored.DrawID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d", ErrDrawNotFound, stored.DrawID)
	}

	replayed, err := backtest.Evaluate(draws[:idx:idx], draws[idx], v.train)
	if err != nil {
		return nil, fmt.Errorf("replay draw %d: %w", stored.DrawID, err)
	}
	replayed.RunID = stored.RunID

	divergences := CompareIterations(stored, replayed)
	return &VerificationResult{
		RunID:        stored.RunID,
		DrawID:       stored.DrawID,
		Match:        len(divergences) == 0,
		Divergences:  divergences,
		StoredHits:   stored.Hits,
		ReplayedHits: replayed.Hits,
	}, nil
}

var _ Verifier = (*ReplayVerifier)(nil)
