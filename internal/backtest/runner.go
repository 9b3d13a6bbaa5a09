package backtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"lotofacil-lab/internal/storage"
)

// Runner executes a backtest and optionally persists the result.
type Runner struct {
	engine *Engine
	store  storage.BacktestStore // nil disables persistence
	logger *log.Logger
}

// NewRunner creates a new backtest runner. store may be nil.
func NewRunner(engine *Engine, store storage.BacktestStore, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

// Run executes the backtest and stores it when a store is configured.
// Re-running an identical backtest keeps the first stored copy.
func (r *Runner) Run(ctx context.Context, horizon int) (*Result, error) {
	result, err := r.engine.Run(ctx, horizon)
	if err != nil {
		return nil, err
	}
	if r.store == nil {
		return result, nil
	}

	err = r.store.InsertRun(ctx, result.ToRun())
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		r.logger.Printf("run %s already stored", result.RunID)
	case err != nil:
		return nil, fmt.Errorf("%w: store run %s: %w", storage.ErrUnavailable, result.RunID, err)
	default:
		r.logger.Printf("stored run %s with %d iterations", result.RunID, result.Tested())
	}
	return result, nil
}
