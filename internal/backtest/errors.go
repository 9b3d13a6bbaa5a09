package backtest

import (
	"errors"
	"fmt"
)

// ErrInvalidHorizon is returned when the horizon is not positive.
var ErrInvalidHorizon = errors.New("backtest horizon must be positive")

// IterationError reports which held-out draw aborted a run.
type IterationError struct {
	DrawID int64
	Err    error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("backtest iteration for draw %d: %v", e.DrawID, e.Err)
}

func (e *IterationError) Unwrap() error {
	return e.Err
}
