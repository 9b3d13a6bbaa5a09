package domain

import "errors"

var (
	// ErrInvalidDraw is returned when a number set breaks the draw invariant.
	ErrInvalidDraw = errors.New("invalid draw")

	// ErrInsufficientData is returned when live prediction lacks warm-up history.
	ErrInsufficientData = errors.New("insufficient data: not enough draw history to train models")

	// ErrInsufficientHistory is returned when a backtest horizon cannot be
	// covered by the stored history plus warm-up.
	ErrInsufficientHistory = errors.New("insufficient history for backtest horizon")
)
