package model

import "errors"

var (
	// ErrNoTrainingRows is returned when a table has no complete rows.
	ErrNoTrainingRows = errors.New("no complete feature rows to train on")

	// ErrSchemaMismatch is returned when an artifact's columns differ from
	// the pipeline's current column order.
	ErrSchemaMismatch = errors.New("model feature columns do not match pipeline")

	// ErrInvalidNumber is returned for numbers outside [1, PoolSize].
	ErrInvalidNumber = errors.New("number outside pool")

	// ErrInvalidConfig is returned for unusable training settings.
	ErrInvalidConfig = errors.New("invalid training config")

	// ErrFitDiverged is returned when the solver produces non-finite weights.
	ErrFitDiverged = errors.New("model fit diverged")
)
