package features

import "errors"

var (
	// ErrUnorderedHistory is returned when draw ids are not strictly ascending.
	ErrUnorderedHistory = errors.New("draw history is not strictly ascending")

	// ErrInsufficientWarmUp is returned when no draw has a complete row.
	ErrInsufficientWarmUp = errors.New("not enough draws to fill the largest window")
)
