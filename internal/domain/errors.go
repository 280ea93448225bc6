package domain

import "errors"

var (
	// ErrInvalidQuery is returned before any lookup when origin and
	// destination are empty or equal.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrUnknownStation means a station is absent from the ordering used for
	// fare computation.
	ErrUnknownStation = errors.New("unknown station")

	// ErrDuplicateKey is a fatal catalog construction error.
	ErrDuplicateKey = errors.New("duplicate key")
)
