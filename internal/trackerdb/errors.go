package trackerdb

import "errors"

var (
	// ErrEmptyTable is returned when a tracker table contains no entries.
	ErrEmptyTable = errors.New("tracker table is empty")

	// ErrInvalidTable is returned when a tracker table cannot be decoded.
	ErrInvalidTable = errors.New("invalid tracker table")
)
