package score

import "errors"

var (
	// ErrBandsNotAnchored is returned when a step table does not start at 0 with no penalty.
	ErrBandsNotAnchored = errors.New("penalty bands must start at 0 with penalty 0")

	// ErrBandsNotMonotonic is returned when thresholds or penalties decrease.
	ErrBandsNotMonotonic = errors.New("penalty bands must be ascending and non-decreasing")
)
