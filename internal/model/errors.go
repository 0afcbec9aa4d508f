package model

import "errors"

var (
	// ErrUnknownRisk is returned when a risk name cannot be parsed.
	ErrUnknownRisk = errors.New("unknown risk level")

	// ErrUnknownCategory is returned when a category name cannot be parsed.
	ErrUnknownCategory = errors.New("unknown tracker category")
)
