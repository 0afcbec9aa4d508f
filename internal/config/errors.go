package config

import "errors"

// Configuration validation errors returned by Config.Validate.
//
// Design decision: Package-level sentinels so callers can branch with
// errors.Is while users still get a readable message.
var (
	// ErrNoCapture is returned when neither a capture file nor a page is given.
	ErrNoCapture = errors.New("nothing to analyze: provide a capture file or --page")

	// ErrPageWithoutURL is returned when --page is used without --url.
	// Relative script and link URLs cannot be resolved without the page URL.
	ErrPageWithoutURL = errors.New("--page requires --url")

	// ErrTeeWithoutOutput is returned when --tee is used without --output.
	ErrTeeWithoutOutput = errors.New("--tee requires --output")

	// ErrInvalidDebounce is returned when the debounce window is not positive.
	ErrInvalidDebounce = errors.New("invalid debounce: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrUnknownFormat is returned for an unsupported report format.
	ErrUnknownFormat = errors.New("unknown report format: use text, json or markdown")

	// ErrNoDBDir is returned when saving or restoring is requested without a
	// database directory.
	ErrNoDBDir = errors.New("database directory is required to save or restore snapshots")

	// ErrInvalidBands is returned when the configured scoring bands are invalid.
	ErrInvalidBands = errors.New("invalid scoring bands")
)
