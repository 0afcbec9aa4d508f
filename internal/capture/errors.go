package capture

import "errors"

var (
	// ErrInvalidPageURL is returned when a page URL cannot be used as a base URL.
	ErrInvalidPageURL = errors.New("invalid page URL")

	// ErrUnknownEventType is returned for capture records with an unsupported type.
	ErrUnknownEventType = errors.New("unknown event type")
)
