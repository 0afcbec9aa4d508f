package pipeline

import "errors"

var (
	// ErrNoInput is returned when a job has neither a capture nor a page.
	ErrNoInput = errors.New("job has no capture or page")

	// ErrNoSiteURL is returned when the monitored page URL is not given and
	// the capture has no main_frame request to take it from.
	ErrNoSiteURL = errors.New("site URL is unknown: pass it explicitly or include a main_frame request")

	// ErrLocalSite is returned when the monitored page is served from the
	// local machine or network. Such pages have no public third parties to
	// report on.
	ErrLocalSite = errors.New("site URL points to a local host")

	// ErrNoSnapshot is returned by steps that need a snapshot before one
	// was produced.
	ErrNoSnapshot = errors.New("no snapshot to process")
)
