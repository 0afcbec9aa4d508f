package session

import "errors"

var (
	// ErrInvalidSiteURL is returned when a session is created for a URL
	// without a hostname.
	ErrInvalidSiteURL = errors.New("site URL has no hostname")

	// ErrMalformedCookie is returned when a Set-Cookie string cannot be parsed.
	ErrMalformedCookie = errors.New("malformed cookie string")
)
