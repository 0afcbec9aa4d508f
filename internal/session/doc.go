// Package session aggregates the privacy-relevant observations made for one
// monitored site: cookies, classified scripts, network requests and the
// privacy policy.
//
// Every Add method is idempotent under a stable normalization key, so
// repeated delivery of the same event never inflates the counts used for
// scoring. Malformed input (cookie strings, URLs) is logged and dropped; no
// Add method returns an error or panics.
//
// A Session is owned by a single caller and is not safe for concurrent use.
// The controller package serializes all access to it.
package session
