package main

import "errors"

// Usage errors of the subcommands. They are reported as is by Execute.
var (
	// errHostRequired is returned when history --show or --delete is used
	// without a host.
	errHostRequired = errors.New("host is required for --show and --delete")

	// errNoURLs is returned when classify gets no non-empty URL.
	errNoURLs = errors.New("no URLs to classify")

	// errNoRadarMaps is returned when trackers build cannot locate the
	// Tracker Radar maps.
	errNoRadarMaps = errors.New("--radar-dir or both --domain-map and --entity-map are required")
)
