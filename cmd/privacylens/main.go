// Package main provides the entry point for the privacylens CLI.
//
// privacylens replays captured page activity (requests, cookies, scripts and
// privacy policy links) of a monitored site, classifies every third party it
// sees and reports a privacy score.
//
// Usage:
//
//	privacylens analyze capture.jsonl
//	privacylens analyze --url https://example.com --page index.html
//
// See --help for all available options.
package main

// main is the entry point for privacylens.
func main() {
	Execute()
}
