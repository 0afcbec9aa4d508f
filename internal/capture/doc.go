// Package capture provides offline event sources for the controller.
//
// Observations normally come from a browser (network interception, cookie
// headers, page-side script discovery). This package reproduces them from
// files instead:
//   - capture files in JSON Lines format, one observed event per line
//   - saved HTML pages, scanned for script sources and privacy policy links
//
// Both produce controller events, and ReplaySource feeds them to a
// controller through the regular Source interface.
package capture
