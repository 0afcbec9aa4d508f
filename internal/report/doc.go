// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown output with a risk distribution chart
//
// Design decision: Report writing is kept apart from the snapshot and score
// types in the model package, so new output formats can be added without
// touching the data the controller produces.
package report
