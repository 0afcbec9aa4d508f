package report

import (
	"io"
)

// Writer defines the interface for report output.
//
// Design decision: We use an interface so the analyze command can write the
// same audit to the terminal and to a file, in different formats, through
// one code path.
type Writer interface {
	// Write outputs the full audit.
	// Returns the number of bytes written and any error encountered.
	Write(audit *Audit) (int, error)

	// WriteSummary outputs only the condensed view.
	WriteSummary(summary *Summary) (int, error)
}

// MultiWriter writes to multiple Writers in order and stops on the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the audit to all configured Writers.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(audit *Audit) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(audit)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteSummary outputs the summary to all configured Writers.
func (m *MultiWriter) WriteSummary(summary *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteSummary(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
