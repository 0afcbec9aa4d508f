package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/privacylens/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: Plain ASCII without ANSI colors, so the output reads the
// same in every terminal and when piped to a file.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose adds the rationale of each finding.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the audit in human-readable format.
func (w *SimpleWriter) Write(audit *Audit) (int, error) {
	return w.WriteSummary(NewSummary(audit))
}

// WriteSummary outputs the summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeScore(&sb, summary)
	w.writeCounts(&sb, summary)
	w.writeFindings(&sb, summary)
	w.writeRecommendations(&sb, summary)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                        PRIVACY REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Site:     %s\n", valueOr(s.Hostname, "-"))
	fmt.Fprintf(sb, "URL:      %s\n", valueOr(s.URL, "-"))
	if !s.CapturedAt.IsZero() {
		fmt.Fprintf(sb, "Captured: %s\n", s.CapturedAt.Format("2006-01-02 15:04:05 MST"))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeScore(sb *strings.Builder, s *Summary) {
	section(sb, "PRIVACY SCORE")
	fmt.Fprintf(sb, "  SCORE:  %d/100\n", s.Score)
	fmt.Fprintf(sb, "  RATING: %s\n\n", s.Rating)
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, s *Summary) {
	section(sb, "SUMMARY")
	c := s.Counts
	fmt.Fprintf(sb, "  Cookies:              %d (%d third-party, %d tracking)\n",
		c.TotalCookies, c.ThirdPartyCookies, c.TrackingCookies)
	fmt.Fprintf(sb, "  Tracking scripts:     %d\n", c.TrackingScripts)
	fmt.Fprintf(sb, "  Third-party requests: %d\n", c.ThirdPartyRequests)
	fmt.Fprintf(sb, "  Tracking requests:    %d\n", c.TrackingRequests)
	fmt.Fprintf(sb, "  Privacy policy:       %s\n\n", yesNo(c.PrivacyPolicyFound))
}

func (w *SimpleWriter) writeFindings(sb *strings.Builder, s *Summary) {
	if !s.HasFindings() && !w.showEmpty {
		return
	}
	section(sb, "SCRIPTS")

	for _, risk := range riskLevels {
		findings := s.FindingsByRisk(risk)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "[%s] %s risk\n", riskIndicator(risk), risk)
		if len(findings) == 0 {
			sb.WriteString("  None\n\n")
			continue
		}
		for _, f := range findings {
			fmt.Fprintf(sb, "  * %s (%s, %s)\n", f.Domain, f.Owner, f.Category)
			fmt.Fprintf(sb, "    URL: %s\n", f.URL)
			if w.verbose {
				fmt.Fprintf(sb, "    Purpose: %s\n", f.Purpose)
				fmt.Fprintf(sb, "    Why: %s\n", f.Rationale)
			}
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeRecommendations(sb *strings.Builder, s *Summary) {
	if len(s.Recommendations) == 0 && !w.showEmpty {
		return
	}
	section(sb, "RECOMMENDATIONS")
	if len(s.Recommendations) == 0 {
		sb.WriteString("  None\n\n")
		return
	}
	for _, r := range s.Recommendations {
		fmt.Fprintf(sb, "  [%s] %s\n", r.Priority, r.Title)
		fmt.Fprintf(sb, "    %s\n", r.Description)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by privacylens\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}

func riskIndicator(r model.Risk) string {
	switch r {
	case model.RiskHigh:
		return "!!"
	case model.RiskLow:
		return "!"
	case model.RiskNone:
		return "-"
	default:
		return "?"
	}
}

func yesNo(b bool) string {
	if b {
		return "found"
	}
	return "not found"
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
