package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/privacylens/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing, for example
// as a pull request comment or an issue.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the audit in Markdown format.
func (w *MarkdownWriter) Write(audit *Audit) (int, error) {
	return w.WriteSummary(NewSummary(audit))
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounts(md, summary)
	w.writeFindings(md, summary)
	w.writeRecommendations(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Privacy Report")
	md.PlainText("")

	captured := "-"
	if !s.CapturedAt.IsZero() {
		captured = s.CapturedAt.Format("2006-01-02 15:04:05 MST")
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + valueOr(s.Hostname, "-") + "`"},
			{"URL", valueOr(s.URL, "-")},
			{"Captured", captured},
			{"Score", fmt.Sprintf("**%d/100** (%s)", s.Score, s.Rating)},
		},
	})
	md.PlainText("")
	w.writeAlert(md, s)
}

// writeAlert picks the alert style from the score rating.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s *Summary) {
	switch {
	case s.Rating == model.RatingUnknown:
		md.Note("Nothing was observed for this site.")
	case s.Score < 40:
		md.Cautionf("Heavy tracking detected. %d high risk script(s) found.", s.HighCount)
	case s.Score < 55:
		md.Warningf("Significant tracking detected. %d high risk script(s) found.", s.HighCount)
	case s.Score < 70:
		md.Importantf("Some tracking detected. %d script(s) classified.", s.TotalFindings())
	default:
		md.Tip("Little or no tracking detected.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, s *Summary) {
	md.H2("Summary")
	md.PlainText("")

	c := s.Counts
	policy := "❌ Not found"
	if c.PrivacyPolicyFound {
		policy = "✅ Found"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Cookies", strconv.Itoa(c.TotalCookies)},
			{"Third-party cookies", strconv.Itoa(c.ThirdPartyCookies)},
			{"Tracking cookies", strconv.Itoa(c.TrackingCookies)},
			{"Tracking scripts", strconv.Itoa(c.TrackingScripts)},
			{"Third-party requests", strconv.Itoa(c.ThirdPartyRequests)},
			{"Tracking requests", strconv.Itoa(c.TrackingRequests)},
			{"Privacy policy", policy},
		},
	})
	md.PlainText("")

	if s.HasFindings() {
		w.writePieChart(md, s)
	}
}

// writePieChart writes a mermaid pie chart of the script risk distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Script Risk Distribution"),
		piechart.WithShowData(true),
	)
	if s.HighCount > 0 {
		chart.LabelAndIntValue("High", uint64(s.HighCount))
	}
	if s.LowCount > 0 {
		chart.LabelAndIntValue("Low", uint64(s.LowCount))
	}
	if s.NoneCount > 0 {
		chart.LabelAndIntValue("None", uint64(s.NoneCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, s *Summary) {
	md.H2("Scripts")
	md.PlainText("")

	if !s.HasFindings() {
		md.PlainText("No scripts were classified.")
		md.PlainText("")
		return
	}

	headers := map[model.Risk]string{
		model.RiskHigh: "### 🔴 High",
		model.RiskLow:  "### 🟡 Low",
		model.RiskNone: "### ⚪ None",
	}
	for _, risk := range riskLevels {
		findings := s.FindingsByRisk(risk)
		if len(findings) == 0 {
			continue
		}
		md.PlainText(headers[risk])
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		party := "first-party"
		if f.IsThirdParty {
			party = "third-party"
		}
		rows[i] = []string{
			"`" + f.Domain + "`",
			f.Owner,
			f.Category.String(),
			party,
			truncateString(f.Purpose, 50),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Owner", "Category", "Party", "Purpose"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Rationale != "" {
			md.Details(f.Domain, f.Rationale)
		}
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, s *Summary) {
	if len(s.Recommendations) == 0 {
		return
	}
	md.H2("Recommendations")
	md.PlainText("")

	items := make([]string, 0, len(s.Recommendations))
	for _, r := range s.Recommendations {
		items = append(items, fmt.Sprintf("**%s** (%s priority): %s", r.Title, r.Priority, r.Description))
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by privacylens*")
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
