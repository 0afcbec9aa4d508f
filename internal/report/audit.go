package report

import (
	"time"

	"github.com/nao1215/privacylens/internal/model"
)

// Audit is one analyzed site: the session snapshot and its score.
type Audit struct {
	// Source names where the observations came from, such as a capture file.
	Source string `json:"source,omitempty"`

	// Snapshot is the aggregated session data.
	Snapshot *model.Snapshot `json:"snapshot"`

	// Score is the privacy score computed from Snapshot.
	Score model.ScoreResult `json:"score"`
}

// Summary is the condensed view of an Audit that the text and markdown
// writers render.
type Summary struct {
	URL        string    `json:"url"`
	Hostname   string    `json:"hostname"`
	CapturedAt time.Time `json:"capturedAt"`

	Score  int    `json:"score"`
	Rating string `json:"rating"`

	HighCount int `json:"high"`
	LowCount  int `json:"low"`
	NoneCount int `json:"none"`

	Counts          model.Summary          `json:"counts"`
	Findings        []model.Finding        `json:"findings"`
	Recommendations []model.Recommendation `json:"recommendations"`
}

// NewSummary condenses an audit. Findings are sorted High first.
func NewSummary(a *Audit) *Summary {
	s := &Summary{
		Score:           a.Score.Score,
		Rating:          a.Score.Rating,
		Findings:        make([]model.Finding, 0),
		Recommendations: a.Score.Recommendations,
	}
	if s.Recommendations == nil {
		s.Recommendations = make([]model.Recommendation, 0)
	}
	if a.Snapshot == nil {
		return s
	}

	s.URL = a.Snapshot.URL
	s.Hostname = a.Snapshot.Hostname
	s.CapturedAt = a.Snapshot.CapturedAt
	s.Counts = a.Snapshot.Summary
	s.Findings = append(s.Findings, a.Snapshot.Tracking.ScriptDetails...)
	model.SortFindings(s.Findings)

	counts := model.CountByRisk(s.Findings)
	s.HighCount = counts[model.RiskHigh]
	s.LowCount = counts[model.RiskLow]
	s.NoneCount = counts[model.RiskNone]
	return s
}

// TotalFindings returns the number of classified scripts.
func (s *Summary) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings reports whether any script was classified.
func (s *Summary) HasFindings() bool {
	return len(s.Findings) > 0
}

// FindingsByRisk returns the findings with the given risk, in display order.
func (s *Summary) FindingsByRisk(r model.Risk) []model.Finding {
	out := make([]model.Finding, 0)
	for _, f := range s.Findings {
		if f.Risk == r {
			out = append(out, f)
		}
	}
	return out
}

// riskLevels lists the risk levels in display order.
var riskLevels = []model.Risk{model.RiskHigh, model.RiskLow, model.RiskNone}
