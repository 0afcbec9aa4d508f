package score

import (
	"fmt"

	"github.com/nao1215/privacylens/internal/model"
)

// Recommendation thresholds.
const (
	scriptBlockerThreshold   = 3
	highTrackingThreshold    = 60
	trackingCookiesThreshold = 10
	maxScore                 = 100
)

// rating is one entry of the rating table, checked from the top.
type rating struct {
	min  int
	name string
}

var ratings = []rating{
	{85, "Excellent"},
	{70, "Good"},
	{55, "Fair"},
	{40, "Poor"},
	{0, "Very Poor"},
}

// Rating returns the rating name for a score in 0..100.
func Rating(score int) string {
	for _, r := range ratings {
		if score >= r.min {
			return r.name
		}
	}
	return ratings[len(ratings)-1].name
}

// Scorer computes scores with a fixed set of bands.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	bands Bands
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithBands replaces the default bands. Bands should be validated by the
// caller with Bands.Validate.
func WithBands(b Bands) Option {
	return func(s *Scorer) {
		s.bands = b
	}
}

// New creates a Scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{bands: DefaultBands()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultScorer = New()

// Score scores snap with the default bands.
func Score(snap *model.Snapshot) model.ScoreResult {
	return defaultScorer.Score(snap)
}

// Score converts a snapshot into a score, rating, factor breakdown and
// recommendations. A nil snapshot scores 0 with rating "Unknown" and no
// factors, which distinguishes "nothing to score" from a genuine zero.
func (s *Scorer) Score(snap *model.Snapshot) model.ScoreResult {
	if snap == nil {
		return model.ScoreResult{
			Score:           0,
			Rating:          model.RatingUnknown,
			Recommendations: []model.Recommendation{},
		}
	}

	f := &model.Factors{
		Scripts:            scriptCount(snap),
		TrackingRequests:   countOr(len(snap.Requests.Tracking), snap.Tracking.Requests),
		ThirdPartyRequests: countOr(len(snap.Requests.ThirdParty), snap.Summary.ThirdPartyRequests),
		TrackingCookies:    countOr(len(snap.Cookies.Tracking), snap.Summary.TrackingCookies),
		PolicyFound:        snap.PrivacyPolicy.Found,
	}

	f.ScriptPenalty = s.bands.Scripts.Penalty(f.Scripts)
	f.RequestPenalty = s.bands.TrackingRequests.Penalty(f.TrackingRequests)
	f.CookiePenalty = s.bands.TrackingCookies.Penalty(f.TrackingCookies)
	if !f.PolicyFound {
		f.PolicyPenalty = s.bands.MissingPolicy
	}
	f.TotalPenalty = f.ScriptPenalty + f.RequestPenalty + f.CookiePenalty + f.PolicyPenalty

	score := max(0, maxScore-f.TotalPenalty)
	return model.ScoreResult{
		Score:           score,
		Rating:          Rating(score),
		Factors:         f,
		Recommendations: Recommendations(f),
	}
}

// scriptCount returns the number of distinct script URLs. A snapshot
// without details (for example one decoded from a summary-only report)
// falls back to its recorded count.
func scriptCount(snap *model.Snapshot) int {
	if len(snap.Tracking.ScriptDetails) == 0 {
		return snap.Tracking.Scripts
	}
	seen := make(map[string]struct{}, len(snap.Tracking.ScriptDetails))
	for _, f := range snap.Tracking.ScriptDetails {
		seen[f.URL] = struct{}{}
	}
	return len(seen)
}

// countOr returns listLen, or recorded when the list is empty.
func countOr(listLen, recorded int) int {
	if listLen == 0 {
		return recorded
	}
	return listLen
}

// Recommendations returns advisory text for the given counts.
func Recommendations(f *model.Factors) []model.Recommendation {
	recs := []model.Recommendation{}
	if f == nil {
		return recs
	}
	if f.Scripts > scriptBlockerThreshold {
		recs = append(recs, model.Recommendation{
			Title:       "Use a script blocker",
			Description: fmt.Sprintf("%d tracking scripts detected", f.Scripts),
			Priority:    model.PriorityHigh,
		})
	}
	if !f.PolicyFound {
		recs = append(recs, model.Recommendation{
			Title:       "No privacy policy found",
			Description: "Site does not expose a privacy policy",
			Priority:    model.PriorityMedium,
		})
	}
	if f.TrackingRequests > highTrackingThreshold {
		recs = append(recs, model.Recommendation{
			Title:       "High tracking activity",
			Description: fmt.Sprintf("%d tracking-related requests detected", f.TrackingRequests),
			Priority:    model.PriorityMedium,
		})
	}
	if f.TrackingCookies > trackingCookiesThreshold {
		recs = append(recs, model.Recommendation{
			Title:       "Clear tracking cookies",
			Description: fmt.Sprintf("%d tracking cookies stored", f.TrackingCookies),
			Priority:    model.PriorityLow,
		})
	}
	return recs
}
