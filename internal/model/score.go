package model

// Priority ranks how urgent a recommendation is.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// RatingUnknown is the rating reported when there is nothing to score.
const RatingUnknown = "Unknown"

// Recommendation is advisory text derived from a snapshot's counts.
type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// Factors records every raw count and computed penalty that went into a score.
type Factors struct {
	Scripts            int  `json:"scripts"`
	TrackingRequests   int  `json:"trackingRequests"`
	ThirdPartyRequests int  `json:"totalRequests"`
	TrackingCookies    int  `json:"cookies"`
	PolicyFound        bool `json:"policyFound"`

	ScriptPenalty  int `json:"scriptPenalty"`
	RequestPenalty int `json:"requestPenalty"`
	CookiePenalty  int `json:"cookiePenalty"`
	PolicyPenalty  int `json:"policyPenalty"`
	TotalPenalty   int `json:"totalPenalty"`
}

// ScoreResult is the outcome of scoring a snapshot.
type ScoreResult struct {
	Score           int              `json:"score"`
	Rating          string           `json:"rating"`
	Factors         *Factors         `json:"factors,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}
