package model

import (
	"sort"
	"time"
)

// UnknownOwner is the owner reported for URLs without a tracker match.
const UnknownOwner = "Unknown vendor"

// Finding is the classification result for one observed URL.
//
// Invariants: Risk always equals RiskFor(Category), and Rationale is never empty.
type Finding struct {
	// URL is the raw URL that was classified.
	URL string `json:"url"`

	// Domain is the lowercased hostname of URL, or empty when none could be found.
	Domain string `json:"domain"`

	// IsThirdParty is true when Domain differs from the monitored page host.
	IsThirdParty bool `json:"isThirdParty"`

	// Owner is the company operating the tracker, or UnknownOwner.
	Owner string `json:"owner"`

	// Category describes what the script or request is used for.
	Category Category `json:"category"`

	// Risk is derived from Category.
	Risk Risk `json:"risk"`

	// Purpose is a short human-readable description of what the tracker does.
	Purpose string `json:"purpose"`

	// Rationale explains why the risk was assigned.
	Rationale string `json:"rationale"`

	// Prevalence is the fraction of sites the tracker is seen on (0 if unknown).
	Prevalence float64 `json:"prevalence"`

	// Source names the observation channel ("Script", "Network", ...).
	Source string `json:"source,omitempty"`
}

// SortFindings orders findings High before Low before None, then by
// descending prevalence, then by ascending URL. The sort is stable.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Risk.Rank() != b.Risk.Rank() {
			return a.Risk.Rank() < b.Risk.Rank()
		}
		if a.Prevalence != b.Prevalence {
			return a.Prevalence > b.Prevalence
		}
		return a.URL < b.URL
	})
}

// CountByRisk returns how many findings fall into each risk level.
func CountByRisk(findings []Finding) map[Risk]int {
	counts := map[Risk]int{RiskHigh: 0, RiskLow: 0, RiskNone: 0}
	for _, f := range findings {
		counts[f.Risk]++
	}
	return counts
}

// Cookie is a parsed cookie observed for a monitored site.
type Cookie struct {
	Name     string     `json:"name"`
	Value    string     `json:"value,omitempty"`
	Domain   string     `json:"domain"`
	Path     string     `json:"path"`
	Secure   bool       `json:"secure"`
	HTTPOnly bool       `json:"httpOnly"`
	SameSite string     `json:"sameSite"`
	Expires  *time.Time `json:"expires,omitempty"`

	// Derived flags, filled in when the cookie is added to a session.
	IsThirdParty bool `json:"isThirdParty"`
	IsTracking   bool `json:"isTracking"`
	IsSession    bool `json:"isSession"`
}

// NetworkRequest is a deduplicated network request observed for a site.
type NetworkRequest struct {
	URL          string    `json:"url"`
	Key          string    `json:"key"`
	IsThirdParty bool      `json:"isThirdParty"`
	IsTracking   bool      `json:"isTracking"`
	IsDataBroker bool      `json:"isDataBroker"`
	FirstSeen    time.Time `json:"firstSeen"`
}

// PrivacyPolicy records whether a privacy policy was found for the site.
type PrivacyPolicy struct {
	Found     bool      `json:"found"`
	URL       string    `json:"url,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}
