package model

import "time"

// Summary holds the headline counts of a monitoring session.
type Summary struct {
	TotalCookies       int  `json:"totalCookies"`
	ThirdPartyCookies  int  `json:"thirdPartyCookies"`
	TrackingCookies    int  `json:"trackingCookies"`
	TrackingScripts    int  `json:"trackingScripts"`
	ThirdPartyRequests int  `json:"thirdPartyRequests"`
	TrackingRequests   int  `json:"trackingRequests"`
	PrivacyPolicyFound bool `json:"privacyPolicyFound"`
}

// CookieBuckets holds the cookies of a session grouped by purpose.
// Tracking and Session overlap with FirstParty and ThirdParty.
type CookieBuckets struct {
	Total      int      `json:"total"`
	FirstParty []Cookie `json:"firstParty"`
	ThirdParty []Cookie `json:"thirdParty"`
	Tracking   []Cookie `json:"tracking"`
	Session    []Cookie `json:"session"`
}

// TrackingDetails holds the classified scripts and tracking request count.
type TrackingDetails struct {
	Scripts       int       `json:"scripts"`
	Requests      int       `json:"requests"`
	ScriptDetails []Finding `json:"scriptDetails"`
}

// RequestBuckets holds the network requests of a session. A request may
// appear in more than one bucket.
type RequestBuckets struct {
	ThirdParty  []NetworkRequest `json:"thirdParty"`
	Tracking    []NetworkRequest `json:"tracking"`
	DataBrokers []NetworkRequest `json:"dataBrokers"`
}

// Snapshot is a read-only copy of a monitoring session.
//
// Design decision: The snapshot carries the full bucket contents and not just
// counts, so a stored snapshot can be reloaded into a new session as-is.
type Snapshot struct {
	URL           string          `json:"url"`
	Hostname      string          `json:"hostname"`
	SessionID     string          `json:"sessionId,omitempty"`
	Summary       Summary         `json:"summary"`
	Cookies       CookieBuckets   `json:"cookies"`
	Tracking      TrackingDetails `json:"tracking"`
	Requests      RequestBuckets  `json:"requests"`
	PrivacyPolicy PrivacyPolicy   `json:"privacyPolicy"`
	CapturedAt    time.Time       `json:"capturedAt"`
}

// IsEmpty reports whether the snapshot holds no observations at all.
func (s *Snapshot) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.Cookies.Total == 0 &&
		len(s.Tracking.ScriptDetails) == 0 &&
		len(s.Requests.ThirdParty) == 0 &&
		len(s.Requests.Tracking) == 0 &&
		len(s.Requests.DataBrokers) == 0 &&
		!s.PrivacyPolicy.Found
}
