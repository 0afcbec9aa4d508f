package capture

import (
	"strings"

	"github.com/nao1215/privacylens/internal/session"
	"github.com/nao1215/privacylens/internal/trackerdb"
)

// trackingPathKeywords mark a request as tracking when the lowercased URL
// contains any of them.
var trackingPathKeywords = []string{
	"/track",
	"/pixel",
	"/beacon",
	"/collect",
	"/log",
	"/analytics",
	"/tracking",
	"/ad",
	"/ads",
	"/advertising",
}

// Detector fills in the third-party and tracking flags of requests when the
// capture does not provide them.
type Detector struct {
	db *trackerdb.DB
}

// NewDetector creates a Detector. Requests to any domain in db count as
// tracking. A nil db uses the embedded seed table.
func NewDetector(db *trackerdb.DB) *Detector {
	if db == nil {
		db = trackerdb.Default()
	}
	return &Detector{db: db}
}

// IsTracking reports whether a request looks like tracking: it goes to a
// known tracker domain, or its URL contains a tracking path keyword.
func (d *Detector) IsTracking(rawURL string) bool {
	if _, ok := d.db.Lookup(session.Hostname(rawURL)); ok {
		return true
	}
	lc := strings.ToLower(rawURL)
	for _, keyword := range trackingPathKeywords {
		if strings.Contains(lc, keyword) {
			return true
		}
	}
	return false
}

// IsThirdParty reports whether rawURL is served from a different host than
// initiator, ignoring a leading "www.". Without a usable initiator the
// request is assumed to be first-party.
func (d *Detector) IsThirdParty(rawURL, initiator string) bool {
	reqHost := session.Hostname(rawURL)
	initHost := session.Hostname(initiator)
	if reqHost == "" || initHost == "" {
		return false
	}
	return strings.TrimPrefix(reqHost, "www.") != strings.TrimPrefix(initHost, "www.")
}
