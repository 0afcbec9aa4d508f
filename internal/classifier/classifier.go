package classifier

import (
	"net/url"
	"strings"

	"github.com/nao1215/privacylens/internal/model"
	"github.com/nao1215/privacylens/internal/trackerdb"
)

// DefaultSource is the source recorded for findings when none is given.
const DefaultSource = "Script"

// commonTrackerPrevalence is the prevalence from which a known tracker is
// described as very common.
const commonTrackerPrevalence = 0.3

// heuristicMarkers are URL fragments that suggest tracking when a domain is
// not in the knowledge base.
var heuristicMarkers = []string{"/collect", "track", "pixel", "beacon", "session"}

// Classifier classifies URLs against a tracker knowledge base.
type Classifier struct {
	db *trackerdb.DB
}

// New creates a Classifier. A nil db uses the embedded seed table.
func New(db *trackerdb.DB) *Classifier {
	if db == nil {
		db = trackerdb.Default()
	}
	return &Classifier{db: db}
}

var defaultClassifier = New(nil)

// Classify classifies rawURL with the embedded seed table.
func Classify(rawURL, pageHost, source string) model.Finding {
	return defaultClassifier.Classify(rawURL, pageHost, source)
}

// ClassifyMany classifies urls with the embedded seed table.
func ClassifyMany(urls []string, pageHost, source string) []model.Finding {
	return defaultClassifier.ClassifyMany(urls, pageHost, source)
}

// Classify turns rawURL, observed on a page served from pageHost, into a Finding.
//
// The domain is the URL's hostname; when it cannot be determined the page host
// is used instead, and when that is empty too the domain stays empty. A URL is
// third-party when both hosts are known and differ exactly, so subdomains of
// the page count as third-party.
func (c *Classifier) Classify(rawURL, pageHost, source string) model.Finding {
	if source == "" {
		source = DefaultSource
	}
	pageHost = strings.ToLower(strings.TrimSpace(pageHost))

	domain := hostname(rawURL)
	if domain == "" {
		domain = pageHost
	}
	isThirdParty := domain != "" && pageHost != "" && domain != pageHost

	if entry, ok := c.db.Lookup(domain); ok {
		return knownFinding(rawURL, domain, isThirdParty, source, entry)
	}
	return heuristicFinding(rawURL, domain, isThirdParty, source)
}

// ClassifyMany classifies every distinct URL once. Duplicates (by raw string)
// keep their first occurrence and empty strings are skipped. The result is
// ordered High, Low, None, then by descending prevalence, then by URL.
func (c *Classifier) ClassifyMany(urls []string, pageHost, source string) []model.Finding {
	seen := make(map[string]struct{}, len(urls))
	findings := make([]model.Finding, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		findings = append(findings, c.Classify(u, pageHost, source))
	}
	model.SortFindings(findings)
	return findings
}

func knownFinding(rawURL, domain string, isThirdParty bool, source string, entry trackerdb.KnownTracker) model.Finding {
	category, _ := model.ParseCategory(entry.Category)

	owner := entry.Owner
	if owner == "" {
		owner = model.UnknownOwner
	}
	purpose := entry.Purpose
	if purpose == "" {
		purpose = category.DefaultPurpose()
	}

	return model.Finding{
		URL:          rawURL,
		Domain:       domain,
		IsThirdParty: isThirdParty,
		Owner:        owner,
		Category:     category,
		Risk:         model.RiskFor(category),
		Purpose:      purpose,
		Rationale:    knownRationale(owner, category, isThirdParty, entry.Prevalence),
		Prevalence:   entry.Prevalence,
		Source:       source,
	}
}

func knownRationale(owner string, category model.Category, isThirdParty bool, prevalence float64) string {
	parts := []string{
		"Known tracker from " + owner,
		"Category: " + category.String(),
	}
	if isThirdParty {
		parts = append(parts, "Runs on another company's domain")
	}
	if prevalence >= commonTrackerPrevalence {
		parts = append(parts, "Very common tracker seen on many sites")
	}
	return strings.Join(parts, ". ")
}

func heuristicFinding(rawURL, domain string, isThirdParty bool, source string) model.Finding {
	f := model.Finding{
		URL:          rawURL,
		Domain:       domain,
		IsThirdParty: isThirdParty,
		Owner:        model.UnknownOwner,
		Source:       source,
	}

	if !hasTrackingMarker(rawURL) {
		if isThirdParty {
			f.Category = model.CategoryAnalytics
			f.Purpose = "Looks like a third-party helper script."
			f.Rationale = "No known tracker match, but runs from another domain."
		} else {
			f.Category = model.CategoryUtility
			f.Purpose = "Looks like a site helper script."
			f.Rationale = "No known tracker match; appears first-party."
		}
		f.Risk = model.RiskFor(f.Category)
		return f
	}

	f.Purpose = "Possible tracking or analytics based on the URL path."
	if isThirdParty {
		f.Category = model.CategoryBehavior
		f.Rationale = "No known tracker match. Suspicious tracking terms in a third-party script URL."
	} else {
		// Tracking terms on the site's own domain are reported as Analytics
		// so that the risk stays Low and still follows the category table.
		f.Category = model.CategoryAnalytics
		f.Rationale = "No known tracker match. Suspicious tracking terms in a site script URL."
	}
	f.Risk = model.RiskFor(f.Category)
	return f
}

func hasTrackingMarker(rawURL string) bool {
	lc := strings.ToLower(rawURL)
	for _, marker := range heuristicMarkers {
		if strings.Contains(lc, marker) {
			return true
		}
	}
	return false
}

// hostname returns the lowercased hostname of rawURL, or empty when the
// string is not an absolute URL.
func hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
