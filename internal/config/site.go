package config

import (
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/nao1215/privacylens/internal/score"
)

// SiteConfig holds the overrides for one monitored host.
type SiteConfig struct {
	// IgnorePatterns are glob patterns for URLs whose observations are
	// dropped, such as the site's own monitoring endpoints. A pattern
	// without "/" is matched against the host ("*.example-cdn.com"); one
	// with "/" is matched against host and path ("example.com/health/*").
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// PolicyURL is the known privacy policy of the site. It is recorded even
	// when the capture contains no policy link.
	PolicyURL string `yaml:"policyUrl,omitempty"`

	// PolicySummary is an optional short description of the policy.
	PolicySummary string `yaml:"policySummary,omitempty"`
}

// File represents the structure of the configuration file.
type File struct {
	// Sites maps hostnames to their overrides. Keys are hostnames without
	// scheme ("example.com"); "www." is ignored when matching.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless a site overrides them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Debounce overrides the rescoring quiet period ("500ms").
	Debounce time.Duration `yaml:"debounce,omitempty"`

	// Trackers is the path of a tracker table JSON file.
	Trackers string `yaml:"trackers,omitempty"`

	// Scoring overrides the scoring bands. All tables must be given.
	Scoring *score.Bands `yaml:"scoring,omitempty"`
}

// GetSiteConfig returns the configuration for host merged over the defaults.
// A nil File returns an empty configuration.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}
	result := cf.Defaults

	host = strings.ToLower(host)
	site, ok := cf.Sites[host]
	if !ok {
		site, ok = cf.Sites[strings.TrimPrefix(host, "www.")]
	}
	if !ok {
		site, ok = cf.Sites["www."+host]
	}
	if !ok {
		return result
	}

	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if site.PolicyURL != "" {
		result.PolicyURL = site.PolicyURL
		result.PolicySummary = site.PolicySummary
	}
	return result
}

// Ignores reports whether rawURL matches one of the ignore patterns.
// Invalid patterns never match.
func (sc SiteConfig) Ignores(rawURL string) bool {
	if len(sc.IgnorePatterns) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	hostPath := host + u.EscapedPath()

	for _, pattern := range sc.IgnorePatterns {
		target := host
		if strings.Contains(pattern, "/") {
			target = hostPath
		}
		if ok, err := path.Match(strings.ToLower(pattern), target); err == nil && ok {
			return true
		}
	}
	return false
}
