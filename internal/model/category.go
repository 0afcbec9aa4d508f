package model

import (
	"fmt"
	"strings"
)

// Category classifies what an observed script or request is used for.
type Category int

const (
	// CategoryAds covers advertising networks and ad targeting.
	CategoryAds Category = iota
	// CategoryAnalytics covers visit measurement and usage statistics.
	CategoryAnalytics
	// CategorySocial covers social widgets, share buttons and social logins.
	CategorySocial
	// CategoryFingerprinting covers device and browser fingerprinting.
	CategoryFingerprinting
	// CategoryBehavior covers session replay, heatmaps and click recording.
	CategoryBehavior
	// CategoryCDN covers asset delivery infrastructure.
	CategoryCDN
	// CategoryUtility covers first-party helper scripts.
	CategoryUtility
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryAds,
	CategoryAnalytics,
	CategorySocial,
	CategoryFingerprinting,
	CategoryBehavior,
	CategoryCDN,
	CategoryUtility,
}

// categoryInfo holds the display name and fallback purpose of each category.
//
// Design decision: A single table keeps the name and the purpose text used by
// the classifier in one place, the same way severities keep their impact text
// next to the level.
var categoryInfo = map[Category]struct {
	name    string
	purpose string
}{
	CategoryAds:            {"Ads", "Shows ads and profiles what you view for targeting."},
	CategoryAnalytics:      {"Analytics", "Measures visits and usage patterns."},
	CategorySocial:         {"Social", "Tracks visits for social widgets or logins."},
	CategoryFingerprinting: {"Fingerprinting", "Tries to identify your device or browser uniquely."},
	CategoryBehavior:       {"Behavior", "Records on-page behavior like clicks or mouse movement."},
	CategoryCDN:            {"CDN", "Delivers assets; typically infrastructure-only."},
	CategoryUtility:        {"Utility", "Site helper scripts with low tracking impact."},
}

// String returns the category name.
func (c Category) String() string {
	if info, ok := categoryInfo[c]; ok {
		return info.name
	}
	return "Unknown"
}

// DefaultPurpose returns the purpose text used when a tracker entry has none.
func (c Category) DefaultPurpose() string {
	if info, ok := categoryInfo[c]; ok {
		return info.purpose
	}
	return categoryInfo[CategoryAnalytics].purpose
}

// Risk returns the risk assigned to the category.
func (c Category) Risk() Risk {
	return RiskFor(c)
}

// ParseCategory converts a category name (case-insensitive) into a Category.
// The boolean is false when the name is not recognized.
func ParseCategory(s string) (Category, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if strings.ToLower(categoryInfo[c].name) == name {
			return c, true
		}
	}
	return CategoryAnalytics, false
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, ok := ParseCategory(string(text))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, string(text))
	}
	*c = parsed
	return nil
}
