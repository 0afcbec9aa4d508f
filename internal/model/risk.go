package model

import (
	"fmt"
	"strings"
)

// Risk represents how much an observed element threatens the visitor's privacy.
//
// Design decision: The iota order matches the ordering used when presenting
// findings (High first, None last), so comparing two risks by their integer
// value gives the display order directly.
type Risk int

const (
	// RiskHigh is assigned to advertising, fingerprinting and behavior recording.
	RiskHigh Risk = iota
	// RiskLow is assigned to analytics and social widgets.
	RiskLow
	// RiskNone is assigned to infrastructure such as CDNs and site helpers.
	RiskNone
)

// String returns the human-readable risk name.
func (r Risk) String() string {
	switch r {
	case RiskHigh:
		return "High"
	case RiskLow:
		return "Low"
	case RiskNone:
		return "None"
	default:
		return "Unknown"
	}
}

// Rank returns the position of the risk in the display order (High=0).
func (r Risk) Rank() int {
	if r < RiskHigh || r > RiskNone {
		return int(RiskNone) + 1
	}
	return int(r)
}

// ParseRisk converts a risk name (case-insensitive) into a Risk.
func ParseRisk(s string) (Risk, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return RiskHigh, nil
	case "low":
		return RiskLow, nil
	case "none":
		return RiskNone, nil
	default:
		return RiskNone, fmt.Errorf("%w: %q", ErrUnknownRisk, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Risk) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Risk) UnmarshalText(text []byte) error {
	parsed, err := ParseRisk(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RiskFor returns the fixed risk assigned to a category.
// The table is total: every known category maps to exactly one risk, and an
// out-of-range value is treated like Analytics.
func RiskFor(c Category) Risk {
	switch c {
	case CategoryFingerprinting, CategoryAds, CategoryBehavior:
		return RiskHigh
	case CategorySocial, CategoryAnalytics:
		return RiskLow
	case CategoryCDN, CategoryUtility:
		return RiskNone
	default:
		return RiskLow
	}
}
