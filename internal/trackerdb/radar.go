package trackerdb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// DefaultRadarPrevalence is used when a Tracker Radar entity has no prevalence.
const DefaultRadarPrevalence = 0.2

// RadarDomain is one entry of Tracker Radar's domain_map.json.
type RadarDomain struct {
	EntityName string `json:"entityName"`
}

// RadarEntity is one entry of Tracker Radar's entity_map.json.
type RadarEntity struct {
	Categories []string `json:"categories"`
	Prevalence *float64 `json:"prevalence"`
}

// radarCategories maps Tracker Radar categories onto the coarse categories
// used by the knowledge base.
var radarCategories = map[string]string{
	"Advertising":    "Ads",
	"Analytics":      "Analytics",
	"Social Network": "Social",
	"CDN":            "CDN",
	"Content":        "CDN",
	"Unknown":        "Analytics",
	"Other":          "Analytics",
}

// radarCategory returns the first mapped category, or Analytics.
func radarCategory(raw []string) string {
	for _, c := range raw {
		if mapped, ok := radarCategories[c]; ok {
			return mapped
		}
	}
	return "Analytics"
}

func radarPurpose(category string) string {
	switch category {
	case "Ads":
		return "Serves ads or measures ad clicks and conversions."
	case "Analytics":
		return "Measures visits and usage patterns."
	case "Social":
		return "Social widgets or login that can track visits."
	case "Fingerprinting":
		return "Identifies devices or browsers to track users."
	case "CDN":
		return "Delivers assets; typically infrastructure-only."
	default:
		return "Third-party script."
	}
}

// BuildFromRadar converts Tracker Radar domain and entity maps into a tracker
// table. Domains whose entity is missing are kept with owner "Unknown" and the
// default category.
func BuildFromRadar(domains map[string]RadarDomain, entities map[string]RadarEntity) map[string]KnownTracker {
	table := make(map[string]KnownTracker, len(domains))
	for domain, info := range domains {
		owner := info.EntityName
		if owner == "" {
			owner = "Unknown"
		}
		entity := entities[owner]
		category := radarCategory(entity.Categories)
		prevalence := DefaultRadarPrevalence
		if entity.Prevalence != nil {
			prevalence = *entity.Prevalence
		}
		table[domain] = KnownTracker{
			Owner:      owner,
			Category:   category,
			Purpose:    radarPurpose(category),
			Prevalence: prevalence,
		}
	}
	return table
}

// Refresh builds a knowledge base from Tracker Radar maps. When the maps
// produce no entries the embedded seed is returned together with
// ErrEmptyTable, so callers always get a usable knowledge base.
func Refresh(domains map[string]RadarDomain, entities map[string]RadarEntity) (*DB, error) {
	db, err := New(BuildFromRadar(domains, entities))
	if err != nil {
		return Default(), err
	}
	return db, nil
}

// ReadRadarMaps reads domain_map.json and entity_map.json from disk.
func ReadRadarMaps(domainMapPath, entityMapPath string) (map[string]RadarDomain, map[string]RadarEntity, error) {
	var domains map[string]RadarDomain
	if err := decodeFile(domainMapPath, &domains); err != nil {
		return nil, nil, err
	}
	var entities map[string]RadarEntity
	if err := decodeFile(entityMapPath, &entities); err != nil {
		return nil, nil, err
	}
	return domains, entities, nil
}

func decodeFile(path string, v any) error {
	f, err := os.Open(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck
	return decode(f, v)
}

func decode(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	return nil
}
