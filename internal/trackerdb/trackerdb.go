package trackerdb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// KnownTracker is one knowledge base entry.
type KnownTracker struct {
	// Domain is the key the entry was found under. It is not serialized
	// because the table is keyed by domain.
	Domain string `json:"-"`

	// Owner is the company operating the domain.
	Owner string `json:"owner"`

	// Category is the raw category name. Names the classifier does not
	// recognize are treated as Analytics.
	Category string `json:"category"`

	// Purpose describes what the tracker does. May be empty.
	Purpose string `json:"purpose,omitempty"`

	// Prevalence is the fraction of sites the tracker appears on.
	Prevalence float64 `json:"prevalence"`
}

// DB is an immutable tracker knowledge base.
// It is safe for concurrent use because it is never modified after creation.
type DB struct {
	entries map[string]KnownTracker
}

// New creates a knowledge base from a domain-keyed table.
// Domains are lowercased; the input map is copied.
func New(table map[string]KnownTracker) (*DB, error) {
	if len(table) == 0 {
		return nil, ErrEmptyTable
	}
	entries := make(map[string]KnownTracker, len(table))
	for domain, entry := range table {
		key := normalizeDomain(domain)
		if key == "" {
			continue
		}
		entry.Domain = key
		entries[key] = entry
	}
	if len(entries) == 0 {
		return nil, ErrEmptyTable
	}
	return &DB{entries: entries}, nil
}

// Load decodes a JSON tracker table of the form
// {"domain": {"owner": ..., "category": ..., "purpose": ..., "prevalence": ...}}.
func Load(r io.Reader) (*DB, error) {
	var table map[string]KnownTracker
	if err := json.NewDecoder(r).Decode(&table); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	return New(table)
}

// LoadFile loads a tracker table from path. An empty or missing table falls
// back to the embedded seed so the knowledge base is never empty; the
// returned error still reports why the file was not used.
func LoadFile(path string) (*DB, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return Default(), fmt.Errorf("failed to open tracker table: %w", err)
	}
	defer f.Close() //nolint:errcheck

	db, err := Load(f)
	if err != nil {
		return Default(), err
	}
	return db, nil
}

// Lookup finds the entry for domain.
//
// The exact (lowercased) domain is tried first. Otherwise leftmost labels are
// stripped one at a time and the remainder is tried, stopping before the
// remainder becomes a public suffix.
func (db *DB) Lookup(domain string) (KnownTracker, bool) {
	if db == nil {
		return KnownTracker{}, false
	}
	d := normalizeDomain(domain)
	if d == "" {
		return KnownTracker{}, false
	}
	if entry, ok := db.entries[d]; ok {
		return entry, true
	}

	labels := strings.Split(d, ".")
	for i := 1; i <= len(labels)-2; i++ {
		candidate := strings.Join(labels[i:], ".")
		if isPublicSuffix(candidate) {
			break
		}
		if entry, ok := db.entries[candidate]; ok {
			return entry, true
		}
	}
	return KnownTracker{}, false
}

// Len returns the number of entries.
func (db *DB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.entries)
}

// Domains returns all domains in sorted order.
func (db *DB) Domains() []string {
	if db == nil {
		return nil
	}
	domains := make([]string, 0, len(db.entries))
	for d := range db.entries {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

// WriteJSON writes the table in the format accepted by Load.
func (db *DB) WriteJSON(w io.Writer) error {
	table := make(map[string]KnownTracker, db.Len())
	if db != nil {
		for d, e := range db.entries {
			table[d] = e
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(table)
}

func normalizeDomain(domain string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
}

// isPublicSuffix reports whether domain is itself a public suffix
// (for example "com" or "co.uk") according to the public suffix list.
func isPublicSuffix(domain string) bool {
	suffix, _ := publicsuffix.PublicSuffix(domain)
	return suffix == domain
}
