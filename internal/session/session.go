package session

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/privacylens/internal/model"
)

// Session holds the aggregated observations for one monitored site.
//
// The URL and hostname are fixed at creation. All buckets only grow, and
// each distinct normalized identity enters a bucket at most once.
type Session struct {
	id       string
	url      string
	hostname string

	cookies  model.CookieBuckets
	scripts  []model.Finding
	requests model.RequestBuckets
	policy   model.PrivacyPolicy

	// Deduplication indexes. They are not part of any snapshot.
	seenCookies     map[string]struct{}
	seenScriptURLs  map[string]struct{}
	seenScriptHosts map[string]struct{}
	seenRequests    map[string]*model.NetworkRequest

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used to report dropped input.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithClock sets the time source. It is used for timestamps and Max-Age.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithID sets the session ID instead of generating a random one.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// New creates an empty session for the site at siteURL.
func New(siteURL string, opts ...Option) (*Session, error) {
	u, err := url.Parse(strings.TrimSpace(siteURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSiteURL, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSiteURL, siteURL)
	}

	s := &Session{
		url:             siteURL,
		hostname:        strings.ToLower(u.Hostname()),
		seenCookies:     make(map[string]struct{}),
		seenScriptURLs:  make(map[string]struct{}),
		seenScriptHosts: make(map[string]struct{}),
		seenRequests:    make(map[string]*model.NetworkRequest),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// URL returns the monitored site URL.
func (s *Session) URL() string { return s.url }

// Hostname returns the lowercased hostname of the monitored site.
func (s *Session) Hostname() string { return s.hostname }

// SetPrivacyPolicy marks the privacy policy as found. summary may be empty.
// A later call replaces the earlier policy.
func (s *Session) SetPrivacyPolicy(policyURL, summary string) {
	s.policy = model.PrivacyPolicy{
		Found:     true,
		URL:       policyURL,
		Summary:   summary,
		Timestamp: s.now(),
	}
}

// PolicyFound reports whether a privacy policy was recorded.
func (s *Session) PolicyFound() bool {
	return s.policy.Found
}

// ScriptCount returns the number of distinct script URLs in the findings.
func (s *Session) ScriptCount() int {
	seen := make(map[string]struct{}, len(s.scripts))
	for _, f := range s.scripts {
		if f.URL == "" {
			continue
		}
		seen[f.URL] = struct{}{}
	}
	return len(seen)
}
