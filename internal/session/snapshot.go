package session

import (
	"slices"

	"github.com/nao1215/privacylens/internal/model"
)

// Snapshot returns a copy of the session's observations. The copy shares no
// slices with the session, so later Add calls do not change it. Script
// details are ordered High, Low, None as produced by the classifier.
func (s *Session) Snapshot() *model.Snapshot {
	scripts := slices.Clone(s.scripts)
	model.SortFindings(scripts)
	scriptCount := s.ScriptCount()
	totalCookies := len(s.cookies.FirstParty) + len(s.cookies.ThirdParty)

	return &model.Snapshot{
		URL:       s.url,
		Hostname:  s.hostname,
		SessionID: s.id,
		Summary: model.Summary{
			TotalCookies:       totalCookies,
			ThirdPartyCookies:  len(s.cookies.ThirdParty),
			TrackingCookies:    len(s.cookies.Tracking),
			TrackingScripts:    scriptCount,
			ThirdPartyRequests: len(s.requests.ThirdParty),
			TrackingRequests:   len(s.requests.Tracking),
			PrivacyPolicyFound: s.policy.Found,
		},
		Cookies: model.CookieBuckets{
			Total:      totalCookies,
			FirstParty: cloneOrEmpty(s.cookies.FirstParty),
			ThirdParty: cloneOrEmpty(s.cookies.ThirdParty),
			Tracking:   cloneOrEmpty(s.cookies.Tracking),
			Session:    cloneOrEmpty(s.cookies.Session),
		},
		Tracking: model.TrackingDetails{
			Scripts:       scriptCount,
			Requests:      len(s.requests.Tracking),
			ScriptDetails: cloneOrEmpty(scripts),
		},
		Requests: model.RequestBuckets{
			ThirdParty:  cloneOrEmpty(s.requests.ThirdParty),
			Tracking:    cloneOrEmpty(s.requests.Tracking),
			DataBrokers: cloneOrEmpty(s.requests.DataBrokers),
		},
		PrivacyPolicy: s.policy,
		CapturedAt:    s.now(),
	}
}

// Restore creates a session from a stored snapshot. The snapshot's shape is
// trusted as-is; deduplication indexes are rebuilt from its contents so that
// further Add calls stay idempotent.
func Restore(snap *model.Snapshot, opts ...Option) (*Session, error) {
	if snap == nil {
		return nil, ErrInvalidSiteURL
	}
	if snap.SessionID != "" {
		opts = append([]Option{WithID(snap.SessionID)}, opts...)
	}
	s, err := New(snap.URL, opts...)
	if err != nil {
		return nil, err
	}
	if snap.Hostname != "" {
		s.hostname = snap.Hostname
	}

	s.cookies = model.CookieBuckets{
		FirstParty: slices.Clone(snap.Cookies.FirstParty),
		ThirdParty: slices.Clone(snap.Cookies.ThirdParty),
		Tracking:   slices.Clone(snap.Cookies.Tracking),
		Session:    slices.Clone(snap.Cookies.Session),
	}
	for _, bucket := range [][]model.Cookie{snap.Cookies.FirstParty, snap.Cookies.ThirdParty} {
		for _, c := range bucket {
			s.seenCookies[CookieKey(c)] = struct{}{}
		}
	}

	for _, f := range snap.Tracking.ScriptDetails {
		if f.URL == "" {
			continue
		}
		s.addScript(f, NormalizeURLKey(f.URL))
	}

	s.requests = model.RequestBuckets{
		ThirdParty:  slices.Clone(snap.Requests.ThirdParty),
		Tracking:    slices.Clone(snap.Requests.Tracking),
		DataBrokers: slices.Clone(snap.Requests.DataBrokers),
	}
	index := func(reqs []model.NetworkRequest, mark func(*model.NetworkRequest)) {
		for _, r := range reqs {
			key := r.Key
			if key == "" {
				key = NormalizeURLKey(r.URL)
			}
			existing, ok := s.seenRequests[key]
			if !ok {
				copied := r
				copied.IsTracking = false
				copied.IsDataBroker = false
				existing = &copied
				s.seenRequests[key] = existing
			}
			mark(existing)
		}
	}
	index(snap.Requests.ThirdParty, func(*model.NetworkRequest) {})
	index(snap.Requests.Tracking, func(r *model.NetworkRequest) { r.IsTracking = true })
	index(snap.Requests.DataBrokers, func(r *model.NetworkRequest) { r.IsDataBroker = true })

	s.policy = snap.PrivacyPolicy
	return s, nil
}

// cloneOrEmpty copies src and returns an empty, non-nil slice for no
// elements, so snapshots encode empty buckets as [] rather than null.
func cloneOrEmpty[T any](src []T) []T {
	dst := make([]T, len(src))
	copy(dst, src)
	return dst
}
