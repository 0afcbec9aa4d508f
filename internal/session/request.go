package session

import (
	"strings"

	"github.com/nao1215/privacylens/internal/model"
)

// trackingRequestKeywords mark a request as tracking when the lowercased
// URL contains any of them.
var trackingRequestKeywords = []string{"track", "analytics", "pixel", "beacon", "collect", "log", "event"}

// dataBrokerDomains are companies that trade in personal data.
var dataBrokerDomains = []string{
	"acxiom.com",
	"equifax.com",
	"experian.com",
	"transunion.com",
	"oracle.com",
	"salesforce.com",
}

// IsTrackingRequest reports whether the request URL looks like tracking.
func IsTrackingRequest(rawURL string) bool {
	lc := strings.ToLower(rawURL)
	for _, keyword := range trackingRequestKeywords {
		if strings.Contains(lc, keyword) {
			return true
		}
	}
	return false
}

// IsDataBroker reports whether the request goes to a known data broker
// domain or one of its subdomains.
func IsDataBroker(rawURL string) bool {
	host := Hostname(rawURL)
	if host == "" {
		return false
	}
	for _, d := range dataBrokerDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// AddNetworkRequest records a network request.
//
// On the first sighting of a normalized URL the request is placed in the
// third-party, tracking and data broker buckets that apply. A later
// sighting never adds a second entry to a bucket, but it may add the
// request to the tracking or data broker bucket when it was missing there.
func (s *Session) AddNetworkRequest(rawURL string, isThirdParty bool) {
	if strings.TrimSpace(rawURL) == "" {
		s.logger.Debug("dropping request without URL")
		return
	}
	if Hostname(rawURL) == "" {
		s.logger.Debug("dropping request with unparsable URL", "url", rawURL)
		return
	}

	key := NormalizeURLKey(rawURL)
	tracking := IsTrackingRequest(rawURL)
	broker := IsDataBroker(rawURL)

	if existing, seen := s.seenRequests[key]; seen {
		if tracking && !existing.IsTracking {
			existing.IsTracking = true
			s.requests.Tracking = append(s.requests.Tracking, s.newRequest(rawURL, key, isThirdParty, true, broker))
		}
		if broker && !existing.IsDataBroker {
			existing.IsDataBroker = true
			s.requests.DataBrokers = append(s.requests.DataBrokers, s.newRequest(rawURL, key, isThirdParty, tracking, true))
		}
		return
	}

	req := s.newRequest(rawURL, key, isThirdParty, tracking, broker)
	s.seenRequests[key] = &req

	if isThirdParty {
		s.requests.ThirdParty = append(s.requests.ThirdParty, req)
	}
	if tracking {
		s.requests.Tracking = append(s.requests.Tracking, req)
	}
	if broker {
		s.requests.DataBrokers = append(s.requests.DataBrokers, req)
	}
}

func (s *Session) newRequest(rawURL, key string, isThirdParty, tracking, broker bool) model.NetworkRequest {
	return model.NetworkRequest{
		URL:          rawURL,
		Key:          key,
		IsThirdParty: isThirdParty,
		IsTracking:   tracking,
		IsDataBroker: broker,
		FirstSeen:    s.now(),
	}
}
