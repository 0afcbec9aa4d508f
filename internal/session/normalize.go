package session

import (
	"net/url"
	"strings"
)

// cacheBusters are query parameters that only defeat caching. They are
// dropped from URL keys so that "?v=1" and "?v=2" count as one resource.
var cacheBusters = map[string]struct{}{
	"_":          {},
	"cb":         {},
	"cache":      {},
	"cachebust":  {},
	"cache_bust": {},
	"ts":         {},
	"t":          {},
	"v":          {},
	"rnd":        {},
	"rand":       {},
	"nocache":    {},
	"_dc":        {},
	"_cb":        {},
	"_ts":        {},
}

// IsCacheBuster reports whether the query parameter name is a cache-buster.
// The comparison is case-insensitive.
func IsCacheBuster(name string) bool {
	_, ok := cacheBusters[strings.ToLower(name)]
	return ok
}

// NormalizeURLKey returns the deduplication key for a script or request URL:
// the lowercased host, the path with trailing slashes collapsed, and the
// remaining query parameters in their original order. Cache-busting
// parameters are removed. A string that is not an absolute URL is returned
// unchanged.
func NormalizeURLKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	var b strings.Builder
	b.WriteString(strings.ToLower(u.Hostname()))
	b.WriteString(normalizePath(u.EscapedPath()))

	first := true
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		if IsCacheBuster(key) {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			value = rawValue
		}
		if first {
			b.WriteByte('?')
			first = false
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	return b.String()
}

// HostKey returns the coarse key used to merge findings reported by
// different sources: the lowercased host and the source name. Different
// resource paths on the same host share a key. Source defaults to "Script".
func HostKey(rawURL, source string) string {
	if source == "" {
		source = "Script"
	}
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = strings.ToLower(u.Hostname())
	}
	return host + "::" + source
}

// Hostname returns the lowercased hostname of rawURL, or empty.
func Hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	trimmed := strings.TrimRight(p, "/")
	if trimmed == p {
		return p
	}
	return trimmed + "/"
}
