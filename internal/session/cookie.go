package session

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/privacylens/internal/model"
)

// DefaultSameSite is recorded when a cookie carries no SameSite attribute.
const DefaultSameSite = "None"

// maxCookieAge caps Max-Age the way browsers cap cookie lifetimes (400
// days). Larger values would overflow time.Duration.
const maxCookieAge = 400 * 24 * 60 * 60

// trackingCookieKeywords mark a cookie as tracking when its lowercased name
// contains any of them.
var trackingCookieKeywords = []string{
	"_ga",
	"_gid",
	"_gat",
	"_fbp",
	"_fbc",
	"utm_",
	"tracking",
	"analytics",
	"ad",
	"ads",
	"cluid",
	"ajs_",
	"amplitude",
	"sessionid",
	"cid",
	"uid",
}

// cookieDateLayouts are tried in order when parsing the Expires attribute,
// after the layouts accepted by http.ParseTime.
var cookieDateLayouts = []string{
	"Mon, 02-Jan-2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"Monday, 02-Jan-06 15:04:05 MST",
}

// IsTrackingCookie reports whether name matches a tracking cookie keyword.
func IsTrackingCookie(name string) bool {
	lc := strings.ToLower(name)
	for _, keyword := range trackingCookieKeywords {
		if strings.Contains(lc, keyword) {
			return true
		}
	}
	return false
}

// CookieKey returns the identity of a cookie: lowercased domain, path
// (default "/") and name, joined by "|".
func CookieKey(c model.Cookie) string {
	path := c.Path
	if path == "" {
		path = "/"
	}
	return strings.ToLower(c.Domain) + "|" + path + "|" + c.Name
}

// ParseSetCookie parses a Set-Cookie style string such as
// "id=abc; Domain=example.com; Path=/; Secure; HttpOnly; SameSite=Lax".
//
// The first segment must be name=value. Recognized attributes are Domain,
// Path, Secure, HttpOnly, SameSite, Expires and Max-Age; anything else is
// ignored. Path defaults to "/" and SameSite to "None". When both Expires
// and Max-Age are present, Max-Age wins. now is used to resolve Max-Age.
func ParseSetCookie(s string, now time.Time) (model.Cookie, error) {
	parts := strings.Split(s, ";")
	name, value, ok := strings.Cut(parts[0], "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return model.Cookie{}, fmt.Errorf("%w: first segment is not name=value", ErrMalformedCookie)
	}

	c := model.Cookie{
		Name:     name,
		Value:    strings.TrimSpace(value),
		Path:     "/",
		SameSite: DefaultSameSite,
	}

	var maxAge *time.Time
	for _, part := range parts[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(part), "=")
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		switch key {
		case "domain":
			c.Domain = val
		case "path":
			if val != "" {
				c.Path = val
			}
		case "secure":
			c.Secure = true
		case "httponly":
			c.HTTPOnly = true
		case "samesite":
			if val != "" {
				c.SameSite = canonicalSameSite(val)
			}
		case "expires":
			if t, ok := parseCookieDate(val); ok {
				c.Expires = &t
			}
		case "max-age":
			secs, err := strconv.Atoi(val)
			if err != nil {
				continue
			}
			secs = min(secs, maxCookieAge)
			t := now.Add(time.Duration(secs) * time.Second)
			if secs <= 0 {
				t = time.Unix(0, 0).UTC()
			}
			maxAge = &t
		}
	}
	if maxAge != nil {
		c.Expires = maxAge
	}
	return c, nil
}

// canonicalSameSite returns the SameSite value in its canonical spelling
// ("Lax", "Strict", "None"). A Caser is stateful, so one is created per call.
func canonicalSameSite(val string) string {
	return cases.Title(language.Und).String(strings.ToLower(val))
}

func parseCookieDate(val string) (time.Time, bool) {
	if val == "" {
		return time.Time{}, false
	}
	if t, err := http.ParseTime(val); err == nil {
		return t.UTC(), true
	}
	for _, layout := range cookieDateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// AddCookie records a cookie. A cookie whose key was already seen is
// ignored. The cookie is first-party when its domain equals the session
// hostname or the hostname with a leading dot; every other domain is
// third-party.
func (s *Session) AddCookie(c model.Cookie) {
	if c.Name == "" {
		s.logger.Debug("dropping cookie without a name", "domain", c.Domain)
		return
	}
	if c.Path == "" {
		c.Path = "/"
	}
	if c.SameSite == "" {
		c.SameSite = DefaultSameSite
	}

	key := CookieKey(c)
	if _, seen := s.seenCookies[key]; seen {
		return
	}
	s.seenCookies[key] = struct{}{}

	domain := strings.ToLower(c.Domain)
	c.IsThirdParty = domain != s.hostname && domain != "."+s.hostname
	c.IsTracking = IsTrackingCookie(c.Name)
	c.IsSession = c.Expires == nil

	if c.IsThirdParty {
		s.cookies.ThirdParty = append(s.cookies.ThirdParty, c)
	} else {
		s.cookies.FirstParty = append(s.cookies.FirstParty, c)
	}
	if c.IsTracking {
		s.cookies.Tracking = append(s.cookies.Tracking, c)
	}
	if c.IsSession {
		s.cookies.Session = append(s.cookies.Session, c)
	}
}

// AddCookieString parses a Set-Cookie string and records the cookie.
// defaultDomain is used when the string has no Domain attribute, which is
// normally the host that set the cookie. Malformed strings are logged and
// dropped; the return value reports whether a cookie was parsed.
func (s *Session) AddCookieString(setCookie, defaultDomain string) bool {
	c, err := ParseSetCookie(setCookie, s.now())
	if err != nil {
		s.logger.Debug("dropping malformed cookie", "error", err)
		return false
	}
	if c.Domain == "" {
		c.Domain = defaultDomain
	}
	s.AddCookie(c)
	return true
}
