package capture

import (
	"net/url"
	"slices"
	"strings"

	"github.com/nao1215/privacylens/internal/controller"
	"github.com/nao1215/privacylens/internal/session"
)

// commonPolicyPaths are the paths sites usually serve their privacy policy
// from. A navigation to one of them on the monitored host counts as a found
// policy even when no link to it was captured.
var commonPolicyPaths = []string{
	"/privacy",
	"/privacy-policy",
	"/privacy-policy.html",
	"/privacy.html",
	"/privacy-policy.php",
	"/privacy.php",
	"/privacy-statement",
	"/privacy-notice",
	"/legal/privacy",
	"/legal/privacy-policy",
	"/terms/privacy",
	"/policies/privacy",
}

// recordTypeSubFrame is the resource type of a frame navigation.
const recordTypeSubFrame = "sub_frame"

// IsCommonPolicyPath reports whether path is one of the well-known privacy
// policy paths. Case and a trailing slash are ignored.
func IsCommonPolicyPath(path string) bool {
	path = strings.ToLower(path)
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return slices.Contains(commonPolicyPaths, path)
}

// policyFromRequest returns the policy link implied by a navigation to a
// common policy path on the monitored host.
func (r *Reader) policyFromRequest(ev controller.RequestEvent) (controller.PolicyLinkEvent, bool) {
	if ev.Type != recordTypeMainFrame && ev.Type != recordTypeSubFrame {
		return controller.PolicyLinkEvent{}, false
	}
	u, err := url.Parse(ev.URL)
	if err != nil || !IsCommonPolicyPath(u.Path) {
		return controller.PolicyLinkEvent{}, false
	}
	pageHost := session.Hostname(r.pageURL)
	if pageHost == "" || pageHost != strings.ToLower(u.Hostname()) {
		return controller.PolicyLinkEvent{}, false
	}
	return controller.PolicyLinkEvent{URL: ev.URL}, true
}
