package controller

import (
	"github.com/nao1215/privacylens/internal/model"
	"github.com/nao1215/privacylens/internal/session"
)

// Sources recorded on findings.
const (
	sourceScript  = "Script"
	sourceNetwork = "Network"
)

// resourceTypeScript is the request type reported for script loads.
const resourceTypeScript = "script"

// apply routes ev to the live session and reports whether it changed
// anything. c.mu must be held and a session must be live.
func (c *Controller) apply(ev Event) bool {
	switch e := ev.(type) {
	case CookieEvent:
		return c.applyCookies(e)
	case *CookieEvent:
		return e != nil && c.applyCookies(*e)
	case ScriptEvent:
		return c.applyScripts(e)
	case *ScriptEvent:
		return e != nil && c.applyScripts(*e)
	case RequestEvent:
		return c.applyRequest(e)
	case *RequestEvent:
		return e != nil && c.applyRequest(*e)
	case PolicyLinkEvent:
		return c.applyPolicy(e)
	case *PolicyLinkEvent:
		return e != nil && c.applyPolicy(*e)
	default:
		c.logger.Debug("ignoring unknown event", "kind", ev.Kind())
		return false
	}
}

func (c *Controller) applyCookies(e CookieEvent) bool {
	defaultDomain := session.Hostname(e.URL)
	if defaultDomain == "" {
		defaultDomain = c.sess.Hostname()
	}

	changed := false
	for _, raw := range e.Raw {
		if c.sess.AddCookieString(raw, defaultDomain) {
			changed = true
		}
	}
	for _, ck := range e.Cookies {
		if ck.Name == "" {
			continue
		}
		c.sess.AddCookie(ck)
		changed = true
	}
	return changed
}

func (c *Controller) applyScripts(e ScriptEvent) bool {
	bySource := make(map[string][]string)
	order := make([]string, 0, 1)
	for _, ref := range e.Scripts {
		if ref.URL == "" {
			continue
		}
		if session.Hostname(ref.URL) == "" {
			c.logger.Debug("dropping script with unparsable URL", "url", ref.URL)
			continue
		}
		src := ref.Source
		if src == "" {
			src = sourceScript
		}
		if _, ok := bySource[src]; !ok {
			order = append(order, src)
		}
		bySource[src] = append(bySource[src], ref.URL)
	}

	changed := false
	for _, src := range order {
		findings := c.classifier.ClassifyMany(bySource[src], c.sess.Hostname(), src)
		if len(findings) == 0 {
			continue
		}
		c.sess.MergeFindings(findings)
		changed = true
	}
	return changed
}

// applyRequest records tracking script loads as script findings, and
// third-party or tracking requests as network requests whose classification
// is merged into the script details by host.
func (c *Controller) applyRequest(e RequestEvent) bool {
	if e.URL == "" {
		return false
	}
	if session.Hostname(e.URL) == "" {
		c.logger.Debug("dropping request with unparsable URL", "url", e.URL, "type", e.Type)
		return false
	}
	host := c.sess.Hostname()
	changed := false

	if e.Type == resourceTypeScript && e.IsTracking {
		c.sess.AddScriptFindings([]model.Finding{c.classifier.Classify(e.URL, host, sourceScript)})
		changed = true
	}
	if e.IsThirdParty || e.IsTracking {
		c.sess.AddNetworkRequest(e.URL, e.IsThirdParty)
		c.sess.MergeFindings(c.classifier.ClassifyMany([]string{e.URL}, host, sourceNetwork))
		changed = true
	}
	return changed
}

func (c *Controller) applyPolicy(e PolicyLinkEvent) bool {
	if e.URL == "" {
		return false
	}
	c.sess.SetPrivacyPolicy(e.URL, e.Summary)
	return true
}
