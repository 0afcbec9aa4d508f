package controller

import "github.com/nao1215/privacylens/internal/model"

// Kind identifies the type of an Event.
type Kind string

const (
	KindCookie     Kind = "cookie"
	KindScript     Kind = "script"
	KindRequest    Kind = "request"
	KindPolicyLink Kind = "policy"
)

// Event is an observation delivered by an event source.
// The set of implementations is closed: CookieEvent, ScriptEvent,
// RequestEvent and PolicyLinkEvent.
type Event interface {
	Kind() Kind
	sealed()
}

// CookieEvent carries cookies set by a response. Raw holds Set-Cookie
// strings; Cookies holds cookies that were already parsed, for example read
// from a cookie store. URL is the response URL, whose host is used for raw
// cookies without a Domain attribute.
type CookieEvent struct {
	URL     string
	Raw     []string
	Cookies []model.Cookie
}

// ScriptRef is a script discovered on the page.
type ScriptRef struct {
	URL    string
	Source string
}

// ScriptEvent carries scripts discovered on the page. They are merged into
// the session by host, per source.
type ScriptEvent struct {
	Scripts []ScriptRef
}

// RequestEvent is one observed network request. Type is the resource type
// reported by the observation layer ("script", "xmlhttprequest", "image", ...).
type RequestEvent struct {
	URL          string
	Type         string
	IsThirdParty bool
	IsTracking   bool
}

// PolicyLinkEvent reports a privacy policy link found for the site.
type PolicyLinkEvent struct {
	URL     string
	Summary string
}

func (CookieEvent) Kind() Kind     { return KindCookie }
func (ScriptEvent) Kind() Kind     { return KindScript }
func (RequestEvent) Kind() Kind    { return KindRequest }
func (PolicyLinkEvent) Kind() Kind { return KindPolicyLink }

func (CookieEvent) sealed()     {}
func (ScriptEvent) sealed()     {}
func (RequestEvent) sealed()    {}
func (PolicyLinkEvent) sealed() {}
