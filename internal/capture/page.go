package capture

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/privacylens/internal/controller"
)

// policyHrefPattern matches link targets that look like a privacy policy.
var policyHrefPattern = regexp.MustCompile(`(?i)(privacy|privacy-policy|legal/privacy|policy)`)

// policyTextKeywords match link texts that name a privacy policy.
var policyTextKeywords = []string{
	"privacy",
	"privacy policy",
	"privacy statement",
	"privacy notice",
	"data protection",
	"data privacy",
}

// PolicyLink is a link that looks like it leads to a privacy policy.
type PolicyLink struct {
	URL  string
	Text string
}

// PageScan is what a scan of one HTML page found.
type PageScan struct {
	// PageURL is the URL the page was loaded from.
	PageURL string

	// Scripts are the distinct external script URLs, resolved against PageURL.
	Scripts []string

	// PolicyLinks are the distinct privacy policy links, in document order.
	PolicyLinks []PolicyLink
}

// Events converts the scan into controller events: one ScriptEvent for the
// discovered scripts and one PolicyLinkEvent for the first policy link.
func (s *PageScan) Events() []controller.Event {
	events := make([]controller.Event, 0, 2)
	if len(s.Scripts) > 0 {
		refs := make([]controller.ScriptRef, 0, len(s.Scripts))
		for _, src := range s.Scripts {
			refs = append(refs, controller.ScriptRef{URL: src, Source: "Script"})
		}
		events = append(events, controller.ScriptEvent{Scripts: refs})
	}
	if len(s.PolicyLinks) > 0 {
		events = append(events, controller.PolicyLinkEvent{URL: s.PolicyLinks[0].URL})
	}
	return events
}

// pageScanner walks a parsed HTML document.
type pageScanner struct {
	baseURL     *url.URL
	result      *PageScan
	seenScripts map[string]struct{}
	seenPolicy  map[string]struct{}
}

// ScanPage parses an HTML page served from pageURL and collects the external
// scripts it loads and the privacy policy links it exposes.
//
// Design decision: The page is parsed with golang.org/x/net/html rather than
// matched with regular expressions, so malformed markup and attributes in
// any order are handled the way a browser would.
func ScanPage(r io.Reader, pageURL string) (*PageScan, error) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPageURL, pageURL)
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	s := &pageScanner{
		baseURL: base,
		result: &PageScan{
			PageURL:     pageURL,
			Scripts:     make([]string, 0),
			PolicyLinks: make([]PolicyLink, 0),
		},
		seenScripts: make(map[string]struct{}),
		seenPolicy:  make(map[string]struct{}),
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			s.processElement(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return s.result, nil
}

func (s *pageScanner) processElement(n *html.Node) {
	switch n.Data {
	case "script":
		src := s.resolveURL(getAttr(n, "src"))
		if src == "" || !CanAnalyze(src) {
			return
		}
		if _, seen := s.seenScripts[src]; seen {
			return
		}
		s.seenScripts[src] = struct{}{}
		s.result.Scripts = append(s.result.Scripts, src)

	case "a":
		href := s.resolveURL(getAttr(n, "href"))
		if href == "" || !CanAnalyze(href) {
			return
		}
		text := strings.TrimSpace(textContent(n))
		if !isPolicyLink(href, text) {
			return
		}
		if _, seen := s.seenPolicy[href]; seen {
			return
		}
		s.seenPolicy[href] = struct{}{}
		s.result.PolicyLinks = append(s.result.PolicyLinks, PolicyLink{URL: href, Text: text})
	}
}

func isPolicyLink(href, text string) bool {
	if policyHrefPattern.MatchString(href) {
		return true
	}
	lc := strings.ToLower(text)
	for _, keyword := range policyTextKeywords {
		if strings.Contains(lc, keyword) {
			return true
		}
	}
	return false
}

// resolveURL resolves href against the page URL. Non-navigational targets
// (javascript:, mailto:, tel:, data:, "#") resolve to "".
func (s *pageScanner) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	lc := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lc, prefix) {
			return ""
		}
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return s.baseURL.ResolveReference(u).String()
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// textContent returns the concatenated text below n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
