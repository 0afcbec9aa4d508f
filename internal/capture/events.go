package capture

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nao1215/privacylens/internal/controller"
)

// Capture record types that are not network requests. Every other type is
// treated as the resource type of a request ("script", "xmlhttprequest",
// "image", "main_frame", ...).
const (
	recordTypeCookie  = "cookie"
	recordTypeScripts = "scripts"
	recordTypePolicy  = "policy"

	// recordTypeMainFrame is the resource type of a top-level navigation.
	recordTypeMainFrame = "main_frame"
)

// maxLineSize bounds a single capture line.
const maxLineSize = 4 * 1024 * 1024

// Record is one line of a capture file.
type Record struct {
	Type         string      `json:"type"`
	URL          string      `json:"url"`
	Initiator    string      `json:"initiator,omitempty"`
	IsThirdParty *bool       `json:"isThirdParty,omitempty"`
	IsTracking   *bool       `json:"isTracking,omitempty"`
	Cookies      []string    `json:"cookies,omitempty"`
	Scripts      []ScriptRef `json:"scripts,omitempty"`
	Summary      string      `json:"summary,omitempty"`
}

// ScriptRef is a script reported by page-side discovery.
type ScriptRef struct {
	URL    string `json:"url"`
	Source string `json:"source,omitempty"`
}

// Reader converts capture records into controller events.
type Reader struct {
	pageURL  string
	detector *Detector
	logger   *slog.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithPageURL sets the monitored page URL. It is used as the initiator of
// requests whose record has none. Without it, the first main_frame request
// of the capture becomes the page URL.
func WithPageURL(pageURL string) ReaderOption {
	return func(r *Reader) {
		r.pageURL = pageURL
	}
}

// WithDetector sets the detector used for missing request flags.
func WithDetector(d *Detector) ReaderOption {
	return func(r *Reader) {
		r.detector = d
	}
}

// WithReaderLogger sets the logger used to report skipped lines.
func WithReaderLogger(logger *slog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader creates a Reader.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{}
	for _, opt := range opts {
		opt(r)
	}
	if r.detector == nil {
		r.detector = NewDetector(nil)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// PageURL returns the monitored page URL, which may have been taken from
// the capture itself.
func (r *Reader) PageURL() string {
	return r.pageURL
}

// ReadEvents reads a JSON Lines capture. Blank lines are ignored. Lines that
// cannot be decoded or converted are logged and skipped; only a failure of
// the underlying reader is returned as an error.
//
// A main_frame or sub_frame request to a common privacy policy path on the
// monitored host is followed by a PolicyLinkEvent for that URL, unless the
// capture already reported a policy.
func (r *Reader) ReadEvents(in io.Reader) ([]controller.Event, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	events := make([]controller.Event, 0)
	policySeen := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			r.logger.Debug("skipping malformed capture line", "line", lineNo, "error", err)
			continue
		}
		ev, err := r.Convert(rec)
		if err != nil {
			r.logger.Debug("skipping capture record", "line", lineNo, "error", err)
			continue
		}
		if ev == nil {
			continue
		}
		events = append(events, ev)
		switch e := ev.(type) {
		case controller.PolicyLinkEvent:
			policySeen = true
		case controller.RequestEvent:
			if policySeen {
				continue
			}
			if policy, found := r.policyFromRequest(e); found {
				r.logger.Debug("policy found at common path", "url", e.URL)
				events = append(events, policy)
				policySeen = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("failed to read capture: %w", err)
	}
	return events, nil
}

// Convert turns a record into an event. It returns nil without error for
// records that are valid but carry nothing to analyze, such as requests to
// browser-internal URLs.
func (r *Reader) Convert(rec Record) (controller.Event, error) {
	switch strings.ToLower(rec.Type) {
	case recordTypeCookie:
		if len(rec.Cookies) == 0 {
			return nil, nil
		}
		return controller.CookieEvent{URL: rec.URL, Raw: rec.Cookies}, nil

	case recordTypeScripts:
		refs := make([]controller.ScriptRef, 0, len(rec.Scripts))
		for _, s := range rec.Scripts {
			if !CanAnalyze(s.URL) {
				continue
			}
			refs = append(refs, controller.ScriptRef{URL: s.URL, Source: s.Source})
		}
		if len(refs) == 0 {
			return nil, nil
		}
		return controller.ScriptEvent{Scripts: refs}, nil

	case recordTypePolicy:
		if !CanAnalyze(rec.URL) {
			return nil, nil
		}
		return controller.PolicyLinkEvent{URL: rec.URL, Summary: rec.Summary}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrUnknownEventType)

	default:
		if !CanAnalyze(rec.URL) {
			return nil, nil
		}
		if r.pageURL == "" && strings.EqualFold(rec.Type, recordTypeMainFrame) {
			r.pageURL = rec.URL
		}
		initiator := rec.Initiator
		if initiator == "" {
			initiator = r.pageURL
		}
		ev := controller.RequestEvent{URL: rec.URL, Type: strings.ToLower(rec.Type)}
		if rec.IsThirdParty != nil {
			ev.IsThirdParty = *rec.IsThirdParty
		} else {
			ev.IsThirdParty = r.detector.IsThirdParty(rec.URL, initiator)
		}
		if rec.IsTracking != nil {
			ev.IsTracking = *rec.IsTracking
		} else {
			ev.IsTracking = r.detector.IsTracking(rec.URL)
		}
		return ev, nil
	}
}
