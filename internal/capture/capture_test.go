package capture

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/privacylens/internal/controller"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCanAnalyze(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/", true},
		{"http://example.com/a.js", true},
		{"HTTPS://EXAMPLE.COM", true},
		{"", false},
		{"chrome://settings", false},
		{"about:blank", false},
		{"chrome-extension://abc/popup.html", false},
		{"file:///tmp/index.html", false},
		{"ftp://example.com/file", false},
		{"javascript:void(0)", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			if got := CanAnalyze(tt.url); got != tt.want {
				t.Errorf("CanAnalyze(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsLocalhost(t *testing.T) {
	t.Parallel()

	for _, host := range []string{"localhost", "127.0.0.1", "::1", "printer.local", "LOCALHOST"} {
		if !IsLocalhost(host) {
			t.Errorf("IsLocalhost(%q) = false, want true", host)
		}
	}
	if IsLocalhost("example.com") {
		t.Error("IsLocalhost(example.com) = true, want false")
	}
}

func TestDetector(t *testing.T) {
	t.Parallel()

	d := NewDetector(nil)

	t.Run("tracking", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			url  string
			want bool
		}{
			{"https://www.google-analytics.com/g/collect", true},
			{"https://sub.doubleclick.net/x", true},
			{"https://cdn.example.org/pixel.gif", true},
			{"https://cdn.example.org/app.js", false},
		}
		for _, tt := range tests {
			if got := d.IsTracking(tt.url); got != tt.want {
				t.Errorf("IsTracking(%q) = %v, want %v", tt.url, got, tt.want)
			}
		}
	})

	t.Run("third party", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			url, initiator string
			want           bool
		}{
			{"https://cdn.other.com/a.js", "https://example.com/", true},
			{"https://example.com/a.js", "https://www.example.com/", false},
			{"https://www.example.com/a.js", "https://example.com/page", false},
			{"https://cdn.other.com/a.js", "", false},
		}
		for _, tt := range tests {
			if got := d.IsThirdParty(tt.url, tt.initiator); got != tt.want {
				t.Errorf("IsThirdParty(%q, %q) = %v, want %v", tt.url, tt.initiator, got, tt.want)
			}
		}
	})
}

func TestReader_ReadEvents(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`{"type":"cookie","url":"https://example.com/","cookies":["_ga=1; Path=/"]}`,
		``,
		`not json`,
		`{"type":"scripts","scripts":[{"url":"https://www.googletagmanager.com/gtm.js","source":"Script"},{"url":"chrome-extension://x/y.js"}]}`,
		`{"type":"script","url":"https://connect.facebook.net/en_US/fbevents.js"}`,
		`{"type":"image","url":"https://example.com/logo.png","isTracking":true,"isThirdParty":false}`,
		`{"type":"main_frame","url":"about:blank"}`,
		`{"type":"policy","url":"https://example.com/privacy","summary":"We collect data."}`,
		`{"url":"https://example.com/missing-type"}`,
	}, "\n")

	r := NewReader(WithPageURL("https://example.com/"), WithReaderLogger(discardLogger()))
	got, err := r.ReadEvents(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadEvents() error = %v", err)
	}

	want := []controller.Event{
		controller.CookieEvent{URL: "https://example.com/", Raw: []string{"_ga=1; Path=/"}},
		controller.ScriptEvent{Scripts: []controller.ScriptRef{
			{URL: "https://www.googletagmanager.com/gtm.js", Source: "Script"},
		}},
		controller.RequestEvent{
			URL:          "https://connect.facebook.net/en_US/fbevents.js",
			Type:         "script",
			IsThirdParty: true,
			IsTracking:   true,
		},
		controller.RequestEvent{
			URL:        "https://example.com/logo.png",
			Type:       "image",
			IsTracking: true,
		},
		controller.PolicyLinkEvent{URL: "https://example.com/privacy", Summary: "We collect data."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadEvents() mismatch (-want +got):\n%s", diff)
	}
}

func TestReader_ConvertInitiator(t *testing.T) {
	t.Parallel()

	r := NewReader(WithPageURL("https://example.com/"))
	ev, err := r.Convert(Record{
		Type:      "xmlhttprequest",
		URL:       "https://api.example.com/data",
		Initiator: "https://api.example.com/",
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	req, ok := ev.(controller.RequestEvent)
	if !ok {
		t.Fatalf("Convert() = %T, want RequestEvent", ev)
	}
	if req.IsThirdParty {
		t.Error("request from its own initiator host should be first-party")
	}
}

const testPage = `<!DOCTYPE html>
<html>
<head>
  <script src="/static/app.js"></script>
  <script src="https://www.googletagmanager.com/gtm.js?id=GTM-1"></script>
  <script src="/static/app.js"></script>
  <script>window.inline = true;</script>
</head>
<body>
  <a href="/about">About us</a>
  <a href="/legal/privacy">Read more</a>
  <a href="/terms">Privacy Notice</a>
  <a href="javascript:void(0)">privacy</a>
  <a href="mailto:privacy@example.com">Email</a>
  <a href="/legal/privacy">Privacy</a>
</body>
</html>`

func TestScanPage(t *testing.T) {
	t.Parallel()

	scan, err := ScanPage(strings.NewReader(testPage), "https://example.com/index.html")
	if err != nil {
		t.Fatalf("ScanPage() error = %v", err)
	}

	wantScripts := []string{
		"https://example.com/static/app.js",
		"https://www.googletagmanager.com/gtm.js?id=GTM-1",
	}
	if diff := cmp.Diff(wantScripts, scan.Scripts); diff != "" {
		t.Errorf("Scripts mismatch (-want +got):\n%s", diff)
	}

	wantLinks := []PolicyLink{
		{URL: "https://example.com/legal/privacy", Text: "Read more"},
		{URL: "https://example.com/terms", Text: "Privacy Notice"},
	}
	if diff := cmp.Diff(wantLinks, scan.PolicyLinks); diff != "" {
		t.Errorf("PolicyLinks mismatch (-want +got):\n%s", diff)
	}

	wantEvents := []controller.Event{
		controller.ScriptEvent{Scripts: []controller.ScriptRef{
			{URL: "https://example.com/static/app.js", Source: "Script"},
			{URL: "https://www.googletagmanager.com/gtm.js?id=GTM-1", Source: "Script"},
		}},
		controller.PolicyLinkEvent{URL: "https://example.com/legal/privacy"},
	}
	if diff := cmp.Diff(wantEvents, scan.Events()); diff != "" {
		t.Errorf("Events() mismatch (-want +got):\n%s", diff)
	}
}

func TestScanPage_InvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := ScanPage(strings.NewReader(testPage), "not a url"); err == nil {
		t.Error("ScanPage() with relative page URL should fail")
	}
}

func TestScanPage_Empty(t *testing.T) {
	t.Parallel()

	scan, err := ScanPage(strings.NewReader("<html></html>"), "https://example.com/")
	if err != nil {
		t.Fatalf("ScanPage() error = %v", err)
	}
	if len(scan.Events()) != 0 {
		t.Errorf("Events() = %v, want none", scan.Events())
	}
}

func collect(t *testing.T, src controller.Source, siteURL string) []controller.Event {
	t.Helper()
	var got []controller.Event
	unsubscribe, err := src.Subscribe(context.Background(), siteURL, func(ev controller.Event) {
		got = append(got, ev)
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	unsubscribe()
	return got
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "capture.jsonl")
	content := `{"type":"script","url":"https://cdn.other.com/lib.js"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	got := collect(t, NewFileSource(path, WithReaderLogger(discardLogger())), "https://example.com/")
	want := []controller.Event{
		controller.RequestEvent{URL: "https://cdn.other.com/lib.js", Type: "script", IsThirdParty: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestFileSource_Missing(t *testing.T) {
	t.Parallel()

	src := NewFileSource(filepath.Join(t.TempDir(), "missing.jsonl"))
	_, err := src.Subscribe(context.Background(), "https://example.com/", func(controller.Event) {})
	if err == nil {
		t.Error("Subscribe() with missing file should fail")
	}
}

func TestPageSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte(testPage), 0o600); err != nil {
		t.Fatal(err)
	}

	got := collect(t, NewPageSource(path), "https://example.com/")
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Kind() != controller.KindScript || got[1].Kind() != controller.KindPolicyLink {
		t.Errorf("event kinds = %s, %s", got[0].Kind(), got[1].Kind())
	}
}

func TestReplaySource_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewReplaySource([]controller.Event{controller.PolicyLinkEvent{URL: "https://example.com/privacy"}})
	delivered := 0
	_, err := src.Subscribe(ctx, "https://example.com/", func(controller.Event) { delivered++ })
	if err == nil {
		t.Error("Subscribe() with cancelled context should fail")
	}
	if delivered != 0 {
		t.Errorf("delivered %d events after cancel", delivered)
	}
}

func TestReader_PageURLFromMainFrame(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`{"type":"main_frame","url":"https://shop.example/"}`,
		`{"type":"image","url":"https://cdn.other.com/banner.png"}`,
	}, "\n")

	r := NewReader(WithReaderLogger(discardLogger()))
	events, err := r.ReadEvents(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if r.PageURL() != "https://shop.example/" {
		t.Errorf("PageURL() = %q", r.PageURL())
	}
	req, ok := events[1].(controller.RequestEvent)
	if !ok || !req.IsThirdParty {
		t.Errorf("second event = %#v, want third-party request", events[1])
	}
}

func TestIsCommonPolicyPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"/privacy", true},
		{"/privacy/", true},
		{"/Privacy-Policy.html", true},
		{"/legal/privacy", true},
		{"/policies/privacy", true},
		{"/", false},
		{"/privacy/cookies", false},
		{"/blog/privacy", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsCommonPolicyPath(tt.path); got != tt.want {
			t.Errorf("IsCommonPolicyPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestReader_PolicyFromCommonPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lines []string
		want  []controller.Event
	}{
		{
			name: "main frame navigation to policy path",
			lines: []string{
				`{"type":"main_frame","url":"https://shop.example/"}`,
				`{"type":"main_frame","url":"https://shop.example/privacy-policy"}`,
			},
			want: []controller.Event{
				controller.RequestEvent{URL: "https://shop.example/", Type: "main_frame"},
				controller.RequestEvent{URL: "https://shop.example/privacy-policy", Type: "main_frame"},
				controller.PolicyLinkEvent{URL: "https://shop.example/privacy-policy"},
			},
		},
		{
			name: "sub frame navigation to policy path",
			lines: []string{
				`{"type":"main_frame","url":"https://shop.example/"}`,
				`{"type":"sub_frame","url":"https://shop.example/legal/privacy?lang=en"}`,
			},
			want: []controller.Event{
				controller.RequestEvent{URL: "https://shop.example/", Type: "main_frame"},
				controller.RequestEvent{URL: "https://shop.example/legal/privacy?lang=en", Type: "sub_frame"},
				controller.PolicyLinkEvent{URL: "https://shop.example/legal/privacy?lang=en"},
			},
		},
		{
			name: "other host",
			lines: []string{
				`{"type":"main_frame","url":"https://shop.example/"}`,
				`{"type":"sub_frame","url":"https://cdn.other.com/privacy","isTracking":false}`,
			},
			want: []controller.Event{
				controller.RequestEvent{URL: "https://shop.example/", Type: "main_frame"},
				controller.RequestEvent{URL: "https://cdn.other.com/privacy", Type: "sub_frame", IsThirdParty: true},
			},
		},
		{
			name: "not a navigation",
			lines: []string{
				`{"type":"main_frame","url":"https://shop.example/"}`,
				`{"type":"xmlhttprequest","url":"https://shop.example/privacy"}`,
			},
			want: []controller.Event{
				controller.RequestEvent{URL: "https://shop.example/", Type: "main_frame"},
				controller.RequestEvent{URL: "https://shop.example/privacy", Type: "xmlhttprequest"},
			},
		},
		{
			name: "reported policy is kept",
			lines: []string{
				`{"type":"policy","url":"https://shop.example/terms#privacy","summary":"We sell data."}`,
				`{"type":"main_frame","url":"https://shop.example/privacy"}`,
			},
			want: []controller.Event{
				controller.PolicyLinkEvent{URL: "https://shop.example/terms#privacy", Summary: "We sell data."},
				controller.RequestEvent{URL: "https://shop.example/privacy", Type: "main_frame"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewReader(WithPageURL("https://shop.example/"), WithReaderLogger(discardLogger()))
			got, err := r.ReadEvents(strings.NewReader(strings.Join(tt.lines, "\n")))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ReadEvents() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
