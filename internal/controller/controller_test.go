package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/privacylens/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource records subscriptions and lets tests deliver events.
type fakeSource struct {
	mu       sync.Mutex
	delivers []func(Event)
	sites    []string
	unsubs   int
	err      error
}

func (s *fakeSource) Subscribe(_ context.Context, siteURL string, deliver func(Event)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.delivers = append(s.delivers, deliver)
	s.sites = append(s.sites, siteURL)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.unsubs++
	}, nil
}

// deliver sends ev through the i-th subscription.
func (s *fakeSource) deliver(i int, ev Event) {
	s.mu.Lock()
	fn := s.delivers[i]
	s.mu.Unlock()
	fn(ev)
}

func (s *fakeSource) unsubscribed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubs
}

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu    sync.Mutex
	saved map[string]*model.Snapshot
	saves int
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[string]*model.Snapshot)}
}

func (s *fakeStore) Save(_ context.Context, snap *model.Snapshot, _ *model.ScoreResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[snap.Hostname] = snap
	s.saves++
	return nil
}

func (s *fakeStore) Load(_ context.Context, hostname string) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[hostname], nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// updateRecorder collects change notifications.
type updateRecorder struct {
	mu      sync.Mutex
	updates []Update
	ch      chan struct{}
}

func newUpdateRecorder() *updateRecorder {
	return &updateRecorder{ch: make(chan struct{}, 16)}
}

func (r *updateRecorder) record(u Update) {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *updateRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func (r *updateRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	c := New(WithSources(src), WithLogger(discardLogger()))
	if c.State() != StateIdle {
		t.Fatalf("new controller state = %v", c.State())
	}
	if c.Snapshot() != nil {
		t.Error("expected nil snapshot before Start")
	}
	if got := c.Score(); got.Rating != model.RatingUnknown {
		t.Errorf("rating before Start = %q, expected Unknown", got.Rating)
	}

	ctx := context.Background()
	if err := c.Start(ctx, "https://news.example/"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if c.State() != StateMonitoring {
		t.Errorf("state = %v, expected Monitoring", c.State())
	}

	// Redundant start is a no-op.
	if err := c.Start(ctx, "https://news.example/"); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if len(src.sites) != 1 {
		t.Errorf("subscriptions = %d, expected 1", len(src.sites))
	}

	c.Ingest(PolicyLinkEvent{URL: "https://news.example/privacy"})
	c.Stop()
	if c.State() != StateIdle {
		t.Errorf("state after Stop = %v", c.State())
	}
	if src.unsubscribed() != 1 {
		t.Errorf("unsubscribes = %d, expected 1", src.unsubscribed())
	}

	snap := c.Snapshot()
	if snap == nil || !snap.PrivacyPolicy.Found {
		t.Fatal("expected final snapshot to stay queryable after Stop")
	}
	if got := c.Score(); got.Score != 100 || got.Rating != "Excellent" {
		t.Errorf("score after Stop = %d %q, expected 100 Excellent", got.Score, got.Rating)
	}

	// Stopping twice is harmless.
	c.Stop()
}

func TestStartInvalidURL(t *testing.T) {
	t.Parallel()

	c := New(WithLogger(discardLogger()))
	if err := c.Start(context.Background(), "not a url"); err == nil {
		t.Error("expected error for URL without hostname")
	}
	if c.State() != StateIdle {
		t.Errorf("state = %v, expected Idle", c.State())
	}
}

// TestSwitchSite tests that starting a new site stops the old session and
// drops late events from its sources.
func TestSwitchSite(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	c := New(WithSources(src), WithLogger(discardLogger()))
	ctx := context.Background()

	if err := c.Start(ctx, "https://a.example/"); err != nil {
		t.Fatal(err)
	}
	src.deliver(0, PolicyLinkEvent{URL: "https://a.example/privacy"})

	if err := c.Start(ctx, "https://b.example/"); err != nil {
		t.Fatal(err)
	}
	if src.unsubscribed() != 1 {
		t.Errorf("old subscription not released: unsubscribes = %d", src.unsubscribed())
	}

	// A late event from the old subscription must not reach the new session.
	src.deliver(0, PolicyLinkEvent{URL: "https://a.example/privacy-late"})
	snap := c.Snapshot()
	if snap.Hostname != "b.example" {
		t.Fatalf("hostname = %q, expected b.example", snap.Hostname)
	}
	if snap.PrivacyPolicy.Found {
		t.Error("event from the old session leaked into the new one")
	}

	src.deliver(1, PolicyLinkEvent{URL: "https://b.example/privacy"})
	if !c.Snapshot().PrivacyPolicy.Found {
		t.Error("event from the current subscription was dropped")
	}
	c.Stop()
}

func TestIngestWithoutSession(t *testing.T) {
	t.Parallel()

	c := New(WithLogger(discardLogger()))
	c.Ingest(RequestEvent{URL: "https://x.example/track", IsTracking: true})
	c.Ingest(nil)
	if c.Snapshot() != nil {
		t.Error("ingest without a session should do nothing")
	}
}

func TestSubscribeFailure(t *testing.T) {
	t.Parallel()

	c := New(WithSources(&fakeSource{err: errors.New("boom")}), WithLogger(discardLogger()))
	if err := c.Start(context.Background(), "https://news.example/"); err != nil {
		t.Fatalf("Start should tolerate source failures, got %v", err)
	}
	if c.State() != StateMonitoring {
		t.Errorf("state = %v, expected Monitoring", c.State())
	}
	c.Stop()
}

// TestIngestRouting tests how each event kind reaches the session.
func TestIngestRouting(t *testing.T) {
	t.Parallel()

	c := New(WithLogger(discardLogger()))
	if err := c.Start(context.Background(), "https://news.example/"); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	c.Ingest(CookieEvent{
		URL: "https://news.example/",
		Raw: []string{"_ga=GA1; Path=/", "broken", "sid=1; HttpOnly"},
		Cookies: []model.Cookie{
			{Name: "IDE", Domain: ".doubleclick.net", Path: "/"},
		},
	})
	c.Ingest(&ScriptEvent{Scripts: []ScriptRef{
		{URL: "https://cdn.hotjar.com/a.js"},
		{URL: "https://cdn.hotjar.com/b.js"},
		{URL: "https://news.example/app.js", Source: "Page"},
		{URL: ""},
	}})
	c.Ingest(RequestEvent{URL: "https://static.doubleclick.net/x.js", Type: "script", IsThirdParty: true, IsTracking: true})
	c.Ingest(RequestEvent{URL: "https://unknown.io/collect?id=1", Type: "xmlhttprequest", IsThirdParty: true, IsTracking: true})
	c.Ingest(RequestEvent{URL: "https://news.example/api/items", Type: "xmlhttprequest"})
	c.Ingest(PolicyLinkEvent{URL: "https://news.example/privacy", Summary: "We collect data."})

	snap := c.Snapshot()
	wantSummary := model.Summary{
		TotalCookies:       3,
		ThirdPartyCookies:  1,
		TrackingCookies:    1,
		TrackingScripts:    4,
		ThirdPartyRequests: 2,
		TrackingRequests:   1,
		PrivacyPolicyFound: true,
	}
	if diff := cmp.Diff(wantSummary, snap.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	type row struct {
		URL      string
		Source   string
		Category model.Category
		Risk     model.Risk
	}
	got := make([]row, 0, len(snap.Tracking.ScriptDetails))
	for _, f := range snap.Tracking.ScriptDetails {
		got = append(got, row{f.URL, f.Source, f.Category, f.Risk})
	}
	want := []row{
		{"https://static.doubleclick.net/x.js", "Script", model.CategoryAds, model.RiskHigh},
		{"https://static.doubleclick.net/x.js", "Network", model.CategoryAds, model.RiskHigh},
		{"https://cdn.hotjar.com/a.js", "Script", model.CategoryBehavior, model.RiskHigh},
		{"https://unknown.io/collect?id=1", "Network", model.CategoryBehavior, model.RiskHigh},
		{"https://news.example/app.js", "Page", model.CategoryUtility, model.RiskNone},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("script details mismatch (-want +got):\n%s", diff)
	}
}

// TestIngestUnparsableURL tests that URLs without a host never reach the
// request buckets or the script findings.
func TestIngestUnparsableURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		ev   Event
	}{
		{
			name: "tracking request",
			ev:   RequestEvent{URL: "%%not a url::track", IsThirdParty: true, IsTracking: true},
		},
		{
			name: "tracking script request",
			ev:   RequestEvent{URL: "%%not a url::track", Type: "script", IsThirdParty: true, IsTracking: true},
		},
		{
			name: "relative request",
			ev:   RequestEvent{URL: "/collect?event=view", IsThirdParty: true, IsTracking: true},
		},
		{
			name: "scripts",
			ev:   ScriptEvent{Scripts: []ScriptRef{{URL: "%%not a url::track"}, {URL: "/static/app.js", Source: "Page"}}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := New(WithLogger(discardLogger()))
			if err := c.Start(context.Background(), "https://news.example/"); err != nil {
				t.Fatal(err)
			}
			defer c.Stop()

			c.Ingest(tc.ev)

			snap := c.Snapshot()
			if n := len(snap.Requests.ThirdParty); n != 0 {
				t.Errorf("third-party requests = %d, expected 0", n)
			}
			if n := len(snap.Requests.Tracking); n != 0 {
				t.Errorf("tracking requests = %d, expected 0", n)
			}
			if snap.Tracking.Scripts != 0 || len(snap.Tracking.ScriptDetails) != 0 {
				t.Errorf("scripts = %d (%d details), expected 0", snap.Tracking.Scripts, len(snap.Tracking.ScriptDetails))
			}
		})
	}
}

// TestDebounce tests that a burst of events produces a single notification.
func TestDebounce(t *testing.T) {
	t.Parallel()

	rec := newUpdateRecorder()
	c := New(WithLogger(discardLogger()), WithDebounce(50*time.Millisecond), WithOnChange(rec.record))
	if err := c.Start(context.Background(), "https://news.example/"); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	for i := range 10 {
		c.Ingest(CookieEvent{Raw: []string{"c" + string(rune('a'+i)) + "=1"}})
	}
	// Events that change nothing do not schedule a signal.
	c.Ingest(RequestEvent{URL: "https://news.example/page"})

	rec.wait(t)
	time.Sleep(150 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Fatalf("notifications = %d, expected 1", n)
	}

	rec.mu.Lock()
	u := rec.updates[0]
	rec.mu.Unlock()
	if u.Snapshot.Cookies.Total != 10 {
		t.Errorf("notified snapshot has %d cookies, expected 10", u.Snapshot.Cookies.Total)
	}
	if u.Result.Rating == "" {
		t.Error("notification should carry a score")
	}
}

// TestNoNotificationAfterStop tests that a pending signal is dropped on Stop.
func TestNoNotificationAfterStop(t *testing.T) {
	t.Parallel()

	rec := newUpdateRecorder()
	c := New(WithLogger(discardLogger()), WithDebounce(30*time.Millisecond), WithOnChange(rec.record))
	if err := c.Start(context.Background(), "https://news.example/"); err != nil {
		t.Fatal(err)
	}
	c.Ingest(PolicyLinkEvent{URL: "https://news.example/privacy"})
	c.Stop()

	time.Sleep(120 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("notifications after Stop = %d, expected 0", n)
	}
}

func TestFlush(t *testing.T) {
	t.Parallel()

	rec := newUpdateRecorder()
	c := New(WithLogger(discardLogger()), WithDebounce(time.Hour), WithOnChange(rec.record))
	if err := c.Start(context.Background(), "https://news.example/"); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	c.Flush()
	if rec.count() != 0 {
		t.Fatal("Flush without pending signal should not notify")
	}

	c.Ingest(PolicyLinkEvent{URL: "https://news.example/privacy"})
	c.Flush()
	if rec.count() != 1 {
		t.Fatalf("notifications = %d, expected 1", rec.count())
	}
	c.Flush()
	if rec.count() != 1 {
		t.Errorf("second Flush should not notify again")
	}
}

// TestStorePersistence tests saving on Stop and restoring on Start.
func TestStorePersistence(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	c := New(WithLogger(discardLogger()), WithStore(store), WithRestore(true), WithDebounce(time.Hour))
	ctx := context.Background()

	if err := c.Start(ctx, "https://news.example/"); err != nil {
		t.Fatal(err)
	}
	c.Ingest(CookieEvent{Raw: []string{"_ga=1"}})
	c.Stop()

	if store.saveCount() != 1 {
		t.Fatalf("saves = %d, expected 1", store.saveCount())
	}
	if store.saved["news.example"].Cookies.Total != 1 {
		t.Error("stored snapshot is missing the cookie")
	}

	if err := c.Start(ctx, "https://news.example/"); err != nil {
		t.Fatal(err)
	}
	c.Ingest(CookieEvent{Raw: []string{"_ga=1"}})
	if got := c.Snapshot().Cookies.Total; got != 1 {
		t.Errorf("restored session has %d cookies, expected 1", got)
	}
	c.Stop()
}

func TestEventKinds(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		ev   Event
		want Kind
	}{
		{CookieEvent{}, KindCookie},
		{ScriptEvent{}, KindScript},
		{RequestEvent{}, KindRequest},
		{PolicyLinkEvent{}, KindPolicyLink},
		{&RequestEvent{}, KindRequest},
	}
	for _, tc := range testCases {
		if got := tc.ev.Kind(); got != tc.want {
			t.Errorf("Kind() = %q, expected %q", got, tc.want)
		}
	}
	if StateIdle.String() != "Idle" || StateMonitoring.String() != "Monitoring" || State(9).String() != "Unknown" {
		t.Error("unexpected state names")
	}
}
