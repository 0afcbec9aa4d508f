package classifier

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/privacylens/internal/model"
	"github.com/nao1215/privacylens/internal/trackerdb"
)

// TestClassifyKnownTracker tests a suffix match against the knowledge base.
func TestClassifyKnownTracker(t *testing.T) {
	t.Parallel()

	got := Classify("https://static.doubleclick.net/x.js", "news.example", "")
	want := model.Finding{
		URL:          "https://static.doubleclick.net/x.js",
		Domain:       "static.doubleclick.net",
		IsThirdParty: true,
		Owner:        "Google",
		Category:     model.CategoryAds,
		Risk:         model.RiskHigh,
		Purpose:      "Serves and measures targeted advertising across sites.",
		Rationale: "Known tracker from Google. Category: Ads. " +
			"Runs on another company's domain. Very common tracker seen on many sites",
		Prevalence: 0.8,
		Source:     DefaultSource,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Classify mismatch (-want +got):\n%s", diff)
	}
}

// TestClassifyHeuristics tests the fallback path for unknown domains.
func TestClassifyHeuristics(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		url          string
		pageHost     string
		wantCategory model.Category
		wantRisk     model.Risk
		wantThird    bool
		wantPurpose  string
	}{
		{
			name:         "third-party collect endpoint",
			url:          "https://metrics.unknown-vendor.io/collect?id=1",
			pageHost:     "shop.example",
			wantCategory: model.CategoryBehavior,
			wantRisk:     model.RiskHigh,
			wantThird:    true,
			wantPurpose:  "Possible tracking or analytics based on the URL path.",
		},
		{
			name:         "third-party plain script",
			url:          "https://widgets.unknown-vendor.io/app.js",
			pageHost:     "shop.example",
			wantCategory: model.CategoryAnalytics,
			wantRisk:     model.RiskLow,
			wantThird:    true,
			wantPurpose:  "Looks like a third-party helper script.",
		},
		{
			name:         "first-party plain script",
			url:          "https://shop.example/static/app.js",
			pageHost:     "shop.example",
			wantCategory: model.CategoryUtility,
			wantRisk:     model.RiskNone,
			wantPurpose:  "Looks like a site helper script.",
		},
		{
			name:         "first-party pixel",
			url:          "https://shop.example/Pixel.gif",
			pageHost:     "shop.example",
			wantCategory: model.CategoryAnalytics,
			wantRisk:     model.RiskLow,
			wantPurpose:  "Possible tracking or analytics based on the URL path.",
		},
		{
			name:         "subdomain counts as third-party",
			url:          "https://cdn.shop.example/beacon.js",
			pageHost:     "shop.example",
			wantCategory: model.CategoryBehavior,
			wantRisk:     model.RiskHigh,
			wantThird:    true,
			wantPurpose:  "Possible tracking or analytics based on the URL path.",
		},
		{
			name:         "relative url falls back to page host",
			url:          "/js/session.js",
			pageHost:     "shop.example",
			wantCategory: model.CategoryAnalytics,
			wantRisk:     model.RiskLow,
			wantPurpose:  "Possible tracking or analytics based on the URL path.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := Classify(tc.url, tc.pageHost, "Script")
			if f.Category != tc.wantCategory {
				t.Errorf("category = %v, expected %v", f.Category, tc.wantCategory)
			}
			if f.Risk != tc.wantRisk {
				t.Errorf("risk = %v, expected %v", f.Risk, tc.wantRisk)
			}
			if f.IsThirdParty != tc.wantThird {
				t.Errorf("isThirdParty = %v, expected %v", f.IsThirdParty, tc.wantThird)
			}
			if f.Purpose != tc.wantPurpose {
				t.Errorf("purpose = %q, expected %q", f.Purpose, tc.wantPurpose)
			}
			if f.Owner != model.UnknownOwner {
				t.Errorf("owner = %q, expected %q", f.Owner, model.UnknownOwner)
			}
			if !strings.HasPrefix(f.Rationale, "No known tracker match") {
				t.Errorf("rationale %q should state that no tracker matched", f.Rationale)
			}
		})
	}
}

// TestClassifyTotality tests that any input yields a well-formed finding.
func TestClassifyTotality(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		"::::",
		"%zz",
		"not a url at all",
		"http://",
		"https://[::1",
		"javascript:void(0)",
		"https://static.doubleclick.net/x.js",
		strings.Repeat("a", 4096),
	}
	pageHosts := []string{"", "news.example"}

	for _, in := range inputs {
		for _, host := range pageHosts {
			f := Classify(in, host, "")
			if f.Rationale == "" {
				t.Errorf("Classify(%q, %q) has empty rationale", in, host)
			}
			if f.Risk != model.RiskFor(f.Category) {
				t.Errorf("Classify(%q, %q) risk %v does not follow category %v", in, host, f.Risk, f.Category)
			}
			if f.Owner == "" || f.Purpose == "" {
				t.Errorf("Classify(%q, %q) has empty owner or purpose: %+v", in, host, f)
			}
		}
	}
}

func TestClassifyNoHosts(t *testing.T) {
	t.Parallel()

	f := Classify("garbage", "", "")
	if f.Domain != "" || f.IsThirdParty {
		t.Errorf("expected empty first-party finding, got %+v", f)
	}
}

// TestClassifyUnrecognizedCategory tests that unknown entry categories become Analytics.
func TestClassifyUnrecognizedCategory(t *testing.T) {
	t.Parallel()

	db, err := trackerdb.New(map[string]trackerdb.KnownTracker{
		"odd.test":  {Owner: "Odd", Category: "Cryptomining", Prevalence: 0.1},
		"anon.test": {Category: "CDN"},
	})
	if err != nil {
		t.Fatalf("trackerdb.New failed: %v", err)
	}
	c := New(db)

	f := c.Classify("https://odd.test/x.js", "site.example", "Network")
	if f.Category != model.CategoryAnalytics || f.Risk != model.RiskLow {
		t.Errorf("expected Analytics/Low, got %v/%v", f.Category, f.Risk)
	}
	if f.Purpose != model.CategoryAnalytics.DefaultPurpose() {
		t.Errorf("expected default purpose, got %q", f.Purpose)
	}
	if f.Source != "Network" {
		t.Errorf("source = %q, expected Network", f.Source)
	}
	if f.Rationale != "Known tracker from Odd. Category: Analytics. Runs on another company's domain" {
		t.Errorf("unexpected rationale %q", f.Rationale)
	}

	f = c.Classify("https://anon.test/x.js", "anon.test", "")
	if f.Owner != model.UnknownOwner {
		t.Errorf("owner = %q, expected %q", f.Owner, model.UnknownOwner)
	}
	if f.Rationale != "Known tracker from Unknown vendor. Category: CDN" {
		t.Errorf("unexpected rationale %q", f.Rationale)
	}
}

// TestClassifyMany tests deduplication and ordering of batch classification.
func TestClassifyMany(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://news.example/app.js",
		"https://www.google-analytics.com/analytics.js",
		"",
		"https://static.doubleclick.net/x.js",
		"https://unknown.io/pixel.gif",
		"https://static.doubleclick.net/x.js",
		"https://cdn.hotjar.com/h.js",
		"https://unknown.io/a.js",
	}

	got := ClassifyMany(urls, "news.example", "")
	gotURLs := make([]string, 0, len(got))
	for _, f := range got {
		gotURLs = append(gotURLs, f.URL)
	}

	want := []string{
		"https://static.doubleclick.net/x.js",           // High, 0.8
		"https://cdn.hotjar.com/h.js",                   // High, 0.35
		"https://unknown.io/pixel.gif",                  // High, 0
		"https://www.google-analytics.com/analytics.js", // Low, 0.95
		"https://unknown.io/a.js",                       // Low, 0
		"https://news.example/app.js",                   // None
	}
	if diff := cmp.Diff(want, gotURLs); diff != "" {
		t.Errorf("ClassifyMany order mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyManyEmpty(t *testing.T) {
	t.Parallel()

	if got := ClassifyMany(nil, "news.example", ""); len(got) != 0 {
		t.Errorf("expected no findings, got %d", len(got))
	}
}
