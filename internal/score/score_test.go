package score

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/privacylens/internal/model"
)

// snapshotWith builds a snapshot with the given numbers of distinct scripts,
// tracking requests and tracking cookies.
func snapshotWith(scripts, requests, cookies int, policy bool) *model.Snapshot {
	snap := &model.Snapshot{Hostname: "site.example"}
	for i := range scripts {
		snap.Tracking.ScriptDetails = append(snap.Tracking.ScriptDetails, model.Finding{
			URL: fmt.Sprintf("https://tracker.example/s%d.js", i),
		})
	}
	snap.Tracking.Scripts = scripts
	for i := range requests {
		snap.Requests.Tracking = append(snap.Requests.Tracking, model.NetworkRequest{
			URL: fmt.Sprintf("https://tracker.example/collect?i=%d", i),
		})
	}
	for i := range cookies {
		snap.Cookies.Tracking = append(snap.Cookies.Tracking, model.Cookie{Name: fmt.Sprintf("_ga%d", i)})
	}
	snap.PrivacyPolicy.Found = policy
	return snap
}

// TestScoreScenarios tests the reference scenarios of the scoring model.
func TestScoreScenarios(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		snap       *model.Snapshot
		wantScore  int
		wantRating string
		wantTitles []string
	}{
		{
			name:       "empty session with policy",
			snap:       snapshotWith(0, 0, 0, true),
			wantScore:  100,
			wantRating: "Excellent",
			wantTitles: []string{},
		},
		{
			name:       "five tracking scripts without policy",
			snap:       snapshotWith(5, 0, 0, false),
			wantScore:  82,
			wantRating: "Good",
			wantTitles: []string{"Use a script blocker", "No privacy policy found"},
		},
		{
			name:       "twenty-five tracking cookies without policy",
			snap:       snapshotWith(0, 0, 25, false),
			wantScore:  70,
			wantRating: "Good",
			wantTitles: []string{"No privacy policy found", "Clear tracking cookies"},
		},
		{
			name:       "everything maxed",
			snap:       snapshotWith(30, 200, 30, false),
			wantScore:  25,
			wantRating: "Very Poor",
			wantTitles: []string{"Use a script blocker", "No privacy policy found", "High tracking activity", "Clear tracking cookies"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Score(tc.snap)
			if got.Score != tc.wantScore {
				t.Errorf("score = %d, expected %d", got.Score, tc.wantScore)
			}
			if got.Rating != tc.wantRating {
				t.Errorf("rating = %q, expected %q", got.Rating, tc.wantRating)
			}
			titles := make([]string, 0, len(got.Recommendations))
			for _, r := range got.Recommendations {
				titles = append(titles, r.Title)
			}
			if diff := cmp.Diff(tc.wantTitles, titles); diff != "" {
				t.Errorf("recommendations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScoreFactors(t *testing.T) {
	t.Parallel()

	snap := snapshotWith(5, 0, 0, false)
	snap.Requests.ThirdParty = []model.NetworkRequest{{URL: "https://a.example"}, {URL: "https://b.example"}}

	got := Score(snap)
	want := &model.Factors{
		Scripts:            5,
		ThirdPartyRequests: 2,
		ScriptPenalty:      8,
		PolicyPenalty:      10,
		TotalPenalty:       18,
	}
	if diff := cmp.Diff(want, got.Factors); diff != "" {
		t.Errorf("factors mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreNilSnapshot(t *testing.T) {
	t.Parallel()

	got := Score(nil)
	want := model.ScoreResult{Score: 0, Rating: model.RatingUnknown, Recommendations: []model.Recommendation{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nil snapshot mismatch (-want +got):\n%s", diff)
	}
}

// TestScoreDistinctScripts tests that the same URL reported by two sources counts once.
func TestScoreDistinctScripts(t *testing.T) {
	t.Parallel()

	snap := &model.Snapshot{PrivacyPolicy: model.PrivacyPolicy{Found: true}}
	snap.Tracking.ScriptDetails = []model.Finding{
		{URL: "https://cdn.hotjar.com/h.js", Source: "Script"},
		{URL: "https://cdn.hotjar.com/h.js", Source: "Network"},
	}
	if got := Score(snap).Factors.Scripts; got != 1 {
		t.Errorf("scripts = %d, expected 1", got)
	}

	summaryOnly := &model.Snapshot{}
	summaryOnly.Tracking.Scripts = 12
	summaryOnly.Tracking.Requests = 70
	summaryOnly.Summary.TrackingCookies = 4
	f := Score(summaryOnly).Factors
	if f.Scripts != 12 || f.TrackingRequests != 70 || f.TrackingCookies != 4 {
		t.Errorf("expected recorded counts to be used, got %+v", f)
	}
}

// TestScoreMonotonic tests that adding one more tracker never raises the score.
func TestScoreMonotonic(t *testing.T) {
	t.Parallel()

	for _, policy := range []bool{true, false} {
		for n := 0; n < 200; n++ {
			base := Score(snapshotWith(n%40, n, n%30, policy)).Score
			moreScripts := Score(snapshotWith(n%40+1, n, n%30, policy)).Score
			moreRequests := Score(snapshotWith(n%40, n+1, n%30, policy)).Score
			moreCookies := Score(snapshotWith(n%40, n, n%30+1, policy)).Score
			for _, s := range []int{base, moreScripts, moreRequests, moreCookies} {
				if s < 0 || s > 100 {
					t.Fatalf("score %d out of range", s)
				}
			}
			if moreScripts > base || moreRequests > base || moreCookies > base {
				t.Fatalf("score increased at n=%d policy=%v: base=%d scripts=%d requests=%d cookies=%d",
					n, policy, base, moreScripts, moreRequests, moreCookies)
			}
		}
	}
}

func TestTablePenalty(t *testing.T) {
	t.Parallel()

	b := DefaultBands()
	testCases := []struct {
		table    Table
		count    int
		expected int
	}{
		{b.Scripts, -1, 0},
		{b.Scripts, 0, 0},
		{b.Scripts, 3, 4},
		{b.Scripts, 4, 8},
		{b.Scripts, 10, 8},
		{b.Scripts, 11, 15},
		{b.Scripts, 21, 25},
		{b.TrackingRequests, 20, 2},
		{b.TrackingRequests, 60, 5},
		{b.TrackingRequests, 150, 12},
		{b.TrackingRequests, 151, 20},
		{b.TrackingCookies, 3, 2},
		{b.TrackingCookies, 10, 5},
		{b.TrackingCookies, 20, 10},
		{b.TrackingCookies, 21, 20},
	}
	for _, tc := range testCases {
		if got := tc.table.Penalty(tc.count); got != tc.expected {
			t.Errorf("Penalty(%d) = %d, expected %d", tc.count, got, tc.expected)
		}
	}
}

func TestRating(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		score    int
		expected string
	}{
		{100, "Excellent"},
		{85, "Excellent"},
		{84, "Good"},
		{70, "Good"},
		{69, "Fair"},
		{55, "Fair"},
		{54, "Poor"},
		{40, "Poor"},
		{39, "Very Poor"},
		{0, "Very Poor"},
	}
	for _, tc := range testCases {
		if got := Rating(tc.score); got != tc.expected {
			t.Errorf("Rating(%d) = %q, expected %q", tc.score, got, tc.expected)
		}
	}
}

func TestBandsValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultBands().Validate(); err != nil {
		t.Fatalf("default bands invalid: %v", err)
	}

	unanchored := DefaultBands()
	unanchored.Scripts = Table{{Min: 1, Penalty: 4}}
	if err := unanchored.Validate(); !errors.Is(err, ErrBandsNotAnchored) {
		t.Errorf("expected ErrBandsNotAnchored, got %v", err)
	}

	decreasing := DefaultBands()
	decreasing.TrackingCookies = Table{{Min: 0, Penalty: 0}, {Min: 5, Penalty: 10}, {Min: 10, Penalty: 5}}
	if err := decreasing.Validate(); !errors.Is(err, ErrBandsNotMonotonic) {
		t.Errorf("expected ErrBandsNotMonotonic, got %v", err)
	}

	negative := DefaultBands()
	negative.MissingPolicy = -1
	if err := negative.Validate(); !errors.Is(err, ErrBandsNotMonotonic) {
		t.Errorf("expected ErrBandsNotMonotonic, got %v", err)
	}
}

func TestWithBands(t *testing.T) {
	t.Parallel()

	b := DefaultBands()
	b.MissingPolicy = 30
	s := New(WithBands(b))
	if got := s.Score(snapshotWith(0, 0, 0, false)).Score; got != 70 {
		t.Errorf("score = %d, expected 70", got)
	}
}
