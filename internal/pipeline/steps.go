package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nao1215/privacylens/internal/capture"
	"github.com/nao1215/privacylens/internal/classifier"
	"github.com/nao1215/privacylens/internal/config"
	"github.com/nao1215/privacylens/internal/controller"
	"github.com/nao1215/privacylens/internal/model"
	"github.com/nao1215/privacylens/internal/score"
	"github.com/nao1215/privacylens/internal/session"
)

// ReplayStep replays a job's capture and page into a monitoring session and
// records the final snapshot.
type ReplayStep struct {
	classifier *classifier.Classifier
	detector   *capture.Detector
	scorer     *score.Scorer
	debounce   time.Duration
	restore    controller.Store
	sites      *config.File
	logger     *slog.Logger
	now        func() time.Time
}

// ReplayStepOption configures a ReplayStep.
type ReplayStepOption func(*ReplayStep)

// WithReplayClassifier sets the classifier used for scripts.
func WithReplayClassifier(cl *classifier.Classifier) ReplayStepOption {
	return func(s *ReplayStep) {
		s.classifier = cl
	}
}

// WithReplayDetector sets the detector used for request flags missing from
// the capture.
func WithReplayDetector(d *capture.Detector) ReplayStepOption {
	return func(s *ReplayStep) {
		s.detector = d
	}
}

// WithReplayScorer sets the scorer used for intermediate rescoring.
func WithReplayScorer(sc *score.Scorer) ReplayStepOption {
	return func(s *ReplayStep) {
		s.scorer = sc
	}
}

// WithReplayDebounce sets the controller's debounce window.
func WithReplayDebounce(d time.Duration) ReplayStepOption {
	return func(s *ReplayStep) {
		s.debounce = d
	}
}

// WithRestoreFrom seeds each session with the stored snapshot of its host.
// The store is only read; saving is left to PersistStep.
func WithRestoreFrom(store controller.Store) ReplayStepOption {
	return func(s *ReplayStep) {
		s.restore = store
	}
}

// WithSites applies per-site overrides from the configuration file.
func WithSites(f *config.File) ReplayStepOption {
	return func(s *ReplayStep) {
		s.sites = f
	}
}

// WithReplayLogger sets a custom logger for the replay step.
func WithReplayLogger(logger *slog.Logger) ReplayStepOption {
	return func(s *ReplayStep) {
		s.logger = logger
	}
}

// WithReplayClock sets the clock used for timestamps.
func WithReplayClock(now func() time.Time) ReplayStepOption {
	return func(s *ReplayStep) {
		s.now = now
	}
}

// NewReplayStep creates a new replay step.
func NewReplayStep(opts ...ReplayStepOption) *ReplayStep {
	s := &ReplayStep{}
	for _, opt := range opts {
		opt(s)
	}
	if s.detector == nil {
		s.detector = capture.NewDetector(nil)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Name returns the step name.
func (s *ReplayStep) Name() string {
	return "replay"
}

// Do executes the replay step.
func (s *ReplayStep) Do(ctx context.Context, run *Run) error {
	job := run.Job
	if job.CapturePath == "" && job.PagePath == "" {
		return ErrNoInput
	}

	siteURL := job.SiteURL
	events := make([]controller.Event, 0)

	if job.CapturePath != "" {
		captured, pageURL, err := s.readCapture(job.CapturePath, siteURL)
		if err != nil {
			return err
		}
		events = append(events, captured...)
		if siteURL == "" {
			siteURL = pageURL
		}
	}
	if siteURL == "" {
		return ErrNoSiteURL
	}
	if host := session.Hostname(siteURL); capture.IsLocalhost(host) {
		return fmt.Errorf("%w: %s", ErrLocalSite, host)
	}

	if job.PagePath != "" {
		scanned, err := scanPage(job.PagePath, siteURL)
		if err != nil {
			return err
		}
		events = append(events, scanned...)
	}

	events = applySiteConfig(s.sites.GetSiteConfig(session.Hostname(siteURL)), events)

	ctrl := controller.New(s.controllerOptions(events)...)
	if err := ctrl.Start(ctx, siteURL); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	ctrl.Flush()
	ctrl.Stop()

	run.Audit.Snapshot = ctrl.Snapshot()
	if run.Audit.Snapshot.IsEmpty() {
		s.logger.Warn("nothing observed for site", "job", job.Name(), "site", siteURL)
	}
	s.logger.Debug("capture replayed", "job", job.Name(), "events", len(events))
	return nil
}

func (s *ReplayStep) controllerOptions(events []controller.Event) []controller.Option {
	opts := []controller.Option{
		controller.WithSources(capture.NewReplaySource(events)),
		controller.WithLogger(s.logger),
		controller.WithClock(s.now),
		controller.WithOnChange(func(u controller.Update) {
			s.logger.Debug("session rescored", "site", u.Snapshot.Hostname, "score", u.Result.Score)
		}),
	}
	if s.classifier != nil {
		opts = append(opts, controller.WithClassifier(s.classifier))
	}
	if s.scorer != nil {
		opts = append(opts, controller.WithScorer(s.scorer))
	}
	if s.debounce > 0 {
		opts = append(opts, controller.WithDebounce(s.debounce))
	}
	if s.restore != nil {
		opts = append(opts,
			controller.WithStore(readOnlyStore{store: s.restore}),
			controller.WithRestore(true),
		)
	}
	return opts
}

func (s *ReplayStep) readCapture(path, siteURL string) ([]controller.Event, string, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return nil, "", fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close() //nolint:errcheck

	reader := capture.NewReader(
		capture.WithPageURL(siteURL),
		capture.WithDetector(s.detector),
		capture.WithReaderLogger(s.logger),
	)
	events, err := reader.ReadEvents(f)
	if err != nil {
		return nil, "", err
	}
	return events, reader.PageURL(), nil
}

func scanPage(path, siteURL string) ([]controller.Event, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close() //nolint:errcheck

	scan, err := capture.ScanPage(f, siteURL)
	if err != nil {
		return nil, err
	}
	return scan.Events(), nil
}

// applySiteConfig drops events for ignored URLs and adds the configured
// privacy policy.
func applySiteConfig(sc config.SiteConfig, events []controller.Event) []controller.Event {
	out := make([]controller.Event, 0, len(events)+1)
	for _, ev := range events {
		switch e := ev.(type) {
		case controller.CookieEvent:
			if sc.Ignores(e.URL) {
				continue
			}
		case controller.RequestEvent:
			if sc.Ignores(e.URL) {
				continue
			}
		case controller.ScriptEvent:
			kept := make([]controller.ScriptRef, 0, len(e.Scripts))
			for _, ref := range e.Scripts {
				if !sc.Ignores(ref.URL) {
					kept = append(kept, ref)
				}
			}
			if len(kept) == 0 {
				continue
			}
			ev = controller.ScriptEvent{Scripts: kept}
		}
		out = append(out, ev)
	}
	if sc.PolicyURL != "" {
		out = append(out, controller.PolicyLinkEvent{URL: sc.PolicyURL, Summary: sc.PolicySummary})
	}
	return out
}

// readOnlyStore lets the controller restore sessions without writing.
type readOnlyStore struct {
	store controller.Store
}

func (r readOnlyStore) Save(context.Context, *model.Snapshot, *model.ScoreResult) error {
	return nil
}

func (r readOnlyStore) Load(ctx context.Context, hostname string) (*model.Snapshot, error) {
	return r.store.Load(ctx, hostname)
}

// ScoreStep scores the run's snapshot.
type ScoreStep struct {
	scorer *score.Scorer
}

// NewScoreStep creates a score step. A nil scorer uses the default bands.
func NewScoreStep(scorer *score.Scorer) *ScoreStep {
	if scorer == nil {
		scorer = score.New()
	}
	return &ScoreStep{scorer: scorer}
}

// Name returns the step name.
func (s *ScoreStep) Name() string {
	return "score"
}

// Do executes the score step.
func (s *ScoreStep) Do(_ context.Context, run *Run) error {
	if run.Audit.Snapshot == nil {
		return ErrNoSnapshot
	}
	run.Audit.Score = s.scorer.Score(run.Audit.Snapshot)
	return nil
}

// PersistStep saves the run's snapshot and score.
type PersistStep struct {
	store controller.Store
}

// NewPersistStep creates a persist step writing to store.
func NewPersistStep(store controller.Store) *PersistStep {
	return &PersistStep{store: store}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, run *Run) error {
	if run.Audit.Snapshot == nil {
		return ErrNoSnapshot
	}
	result := run.Audit.Score
	if err := s.store.Save(ctx, run.Audit.Snapshot, &result); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}
