package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/privacylens/internal/classifier"
	"github.com/nao1215/privacylens/internal/model"
	"github.com/nao1215/privacylens/internal/score"
	"github.com/nao1215/privacylens/internal/session"
)

// DefaultDebounce is the window in which repeated changes collapse into one
// rescoring signal.
const DefaultDebounce = 300 * time.Millisecond

// State is the lifecycle state of a Controller.
type State int

const (
	// StateIdle means no session is live.
	StateIdle State = iota
	// StateMonitoring means a session is live and ingesting events.
	StateMonitoring
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateMonitoring:
		return "Monitoring"
	default:
		return "Unknown"
	}
}

// Controller owns at most one live session and routes events into it.
// All methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	state      State
	sess       *session.Session
	last       *model.Snapshot
	ctx        context.Context
	generation uint64
	timer      *time.Timer
	timerSeq   uint64
	unsubs     []func()

	sources    []Source
	classifier *classifier.Classifier
	scorer     *score.Scorer
	store      Store
	onChange   func(Update)
	debounce   time.Duration
	restore    bool
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithSources sets the event sources subscribed on every Start.
func WithSources(sources ...Source) Option {
	return func(c *Controller) {
		c.sources = append(c.sources, sources...)
	}
}

// WithClassifier sets the classifier used for scripts and requests.
func WithClassifier(cl *classifier.Classifier) Option {
	return func(c *Controller) {
		c.classifier = cl
	}
}

// WithScorer sets the scorer used for rescoring.
func WithScorer(s *score.Scorer) Option {
	return func(c *Controller) {
		c.scorer = s
	}
}

// WithStore enables persistence. Snapshots are saved after each debounced
// rescore and when the session stops.
func WithStore(store Store) Option {
	return func(c *Controller) {
		c.store = store
	}
}

// WithRestore makes Start reload the stored snapshot for the site, when a
// store is configured and holds one.
func WithRestore(restore bool) Option {
	return func(c *Controller) {
		c.restore = restore
	}
}

// WithOnChange sets the callback invoked after a debounced rescore.
// It is called outside the controller's lock, from the timer goroutine or
// from Flush.
func WithOnChange(fn func(Update)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// WithDebounce sets the debounce window. Non-positive values use DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.debounce = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock sets the time source passed to sessions.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// New creates an idle Controller.
func New(opts ...Option) *Controller {
	c := &Controller{state: StateIdle}
	for _, opt := range opts {
		opt(c)
	}
	if c.classifier == nil {
		c.classifier = classifier.New(nil)
	}
	if c.scorer == nil {
		c.scorer = score.New()
	}
	if c.debounce <= 0 {
		c.debounce = DefaultDebounce
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins monitoring siteURL.
//
// Calling Start again for the URL that is already monitored is a no-op. For
// a different URL the live session is stopped first. Subscription failures
// are logged and treated as a source that delivers nothing.
func (c *Controller) Start(ctx context.Context, siteURL string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	if c.state == StateMonitoring && c.sess.URL() == siteURL {
		c.mu.Unlock()
		return nil
	}
	stopped := c.stopLocked()
	c.mu.Unlock()
	c.persist(stopped)

	sess, err := c.newSession(ctx, siteURL)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state == StateMonitoring {
		// Another Start won the race while the session was being prepared.
		stopped = c.stopLocked()
	}
	c.generation++
	gen := c.generation
	c.sess = sess
	c.last = nil
	c.ctx = ctx
	c.state = StateMonitoring
	c.mu.Unlock()
	c.persist(stopped)

	c.logger.Debug("monitoring started", "site", sess.Hostname(), "session", sess.ID())

	for _, src := range c.sources {
		unsub, err := src.Subscribe(ctx, siteURL, c.deliverFor(gen))
		if err != nil {
			c.logger.Warn("event source subscription failed", "site", sess.Hostname(), "error", err)
			continue
		}
		if unsub == nil {
			continue
		}
		c.mu.Lock()
		if c.generation == gen {
			c.unsubs = append(c.unsubs, unsub)
			unsub = nil
		}
		c.mu.Unlock()
		if unsub != nil {
			// The session was stopped while subscribing.
			unsub()
		}
	}
	return nil
}

func (c *Controller) newSession(ctx context.Context, siteURL string) (*session.Session, error) {
	opts := []session.Option{session.WithLogger(c.logger), session.WithClock(c.now)}

	if c.restore && c.store != nil {
		host := session.Hostname(siteURL)
		snap, err := c.store.Load(ctx, host)
		if err != nil {
			c.logger.Warn("failed to load stored snapshot", "site", host, "error", err)
		}
		if snap != nil {
			restored, err := session.Restore(snap, opts...)
			if err == nil {
				return restored, nil
			}
			c.logger.Warn("ignoring stored snapshot", "site", host, "error", err)
		}
	}
	return session.New(siteURL, opts...)
}

// Stop ends monitoring. The final snapshot stays available through
// Snapshot and Score until the next Start. Stop on an idle controller is a
// no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	stopped := c.stopLocked()
	c.mu.Unlock()
	c.persist(stopped)
}

// stoppedSession is what remains of a session after stopLocked.
type stoppedSession struct {
	ctx  context.Context
	snap *model.Snapshot
}

// stopLocked tears down the live session. c.mu must be held.
func (c *Controller) stopLocked() *stoppedSession {
	if c.state != StateMonitoring {
		return nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil

	c.last = c.sess.Snapshot()
	stopped := &stoppedSession{ctx: c.ctx, snap: c.last}
	c.logger.Debug("monitoring stopped", "site", c.sess.Hostname(), "session", c.sess.ID())

	c.sess = nil
	c.ctx = nil
	c.state = StateIdle
	return stopped
}

// Ingest routes an event into the live session. Without a live session it
// does nothing.
func (c *Controller) Ingest(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ingestLocked(ev)
}

// deliverFor returns the delivery callback for sources subscribed for
// session generation gen. Events arriving after that session ended are dropped.
func (c *Controller) deliverFor(gen uint64) func(Event) {
	return func(ev Event) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation != gen {
			return
		}
		c.ingestLocked(ev)
	}
}

func (c *Controller) ingestLocked(ev Event) {
	if c.state != StateMonitoring || ev == nil {
		return
	}
	if c.apply(ev) {
		c.scheduleLocked()
	}
}

// Snapshot returns a snapshot of the live session, or the final snapshot of
// the last stopped session. It returns nil before the first Start.
func (c *Controller) Snapshot() *model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		return c.sess.Snapshot()
	}
	return c.last
}

// Score scores the current snapshot.
func (c *Controller) Score() model.ScoreResult {
	return c.scorer.Score(c.Snapshot())
}

// Flush cancels a pending rescoring signal and delivers it immediately.
// It does nothing when nothing is pending.
func (c *Controller) Flush() {
	c.mu.Lock()
	if c.timer == nil || !c.timer.Stop() {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.timerSeq++
	update, ctx := c.rescoreLocked()
	c.mu.Unlock()
	c.publish(ctx, update)
}

// scheduleLocked (re)starts the debounce timer. c.mu must be held.
func (c *Controller) scheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timerSeq++
	gen, seq := c.generation, c.timerSeq
	c.timer = time.AfterFunc(c.debounce, func() {
		c.fire(gen, seq)
	})
}

// fire delivers the rescoring signal if the timer that scheduled it is still
// the current one and its session is still live.
func (c *Controller) fire(gen, seq uint64) {
	c.mu.Lock()
	if c.state != StateMonitoring || c.generation != gen || c.timerSeq != seq {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	update, ctx := c.rescoreLocked()
	c.mu.Unlock()
	c.publish(ctx, update)
}

func (c *Controller) rescoreLocked() (Update, context.Context) {
	snap := c.sess.Snapshot()
	return Update{Snapshot: snap, Result: c.scorer.Score(snap)}, c.ctx
}

func (c *Controller) publish(ctx context.Context, update Update) {
	if c.store != nil {
		if err := c.store.Save(ctx, update.Snapshot, &update.Result); err != nil {
			c.logger.Error("failed to save snapshot", "site", update.Snapshot.Hostname, "error", err)
		}
	}
	if c.onChange != nil {
		c.onChange(update)
	}
}

// persist saves the final snapshot of a stopped session.
func (c *Controller) persist(stopped *stoppedSession) {
	if stopped == nil || c.store == nil {
		return
	}
	ctx := context.WithoutCancel(stopped.ctx)
	result := c.scorer.Score(stopped.snap)
	if err := c.store.Save(ctx, stopped.snap, &result); err != nil {
		c.logger.Error("failed to save snapshot", "site", stopped.snap.Hostname, "error", err)
	}
}
