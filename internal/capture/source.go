package capture

import (
	"context"
	"fmt"
	"os"

	"github.com/nao1215/privacylens/internal/controller"
)

// ReplaySource delivers a fixed list of events when a controller subscribes.
// Delivery happens synchronously inside Subscribe and stops early when ctx
// is cancelled.
type ReplaySource struct {
	events []controller.Event
}

// NewReplaySource creates a source that replays events in order.
func NewReplaySource(events []controller.Event) *ReplaySource {
	return &ReplaySource{events: events}
}

// Subscribe implements controller.Source.
func (s *ReplaySource) Subscribe(ctx context.Context, _ string, deliver func(controller.Event)) (func(), error) {
	for _, ev := range s.events {
		if ctx.Err() != nil {
			return func() {}, ctx.Err()
		}
		deliver(ev)
	}
	return func() {}, nil
}

// Len returns the number of events the source replays.
func (s *ReplaySource) Len() int {
	return len(s.events)
}

// FileSource reads a capture file when a controller subscribes and replays
// its events. The page URL passed to Subscribe is used as the default
// request initiator. A file that cannot be opened fails the subscription,
// which the controller treats as a source without events.
type FileSource struct {
	path string
	opts []ReaderOption
}

// NewFileSource creates a source for the capture file at path.
func NewFileSource(path string, opts ...ReaderOption) *FileSource {
	return &FileSource{path: path, opts: opts}
}

// Subscribe implements controller.Source.
func (s *FileSource) Subscribe(ctx context.Context, siteURL string, deliver func(controller.Event)) (func(), error) {
	f, err := os.Open(s.path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	opts := append([]ReaderOption{WithPageURL(siteURL)}, s.opts...)
	events, err := NewReader(opts...).ReadEvents(f)
	if err != nil {
		return nil, err
	}
	return NewReplaySource(events).Subscribe(ctx, siteURL, deliver)
}

// PageSource scans a saved HTML page when a controller subscribes and
// delivers the discovered scripts and policy link.
type PageSource struct {
	path string
}

// NewPageSource creates a source for the HTML page at path.
func NewPageSource(path string) *PageSource {
	return &PageSource{path: path}
}

// Subscribe implements controller.Source.
func (s *PageSource) Subscribe(ctx context.Context, siteURL string, deliver func(controller.Event)) (func(), error) {
	f, err := os.Open(s.path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close() //nolint:errcheck

	scan, err := ScanPage(f, siteURL)
	if err != nil {
		return nil, err
	}
	return NewReplaySource(scan.Events()).Subscribe(ctx, siteURL, deliver)
}
