package controller

import (
	"context"

	"github.com/nao1215/privacylens/internal/model"
)

// Source delivers events for the monitored site.
//
// Subscribe starts delivery and returns a function that stops it. Deliver may
// be called from any goroutine, including synchronously from Subscribe. The
// returned unsubscribe function is called with the controller's lock held,
// so it must not wait for in-flight deliveries to finish.
type Source interface {
	Subscribe(ctx context.Context, siteURL string, deliver func(Event)) (unsubscribe func(), err error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, siteURL string, deliver func(Event)) (func(), error)

// Subscribe calls f.
func (f SourceFunc) Subscribe(ctx context.Context, siteURL string, deliver func(Event)) (func(), error) {
	return f(ctx, siteURL, deliver)
}

// Store persists snapshots per hostname.
type Store interface {
	// Save stores the snapshot and its score under the snapshot's hostname.
	Save(ctx context.Context, snap *model.Snapshot, result *model.ScoreResult) error

	// Load returns the stored snapshot for hostname, or nil when there is none.
	Load(ctx context.Context, hostname string) (*model.Snapshot, error)
}

// Update is delivered to the change callback after a debounced rescore.
type Update struct {
	Snapshot *model.Snapshot
	Result   model.ScoreResult
}
