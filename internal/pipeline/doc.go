// Package pipeline runs offline privacy audits as a sequence of steps.
//
// One audit replays a capture into a monitoring session, scores the
// resulting snapshot and optionally stores it. Each stage is a Step that
// receives the Run and adds to it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// so the analyze command can add or drop stages (persisting, restoring)
// from flags, while logging and cancellation are handled in one place.
//
// Several captures are audited concurrently by BatchProcessor, which limits
// concurrency with errgroup.
package pipeline
