package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of audits run at once by default.
const DefaultConcurrency = 4

// BatchProcessor audits several jobs concurrently.
//
// Design decision: errgroup.SetLimit bounds concurrency instead of a
// hand-written worker pool. A failed audit does not cancel the others; its
// error stays in its Run.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each job.
	pipelineFactory func() *Pipeline

	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent audits.
// Values below 1 are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch audits jobs concurrently and returns one Run per job, in job
// order. Runs of jobs that were never started because ctx was cancelled
// carry ctx's error.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []Job) ([]*Run, error) {
	runs := make([]*Run, len(jobs))
	err := bp.ProcessBatchWithCallback(ctx, jobs, func(run *Run, index int) {
		runs[index] = run
	})
	return runs, err
}

// ProcessBatchWithCallback audits jobs concurrently and calls callback for
// each finished run with the index of its job. The callback is called from
// worker goroutines; each index is written exactly once.
func (bp *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, jobs []Job, callback func(run *Run, index int)) error {
	bp.logger.Debug("starting batch", "jobs", len(jobs), "concurrency", bp.concurrency)
	started := time.Now()

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			run := NewRun(job)
			if err := ctx.Err(); err != nil {
				run.Err = err
				callback(run, i)
				return nil
			}

			if err := bp.pipelineFactory().Execute(ctx, run); err != nil {
				bp.logger.Warn("audit failed", "job", job.Name(), "error", err)
			}
			callback(run, i)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // workers never return errors
	bp.logger.Debug("batch complete", "jobs", len(jobs), "elapsed", time.Since(started))
	return ctx.Err()
}
