package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/privacylens/internal/report"
)

// Job describes one audit.
type Job struct {
	// SiteURL is the monitored page. When empty, ReplayStep takes it from
	// the capture.
	SiteURL string

	// CapturePath is a JSON Lines capture file.
	CapturePath string

	// PagePath is a saved HTML page of SiteURL.
	PagePath string
}

// Name returns a label for the job used in logs and reports.
func (j Job) Name() string {
	switch {
	case j.CapturePath != "":
		return j.CapturePath
	case j.PagePath != "":
		return j.PagePath
	default:
		return j.SiteURL
	}
}

// Run is the state of one audit as it moves through the pipeline.
type Run struct {
	Job Job

	// Audit is filled in by the steps.
	Audit *report.Audit

	// Steps lists the steps that completed.
	Steps []string

	// Err is the first step error.
	Err error
}

// NewRun creates a Run for job.
func NewRun(job Job) *Run {
	return &Run{
		Job:   job,
		Audit: &report.Audit{Source: job.Name()},
		Steps: make([]string, 0),
	}
}

// Step is one stage of an audit.
//
// Design decision: An interface rather than a function type, so steps can
// carry their configuration and report a Name for logging.
type Step interface {
	// Do executes the step. Returning an error marks the run as failed.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing steps after one fails. The first
// error stays recorded in the run.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence. Cancellation is checked before each
// step; steps handle their own blocking.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	p.logger.Debug("running pipeline", "job", run.Job.Name(), "count", p.StepCount(), "steps", p.StepNames())
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "reason", err)
			if run.Err == nil {
				run.Err = err
			}
			return err
		}

		p.logger.Debug("executing step", "step", step.Name(), "job", run.Job.Name())

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "job", run.Job.Name(), "error", err)
			if run.Err == nil {
				run.Err = err
			}
			if !p.continueOnError {
				return err
			}
			continue
		}
		run.Steps = append(run.Steps, step.Name())
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
