package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/privacylens/internal/capture"
	"github.com/nao1215/privacylens/internal/classifier"
	"github.com/nao1215/privacylens/internal/config"
	"github.com/nao1215/privacylens/internal/database"
	"github.com/nao1215/privacylens/internal/pipeline"
	"github.com/nao1215/privacylens/internal/report"
	"github.com/nao1215/privacylens/internal/score"
	"github.com/nao1215/privacylens/internal/trackerdb"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [capture-file...]",
		Short: "Analyze captured page activity and report a privacy score",
		Long: `Analyze replays one or more captures of a monitored page and reports the
trackers, cookies and privacy policy links found together with a privacy score.

A capture is a JSON Lines file. Each line is one observation:
  {"type":"main_frame","url":"https://example.com/"}
  {"type":"script","url":"https://www.google-analytics.com/analytics.js"}
  {"type":"cookie","url":"https://example.com/","cookies":["_ga=GA1.2.3; Domain=.example.com"]}
  {"type":"scripts","scripts":[{"url":"https://cdn.example.net/app.js"}]}
  {"type":"policy","url":"https://example.com/privacy"}

The monitored page is taken from the first main_frame request unless --url
is given. A saved HTML page (--page) is scanned for script tags and privacy
policy links; it requires --url.

Captures are analyzed concurrently (--batch). Each analyzed snapshot can be
stored in the local database (--save) and later sessions can start from the
stored snapshot of their host (--restore).

Examples:
  # Analyze a capture
  privacylens analyze capture.jsonl

  # Analyze a saved page
  privacylens analyze --url https://example.com --page index.html

  # Analyze several captures and write a Markdown report
  privacylens analyze --format markdown -o report.md a.jsonl b.jsonl

  # Write a JSON report and still see the summary
  privacylens analyze --format json -o report.json --tee capture.jsonl

  # Store the results for later comparison
  privacylens analyze --save capture.jsonl`,
		RunE: runAnalyzeCmd,
	}

	// Input flags
	cmd.Flags().StringP("url", "u", "",
		"URL of the monitored page (default: first main_frame request of the capture)")
	cmd.Flags().StringP("page", "p", "",
		"Saved HTML page of --url to scan for scripts and policy links")

	// Analysis flags
	cmd.Flags().Duration("debounce", config.DefaultDebounce,
		"Quiet period after the last observation before rescoring")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of captures to analyze concurrently")
	cmd.Flags().String("trackers", "",
		"Tracker table JSON file that replaces the embedded one")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .privacylens.yaml)")

	// Storage flags
	cmd.Flags().Bool("save", false,
		"Save the analyzed snapshots to the database")
	cmd.Flags().Bool("restore", false,
		"Start each session from the stored snapshot of its host")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	// Output flags
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Report format: text, json or markdown")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to a file instead of stdout")
	cmd.Flags().Bool("tee", false,
		"With --output, also print the text report to stdout")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg.Verbose)

	// Cancel on interrupt so running sessions stop and are still persisted.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAnalyze(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildConfig creates a Config from the configuration file and the command
// flags. Flags that were set explicitly win over the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// If no path was specified, silently continue without one.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	flags := cmd.Flags()
	if cfg.SiteURL, err = flags.GetString("url"); err != nil {
		return nil, err
	}
	if cfg.PagePath, err = flags.GetString("page"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Tee, err = flags.GetBool("tee"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}
	if cfg.Restore, err = flags.GetBool("restore"); err != nil {
		return nil, err
	}

	// These have defaults in the configuration file too.
	if flags.Changed("debounce") {
		if cfg.Debounce, err = flags.GetDuration("debounce"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("trackers") {
		if cfg.TrackerDBPath, err = flags.GetString("trackers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	cfg.Captures = args
	return cfg, nil
}

// buildJobs creates one job per capture. Without captures the saved page is
// analyzed on its own.
func buildJobs(cfg *config.Config) []pipeline.Job {
	if len(cfg.Captures) == 0 {
		return []pipeline.Job{{SiteURL: cfg.SiteURL, PagePath: cfg.PagePath}}
	}
	jobs := make([]pipeline.Job, 0, len(cfg.Captures))
	for _, path := range cfg.Captures {
		jobs = append(jobs, pipeline.Job{
			SiteURL:     cfg.SiteURL,
			CapturePath: path,
			PagePath:    cfg.PagePath,
		})
	}
	return jobs
}

// loadTrackers returns the configured tracker table. A table that cannot be
// used is reported and the embedded one is used instead.
func loadTrackers(cfg *config.Config, logger *slog.Logger) *trackerdb.DB {
	if cfg.TrackerDBPath == "" {
		return trackerdb.Default()
	}
	db, err := trackerdb.LoadFile(cfg.TrackerDBPath)
	if err != nil {
		logger.Warn("using embedded tracker table", "path", cfg.TrackerDBPath, "error", err)
	}
	return db
}

// runAnalyze executes the analysis and writes the reports to out.
func runAnalyze(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	jobs := buildJobs(cfg)
	logger.Info("starting analysis", "jobs", len(jobs), "batch", cfg.BatchSize)

	trackers := loadTrackers(cfg, logger)
	cl := classifier.New(trackers)
	detector := capture.NewDetector(trackers)
	scorer := score.New(score.WithBands(cfg.ScoreBands()))

	var store *database.Store
	if cfg.SaveToDB || cfg.Restore {
		var err error
		store, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close() //nolint:errcheck
	}

	factory := func() *pipeline.Pipeline {
		opts := []pipeline.ReplayStepOption{
			pipeline.WithReplayClassifier(cl),
			pipeline.WithReplayDetector(detector),
			pipeline.WithReplayScorer(scorer),
			pipeline.WithReplayDebounce(cfg.Debounce),
			pipeline.WithSites(cfg.SiteConfigs),
			pipeline.WithReplayLogger(logger),
		}
		if cfg.Restore {
			opts = append(opts, pipeline.WithRestoreFrom(store))
		}

		p := pipeline.New(pipeline.WithLogger(logger))
		p.AddSteps(pipeline.NewReplayStep(opts...), pipeline.NewScoreStep(scorer))
		if cfg.SaveToDB {
			p.AddStep(pipeline.NewPersistStep(store))
		}
		return p
	}

	started := time.Now()
	processor := pipeline.NewBatchProcessor(factory,
		pipeline.WithBatchLogger(logger),
		pipeline.WithConcurrency(cfg.BatchSize),
	)
	runs, err := processor.ProcessBatch(ctx, jobs)
	if err != nil {
		return fmt.Errorf("analysis interrupted: %w", err)
	}
	logger.Info("analysis complete", "jobs", len(jobs), "elapsed", time.Since(started).Round(time.Millisecond))

	return outputReports(cfg, out, runs)
}

// outputReports writes the report of every successful run and returns the
// errors of the failed ones.
func outputReports(cfg *config.Config, stdout io.Writer, runs []*pipeline.Run) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports list the third parties a site talks to; keep them private.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck
		output = f
	}

	var writer report.Writer = newReportWriter(cfg, output)
	if cfg.Tee && cfg.ReportFile != "" {
		writer = report.NewMultiWriter(writer, report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)))
	}
	var errs []error
	for _, run := range runs {
		if run.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", run.Job.Name(), run.Err))
			continue
		}
		if _, err := writer.Write(run.Audit); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return errors.Join(errs...)
}

// newReportWriter returns the writer for the configured format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch cfg.Format {
	case config.FormatJSON:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case config.FormatMarkdown:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}
