package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/privacylens/internal/score"
)

// Report formats.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "privacylens"

	// DefaultDebounce is the quiet period after the last observation before
	// a session is rescored. Bursts of requests during page load collapse
	// into one rescore.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultBatchSize is the number of captures analyzed concurrently.
	DefaultBatchSize = 4

	// DefaultHistoryLimit is the number of history entries shown per host.
	DefaultHistoryLimit = 10

	// DefaultFormat is the report format used when none is given.
	DefaultFormat = FormatText
)

// Config holds all configuration options for an analysis run.
// It is populated from CLI flags and the configuration file and passed
// through the application rather than kept in global state.
//
// Design decision: A single flat struct. The number of options is small and
// nesting would only add indirection at every call site.
type Config struct {
	// Captures are the capture files (JSON Lines) to analyze.
	Captures []string

	// SiteURL is the monitored page URL. When empty it is taken from the
	// first main_frame request of each capture.
	SiteURL string

	// PagePath is a saved HTML page of SiteURL to scan for scripts and
	// privacy policy links.
	PagePath string

	// Verbose enables debug logging.
	Verbose bool

	// Debounce is the rescoring quiet period.
	Debounce time.Duration

	// BatchSize is the number of captures analyzed concurrently.
	BatchSize int

	// Format is the report format: text, json or markdown.
	Format string

	// ReportFile is the output file. Empty means stdout.
	ReportFile string

	// Tee also prints the text summary to stdout when ReportFile is set.
	Tee bool

	// ConfigFilePath is the explicit configuration file path.
	ConfigFilePath string

	// SiteConfigs holds the configuration file contents.
	SiteConfigs *File

	// DBDir is the directory of the snapshot database.
	// Defaults to the XDG data directory (~/.local/share/privacylens on Linux).
	DBDir string

	// SaveToDB stores every analyzed snapshot in the database.
	SaveToDB bool

	// Restore seeds each session with the stored snapshot of its host.
	Restore bool

	// TrackerDBPath is a tracker table JSON file that replaces the
	// embedded one.
	TrackerDBPath string

	// Bands are the scoring bands. Nil uses score.DefaultBands.
	Bands *score.Bands
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Debounce:  DefaultDebounce,
		BatchSize: DefaultBatchSize,
		Format:    DefaultFormat,
		DBDir:     XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for privacylens.
// On Linux: ~/.local/share/privacylens
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for privacylens.
// On Linux: ~/.config/privacylens
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyFile merges the tuning values of the configuration file into c.
// Values set in the file win over defaults; flags are applied afterwards
// by the caller.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.SiteConfigs = f
	if f.Debounce > 0 {
		c.Debounce = f.Debounce
	}
	if f.Trackers != "" && c.TrackerDBPath == "" {
		c.TrackerDBPath = f.Trackers
	}
	if f.Scoring != nil {
		bands := *f.Scoring
		c.Bands = &bands
	}
}

// ScoreBands returns the configured bands or the defaults.
func (c *Config) ScoreBands() score.Bands {
	if c.Bands == nil {
		return score.DefaultBands()
	}
	return *c.Bands
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Captures) == 0 && c.PagePath == "" {
		return ErrNoCapture
	}
	if c.PagePath != "" && c.SiteURL == "" {
		return ErrPageWithoutURL
	}
	if c.Tee && c.ReportFile == "" {
		return ErrTeeWithoutOutput
	}
	if c.Debounce <= 0 {
		return ErrInvalidDebounce
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatMarkdown:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Format)
	}
	if (c.SaveToDB || c.Restore) && c.DBDir == "" {
		return ErrNoDBDir
	}
	if c.Bands != nil {
		if err := c.Bands.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidBands, err)
		}
	}
	return nil
}
