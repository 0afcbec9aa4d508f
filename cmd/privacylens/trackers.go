package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/privacylens/internal/config"
	"github.com/nao1215/privacylens/internal/trackerdb"
)

// NewTrackersCmd creates the trackers command and its subcommands.
func NewTrackersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trackers",
		Short: "Manage the tracker table",
		Long: `Trackers builds tracker tables from a DuckDuckGo Tracker Radar checkout and
looks up domains in the active table.`,
	}

	cmd.AddCommand(newTrackersBuildCmd())
	cmd.AddCommand(newTrackersLookupCmd())
	return cmd
}

func newTrackersBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a tracker table from Tracker Radar",
		Long: `Build reads build-data/generated/domain_map.json and entity_map.json from a
Tracker Radar checkout and writes a tracker table that can be passed to
'privacylens analyze --trackers'.

Examples:
  privacylens trackers build --radar-dir ./tracker-radar -o trackers.json`,
		Args: cobra.NoArgs,
		RunE: runTrackersBuildCmd,
	}

	cmd.Flags().String("radar-dir", "",
		"Tracker Radar checkout directory")
	cmd.Flags().String("domain-map", "",
		"Path of domain_map.json (overrides --radar-dir)")
	cmd.Flags().String("entity-map", "",
		"Path of entity_map.json (overrides --radar-dir)")
	cmd.Flags().StringP("output", "o", "trackers.json",
		"Output file path for the tracker table")

	return cmd
}

// radarMapPaths returns the domain and entity map paths from the flags.
func radarMapPaths(cmd *cobra.Command) (string, string, error) {
	radarDir, err := cmd.Flags().GetString("radar-dir")
	if err != nil {
		return "", "", err
	}
	domainMap, err := cmd.Flags().GetString("domain-map")
	if err != nil {
		return "", "", err
	}
	entityMap, err := cmd.Flags().GetString("entity-map")
	if err != nil {
		return "", "", err
	}

	generated := filepath.Join(radarDir, "build-data", "generated")
	if domainMap == "" && radarDir != "" {
		domainMap = filepath.Join(generated, "domain_map.json")
	}
	if entityMap == "" && radarDir != "" {
		entityMap = filepath.Join(generated, "entity_map.json")
	}
	if domainMap == "" || entityMap == "" {
		return "", "", errNoRadarMaps
	}
	return domainMap, entityMap, nil
}

// runTrackersBuildCmd executes the trackers build command.
func runTrackersBuildCmd(cmd *cobra.Command, _ []string) error {
	domainMap, entityMap, err := radarMapPaths(cmd)
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	domains, entities, err := trackerdb.ReadRadarMaps(domainMap, entityMap)
	if err != nil {
		return err
	}
	db, err := trackerdb.Refresh(domains, entities)
	if err != nil {
		// An empty table would only reproduce the embedded one.
		return fmt.Errorf("failed to build tracker table: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create tracker table: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := db.WriteJSON(f); err != nil {
		return fmt.Errorf("failed to write tracker table: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d trackers to %s\n", db.Len(), outputPath)
	return nil
}

func newTrackersLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <domain>...",
		Short: "Look up domains in the tracker table",
		Long: `Lookup prints the tracker table entry of each domain. Subdomains match the
entry of their parent domain.

Examples:
  privacylens trackers lookup www.google-analytics.com
  privacylens trackers lookup --trackers trackers.json cdn.segment.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: runTrackersLookupCmd,
	}

	cmd.Flags().String("trackers", "",
		"Tracker table JSON file that replaces the embedded one")

	return cmd
}

// runTrackersLookupCmd executes the trackers lookup command.
func runTrackersLookupCmd(cmd *cobra.Command, args []string) error {
	trackersPath, err := cmd.Flags().GetString("trackers")
	if err != nil {
		return err
	}

	logger := newLogger(cmd, getVerboseFlag(cmd))
	cfg := config.NewConfig()
	cfg.TrackerDBPath = trackersPath
	db := loadTrackers(cfg, logger)

	out := cmd.OutOrStdout()
	for _, domain := range args {
		entry, ok := db.Lookup(domain)
		if !ok {
			fmt.Fprintf(out, "%s: not a known tracker\n", domain)
			continue
		}
		fmt.Fprintf(out, "%s: %s (%s, prevalence %.2f)\n", domain, entry.Owner, entry.Category, entry.Prevalence)
		if entry.Purpose != "" {
			fmt.Fprintf(out, "  %s\n", entry.Purpose)
		}
	}
	return nil
}
