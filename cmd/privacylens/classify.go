package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/privacylens/internal/classifier"
	"github.com/nao1215/privacylens/internal/config"
	"github.com/nao1215/privacylens/internal/model"
)

// NewClassifyCmd creates the classify command.
func NewClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <url>...",
		Short: "Classify script or request URLs against the tracker table",
		Long: `Classify looks up each URL in the tracker table and prints its owner,
category and risk. URLs that are not in the table are classified by
heuristics. Duplicate URLs are reported once.

Examples:
  # Classify a script seen on example.com
  privacylens classify --page-host example.com https://www.google-analytics.com/analytics.js

  # Use a custom tracker table and print JSON
  privacylens classify --trackers trackers.json --json https://connect.facebook.net/sdk.js`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassifyCmd,
	}

	cmd.Flags().String("page-host", "",
		"Host of the page the URLs were observed on (decides third-party)")
	cmd.Flags().String("source", classifier.DefaultSource,
		"Observation channel recorded on each finding")
	cmd.Flags().String("trackers", "",
		"Tracker table JSON file that replaces the embedded one")
	cmd.Flags().BoolP("json", "j", false,
		"Output findings in JSON format")

	return cmd
}

// runClassifyCmd executes the classify command.
func runClassifyCmd(cmd *cobra.Command, args []string) error {
	pageHost, err := cmd.Flags().GetString("page-host")
	if err != nil {
		return err
	}
	source, err := cmd.Flags().GetString("source")
	if err != nil {
		return err
	}
	trackersPath, err := cmd.Flags().GetString("trackers")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := newLogger(cmd, getVerboseFlag(cmd))
	cfg := config.NewConfig()
	cfg.TrackerDBPath = trackersPath

	findings := classifier.New(loadTrackers(cfg, logger)).ClassifyMany(args, pageHost, source)
	if len(findings) == 0 {
		return errNoURLs
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(findings)
	}
	printFindings(cmd.OutOrStdout(), findings, logger)
	return nil
}

// printFindings prints findings as an aligned table.
func printFindings(w io.Writer, findings []model.Finding, logger *slog.Logger) {
	fmt.Fprintf(w, "%-6s  %-14s  %-28s  %-24s  %s\n", "RISK", "CATEGORY", "DOMAIN", "OWNER", "3RD")
	for _, f := range findings {
		thirdParty := "no"
		if f.IsThirdParty {
			thirdParty = "yes"
		}
		fmt.Fprintf(w, "%-6s  %-14s  %-28s  %-24s  %s\n",
			f.Risk, f.Category, f.Domain, f.Owner, thirdParty)
		logger.Debug("classified", "url", f.URL, "rationale", f.Rationale)
	}
}
