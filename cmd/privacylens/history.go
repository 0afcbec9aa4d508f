package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/privacylens/internal/config"
	"github.com/nao1215/privacylens/internal/database"
	"github.com/nao1215/privacylens/internal/report"
	"github.com/nao1215/privacylens/internal/score"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [host]",
		Short: "Show saved snapshots from the database",
		Long: `History lists the hosts with saved snapshots, or the score history of one
host. Snapshots are saved by 'privacylens analyze --save'.

Examples:
  # List all hosts in the database
  privacylens history

  # Show the last 5 scores of a host
  privacylens history -n 5 example.com

  # Print the latest stored snapshot of a host as a report
  privacylens history --show example.com

  # Remove a host from the database
  privacylens history --delete example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Number of entries to show (0 shows all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output history in JSON format")
	cmd.Flags().Bool("show", false,
		"Print the latest stored snapshot of the host as a report")
	cmd.Flags().Bool("delete", false,
		"Delete the stored snapshot and history of the host")

	return cmd
}

// historyOptions holds the parsed flags of the history command.
type historyOptions struct {
	dbDir      string
	limit      int
	jsonOutput bool
	show       bool
	remove     bool
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryFlags(cmd)
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var host string
	if len(args) > 0 {
		host = strings.ToLower(strings.TrimSpace(args[0]))
	}
	if host == "" && (opts.show || opts.remove) {
		return errHostRequired
	}

	out := cmd.OutOrStdout()
	dbOpts := database.DefaultOptions()
	dbOpts.CreateIfNotExists = false
	store, err := database.Open(opts.dbDir, dbOpts)
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No saved snapshots found.")
		fmt.Fprintln(out, "\nUse 'privacylens analyze --save' to store analysis results.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close() //nolint:errcheck

	ctx := cmd.Context()
	switch {
	case host == "":
		return listHosts(ctx, out, store, opts.jsonOutput)
	case opts.remove:
		if err := store.Delete(ctx, host); err != nil {
			return fmt.Errorf("failed to delete %s: %w", host, err)
		}
		fmt.Fprintf(out, "Deleted saved snapshots of %s\n", host)
		return nil
	case opts.show:
		return showLatest(ctx, out, store, host, opts.jsonOutput)
	default:
		return listHistory(ctx, out, store, host, opts.limit, opts.jsonOutput)
	}
}

func parseHistoryFlags(cmd *cobra.Command) (historyOptions, error) {
	var opts historyOptions
	var err error
	flags := cmd.Flags()
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return opts, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return opts, err
	}
	if opts.jsonOutput, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.show, err = flags.GetBool("show"); err != nil {
		return opts, err
	}
	if opts.remove, err = flags.GetBool("delete"); err != nil {
		return opts, err
	}
	return opts, nil
}

// listHosts lists all hosts that have a saved snapshot.
func listHosts(ctx context.Context, out io.Writer, store *database.Store, jsonOutput bool) error {
	hosts, err := store.Hosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hosts: %w", err)
	}

	if jsonOutput {
		return encodeJSON(out, hosts)
	}

	if len(hosts) == 0 {
		fmt.Fprintln(out, "No saved snapshots found.")
		return nil
	}

	fmt.Fprintf(out, "Hosts with saved snapshots (%d):\n\n", len(hosts))
	for _, host := range hosts {
		fmt.Fprintf(out, "  • %s\n", host)
	}
	fmt.Fprintln(out, "\nUse 'privacylens history <host>' to see the score history of a host.")
	return nil
}

// listHistory prints the score history of host, newest first.
func listHistory(ctx context.Context, out io.Writer, store *database.Store, host string, limit int, jsonOutput bool) error {
	entries, err := store.History(ctx, host, limit)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if jsonOutput {
		return encodeJSON(out, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No history found for %s\n", host)
		return nil
	}

	fmt.Fprintf(out, "History for %s (%d entries):\n\n", host, len(entries))
	fmt.Fprintf(out, "  %-6s  %-20s  %-5s  %-10s  %s\n", "ID", "Captured", "Score", "Rating", "Trackers")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 66))
	for _, e := range entries {
		fmt.Fprintf(out, "  %-6d  %-20s  %-5d  %-10s  %s\n",
			e.ID,
			e.CapturedAt.Format("2006-01-02 15:04:05"),
			e.Score,
			e.Rating,
			formatCounts(e),
		)
	}
	return nil
}

// formatCounts summarizes the tracking counts of a history entry.
func formatCounts(e database.HistoryEntry) string {
	s := fmt.Sprintf("S:%d R:%d C:%d", e.Summary.TrackingScripts, e.Summary.TrackingRequests, e.Summary.TrackingCookies)
	if !e.Summary.PrivacyPolicyFound {
		s += " no-policy"
	}
	return s
}

// showLatest prints the stored snapshot of host as a report.
func showLatest(ctx context.Context, out io.Writer, store *database.Store, host string, jsonOutput bool) error {
	record, err := store.LoadRecord(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if record == nil {
		return fmt.Errorf("no saved snapshot for %s", host)
	}

	// Snapshots saved before they were scored are scored now.
	result := score.Score(record.Snapshot)
	if record.Result != nil {
		result = *record.Result
	}
	audit := &report.Audit{
		Source:   store.Path(),
		Snapshot: record.Snapshot,
		Score:    result,
	}
	var writer report.Writer = report.NewSimpleWriter(out)
	if jsonOutput {
		writer = report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	}
	_, err = writer.Write(audit)
	return err
}

func encodeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
