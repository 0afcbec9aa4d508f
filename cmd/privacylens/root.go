package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/privacylens/internal/log"
)

// NewRootCmd creates the root command for privacylens.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "privacylens",
		Short: "Privacy analysis of captured site activity",
		Long: `privacylens aggregates the requests, cookies, scripts and privacy policy
links observed while a page loads, classifies third parties against a tracker
knowledge base and computes a privacy score from 0 to 100.

Captures are JSON Lines files with one observation per line. A saved HTML
page can be analyzed on its own or together with a capture.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewClassifyCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewTrackersCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogJSONFlag retrieves the log-json flag from the command or its parent.
func getLogJSONFlag(cmd *cobra.Command) bool {
	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		jsonLogs, err = cmd.Root().PersistentFlags().GetBool("log-json")
		if err != nil {
			return false
		}
	}
	return jsonLogs
}

// newLogger returns the logger for cmd. It writes to the error output of
// cmd, as JSON when --log-json is set.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	if getLogJSONFlag(cmd) {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}
