// Package cmd provides the CLI commands for the search engine.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Vojkan-Cvijovic/searchengine/internal/logging"
	"github.com/Vojkan-Cvijovic/searchengine/pkg/version"
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the search engine CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "searchengine",
		Short: "In-process text indexing and search engine",
		Long: `searchengine builds and queries an in-memory inverted index over a
directory tree, and can watch that tree for changes and keep the index
up to date.

Run 'searchengine index <path>' for a one-shot index, or
'searchengine watch <config>' to index and then serve an interactive
search session.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("searchengine version {{.Version}}\n")
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.searchengine/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newInitCmd())

	return cmd
}

// startLogging enables file-based debug logging if --debug was set.
func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

// stopLogging closes the debug log file, if one was opened.
func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		slog.Info("debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
