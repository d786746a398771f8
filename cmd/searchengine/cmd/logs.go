package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Vojkan-Cvijovic/searchengine/internal/logging"
)

func newLogsCmd() *cobra.Command {
	var (
		follow  bool
		lines   int
		level   string
		filter  string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the engine's debug log file",
		Long: `Logs shows the last lines of the debug log written by --debug, or
follows it in real time with -f, like 'tail -f'.

The log is only written when a command was run with --debug; otherwise
there is nothing to view at the default path.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runLogs(ctx, cmd, logsOptions{
				follow:  follow,
				lines:   lines,
				level:   level,
				filter:  filter,
				logFile: logFile,
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&level, "level", "", "Filter by log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&filter, "filter", "", "Filter by keyword/pattern (regex)")
	cmd.Flags().StringVar(&logFile, "file", "", "Path to log file (overrides the default)")

	return cmd
}

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	logFile string
}

func runLogs(ctx context.Context, cmd *cobra.Command, opts logsOptions) error {
	path, err := logging.FindLogFile(opts.logFile)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Pattern: pattern,
		NoColor: !isTTY(out),
	}, out)

	fmt.Fprintf(cmd.ErrOrStderr(), "Log file: %s\n", path)
	if opts.follow {
		fmt.Fprintln(cmd.ErrOrStderr(), "Following... (Ctrl+C to stop)")
		return runLogsFollow(ctx, cmd, viewer, path)
	}

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)
	return nil
}

func runLogsFollow(ctx context.Context, cmd *cobra.Command, viewer *logging.Viewer, path string) error {
	entries := make(chan logging.LogEntry, 100)
	errCh := make(chan error, 1)

	go func() {
		errCh <- viewer.Follow(ctx, path, entries)
	}()

	for {
		select {
		case entry := <-entries:
			fmt.Fprintln(cmd.OutOrStdout(), viewer.FormatEntry(entry))
		case err := <-errCh:
			return err
		case <-ctx.Done():
			fmt.Fprintln(cmd.ErrOrStderr(), "Stopped.")
			return nil
		}
	}
}
