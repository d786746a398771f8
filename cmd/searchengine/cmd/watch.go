package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Vojkan-Cvijovic/searchengine/internal/config"
	engerrors "github.com/Vojkan-Cvijovic/searchengine/internal/errors"
	"github.com/Vojkan-Cvijovic/searchengine/internal/indexing"
	"github.com/Vojkan-Cvijovic/searchengine/internal/tokenizer"
	"github.com/Vojkan-Cvijovic/searchengine/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <config>",
		Short: "Index a directory, watch it for changes, and serve a query REPL",
		Long: `Watch loads the given config file, performs the initial index of
index.directory, then starts watching watch.directory for changes
while serving an interactive query session on stdin/stdout.

Each line typed is split on whitespace into a conjunctive (AND) query;
at most 10 results are printed. Type 'quit' or 'exit' to stop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, args[0])
		},
	}

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), engerrors.FormatForCLI(err))
		return err
	}

	svc := indexing.NewService(tokenizer.NewWordTokenizer())

	printStatus(cmd.OutOrStdout(), "Indexing "+cfg.Index.Directory+"...")
	count, err := svc.IndexDirectory(ctx, cfg.Index.Directory)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), engerrors.FormatForCLI(err))
		return err
	}
	printStatus(cmd.OutOrStdout(), fmt.Sprintf("Indexed %d files", count))

	w, err := watcher.NewHybridWatcher(svc, watcher.DefaultOptions())
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), engerrors.FormatForCLI(err))
		return err
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	watchErrCh := make(chan error, 1)
	go func() {
		watchErrCh <- w.Start(watchCtx, cfg.Watch.Directory, false)
	}()
	defer func() { _ = w.Stop() }()

	go drainWatcherErrors(cmd.ErrOrStderr(), w)

	printStatus(cmd.OutOrStdout(), "Watching "+cfg.Watch.Directory+" ("+w.WatcherType()+"). Type a query, or 'quit'/'exit' to stop.")

	return runQueryREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), svc, watchErrCh)
}

// drainWatcherErrors logs asynchronous watcher errors until the Errors
// channel closes.
func drainWatcherErrors(w io.Writer, hw *watcher.HybridWatcher) {
	for err := range hw.Errors() {
		slog.Warn("watcher error", slog.String("error", err.Error()))
		fmt.Fprintln(w, stylesFor(w).Error.Render("watcher: "+err.Error()))
	}
}

// runQueryREPL reads whitespace-split queries from in, printing up to 10
// conjunctive matches per line until the user types quit/exit, stdin
// closes, ctx is canceled, or the watcher stops on its own.
func runQueryREPL(ctx context.Context, in io.Reader, out io.Writer, svc *indexing.Service, watchErrCh <-chan error) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErrCh:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			terms := strings.Fields(line)
			if len(terms) == 0 {
				continue
			}
			if terms[0] == "quit" || terms[0] == "exit" {
				return nil
			}

			results, err := svc.SearchAll(terms)
			if err != nil {
				fmt.Fprintln(out, stylesFor(out).Error.Render(err.Error()))
				continue
			}
			printSearchResults(out, terms, results)
		}
	}
}
