package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Vojkan-Cvijovic/searchengine/internal/config"
	engerrors "github.com/Vojkan-Cvijovic/searchengine/internal/errors"
	"github.com/Vojkan-Cvijovic/searchengine/internal/indexing"
	"github.com/Vojkan-Cvijovic/searchengine/internal/tokenizer"
)

const maxSearchResults = 10

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <config> <terms...>",
		Short: "Build a fresh index and run a one-shot conjunctive search",
		Long: `Search loads the given config file, builds a fresh index of
index.directory, and runs a conjunctive (AND) query over the given
terms, printing at most 10 results. Useful for scripting, since it
performs the whole index-then-query cycle in a single process.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSearch(ctx, cmd, args[0], args[1:])
		},
	}

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, configPath string, terms []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), engerrors.FormatForCLI(err))
		return err
	}

	svc := indexing.NewService(tokenizer.NewWordTokenizer())
	if _, err := svc.IndexDirectory(ctx, cfg.Index.Directory); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), engerrors.FormatForCLI(err))
		return err
	}

	results, err := svc.SearchAll(terms)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), engerrors.FormatForCLI(err))
		return err
	}

	printSearchResults(cmd.OutOrStdout(), terms, results)
	return nil
}

// printSearchResults renders up to maxSearchResults matches, styled when w
// is an interactive terminal.
func printSearchResults(w io.Writer, terms []string, results []indexing.SearchResult) {
	s := stylesFor(w)

	if len(results) == 0 {
		fmt.Fprintln(w, s.Dim.Render(fmt.Sprintf("No results for %v", terms)))
		return
	}

	shown := results
	if len(shown) > maxSearchResults {
		shown = shown[:maxSearchResults]
	}

	fmt.Fprintln(w, s.Status.Render(fmt.Sprintf("%d result(s) for %v:", len(results), terms)))
	for _, r := range shown {
		fmt.Fprintf(w, "  %s\n", s.Match.Render(fmt.Sprintf("%s:%d", r.Path, r.Line)))
	}
	if len(results) > maxSearchResults {
		fmt.Fprintln(w, s.Dim.Render(fmt.Sprintf("  ... and %d more", len(results)-maxSearchResults)))
	}
}
