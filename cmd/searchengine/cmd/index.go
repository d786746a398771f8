package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	engerrors "github.com/Vojkan-Cvijovic/searchengine/internal/errors"
	"github.com/Vojkan-Cvijovic/searchengine/internal/indexing"
	"github.com/Vojkan-Cvijovic/searchengine/internal/tokenizer"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Recursively index a directory and print the file count",
		Long: `Index performs a one-shot recursive index of the given directory and
reports how many files were indexed.

Unreadable files and transient I/O errors are retried before being
skipped; the command only fails outright if the path itself cannot be
walked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, args[0])
		},
	}

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return engerrors.ValidationError("resolve absolute path for "+path, err)
	}

	info, statErr := os.Stat(absPath)
	if statErr != nil || !info.IsDir() {
		return engerrors.ValidationError("path must be an existing directory: "+absPath, statErr)
	}

	svc := indexing.NewService(tokenizer.NewWordTokenizer())

	count, err := svc.IndexDirectory(ctx, absPath)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), engerrors.FormatForCLI(err))
		return err
	}

	stats := svc.Index().GetStats()
	printStatus(cmd.OutOrStdout(), fmt.Sprintf(
		"Indexed %d files (%d unique terms, %d total occurrences) under %s",
		count, stats.UniqueTerms, stats.TotalTerms, absPath))

	return nil
}
