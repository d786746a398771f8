package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Vojkan-Cvijovic/searchengine/configs"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Write a starter config.yaml into a directory",
		Long: `Init writes config.yaml into the given directory, containing the two
required keys (index.directory, watch.directory) and every optional
section commented out with its default value.

The generated file won't index or watch anything by itself; edit the
directory paths, then pass it to 'searchengine watch' or 'searchengine
search'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.yaml")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, "config.yaml")

	if !force {
		if _, err := os.Stat(path); err == nil {
			printStatus(cmd.OutOrStdout(), "Existing config.yaml preserved at "+path)
			return nil
		}
	}

	if err := os.WriteFile(path, []byte(configs.DefaultConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	printStatus(cmd.OutOrStdout(), "Created "+path)
	return nil
}
