package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nbsearch/nbsearch/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import [notebook-id] [destination]",
	Short: "Download a stored notebook",
	Long: `Download a notebook from object storage by its index id and save it
locally. The destination defaults to '<id>.ipynb' in the working
directory.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	ctx := cmdContext()
	id := args[0]

	store, err := storage.NewStore(ctx, appConfig)
	if err != nil {
		return err
	}

	content, err := store.Download(ctx, id)
	if err != nil {
		return err
	}

	dest := id + ".ipynb"
	if len(args) > 1 {
		dest = args[1]
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	if err := os.WriteFile(dest, content, 0644); err != nil {
		return fmt.Errorf("failed to write notebook: %w", err)
	}
	fmt.Printf("Saved %s\n", dest)
	return nil
}
