package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nbsearch/nbsearch/internal/database"
	"github.com/nbsearch/nbsearch/internal/index"
	"github.com/nbsearch/nbsearch/internal/source"
	"github.com/nbsearch/nbsearch/internal/storage"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index notebooks into the search backend",
	Long: `Crawl the configured base directory for notebooks, post notebook and
cell documents to Solr, and upload the notebook files to object storage.

Unchanged notebooks are skipped based on their modification time.
Notebooks removed from disk are pruned from the index.`,
	RunE: runIndex,
}

var indexForce bool

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "Reindex all notebooks even when unchanged")
}

func runIndex(_ *cobra.Command, args []string) error {
	ctx := cmdContext()

	crawler, err := source.NewLocal(appConfig)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(ctx, appConfig)
	if err != nil {
		return err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return err
	}

	db, err := database.New(appConfig)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	indexer := index.NewIndexer(appConfig, solrClient, store, database.NewStateRepository(db.Conn()), crawler)
	stats, err := indexer.Run(ctx, indexForce)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("Indexed:  %d\n", stats.Indexed)
	fmt.Printf("Skipped:  %d\n", stats.Skipped)
	fmt.Printf("Pruned:   %d\n", stats.Pruned)
	if stats.Failed > 0 {
		fmt.Printf("Failed:   %d (see log for details)\n", stats.Failed)
	}
	return nil
}
