package index

import (
	"context"
	"fmt"

	"github.com/nbsearch/nbsearch/internal/config"
	"github.com/nbsearch/nbsearch/internal/database"
	"github.com/nbsearch/nbsearch/internal/logger"
	"github.com/nbsearch/nbsearch/internal/notebook"
	"github.com/nbsearch/nbsearch/internal/solr"
	"github.com/nbsearch/nbsearch/internal/source"
	"github.com/nbsearch/nbsearch/internal/storage"
)

// Indexer posts notebook and cell documents to the search backend,
// uploads the raw notebook files to object storage, and keeps the
// local index state in sync with the crawled tree.
type Indexer struct {
	cfg     *config.Config
	client  *solr.Client
	store   *storage.Store
	state   *database.StateRepository
	crawler *source.Local
}

// Stats summarizes one index run.
type Stats struct {
	Indexed int
	Skipped int
	Pruned  int
	Failed  int
}

func NewIndexer(cfg *config.Config, client *solr.Client, store *storage.Store, state *database.StateRepository, crawler *source.Local) *Indexer {
	return &Indexer{
		cfg:     cfg,
		client:  client,
		store:   store,
		state:   state,
		crawler: crawler,
	}
}

// Run crawls the base directory, indexes new and modified notebooks,
// and prunes notebooks that no longer exist on disk. Parse errors on
// individual files are counted and logged, not fatal.
func (ix *Indexer) Run(ctx context.Context, force bool) (*Stats, error) {
	files, err := ix.crawler.Files()
	if err != nil {
		return nil, fmt.Errorf("failed to crawl notebooks: %w", err)
	}

	stats := &Stats{}
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		seen[file.Path] = true

		previous, err := ix.state.Get(file.Path)
		if err != nil {
			return nil, err
		}
		if !force && previous != nil && previous.MTime == file.MTime {
			logger.Debug("skip unchanged notebook: %s", file.Path)
			stats.Skipped++
			continue
		}

		if err := ix.indexOne(ctx, file, previous); err != nil {
			logger.Error("Failed to index %s: %v", file.Path, err)
			stats.Failed++
			continue
		}
		stats.Indexed++
	}

	pruned, err := ix.prune(ctx, seen)
	if err != nil {
		return nil, err
	}
	stats.Pruned = pruned
	return stats, nil
}

func (ix *Indexer) indexOne(ctx context.Context, file source.File, previous *database.IndexedNotebook) error {
	content, err := ix.crawler.Notebook(file.Server, file.Path)
	if err != nil {
		return err
	}

	nb, err := notebook.Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse notebook: %w", err)
	}

	notebookID := NotebookID(file.Path, nb)
	attr := NotebookAttr(nb, map[string]string{
		"server": file.Server,
		"owner":  file.Owner,
		"mtime":  file.MTime,
		"atime":  file.ATime,
		"ctime":  file.CTime,
	})

	// The id changes when the notebook meme changes, leaving a stale
	// document under the old id. Remove it first.
	if previous != nil && previous.NotebookID != notebookID {
		if err := ix.remove(ctx, previous.NotebookID); err != nil {
			return err
		}
	}

	cellDocs := make([]solr.Document, 0, len(nb.Cells))
	for i, cell := range nb.Cells {
		cellDocs = append(cellDocs, CellDocument(notebookID, file.Path, cell, i, attr))
	}
	if err := ix.client.Update(ctx, ix.cfg.SolrCellCore, cellDocs); err != nil {
		return fmt.Errorf("failed to post cell documents: %w", err)
	}

	nbDoc := NotebookDocument(file.Path, nb, attr)
	if err := ix.client.Update(ctx, ix.cfg.SolrNotebookCore, []solr.Document{nbDoc}); err != nil {
		return fmt.Errorf("failed to post notebook document: %w", err)
	}

	if err := ix.store.Upload(ctx, notebookID, content); err != nil {
		return err
	}

	if err := ix.state.Put(file.Path, notebookID, file.MTime); err != nil {
		return err
	}
	logger.Info("Indexed %s (%d cells) as %s", file.Path, len(nb.Cells), notebookID)
	return nil
}

// prune removes index entries for notebooks that disappeared from the
// crawled tree.
func (ix *Indexer) prune(ctx context.Context, seen map[string]bool) (int, error) {
	indexed, err := ix.state.List()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, row := range indexed {
		if seen[row.Path] {
			continue
		}
		if err := ix.remove(ctx, row.NotebookID); err != nil {
			logger.Error("Failed to prune %s: %v", row.Path, err)
			continue
		}
		if err := ix.state.Delete(row.Path); err != nil {
			return pruned, err
		}
		logger.Info("Pruned deleted notebook: %s", row.Path)
		pruned++
	}
	return pruned, nil
}

// remove deletes a notebook document, its cell documents, and the
// stored file.
func (ix *Indexer) remove(ctx context.Context, notebookID string) error {
	resp, _, err := ix.client.Select(ctx, ix.cfg.SolrCellCore, solr.SelectParams{
		Query: "notebook_id:" + solr.QuoteTerm(notebookID),
		Rows:  intPtr(10000),
	})
	if err != nil {
		return fmt.Errorf("failed to find cell documents: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("failed to find cell documents: %w", resp.Error)
	}

	cellIDs := make([]string, 0, len(resp.Response.Docs))
	for _, doc := range resp.Response.Docs {
		if id := doc.Str("id"); id != "" {
			cellIDs = append(cellIDs, id)
		}
	}
	if len(cellIDs) > 0 {
		if err := ix.client.DeleteByID(ctx, ix.cfg.SolrCellCore, cellIDs); err != nil {
			return fmt.Errorf("failed to delete cell documents: %w", err)
		}
	}

	if err := ix.client.DeleteByID(ctx, ix.cfg.SolrNotebookCore, []string{notebookID}); err != nil {
		return fmt.Errorf("failed to delete notebook document: %w", err)
	}

	if err := ix.store.Delete(ctx, notebookID); err != nil {
		logger.Warn("Failed to delete stored notebook %s: %v", notebookID, err)
	}
	return nil
}

func intPtr(n int) *int {
	return &n
}
