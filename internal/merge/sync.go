package merge

import (
	"fmt"

	interrors "github.com/nbsearch/nbsearch/internal/errors"
	"github.com/nbsearch/nbsearch/internal/logger"
	"github.com/nbsearch/nbsearch/internal/notebook"
)

// Mode reports how a merge was applied.
type Mode string

const (
	ModeUpdated  Mode = "updated"
	ModeInserted Mode = "inserted"
)

// Result describes an applied merge. ProvenanceTrail is the ordered
// list of provenance ids carried by the incoming cells that had one;
// callers record it in the merge marker.
type Result struct {
	Mode            Mode
	Count           int
	ProvenanceTrail []string
}

// Apply merges the selected sections into cells after anchorIndex.
//
// When the provenance chain of the incoming cells exactly matches the
// chain found after the anchor, the existing downstream cells are
// overwritten in place; any mismatch (one inserted, missing, or
// reordered id) forces a fresh insert instead of a partial ambiguous
// overwrite. Insert mode grows the cell list by the incoming cell
// count; update mode leaves it unchanged.
func Apply(sections []notebook.Section, anchorIndex int, cells []notebook.Cell) ([]notebook.Cell, Result, error) {
	if anchorIndex < 0 || anchorIndex >= len(cells) {
		return nil, Result{}, fmt.Errorf("%w: index %d of %d cells", interrors.ErrAnchorNotFound, anchorIndex, len(cells))
	}

	incoming := notebook.FlattenSections(sections)
	selectedChain := notebook.ChainOf(incoming)
	existingChain := chainAfter(cells, anchorIndex, len(selectedChain))

	if notebook.ChainsMatch(selectedChain, existingChain) {
		return update(incoming, anchorIndex, cells)
	}
	return insert(incoming, anchorIndex, cells)
}

// chainAfter collects provenance ids from the cells after the anchor,
// consuming at most the number of ids the selected chain requires.
func chainAfter(cells []notebook.Cell, anchorIndex, want int) []string {
	var chain []string
	for i := anchorIndex + 1; i < len(cells) && len(chain) < want; i++ {
		if id := cells[i].Metadata.MemeID(); id != "" {
			chain = append(chain, id)
		}
	}
	return chain
}

func update(incoming []notebook.Cell, anchorIndex int, cells []notebook.Cell) ([]notebook.Cell, Result, error) {
	result := Result{Mode: ModeUpdated}
	updated := make([]notebook.Cell, len(cells))
	copy(updated, cells)

	target := anchorIndex + 1
	for _, cell := range incoming {
		if target >= len(updated) {
			break
		}
		updated[target].CellType = cell.CellType
		updated[target].Source = cell.Source
		updated[target].Metadata = NormalizeMetadata(cell.Metadata)
		updated[target].Outputs = cell.Outputs
		updated[target].ExecutionCount = cell.ExecutionCount
		target++
		result.Count++
		if id := cell.Metadata.MemeID(); id != "" {
			result.ProvenanceTrail = append(result.ProvenanceTrail, id)
		}
	}

	logger.Debug("Updated %d existing cells in place after anchor %d", result.Count, anchorIndex)
	return updated, result, nil
}

func insert(incoming []notebook.Cell, anchorIndex int, cells []notebook.Cell) ([]notebook.Cell, Result, error) {
	result := Result{Mode: ModeInserted}
	inserted := make([]notebook.Cell, 0, len(cells)+len(incoming))
	inserted = append(inserted, cells[:anchorIndex+1]...)

	for _, cell := range incoming {
		fresh := cell
		fresh.Metadata = NormalizeMetadata(cell.Metadata)
		inserted = append(inserted, fresh)
		result.Count++
		if id := cell.Metadata.MemeID(); id != "" {
			result.ProvenanceTrail = append(result.ProvenanceTrail, id)
		}
	}

	inserted = append(inserted, cells[anchorIndex+1:]...)
	logger.Debug("Inserted %d cells after anchor %d", result.Count, anchorIndex)
	return inserted, result, nil
}

// NormalizeMetadata forces merged cell metadata to be deletable,
// editable, and trusted in the receiving notebook.
func NormalizeMetadata(meta notebook.CellMetadata) notebook.CellMetadata {
	yes := true
	normalized := meta
	normalized.Deletable = &yes
	normalized.Editable = &yes
	normalized.Trusted = &yes
	return normalized
}
