package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	interrors "github.com/nbsearch/nbsearch/internal/errors"
	"github.com/nbsearch/nbsearch/internal/merge"
	"github.com/nbsearch/nbsearch/internal/notebook"
	"github.com/nbsearch/nbsearch/internal/query"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [destination.ipynb] [source.ipynb]",
	Short: "Merge notebook sections into another notebook",
	Long: `Merge sections of a source notebook into a destination notebook after
an anchor cell.

When the cells following the anchor share the source cells' provenance
chain they are updated in place; otherwise the source cells are
inserted after the anchor. A provenance marker cell recording the merge
is placed before the merged cells unless --no-marker is given.

When the destination already carries a marker cell from an earlier
merge, it anchors the new merge and its recorded query and section
selection are restored; --anchor, --anchor-meme and --sections
override it.`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

var (
	mergeAnchor   int
	mergeMeme     string
	mergeSections []string
	mergeOutput   string
	mergeNoMarker bool
)

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().IntVar(&mergeAnchor, "anchor", -1, "Index of the anchor cell in the destination (default: last cell)")
	mergeCmd.Flags().StringVar(&mergeMeme, "anchor-meme", "", "Select the anchor cell by its provenance id instead of index")
	mergeCmd.Flags().StringSliceVar(&mergeSections, "sections", nil, "Section titles to merge from the source (default: all)")
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Write the merged notebook here (default: overwrite the destination)")
	mergeCmd.Flags().BoolVar(&mergeNoMarker, "no-marker", false, "Skip the provenance marker cell")
}

func runMerge(_ *cobra.Command, args []string) error {
	destPath, srcPath := args[0], args[1]

	dest, err := readNotebook(destPath)
	if err != nil {
		return err
	}
	if len(dest.Cells) == 0 {
		return fmt.Errorf("%w: %s", interrors.ErrNotebookNoCells, destPath)
	}

	src, err := readNotebook(srcPath)
	if err != nil {
		return err
	}

	markerIndex, prior := findMarker(dest.Cells)
	if prior != nil {
		if label, ok := priorQueryLabel(prior); ok {
			fmt.Printf("Restoring %q query from the merge marker\n", label)
		}
	}

	wantTitles := mergeSections
	if len(wantTitles) == 0 && prior != nil {
		wantTitles = prior.Sections
	}

	sections := notebook.Segment(src.Cells)
	if len(wantTitles) > 0 {
		sections = notebook.SectionsByTitle(sections, wantTitles)
		if len(sections) == 0 {
			return fmt.Errorf("no sections matching %s in %s", strings.Join(wantTitles, ", "), srcPath)
		}
	}

	anchorIndex, err := resolveAnchor(dest.Cells, markerIndex)
	if err != nil {
		return err
	}

	merged, result, err := merge.Apply(sections, anchorIndex, dest.Cells)
	if err != nil {
		return err
	}

	if !mergeNoMarker {
		titles := make([]string, len(sections))
		for i, section := range sections {
			titles[i] = section.Title
		}
		markerQuery := query.CompositeQuery{}
		if prior != nil {
			markerQuery = prior.CompositeQuery()
		}
		markerSource, err := merge.BuildMarker(markerQuery, titles, result.ProvenanceTrail, result.Mode == merge.ModeInserted)
		if err != nil {
			return err
		}
		markerCell := notebook.Cell{
			CellType: notebook.CellTypeCode,
			Source:   notebook.MultilineText(markerSource),
			Metadata: merge.NormalizeMetadata(notebook.CellMetadata{}),
		}
		if markerIndex >= 0 && markerIndex == anchorIndex {
			// The marker anchored this merge; rewrite it in place.
			merged[anchorIndex] = markerCell
		} else {
			merged = append(merged[:anchorIndex+1], append([]notebook.Cell{markerCell}, merged[anchorIndex+1:]...)...)
		}
	}

	dest.Cells = merged

	outputPath := mergeOutput
	if outputPath == "" {
		outputPath = destPath
	}
	data, err := json.MarshalIndent(dest, "", " ")
	if err != nil {
		return fmt.Errorf("failed to marshal notebook: %w", err)
	}
	if err := os.WriteFile(outputPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write notebook: %w", err)
	}

	fmt.Printf("%s %d cells from %d section(s) into %s\n", pastTense(result.Mode), result.Count, len(sections), outputPath)
	return nil
}

func readNotebook(path string) (*notebook.Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	nb, err := notebook.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nb, nil
}

// findMarker locates the first merge marker cell, if any.
func findMarker(cells []notebook.Cell) (int, *merge.Marker) {
	for i, cell := range cells {
		if marker, err := merge.ParseMarker(cell.Source.String()); err == nil {
			return i, marker
		}
	}
	return -1, nil
}

// priorQueryLabel names the canned shape a marker's recorded query was
// built from, when it matches one.
func priorQueryLabel(marker *merge.Marker) (string, bool) {
	id, ok := query.Recognize(marker.CompositeQuery().QueryString())
	if !ok {
		return "", false
	}
	tmpl, err := query.TemplateFor(id)
	if err != nil {
		return "", false
	}
	return tmpl.Label, true
}

func resolveAnchor(cells []notebook.Cell, markerIndex int) (int, error) {
	if mergeMeme != "" {
		for i, cell := range cells {
			if cell.Metadata.MemeID() == mergeMeme {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: no cell with provenance id %s", interrors.ErrAnchorNotFound, mergeMeme)
	}
	if mergeAnchor >= 0 {
		return mergeAnchor, nil
	}
	if markerIndex >= 0 {
		return markerIndex, nil
	}
	return len(cells) - 1, nil
}

func pastTense(mode merge.Mode) string {
	if mode == merge.ModeInserted {
		return "Inserted"
	}
	return "Updated"
}
