package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nbsearch/nbsearch/internal/query"
	"github.com/nbsearch/nbsearch/internal/search"
	"github.com/nbsearch/nbsearch/internal/solr"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed notebooks",
	Long: `Search indexed notebooks or individual cells.

The query uses the backend's native syntax: a plain keyword searches all
text fields, and field:value conditions target specific index fields
(for example 'source__markdown__heading:pandas'). Use --cell to search
cell documents instead of notebook documents.

Instead of a query, --from builds one from a cell of a local notebook:
by provenance id when the cell has one, or by its content.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

var (
	searchCell     bool
	searchStart    int
	searchLimit    int
	searchSort     string
	searchOp       string
	searchFrom     string
	searchFromCell int
	searchTemplate string
)

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVarP(&searchCell, "cell", "c", false, "Search cell documents instead of notebooks")
	searchCmd.Flags().IntVar(&searchStart, "start", 0, "Result offset for paging")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "Maximum number of results (0 for the configured default)")
	searchCmd.Flags().StringVarP(&searchSort, "sort", "s", "", "Sort specification, e.g. 'mtime desc'")
	searchCmd.Flags().StringVar(&searchOp, "op", "AND", "Default boolean operator for multi-term queries (AND/OR)")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "Build the query from a cell of this local notebook")
	searchCmd.Flags().IntVar(&searchFromCell, "from-cell", 0, "Cell index used with --from")
	searchCmd.Flags().StringVar(&searchTemplate, "template", "", "Query shape for --from: by-meme or by-content (default: by-meme when the cell has a provenance id)")
}

func runSearch(_ *cobra.Command, args []string) error {
	if searchFrom == "" && len(args) == 0 {
		return fmt.Errorf("a query or --from notebook is required")
	}

	queryString := strings.Join(args, " ")
	if searchFrom != "" {
		built, err := templateQuery(searchFrom, searchFromCell, searchTemplate)
		if err != nil {
			return err
		}
		queryString = built
	}

	op, err := query.ParseComposition(searchOp)
	if err != nil {
		return err
	}

	core := appConfig.SolrNotebookCore
	if searchCell {
		core = appConfig.SolrCellCore
	}

	q := query.SearchQuery{
		QueryString: queryString,
		Op:          op,
	}
	if searchSort != "" {
		sort, err := query.ParseSort(searchSort)
		if err != nil {
			return err
		}
		q.Sort = sort
	}
	limit := searchLimit
	if limit <= 0 {
		limit = appConfig.SearchLimit
	}
	q.Page = &query.PageQuery{Start: searchStart, Limit: limit}

	session := search.NewSession(solrClient, core, appConfig.SearchLimit)
	page, err := session.Search(cmdContext(), q)
	if err != nil {
		var searchErr *search.SearchError
		if errors.As(err, &searchErr) {
			return fmt.Errorf("query rejected by backend: %w", searchErr)
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if page.NumFound == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results (showing %d from offset %d):\n\n", page.NumFound, len(page.Docs), page.Start)
	for i, doc := range page.Docs {
		if searchCell {
			printCellResult(page.Start+i+1, doc)
		} else {
			printNotebookResult(page.Start+i+1, doc)
		}
	}
	return nil
}

// templateQuery renders a canned query from one cell of a local
// notebook. With no explicit template the provenance id decides the
// shape.
func templateQuery(path string, cellIndex int, templateID string) (string, error) {
	nb, err := readNotebook(path)
	if err != nil {
		return "", err
	}
	if cellIndex < 0 || cellIndex >= len(nb.Cells) {
		return "", fmt.Errorf("cell index %d out of range for %s (%d cells)", cellIndex, path, len(nb.Cells))
	}
	cell := nb.Cells[cellIndex]

	sctx := query.SearchContext{
		CellType: string(cell.CellType),
		Source:   cell.Source.String(),
		MemeID:   cell.Metadata.MemeID(),
	}

	id := query.TemplateID(templateID)
	if templateID == "" {
		id = query.TemplateByContent
		if sctx.MemeID != "" {
			id = query.TemplateByMeme
		}
	}
	tmpl, err := query.TemplateFor(id)
	if err != nil {
		return "", err
	}
	return tmpl.QueryString(sctx), nil
}

func printNotebookResult(ordinal int, doc solr.Document) {
	fmt.Printf("%d. %s\n", ordinal, doc.Str("filename"))
	fmt.Printf("   id:       %s\n", doc.Str("id"))
	if owner := doc.Str("owner"); owner != "" {
		fmt.Printf("   owner:    %s\n", owner)
	}
	if mtime := doc.Str("mtime"); mtime != "" {
		fmt.Printf("   modified: %s\n", mtime)
	}
	fmt.Println()
}

func printCellResult(ordinal int, doc solr.Document) {
	fmt.Printf("%d. %s cell #%s in %s\n", ordinal, doc.Str("cell_type"), doc.Str("index"), doc.Str("notebook_filename"))
	fmt.Printf("   id: %s\n", doc.Str("id"))
	source := doc.Str("source")
	if source != "" {
		fmt.Printf("   %s\n", previewLine(source))
	}
	fmt.Println()
}

func previewLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
