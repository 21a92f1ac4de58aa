package query

import (
	"fmt"
	"strings"

	interrors "github.com/nbsearch/nbsearch/internal/errors"
)

// TemplateID names one of the canned query shapes. This is a closed
// enumeration, not a general query parser: a flat query string is
// either recognized as one of these shapes or treated as opaque.
type TemplateID string

const (
	TemplateByMeme    TemplateID = "by-meme"
	TemplateByContent TemplateID = "by-content"
)

// SearchContext is the cell context a canned query is built from.
type SearchContext struct {
	CellType string
	Source   string
	MemeID   string
}

// Template is a named query shape that can rebuild its canonical
// composite query from a cell context.
type Template struct {
	ID    TemplateID
	Label string
}

// Templates enumerates the canned query shapes in presentation order.
func Templates() []Template {
	return []Template{
		{ID: TemplateByMeme, Label: "Search by MEME"},
		{ID: TemplateByContent, Label: "Search by content"},
	}
}

// TemplateFor returns the template with the given id.
func TemplateFor(id TemplateID) (Template, error) {
	for _, t := range Templates() {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %s", interrors.ErrUnknownTemplate, id)
}

// Composite rebuilds the template's canonical composite query from a
// cell context. The content template escapes the cell source since it
// is raw authored text, with newlines flattened to spaces.
func (t Template) Composite(ctx SearchContext) CompositeQuery {
	switch t.ID {
	case TemplateByMeme:
		return CompositeQuery{
			Composition: CompositionAnd,
			Fields: []Condition{
				{Target: FieldCellType, Query: ctx.CellType},
				{Target: FieldCellMemeCurrent, Query: ctx.MemeID},
			},
		}
	default:
		source := strings.ReplaceAll(ctx.Source, "\n", " ")
		sourceField := FieldSourceCode
		if ctx.CellType == "markdown" {
			sourceField = FieldSourceMarkdown
		}
		return CompositeQuery{
			Composition: CompositionAnd,
			Fields: []Condition{
				{Target: FieldCellType, Query: ctx.CellType},
				{Target: sourceField, Query: Escape(source)},
			},
		}
	}
}

// QueryString is the canonical flat form of the template for a context.
func (t Template) QueryString(ctx SearchContext) string {
	return t.Composite(ctx).QueryString()
}

// Recognize reports which canned shape a flat query string was built
// from, if any. Anything that does not match a canonical shape is
// opaque; there is deliberately no general flat-string parser.
func Recognize(queryString string) (TemplateID, bool) {
	if !strings.HasPrefix(queryString, backendNames[FieldCellType]+":") {
		return "", false
	}
	rest, ok := strings.CutPrefix(queryString, backendNames[FieldCellType]+":")
	if !ok {
		return "", false
	}
	_, rest, ok = strings.Cut(rest, " AND ")
	if !ok {
		return "", false
	}
	switch {
	case strings.HasPrefix(rest, backendNames[FieldCellMemeCurrent]+":"):
		return TemplateByMeme, true
	case strings.HasPrefix(rest, backendNames[FieldSourceCode]+":"),
		strings.HasPrefix(rest, backendNames[FieldSourceMarkdown]+":"):
		return TemplateByContent, true
	}
	return "", false
}
