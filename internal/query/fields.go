package query

import (
	"fmt"

	interrors "github.com/nbsearch/nbsearch/internal/errors"
)

// Field is a closed enumeration of the backend fields a structured
// query may target. Using a sum type here makes an invalid field id a
// compile-time impossibility instead of a silently passed-through
// string.
type Field int

const (
	FieldFullText Field = iota
	FieldOwner
	FieldFilename
	FieldServer
	FieldSource
	FieldOutputs
	FieldCellType
	FieldCellMemes
	FieldCellMemeCurrent
	FieldCellMemePrevious
	FieldCellMemeNext
	FieldNotebookMeme
	FieldNotebookPath
	FieldServerURL
	FieldSourceCode
	FieldSourceMarkdown
	FieldOperationNote
	FieldMarkdownTodo
	FieldMarkdownHeading
	FieldMarkdownHeadingCount
	FieldMarkdownURL
	FieldMarkdownCode
	FieldOutputsStdout
	FieldOutputsStderr
	FieldOutputsResultPlain
	FieldOutputsResultHTML
	FieldModified
	FieldExecuted
	FieldEstimatedModified
)

// backendNames maps each field to the name the search backend indexes
// it under.
var backendNames = map[Field]string{
	FieldFullText:             "_text_",
	FieldOwner:                "owner",
	FieldFilename:             "filename",
	FieldServer:               "server",
	FieldSource:               "source",
	FieldOutputs:              "outputs",
	FieldCellType:             "cell_type",
	FieldCellMemes:            "lc_cell_memes",
	FieldCellMemeCurrent:      "lc_cell_meme__current",
	FieldCellMemePrevious:     "lc_cell_meme__previous",
	FieldCellMemeNext:         "lc_cell_meme__next",
	FieldNotebookMeme:         "lc_notebook_meme__current",
	FieldNotebookPath:         "signature_notebook_path",
	FieldServerURL:            "signature_server_url",
	FieldSourceCode:           "source__code",
	FieldSourceMarkdown:       "source__markdown",
	FieldOperationNote:        "source__markdown__operation_note",
	FieldMarkdownTodo:         "source__markdown__todo",
	FieldMarkdownHeading:      "source__markdown__heading",
	FieldMarkdownHeadingCount: "source__markdown__heading_count",
	FieldMarkdownURL:          "source__markdown__url",
	FieldMarkdownCode:         "source__markdown__code",
	FieldOutputsStdout:        "outputs__stdout",
	FieldOutputsStderr:        "outputs__stderr",
	FieldOutputsResultPlain:   "outputs__result_plain",
	FieldOutputsResultHTML:    "outputs__result_html",
	FieldModified:             "mtime",
	FieldExecuted:             "lc_cell_meme__execution_end_time",
	FieldEstimatedModified:    "estimated_mtime",
}

func (f Field) BackendName() string {
	name, ok := backendNames[f]
	if !ok {
		return backendNames[FieldFullText]
	}
	return name
}

func (f Field) String() string {
	return f.BackendName()
}

// ParseField resolves a backend field name back to its enumeration
// value. Used when restoring a structured query from a merge marker.
func ParseField(name string) (Field, error) {
	for field, backendName := range backendNames {
		if backendName == name {
			return field, nil
		}
	}
	return FieldFullText, fmt.Errorf("%w: %s", interrors.ErrUnknownField, name)
}
