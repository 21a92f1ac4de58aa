package index

import (
	"strings"
	"testing"

	"github.com/nbsearch/nbsearch/internal/notebook"
)

func parsedNotebook(t *testing.T, data string) *notebook.Notebook {
	t.Helper()
	nb, err := notebook.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return nb
}

const signedNotebook = `{
	"cells": [
		{
			"cell_type": "markdown",
			"source": "# Analysis\n\nsee https://example.com",
			"metadata": {"lc_cell_meme": {"current": "md-meme"}}
		},
		{
			"cell_type": "code",
			"source": ["import pandas as pd\n", "pd.read_csv('x.csv')"],
			"metadata": {"lc_cell_meme": {"current": "code-meme", "execution_end_time": "2024-03-01T12:00:00Z"}},
			"execution_count": 2,
			"outputs": [
				{"output_type": "stream", "name": "stdout", "text": "loaded 100 rows"},
				{"output_type": "execute_result", "data": {"text/plain": "DataFrame", "text/html": "<table/>"}}
			]
		}
	],
	"metadata": {
		"lc_notebook_meme": {
			"current": "nb-meme",
			"lc_server_signature": {"current": {"signature_id": "sig-9", "notebook_path": "/work/a.ipynb", "server_url": "http://srv:8888"}}
		}
	}
}`

func TestNotebookID(t *testing.T) {
	nb := parsedNotebook(t, signedNotebook)
	if got := NotebookID("sub/a.ipynb", nb); got != "sig-9_nb-meme_a.ipynb" {
		t.Errorf("NotebookID() = %q", got)
	}
}

func TestNotebookIDFallbacks(t *testing.T) {
	nb := parsedNotebook(t, `{"cells": [], "metadata": {}}`)
	if got := NotebookID("plain.ipynb", nb); got != "unknown_undefined_plain.ipynb" {
		t.Errorf("NotebookID() = %q", got)
	}
}

func TestNotebookAttr(t *testing.T) {
	nb := parsedNotebook(t, signedNotebook)
	attr := NotebookAttr(nb, map[string]string{
		"server": "http://srv:8888",
		"owner":  "alice",
		"mtime":  "2024-03-01T12:00:00Z",
	})

	want := map[string]string{
		"server":                    "http://srv:8888",
		"owner":                     "alice",
		"mtime":                     "2024-03-01T12:00:00Z",
		"lc_notebook_meme__current": "nb-meme",
		"signature_notebook_path":   "/work/a.ipynb",
		"signature_server_url":      "http://srv:8888",
		"signature_id":              "sig-9",
	}
	for key, value := range want {
		if attr[key] != value {
			t.Errorf("attr[%q] = %q, want %q", key, attr[key], value)
		}
	}
}

func TestCellDocumentCode(t *testing.T) {
	nb := parsedNotebook(t, signedNotebook)
	attr := map[string]string{"mtime": "2024-03-02T00:00:00Z", "owner": "alice"}

	doc := CellDocument("nbid", "sub/a.ipynb", nb.Cells[1], 1, attr)

	if doc.Str("id") != "nbid_1" {
		t.Errorf("id = %q", doc.Str("id"))
	}
	if doc.Str("notebook_id") != "nbid" || doc.Str("notebook_filename") != "sub/a.ipynb" {
		t.Errorf("notebook refs = %q, %q", doc.Str("notebook_id"), doc.Str("notebook_filename"))
	}
	if doc.Str("notebook_owner") != "alice" {
		t.Errorf("notebook_owner = %q", doc.Str("notebook_owner"))
	}
	if doc.Str("cell_type") != "code" {
		t.Errorf("cell_type = %q", doc.Str("cell_type"))
	}
	if doc.Str("lc_cell_meme__current") != "code-meme" {
		t.Errorf("meme = %q", doc.Str("lc_cell_meme__current"))
	}
	if !strings.Contains(doc.Str("source__code"), "import pandas") {
		t.Errorf("source__code = %q", doc.Str("source__code"))
	}
	if doc.Str("outputs__stdout") != "loaded 100 rows" {
		t.Errorf("outputs__stdout = %q", doc.Str("outputs__stdout"))
	}
	if doc.Str("outputs__result_plain") != "DataFrame" || doc.Str("outputs__result_html") != "<table/>" {
		t.Errorf("result outputs = %q, %q", doc.Str("outputs__result_plain"), doc.Str("outputs__result_html"))
	}
	if !strings.Contains(doc.Str("outputs"), "loaded 100 rows") {
		t.Errorf("aggregate outputs = %q", doc.Str("outputs"))
	}
	// Execution end time beats the notebook mtime.
	if doc.Str("estimated_mtime") != "2024-03-01T12:00:00Z" {
		t.Errorf("estimated_mtime = %q", doc.Str("estimated_mtime"))
	}
	if !strings.Contains(doc.Str("_text_"), "import pandas") || !strings.Contains(doc.Str("_text_"), "loaded 100 rows") {
		t.Errorf("_text_ = %q", doc.Str("_text_"))
	}
}

func TestCellDocumentMarkdown(t *testing.T) {
	nb := parsedNotebook(t, signedNotebook)
	doc := CellDocument("nbid", "a.ipynb", nb.Cells[0], 0, map[string]string{"mtime": "2024-03-02T00:00:00Z"})

	if !strings.Contains(doc.Str("source__markdown"), "# Analysis") {
		t.Errorf("source__markdown = %q", doc.Str("source__markdown"))
	}
	if doc.Str("source__markdown__heading") != "# Analysis" {
		t.Errorf("markdown heading = %q", doc.Str("source__markdown__heading"))
	}
	if !strings.Contains(doc.Str("source__markdown__url"), "https://example.com") {
		t.Errorf("markdown url = %q", doc.Str("source__markdown__url"))
	}
	// No execution end time: the notebook mtime stands in.
	if doc.Str("estimated_mtime") != "2024-03-02T00:00:00Z" {
		t.Errorf("estimated_mtime = %q", doc.Str("estimated_mtime"))
	}
}

func TestNotebookDocument(t *testing.T) {
	nb := parsedNotebook(t, signedNotebook)
	attr := NotebookAttr(nb, map[string]string{"owner": "alice", "mtime": "2024-03-02T00:00:00Z"})

	doc := NotebookDocument("sub/a.ipynb", nb, attr)

	if doc.Str("id") != "sig-9_nb-meme_a.ipynb" {
		t.Errorf("id = %q", doc.Str("id"))
	}
	if doc.Str("filename") != "a.ipynb" {
		t.Errorf("filename = %q", doc.Str("filename"))
	}
	if doc.Str("lc_cell_memes") != "md-meme code-meme" {
		t.Errorf("lc_cell_memes = %q", doc.Str("lc_cell_memes"))
	}
	if doc.Str("lc_cell_meme__execution_end_time") != "2024-03-01T12:00:00Z" {
		t.Errorf("execution end time = %q", doc.Str("lc_cell_meme__execution_end_time"))
	}
	if !strings.Contains(doc.Str("source"), "# Analysis") || !strings.Contains(doc.Str("source"), "import pandas") {
		t.Errorf("merged source = %q", doc.Str("source"))
	}
	if !strings.Contains(doc.Str("outputs"), "loaded 100 rows") {
		t.Errorf("merged outputs = %q", doc.Str("outputs"))
	}
	if doc.Str("source__markdown__heading_count") != "1" {
		t.Errorf("heading_count = %q", doc.Str("source__markdown__heading_count"))
	}
	text := doc.Str("_text_")
	if !strings.Contains(text, "a.ipynb") || !strings.Contains(text, "import pandas") {
		t.Errorf("_text_ = %q", text)
	}
}
