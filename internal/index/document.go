package index

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/nbsearch/nbsearch/internal/notebook"
	"github.com/nbsearch/nbsearch/internal/solr"
)

// markdownPrefix is the key prefix of markdown structure fields on cell
// and notebook documents.
const markdownPrefix = "source__markdown__"

// notebookAttrKeys are the crawler attributes propagated onto cell
// documents under a notebook_ prefix.
var notebookAttrKeys = []string{"server", "owner", "ctime", "atime", "mtime"}

// NotebookID derives the stable backend id of a notebook:
// <signature>_<meme>_<filename>, with unknown/undefined placeholders
// when the notebook carries no server signature or meme.
func NotebookID(filePath string, nb *notebook.Notebook) string {
	_, filename := path.Split(filePath)
	meme := "undefined"
	signature := "unknown"
	if nb.Metadata.Meme != nil {
		if nb.Metadata.Meme.Current != "" {
			meme = nb.Metadata.Meme.Current
		}
		if sig := nb.Metadata.Meme.ServerSignature; sig != nil && sig.Current != nil && sig.Current.SignatureID != "" {
			signature = sig.Current.SignatureID
		}
	}
	return fmt.Sprintf("%s_%s_%s", signature, meme, filename)
}

// NotebookAttr collects the notebook-level attributes indexed alongside
// every document: the crawler attributes plus the notebook meme and
// server signature fields.
func NotebookAttr(nb *notebook.Notebook, base map[string]string) map[string]string {
	attr := map[string]string{}
	for key, value := range base {
		if value != "" {
			attr[key] = value
		}
	}
	if nb.Metadata.Meme == nil {
		return attr
	}
	meme := nb.Metadata.Meme
	if meme.Current != "" {
		attr["lc_notebook_meme__current"] = meme.Current
	}
	if meme.ServerSignature != nil && meme.ServerSignature.Current != nil {
		sig := meme.ServerSignature.Current
		if sig.NotebookPath != "" {
			attr["signature_notebook_path"] = sig.NotebookPath
		}
		if sig.ServerURL != "" {
			attr["signature_server_url"] = sig.ServerURL
		}
		if sig.SignatureID != "" {
			attr["signature_id"] = sig.SignatureID
		}
	}
	return attr
}

// CellDocument builds the backend document for one cell.
func CellDocument(notebookID, filePath string, cell notebook.Cell, cellIndex int, notebookAttr map[string]string) solr.Document {
	doc := solr.Document{
		"id":                notebookID + "_" + strconv.Itoa(cellIndex),
		"index":             cellIndex,
		"notebook_id":       notebookID,
		"notebook_filename": filePath,
	}
	for _, key := range notebookAttrKeys {
		if value, ok := notebookAttr[key]; ok {
			doc["notebook_"+key] = value
		}
	}
	doc["cell_type"] = string(cell.CellType)
	if cell.ExecutionCount != nil {
		doc["execution_count"] = *cell.ExecutionCount
	}
	if meme := cell.Metadata.Meme; meme != nil {
		if meme.Current != "" {
			doc["lc_cell_meme__current"] = meme.Current
		}
		if meme.Next != "" {
			doc["lc_cell_meme__next"] = meme.Next
		}
		if meme.Previous != "" {
			doc["lc_cell_meme__previous"] = meme.Previous
		}
		if meme.ExecutionEndTime != "" {
			doc["lc_cell_meme__execution_end_time"] = meme.ExecutionEndTime
		}
	}

	source := cell.Source.String()
	switch cell.CellType {
	case notebook.CellTypeCode:
		doc["source__code"] = source
		doc["source"] = source
	case notebook.CellTypeMarkdown:
		doc["source__markdown"] = source
		doc["source"] = source
		for key, value := range MarkdownFields(source, markdownPrefix) {
			doc[key] = value
		}
	}
	doc["_text_"] = doc.Str("source")

	if doc.Str("notebook_mtime") != "" || doc.Str("lc_cell_meme__execution_end_time") != "" {
		estimated := doc.Str("lc_cell_meme__execution_end_time")
		if estimated == "" {
			estimated = doc.Str("notebook_mtime")
		}
		doc["estimated_mtime"] = estimated
	}

	if len(cell.Outputs) == 0 {
		return doc
	}
	for _, output := range cell.Outputs {
		if output.OutputType == "execute_result" {
			if plain, ok := output.Data["text/plain"]; ok {
				doc["outputs__result_plain"] = plain.String()
			}
			if html, ok := output.Data["text/html"]; ok {
				doc["outputs__result_html"] = html.String()
			}
			continue
		}
		if output.Name != "stdout" && output.Name != "stderr" {
			continue
		}
		doc["outputs__"+output.Name] = output.Text.String()
	}
	doc["outputs"] = joinOutputFields(doc)
	doc["_text_"] = doc.Str("_text_") + "\n" + doc.Str("outputs")
	return doc
}

// joinOutputFields concatenates every outputs-prefixed field in key
// order, forming the aggregate outputs field.
func joinOutputFields(doc solr.Document) string {
	var keys []string
	for key := range doc {
		if strings.SplitN(key, "_", 2)[0] == "outputs" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = doc.Str(key)
	}
	return strings.Join(parts, " ")
}

// NotebookDocument builds the notebook-level document: attributes plus
// the per-cell source and output fields merged together, the ordered
// cell meme list, and the latest execution end time.
func NotebookDocument(filePath string, nb *notebook.Notebook, attr map[string]string) solr.Document {
	notebookID := NotebookID(filePath, nb)
	_, filename := path.Split(filePath)
	doc := solr.Document{
		"id":       notebookID,
		"filename": filename,
	}
	for key, value := range attr {
		doc[key] = value
	}

	doc["source"] = ""
	doc["outputs"] = ""
	var memes []string
	var executionEndTimes []string
	for i, cell := range nb.Cells {
		if id := cell.Metadata.MemeID(); id != "" {
			memes = append(memes, id)
		}
		cellDoc := CellDocument(notebookID, filePath, cell, i, nil)
		for key := range cellDoc {
			if key == "lc_cell_meme__execution_end_time" {
				executionEndTimes = append(executionEndTimes, cellDoc.Str(key))
				continue
			}
			head := strings.SplitN(key, "_", 2)[0]
			if head != "outputs" && head != "source" {
				continue
			}
			mergeField(doc, key, cellDoc.Str(key))
		}
	}

	doc["lc_cell_memes"] = strings.Join(memes, " ")
	if len(executionEndTimes) > 0 {
		sort.Strings(executionEndTimes)
		doc["lc_cell_meme__execution_end_time"] = executionEndTimes[len(executionEndTimes)-1]
	}
	doc["_text_"] = filename + "\n" + doc.Str("source") + "\n" + doc.Str("outputs")

	headingCount := 0
	if headings := doc.Str(markdownPrefix + "heading"); headings != "" {
		headingCount = len(strings.Split(headings, "\n"))
	}
	doc[markdownPrefix+"heading_count"] = strconv.Itoa(headingCount)
	return doc
}

func mergeField(doc solr.Document, key, value string) {
	if existing := doc.Str(key); existing != "" {
		doc[key] = existing + "\n" + value
		return
	}
	doc[key] = value
}
