package notebook

import (
	"encoding/json"
	"fmt"
)

type CellType string

const (
	CellTypeCode     CellType = "code"
	CellTypeMarkdown CellType = "markdown"
	CellTypeRaw      CellType = "raw"
)

// MultilineText is notebook source text. On the wire it is either a
// plain string or a list of line fragments; it always marshals back as
// a single string.
type MultilineText string

func (m *MultilineText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = MultilineText(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("source is neither string nor string list: %w", err)
	}
	joined := ""
	for _, line := range lines {
		joined += line
	}
	*m = MultilineText(joined)
	return nil
}

func (m MultilineText) String() string {
	return string(m)
}

// CellMeme is the provenance descriptor attached to a cell by the
// authoring environment. Current identifies the authored version of the
// cell's content; Previous and Next identify lineage neighbors.
type CellMeme struct {
	Current          string `json:"current,omitempty"`
	Previous         string `json:"previous,omitempty"`
	Next             string `json:"next,omitempty"`
	ExecutionEndTime string `json:"execution_end_time,omitempty"`
}

// CellMetadata carries the known metadata keys and passes every other
// key through untouched.
type CellMetadata struct {
	Meme      *CellMeme
	Deletable *bool
	Editable  *bool
	Trusted   *bool
	Extra     map[string]json.RawMessage
}

func (m *CellMetadata) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		switch key {
		case "lc_cell_meme":
			meme := &CellMeme{}
			if err := json.Unmarshal(value, meme); err != nil {
				return fmt.Errorf("invalid lc_cell_meme: %w", err)
			}
			m.Meme = meme
		case "deletable":
			if err := json.Unmarshal(value, &m.Deletable); err != nil {
				return fmt.Errorf("invalid deletable: %w", err)
			}
		case "editable":
			if err := json.Unmarshal(value, &m.Editable); err != nil {
				return fmt.Errorf("invalid editable: %w", err)
			}
		case "trusted":
			if err := json.Unmarshal(value, &m.Trusted); err != nil {
				return fmt.Errorf("invalid trusted: %w", err)
			}
		default:
			if m.Extra == nil {
				m.Extra = map[string]json.RawMessage{}
			}
			m.Extra[key] = value
		}
	}
	return nil
}

func (m CellMetadata) MarshalJSON() ([]byte, error) {
	raw := map[string]json.RawMessage{}
	for key, value := range m.Extra {
		raw[key] = value
	}
	if m.Meme != nil {
		value, err := json.Marshal(m.Meme)
		if err != nil {
			return nil, err
		}
		raw["lc_cell_meme"] = value
	}
	for key, flag := range map[string]*bool{
		"deletable": m.Deletable,
		"editable":  m.Editable,
		"trusted":   m.Trusted,
	} {
		if flag == nil {
			continue
		}
		value, err := json.Marshal(*flag)
		if err != nil {
			return nil, err
		}
		raw[key] = value
	}
	return json.Marshal(raw)
}

// MemeID returns the current provenance id of the cell, or "" when the
// cell carries no provenance descriptor.
func (m CellMetadata) MemeID() string {
	if m.Meme == nil {
		return ""
	}
	return m.Meme.Current
}

// Output is a single cell output record. Only the fields the indexer
// reads are typed; Data values stay as raw line lists.
type Output struct {
	OutputType string                     `json:"output_type,omitempty"`
	Name       string                     `json:"name,omitempty"`
	Text       MultilineText              `json:"text,omitempty"`
	Data       map[string]MultilineText   `json:"data,omitempty"`
	Extra      map[string]json.RawMessage `json:"-"`
}

// Cell is one notebook cell as stored in ipynb JSON.
type Cell struct {
	CellType       CellType      `json:"cell_type"`
	Source         MultilineText `json:"source"`
	Metadata       CellMetadata  `json:"metadata"`
	Outputs        []Output      `json:"outputs,omitempty"`
	ExecutionCount *int          `json:"execution_count,omitempty"`
}

// ServerSignature identifies the server a notebook was signed by.
type ServerSignature struct {
	SignatureID  string `json:"signature_id,omitempty"`
	NotebookPath string `json:"notebook_path,omitempty"`
	ServerURL    string `json:"server_url,omitempty"`
}

type NotebookMeme struct {
	Current         string `json:"current,omitempty"`
	ServerSignature *struct {
		Current *ServerSignature `json:"current,omitempty"`
	} `json:"lc_server_signature,omitempty"`
}

type NotebookMetadata struct {
	Meme  *NotebookMeme              `json:"lc_notebook_meme,omitempty"`
	Extra map[string]json.RawMessage `json:"-"`
}

func (m *NotebookMetadata) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		if key == "lc_notebook_meme" {
			meme := &NotebookMeme{}
			if err := json.Unmarshal(value, meme); err != nil {
				return fmt.Errorf("invalid lc_notebook_meme: %w", err)
			}
			m.Meme = meme
			continue
		}
		if m.Extra == nil {
			m.Extra = map[string]json.RawMessage{}
		}
		m.Extra[key] = value
	}
	return nil
}

func (m NotebookMetadata) MarshalJSON() ([]byte, error) {
	raw := map[string]json.RawMessage{}
	for key, value := range m.Extra {
		raw[key] = value
	}
	if m.Meme != nil {
		value, err := json.Marshal(m.Meme)
		if err != nil {
			return nil, err
		}
		raw["lc_notebook_meme"] = value
	}
	return json.Marshal(raw)
}

// Notebook is a full ipynb document.
type Notebook struct {
	Cells         []Cell           `json:"cells"`
	Metadata      NotebookMetadata `json:"metadata"`
	NBFormat      int              `json:"nbformat,omitempty"`
	NBFormatMinor int              `json:"nbformat_minor,omitempty"`
}

func Parse(data []byte) (*Notebook, error) {
	nb := &Notebook{}
	if err := json.Unmarshal(data, nb); err != nil {
		return nil, fmt.Errorf("failed to parse notebook: %w", err)
	}
	return nb, nil
}
