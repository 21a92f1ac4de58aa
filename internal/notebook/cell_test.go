package notebook

import (
	"encoding/json"
	"testing"
)

func TestMultilineTextUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "Plain string",
			data: `"print('hi')"`,
			want: "print('hi')",
		},
		{
			name: "Line fragments join without separator",
			data: `["import os\n", "os.getcwd()"]`,
			want: "import os\nos.getcwd()",
		},
		{
			name: "Empty array",
			data: `[]`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var text MultilineText
			if err := json.Unmarshal([]byte(tt.data), &text); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if text.String() != tt.want {
				t.Errorf("got %q, want %q", text.String(), tt.want)
			}
		})
	}
}

func TestParseNotebook(t *testing.T) {
	data := []byte(`{
		"cells": [
			{
				"cell_type": "code",
				"source": ["x = 1\n", "x"],
				"metadata": {
					"lc_cell_meme": {"current": "meme-1", "execution_end_time": "2024-01-15T10:00:00Z"},
					"collapsed": false
				},
				"execution_count": 3,
				"outputs": [
					{"output_type": "execute_result", "data": {"text/plain": ["1"]}}
				]
			},
			{
				"cell_type": "markdown",
				"source": "# Title",
				"metadata": {}
			}
		],
		"metadata": {
			"lc_notebook_meme": {
				"current": "nb-meme",
				"lc_server_signature": {"current": {"signature_id": "sig-1", "notebook_path": "/work", "server_url": "http://srv"}}
			},
			"kernelspec": {"name": "python3"}
		},
		"nbformat": 4,
		"nbformat_minor": 5
	}`)

	nb, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(nb.Cells) != 2 {
		t.Fatalf("parsed %d cells, want 2", len(nb.Cells))
	}

	code := nb.Cells[0]
	if code.Source.String() != "x = 1\nx" {
		t.Errorf("source = %q", code.Source.String())
	}
	if code.Metadata.MemeID() != "meme-1" {
		t.Errorf("MemeID() = %q, want meme-1", code.Metadata.MemeID())
	}
	if code.ExecutionCount == nil || *code.ExecutionCount != 3 {
		t.Errorf("execution_count not preserved")
	}
	if code.Outputs[0].Data["text/plain"].String() != "1" {
		t.Errorf("output data not parsed")
	}

	if nb.Metadata.Meme == nil || nb.Metadata.Meme.Current != "nb-meme" {
		t.Errorf("notebook meme not parsed")
	}
	sig := nb.Metadata.Meme.ServerSignature.Current
	if sig.SignatureID != "sig-1" || sig.ServerURL != "http://srv" {
		t.Errorf("server signature not parsed: %+v", sig)
	}
}

func TestCellMetadataRoundTripPreservesUnknownKeys(t *testing.T) {
	original := []byte(`{"collapsed":true,"lc_cell_meme":{"current":"m1"},"scrolled":false}`)

	var meta CellMetadata
	if err := json.Unmarshal(original, &meta); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if meta.MemeID() != "m1" {
		t.Fatalf("MemeID() = %q, want m1", meta.MemeID())
	}

	out, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var roundTrip map[string]json.RawMessage
	if err := json.Unmarshal(out, &roundTrip); err != nil {
		t.Fatalf("re-Unmarshal() error: %v", err)
	}
	for _, key := range []string{"collapsed", "scrolled", "lc_cell_meme"} {
		if _, ok := roundTrip[key]; !ok {
			t.Errorf("key %q lost in round trip", key)
		}
	}
}

func TestMemeIDWithoutProvenance(t *testing.T) {
	if id := (CellMetadata{}).MemeID(); id != "" {
		t.Errorf("MemeID() = %q, want empty", id)
	}
}
