package query

import "testing"

func TestParseSort(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "Descending mtime",
			input: "mtime desc",
			want:  "mtime desc",
		},
		{
			name:  "Ascending estimated mtime",
			input: "estimated_mtime asc",
			want:  "estimated_mtime asc",
		},
		{
			name:  "Extra whitespace tolerated",
			input: "  owner   desc ",
			want:  "owner desc",
		},
		{
			name:    "Unknown field",
			input:   "no_such_field desc",
			wantErr: true,
		},
		{
			name:    "Unknown order",
			input:   "mtime sideways",
			wantErr: true,
		},
		{
			name:    "Missing order",
			input:   "mtime",
			wantErr: true,
		},
		{
			name:    "Empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sort, err := ParseSort(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSort(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSort(%q) error: %v", tt.input, err)
			}
			if sort.String() != tt.want {
				t.Errorf("ParseSort(%q) = %q, want %q", tt.input, sort.String(), tt.want)
			}
		})
	}
}

func TestParseFieldRoundTrip(t *testing.T) {
	for field, name := range backendNames {
		parsed, err := ParseField(name)
		if err != nil {
			t.Errorf("ParseField(%q) error: %v", name, err)
			continue
		}
		if parsed.BackendName() != field.BackendName() {
			t.Errorf("ParseField(%q) = %v, want %v", name, parsed, field)
		}
	}
}

func TestBackendNameFallback(t *testing.T) {
	if got := Field(9999).BackendName(); got != "_text_" {
		t.Errorf("unknown field backend name = %q, want _text_", got)
	}
}
