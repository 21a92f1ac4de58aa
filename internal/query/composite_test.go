package query

import "testing"

func TestEscape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Plain text untouched",
			input: "df.plot per column",
			want:  "df.plot per column",
		},
		{
			name:  "Reserved characters",
			input: `a+b-c!d(e)f{g}h[i]j^k"l~m*n?o:p`,
			want:  `a\+b\-c\!d\(e\)f\{g\}h\[i\]j\^k\"l\~m\*n\?o\:p`,
		},
		{
			name:  "Backslash itself",
			input: `a\b`,
			want:  `a\\b`,
		},
		{
			name:  "Double ampersand escaped as a unit",
			input: "a && b",
			want:  `a \&\& b`,
		},
		{
			name:  "Double pipe escaped as a unit",
			input: "a || b",
			want:  `a \|\| b`,
		},
		{
			name:  "Lone ampersand untouched",
			input: "a & b",
			want:  "a & b",
		},
		{
			name:  "Lone pipe untouched",
			input: "a | b",
			want:  "a | b",
		},
		{
			name:  "Triple ampersand escapes the first pair",
			input: "a &&& b",
			want:  `a \&\&& b`,
		},
		{
			name:  "Empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.input); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompositeQueryString(t *testing.T) {
	tests := []struct {
		name  string
		query CompositeQuery
		want  string
	}{
		{
			name:  "Empty query matches everything",
			query: CompositeQuery{},
			want:  "_text_:*",
		},
		{
			name: "Single condition",
			query: CompositeQuery{
				Composition: CompositionAnd,
				Fields:      []Condition{{Target: FieldCellType, Query: "code"}},
			},
			want: "cell_type:code",
		},
		{
			name: "AND composition",
			query: CompositeQuery{
				Composition: CompositionAnd,
				Fields: []Condition{
					{Target: FieldCellType, Query: "code"},
					{Target: FieldCellMemeCurrent, Query: "meme-1"},
				},
			},
			want: "cell_type:code AND lc_cell_meme__current:meme-1",
		},
		{
			name: "OR composition",
			query: CompositeQuery{
				Composition: CompositionOr,
				Fields: []Condition{
					{Target: FieldOwner, Query: "alice"},
					{Target: FieldOwner, Query: "bob"},
				},
			},
			want: "owner:alice OR owner:bob",
		},
		{
			name: "Zero composition defaults to AND",
			query: CompositeQuery{
				Fields: []Condition{
					{Target: FieldOwner, Query: "alice"},
					{Target: FieldCellType, Query: "code"},
				},
			},
			want: "owner:alice AND cell_type:code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.QueryString(); got != tt.want {
				t.Errorf("QueryString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseComposition(t *testing.T) {
	if op, err := ParseComposition("or"); err != nil || op != CompositionOr {
		t.Errorf("ParseComposition(or) = %v, %v", op, err)
	}
	if _, err := ParseComposition("XOR"); err == nil {
		t.Error("ParseComposition(XOR) should fail")
	}
}
