package query

import (
	"fmt"
	"strings"
)

type Composition string

const (
	CompositionAnd Composition = "AND"
	CompositionOr  Composition = "OR"
)

// EmptyQueryString matches every document.
const EmptyQueryString = "_text_:*"

func ParseComposition(s string) (Composition, error) {
	switch strings.ToUpper(s) {
	case string(CompositionAnd):
		return CompositionAnd, nil
	case string(CompositionOr):
		return CompositionOr, nil
	default:
		return "", fmt.Errorf("unknown composition operator: %q", s)
	}
}

// Condition is one field/value pair of a composite query.
type Condition struct {
	Target Field
	Query  string
}

// CompositeQuery is the structured representation of a search
// condition: ordered field/value pairs joined by a boolean composition
// operator.
type CompositeQuery struct {
	Composition Composition
	Fields      []Condition
}

// QueryString renders the composite query in the backend's flat query
// syntax. An empty field list renders as a full-text match-all
// condition, never as an empty string. Values are joined as-is:
// escaping is the responsibility of whoever assembled the value (see
// Escape), so queries typed by the user keep their backend-native
// syntax.
func (q CompositeQuery) QueryString() string {
	conditions := q.Fields
	if len(conditions) == 0 {
		conditions = []Condition{{Target: FieldFullText, Query: "*"}}
	}
	parts := make([]string, len(conditions))
	for i, condition := range conditions {
		parts[i] = condition.Target.BackendName() + ":" + condition.Query
	}
	separator := " AND "
	if q.Composition == CompositionOr {
		separator = " OR "
	}
	return strings.Join(parts, separator)
}

// reserved is the set of single characters the backend's query parser
// treats as syntax.
const reserved = `\+-!(){}[]^"~*?:`

// Escape backslash-escapes every syntax-significant character in a
// free-text value so the backend takes it literally. The boolean
// operators && and || are escaped as a unit, one backslash per
// character; a lone & or | is not special. Escape is applied once, to
// values assembled from raw authored text (cell sources); it is never
// applied to query strings the user typed directly.
func Escape(value string) string {
	var b strings.Builder
	runes := []rune(value)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case strings.ContainsRune(reserved, r):
			b.WriteByte('\\')
			b.WriteRune(r)
		case (r == '&' || r == '|') && i+1 < len(runes) && runes[i+1] == r:
			b.WriteByte('\\')
			b.WriteRune(r)
			b.WriteByte('\\')
			b.WriteRune(r)
			i++
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
