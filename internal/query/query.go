package query

import (
	"fmt"
	"strings"
)

type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// SortQuery is a single-column sort directive.
type SortQuery struct {
	Column Field
	Order  SortOrder
}

func (s SortQuery) String() string {
	return fmt.Sprintf("%s %s", s.Column.BackendName(), s.Order)
}

// ParseSort parses a "<field> asc|desc" directive. Unknown fields or
// orders are rejected.
func ParseSort(s string) (*SortQuery, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid sort directive: %q", s)
	}
	column, err := ParseField(parts[0])
	if err != nil {
		return nil, err
	}
	switch SortOrder(parts[1]) {
	case SortAscending, SortDescending:
	default:
		return nil, fmt.Errorf("invalid sort order: %q", parts[1])
	}
	return &SortQuery{Column: column, Order: SortOrder(parts[1])}, nil
}

// PageQuery selects a result window. Start is a zero-based offset.
type PageQuery struct {
	Start int
	Limit int
}

// SearchQuery is one fully assembled backend query. It is rebuilt on
// every user-triggered search; the session keeps a snapshot of the last
// one that succeeded.
type SearchQuery struct {
	QueryString string
	Op          Composition
	Sort        *SortQuery
	Page        *PageQuery
}
