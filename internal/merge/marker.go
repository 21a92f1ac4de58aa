package merge

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nbsearch/nbsearch/internal/constants"
	interrors "github.com/nbsearch/nbsearch/internal/errors"
	"github.com/nbsearch/nbsearch/internal/logger"
	"github.com/nbsearch/nbsearch/internal/query"
)

// MarkerQuery is the query part of a merge marker: the composition and
// a keyword map of backend field name to value.
type MarkerQuery struct {
	Composition query.Composition `yaml:"composition"`
	Keyword     map[string]string `yaml:"keyword"`
}

// Marker is the structured document a finalized merge writes back into
// the triggering cell, so a re-invocation can restore the query and the
// previously selected sections.
type Marker struct {
	Query    MarkerQuery `yaml:"query"`
	Sections []string    `yaml:"sections"`
}

// BuildMarker renders the marker cell source: the magic line followed
// by one YAML line per field of {query, sections}. When the merge
// inserted cells every line is commented out; after an in-place update
// the lines stay active so the author can re-run the same lookup.
func BuildMarker(q query.CompositeQuery, sectionTitles []string, trail []string, inserted bool) (string, error) {
	keyword := map[string]string{}
	for _, condition := range q.Fields {
		keyword[condition.Target.BackendName()] = condition.Query
	}
	if len(trail) > 0 {
		keyword[query.FieldCellMemes.BackendName()] = trail[0]
	}
	composition := q.Composition
	if composition == "" {
		composition = query.CompositionAnd
	}

	marker := Marker{
		Query:    MarkerQuery{Composition: composition, Keyword: keyword},
		Sections: sectionTitles,
	}
	if marker.Sections == nil {
		marker.Sections = []string{}
	}

	body, err := yaml.Marshal(&marker)
	if err != nil {
		return "", fmt.Errorf("failed to marshal merge marker: %w", err)
	}

	lines := []string{constants.MarkerMagic}
	lines = append(lines, strings.Split(strings.TrimSpace(string(body)), "\n")...)
	if inserted {
		for i, line := range lines {
			lines[i] = "# " + line
		}
	}
	return strings.Join(lines, "\n"), nil
}

// ParseMarker reads a marker back from cell source, accepting both the
// active and the fully commented form.
func ParseMarker(source string) (*Marker, error) {
	lines := strings.Split(strings.TrimSpace(source), "\n")
	if len(lines) == 0 {
		return nil, interrors.ErrNotMarkerCell
	}

	for i, line := range lines {
		trimmed := strings.TrimPrefix(line, "#")
		lines[i] = strings.TrimPrefix(trimmed, " ")
	}
	if !strings.HasPrefix(lines[0], constants.MarkerMagic) {
		return nil, interrors.ErrNotMarkerCell
	}

	marker := &Marker{}
	body := strings.Join(lines[1:], "\n")
	if err := yaml.Unmarshal([]byte(body), marker); err != nil {
		return nil, fmt.Errorf("failed to parse merge marker: %w", err)
	}
	if marker.Query.Composition == "" {
		marker.Query.Composition = query.CompositionAnd
	}
	return marker, nil
}

// CompositeQuery rebuilds a structured query from the marker's keyword
// map. The flat marker does not preserve authoring order, so fields
// come back sorted by backend name; unknown names are skipped.
func (m *Marker) CompositeQuery() query.CompositeQuery {
	names := make([]string, 0, len(m.Query.Keyword))
	for name := range m.Query.Keyword {
		names = append(names, name)
	}
	sort.Strings(names)

	q := query.CompositeQuery{Composition: m.Query.Composition}
	for _, name := range names {
		field, err := query.ParseField(name)
		if err != nil {
			logger.Debug("Skipping unknown marker field %q", name)
			continue
		}
		q.Fields = append(q.Fields, query.Condition{Target: field, Query: m.Query.Keyword[name]})
	}
	return q
}
