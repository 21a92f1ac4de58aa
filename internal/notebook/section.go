package notebook

import (
	"fmt"
	"strings"
)

// Section is a contiguous run of cells anchored by a markdown header
// cell. EndIndex is inclusive. Sections are never mutated after
// creation; concatenating the Cells of all sections reproduces the
// segmented input exactly.
type Section struct {
	Title      string `json:"title"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
	Cells      []Cell `json:"cells"`
}

// HeaderOf returns the markdown header that opens a cell, or "" when
// the cell is not a markdown cell or has body text before any header.
// Blank leading lines are skipped.
func HeaderOf(cell Cell) string {
	if cell.CellType != CellTypeMarkdown {
		return ""
	}
	for _, line := range strings.Split(cell.Source.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return trimmed
		}
		if trimmed != "" {
			break
		}
	}
	return ""
}

// Segment partitions cells into sections. A markdown cell whose first
// non-blank line is a header opens a new section; the very first cell
// always opens the first section, with a synthesized "Section <n>"
// title when it carries no header.
func Segment(cells []Cell) []Section {
	var sections []Section
	sectionStart := 0

	for i, cell := range cells {
		if HeaderOf(cell) == "" {
			continue
		}
		if i > sectionStart {
			sections = append(sections, makeSection(cells, sectionStart, i-1, len(sections)+1))
		}
		sectionStart = i
	}

	if sectionStart < len(cells) {
		sections = append(sections, makeSection(cells, sectionStart, len(cells)-1, len(sections)+1))
	}

	return sections
}

func makeSection(cells []Cell, start, end, ordinal int) Section {
	title := HeaderOf(cells[start])
	if title == "" {
		title = fmt.Sprintf("Section %d", ordinal)
	}
	return Section{
		Title:      title,
		StartIndex: start,
		EndIndex:   end,
		Cells:      cells[start : end+1],
	}
}

// FlattenSections concatenates the cells of the given sections in
// order.
func FlattenSections(sections []Section) []Cell {
	var cells []Cell
	for _, section := range sections {
		cells = append(cells, section.Cells...)
	}
	return cells
}

// SectionsByTitle returns the sections whose titles appear in titles,
// preserving notebook order. Used to restore a previous selection from
// a merge marker.
func SectionsByTitle(sections []Section, titles []string) []Section {
	wanted := map[string]bool{}
	for _, title := range titles {
		wanted[title] = true
	}
	var selected []Section
	for _, section := range sections {
		if wanted[section.Title] {
			selected = append(selected, section)
		}
	}
	return selected
}
