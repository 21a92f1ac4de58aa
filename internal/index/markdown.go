package index

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/nbsearch/nbsearch/internal/constants"
)

var (
	urlPattern           = regexp.MustCompile(`https?://(www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_+.~#?&/=]*)`)
	operationNotePattern = regexp.MustCompile(`(?i)Operation\s*Note`)
)

// addField appends text to a field, newline-separated when the field
// already holds content.
func addField(fields map[string]string, name, text string) {
	if existing, ok := fields[name]; ok && len(existing) > 0 {
		fields[name] = existing + "\n" + text
		return
	}
	fields[name] = text
}

func nodeText(n ast.Node, source []byte) string {
	if t, ok := n.(*ast.Text); ok {
		return string(t.Text(source))
	}
	var parts []string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		parts = append(parts, nodeText(child, source))
	}
	if len(parts) == 0 {
		return string(n.Text(source))
	}
	return strings.Join(parts, " ")
}

func blockLines(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(source))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// MarkdownFields extracts the searchable structure of a markdown text
// into backend fields, each key prefixed with prefix: headings (overall
// and per level), links and urls, inline and fenced code, emphasis, the
// "Operation Note" section, and the about/todo convenience fields.
func MarkdownFields(markdown, prefix string) map[string]string {
	source := []byte(markdown)
	document := goldmark.DefaultParser().Parse(text.NewReader(source))

	fields := map[string]string{}
	_ = ast.Walk(document, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			level := n.Level
			if level > constants.MaxHeadingLevel {
				level = constants.MaxHeadingLevel
			}
			headingText := nodeText(n, source)
			addField(fields, prefix+"heading", strings.Repeat("#", level)+" "+headingText)
			addField(fields, prefix+"heading_"+strconv.Itoa(level), headingText)
		case *ast.Link:
			addField(fields, prefix+"link", nodeText(n, source)+" "+string(n.Destination))
			addField(fields, prefix+"url", string(n.Destination))
		case *ast.AutoLink:
			addField(fields, prefix+"url", string(n.URL(source)))
		case *ast.Text:
			for _, url := range urlPattern.FindAllString(string(n.Text(source)), -1) {
				addField(fields, prefix+"url", url)
			}
		case *ast.CodeSpan:
			code := nodeText(n, source)
			addField(fields, prefix+"code_inline", code)
			addField(fields, prefix+"code", code)
		case *ast.FencedCodeBlock:
			code := blockLines(n, source)
			addField(fields, prefix+"code_fence", code)
			addField(fields, prefix+"code", code)
		case *ast.Emphasis:
			emphasisText := nodeText(n, source)
			if n.Level >= 2 {
				addField(fields, prefix+"emphasis_2", emphasisText)
			} else {
				addField(fields, prefix+"emphasis_1", emphasisText)
			}
			addField(fields, prefix+"emphasis", emphasisText)
		}
		return ast.WalkContinue, nil
	})

	if note := sectionContent(document, source, operationNotePattern); note != "" {
		fields[prefix+"operation_note"] = note
	}
	if containsAny(fields[prefix+"heading"], "about") {
		fields[prefix+"about"] = markdown
	}
	if containsAny(fields[prefix+"emphasis"], "todo", "tbd") {
		fields[prefix+"todo"] = markdown
	}
	return fields
}

// sectionContent returns the text between a heading matching pattern
// and the next heading, searching nested blocks when no top-level
// heading matches.
func sectionContent(node ast.Node, source []byte, pattern *regexp.Regexp) string {
	var collected []string
	collecting := false
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if heading, ok := child.(*ast.Heading); ok {
			if collecting {
				return strings.Join(collected, "\n")
			}
			if pattern.MatchString(nodeText(heading, source)) {
				collecting = true
			}
			continue
		}
		if collecting {
			collected = append(collected, nodeText(child, source))
		}
	}
	if collecting {
		return strings.Join(collected, "\n")
	}
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if content := sectionContent(child, source, pattern); content != "" {
			return content
		}
	}
	return ""
}

func containsAny(haystack string, keywords ...string) bool {
	if haystack == "" {
		return false
	}
	lowered := strings.ToLower(haystack)
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
