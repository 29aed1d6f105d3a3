// Package markdown parses project markdown artifacts into typed records.
//
// Two parsers live here: a section splitter for free-form documents
// (specs, PRDs, design notes) and a checklist parser for task lists.
// Both are pure functions over their inputs — they never touch the
// filesystem and never return errors. Malformed input degrades to
// empty or partial results, it does not fail.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// Section is a titled fragment of a markdown document, the unit of
// semantic indexing for free-form documents.
type Section struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	SectionNumber int    `json:"section_number,omitempty"`
	ParentSection string `json:"parent_section,omitempty"`
}

// headingPattern matches level 1-3 markdown headings.
var headingPattern = regexp.MustCompile(`^(#{1,3})\s+(.+?)\s*$`)

// ParseSections splits a markdown document into sections at heading
// levels 1-3. Body lines accumulate into the current section until the
// next heading or end of input. Sections whose body is empty after
// trimming are dropped.
//
// Section numbers increment once per heading line seen, not per section
// emitted — a heading later dropped for emptiness still consumes a
// number, so gaps in numbering can appear. A document with no headings
// yields no sections, even if it has body text.
func ParseSections(text, sourceName string) []Section {
	type openSection struct {
		title  string
		number int
		body   []string
	}

	var (
		sections []Section
		current  *openSection
		counter  int
	)

	closeCurrent := func() {
		if current == nil {
			return
		}
		content := strings.TrimSpace(strings.Join(current.body, "\n"))
		if content != "" {
			sections = append(sections, Section{
				ID:            fmt.Sprintf("%s-%d", sourceName, current.number),
				Title:         current.title,
				Content:       content,
				SectionNumber: current.number,
			})
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			closeCurrent()
			counter++
			current = &openSection{title: m[2], number: counter}
			continue
		}
		if current != nil {
			current.body = append(current.body, line)
		}
	}
	closeCurrent()

	return sections
}
