package markdown

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSections_NoHeadings(t *testing.T) {
	sections := ParseSections("just some body text\nwith two lines\n", "notes.md")
	assert.Empty(t, sections, "a document with no headings yields no sections")
}

func TestParseSections_EmptyInput(t *testing.T) {
	assert.Empty(t, ParseSections("", "empty.md"))
}

func TestParseSections_Basic(t *testing.T) {
	doc := "# Overview\n\nThe big picture.\n\n## Details\n\nThe finer points.\n"
	sections := ParseSections(doc, "prd.md")

	require.Len(t, sections, 2)
	assert.Equal(t, "Overview", sections[0].Title)
	assert.Equal(t, "The big picture.", sections[0].Content)
	assert.Equal(t, 1, sections[0].SectionNumber)
	assert.Equal(t, "prd.md-1", sections[0].ID)
	assert.Equal(t, "Details", sections[1].Title)
	assert.Equal(t, 2, sections[1].SectionNumber)
}

func TestParseSections_EmptyBodyDropped(t *testing.T) {
	doc := "# Title\n\nIntro text\n\n## Empty\n\n## Filled\n\nBody text\n"
	sections := ParseSections(doc, "doc.md")

	require.Len(t, sections, 2)
	assert.Equal(t, "Title", sections[0].Title)
	assert.Equal(t, "Filled", sections[1].Title)
	// The dropped "Empty" heading still consumed a number, so the
	// surviving sections are numbered 1 and 3.
	assert.Equal(t, 1, sections[0].SectionNumber)
	assert.Equal(t, 3, sections[1].SectionNumber)
}

func TestParseSections_WhitespaceOnlyBodyDropped(t *testing.T) {
	sections := ParseSections("## Blank\n\n   \n\t\n", "doc.md")
	assert.Empty(t, sections)
}

func TestParseSections_RoundTrip(t *testing.T) {
	const n = 7
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "## Section %d\n\nUnique body %d\n\n", i, i)
	}

	sections := ParseSections(b.String(), "big.md")
	require.Len(t, sections, n)
	for i, s := range sections {
		assert.Equal(t, fmt.Sprintf("Section %d", i+1), s.Title)
		assert.Equal(t, fmt.Sprintf("Unique body %d", i+1), s.Content)
		assert.Equal(t, i+1, s.SectionNumber)
	}
}

func TestParseSections_DeepHeadingsIgnored(t *testing.T) {
	doc := "## Top\n\nIntro\n\n#### Deep\n\nStill part of Top\n"
	sections := ParseSections(doc, "doc.md")

	require.Len(t, sections, 1)
	assert.Contains(t, sections[0].Content, "#### Deep")
	assert.Contains(t, sections[0].Content, "Still part of Top")
}

func TestParseSections_ParentSectionUnset(t *testing.T) {
	sections := ParseSections("# A\n\nbody\n", "doc.md")
	require.Len(t, sections, 1)
	assert.Empty(t, sections[0].ParentSection)
}

func TestParseSections_BodyBeforeFirstHeadingIgnored(t *testing.T) {
	doc := "stray preamble\n\n# Real\n\ncontent\n"
	sections := ParseSections(doc, "doc.md")

	require.Len(t, sections, 1)
	assert.Equal(t, "Real", sections[0].Title)
	assert.Equal(t, "content", sections[0].Content)
}
