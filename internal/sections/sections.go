// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sections splits the page texts of one document into candidate
// sections. Section starts are found by a pluggable BoundaryFunc; the
// default recognizes short capitalized heading lines that end with a period
// or colon.
package sections

import (
	"regexp"
	"strings"

	"github.com/pdiddy/persona-digest/internal/textproc"
	"github.com/pdiddy/persona-digest/pkg/types"
)

// DefaultMinWords is the content word count a section must exceed to be kept.
const DefaultMinWords = 30

// BoundaryFunc returns the byte offsets in page at which a new section
// begins, in increasing order. A boundary at offset i ends the previous
// chunk at i-1: the byte before a boundary (a line break) belongs to
// neither chunk.
type BoundaryFunc func(page string) []int

// headingLine matches a heading line at the start of the remaining text:
// optional whitespace, an uppercase letter, letters/digits/spaces/hyphens,
// then a period or colon closing the line.
var headingLine = regexp.MustCompile(`^\s*[A-Z][A-Za-z0-9 \-]+[.:]\s*\n`)

// HeadingBoundaries places a boundary after every line break that is
// immediately followed by a heading line.
func HeadingBoundaries(page string) []int {
	var offsets []int
	for i := 0; i < len(page); i++ {
		if page[i] != '\n' {
			continue
		}
		if headingLine.MatchString(page[i+1:]) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// Extractor turns page texts into candidate sections.
type Extractor struct {
	// Boundaries finds section starts on a page. Nil uses HeadingBoundaries.
	Boundaries BoundaryFunc

	// MinWords is the content word count a section must exceed. Zero uses
	// DefaultMinWords.
	MinWords int
}

// Extract returns the candidate sections of one document. pages holds the
// text of each page in order; page numbers are 1-based. Blank pages yield
// nothing, and chunks whose content has MinWords words or fewer are dropped.
func (e Extractor) Extract(ref types.DocumentRef, pages []string) []types.CandidateSection {
	boundaries := e.Boundaries
	if boundaries == nil {
		boundaries = HeadingBoundaries
	}
	minWords := e.MinWords
	if minWords <= 0 {
		minWords = DefaultMinWords
	}

	var out []types.CandidateSection
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		for _, chunk := range split(page, boundaries(page)) {
			title, content, ok := titleAndContent(chunk)
			if !ok || textproc.FieldCount(content) <= minWords {
				continue
			}
			out = append(out, types.CandidateSection{
				Document: ref.Filename,
				DocTitle: ref.Title,
				Title:    title,
				Content:  content,
				PageNum:  i + 1,
			})
		}
	}
	return out
}

// split cuts page at the given boundaries, dropping the byte that precedes
// each boundary.
func split(page string, offsets []int) []string {
	chunks := make([]string, 0, len(offsets)+1)
	start := 0
	for _, off := range offsets {
		if off <= start || off > len(page) {
			continue
		}
		chunks = append(chunks, page[start:off-1])
		start = off
	}
	return append(chunks, page[start:])
}

// titleAndContent returns the first non-blank trimmed line as the title and
// the remaining non-blank trimmed lines joined by spaces as the content.
func titleAndContent(chunk string) (title, content string, ok bool) {
	var lines []string
	for _, line := range strings.Split(chunk, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", "", false
	}
	return lines[0], strings.Join(lines[1:], " "), true
}
