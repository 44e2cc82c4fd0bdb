// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package refine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/persona-digest/pkg/types"
)

const (
	s1 = "Water samples were collected from twelve wells across the northern district in early spring."
	s2 = "Testing results showed that water quality exceeded the regional standard at every single site."
	s3 = "Too short to count here."
	s4 = "The team then repeated all testing with new equipment to confirm the earlier results again."
	s5 = "Local officials praised the effort and promised continued funding for the program next year."
	s6 = "Further water checks are planned for the autumn season across all of the district sites."
)

// sentenceOf returns a sentence of n tokens starting with lead; the
// closing period is the last token.
func sentenceOf(lead string, n int) string {
	return lead + strings.Repeat(" word", n-2) + "."
}

func TestText_SelectsTopThreeByKeywordHits(t *testing.T) {
	content := strings.Join([]string{s1, s2, s3, s4, s5, s6}, " ")

	got := Text("Water Testing Results:", content)

	assert.Equal(t, Prefix+s2+" "+s4+" "+s1, got)
}

func TestText_SubstringMatch(t *testing.T) {
	content := "We spent most of the quarter planning the testing campaign for the new site."

	got := Text("Test Plan:", content)

	assert.Equal(t, Prefix+content, got)
}

func TestText_SentenceLengthBounds(t *testing.T) {
	tests := []struct {
		name   string
		tokens int
		kept   bool
	}{
		{name: "8 words and period dropped", tokens: 9, kept: false},
		{name: "9 words and period kept", tokens: 10, kept: true},
		{name: "39 words and period kept", tokens: 40, kept: true},
		{name: "40 words and period dropped", tokens: 41, kept: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text("Alpha", sentenceOf("Alpha", tt.tokens))
			if tt.kept {
				assert.Equal(t, Prefix+sentenceOf("Alpha", tt.tokens), got)
			} else {
				assert.Equal(t, Fallback, got)
			}
		})
	}
}

func TestText_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
	}{
		{name: "no keyword in any sentence", title: "Overview", content: s1 + " " + s5},
		{name: "title of stop words only", title: "The And", content: s1},
		{name: "colon absent from sentences", title: "The And:", content: s1},
		{name: "empty content", title: "Water", content: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t,
				"Key insights: This section contains meaningful content relevant to the task.",
				Text(tt.title, tt.content))
		})
	}
}

func TestText_TitlePunctuationIsKeyword(t *testing.T) {
	// Neither sentence mentions "overview"; both contain the title's period.
	got := Text("Overview.", s1+" "+s5)
	assert.Equal(t, Prefix+s1+" "+s5, got)

	got = Text("Budget Notes:", s1+" "+s5)
	assert.Equal(t, Fallback, got)
}

func TestText_Idempotent(t *testing.T) {
	content := strings.Join([]string{s6, s4, s1, s2}, " ")
	first := Text("Water Testing Results:", content)
	second := Text("Water Testing Results:", content)
	assert.Equal(t, first, second)
}

func TestTitleKeywords(t *testing.T) {
	assert.Equal(t, []string{":", "results", "testing", "water"}, TitleKeywords("The Water Testing Results:"))
	assert.Equal(t, []string{".", "overview"}, TitleKeywords("Overview."))
	assert.Equal(t, []string{":"}, TitleKeywords("Of the:"))
	assert.Empty(t, TitleKeywords("Of the"))
}

func TestAll_PreservesOrder(t *testing.T) {
	selected := []types.ScoredSection{
		{CandidateSection: types.CandidateSection{Document: "b.pdf", Title: "Water", Content: s1, PageNum: 3}, Score: 9},
		{CandidateSection: types.CandidateSection{Document: "a.pdf", Title: "Budget", Content: s5, PageNum: 1}, Score: 4},
	}

	got := All(selected)

	require.Len(t, got, 2)
	assert.Equal(t, types.SubsectionAnalysis{Document: "b.pdf", RefinedText: Prefix + s1, PageNumber: 3}, got[0])
	assert.Equal(t, types.SubsectionAnalysis{Document: "a.pdf", RefinedText: Fallback, PageNumber: 1}, got[1])
}
