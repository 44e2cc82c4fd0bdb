// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package refine produces the sentence-level summary of a selected section:
// the few sentences that mention the most title keywords.
package refine

import (
	"sort"
	"strings"

	"github.com/pdiddy/persona-digest/internal/textproc"
	"github.com/pdiddy/persona-digest/pkg/types"
)

const (
	// Prefix starts every refined text.
	Prefix = "Key insights: "

	// Fallback is the refined text when no sentence mentions a title keyword.
	Fallback = Prefix + "This section contains meaningful content relevant to the task."

	minSentenceWords = 10
	maxSentenceWords = 40
	maxSentences     = 3
)

type scoredSentence struct {
	text  string
	score int
}

// Text returns the refined text for a section's title and content.
func Text(title, content string) string {
	keywords := TitleKeywords(title)

	var scored []scoredSentence
	for s := range textproc.Sentences(content) {
		n := textproc.CountWords(s)
		if n < minSentenceWords || n > maxSentenceWords {
			continue
		}
		if score := keywordHits(strings.ToLower(s), keywords); score > 0 {
			scored = append(scored, scoredSentence{text: s, score: score})
		}
	}
	if len(scored) == 0 {
		return Fallback
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > maxSentences {
		scored = scored[:maxSentences]
	}

	parts := make([]string, len(scored))
	for i, s := range scored {
		parts[i] = s.text
	}
	return Prefix + strings.TrimSpace(strings.Join(parts, " "))
}

// TitleKeywords returns the tokens of the lowercased title that are not
// stop words, punctuation marks included, sorted for deterministic
// iteration.
func TitleKeywords(title string) []string {
	set := textproc.WordSet(title).Without(textproc.IsStopWord)
	out := make([]string, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// keywordHits counts keywords occurring anywhere in sentence, including
// inside longer words.
func keywordHits(sentence string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(sentence, k) {
			n++
		}
	}
	return n
}

// Section refines one selected section into its analysis record.
func Section(s types.ScoredSection) types.SubsectionAnalysis {
	return types.SubsectionAnalysis{
		Document:    s.Document,
		RefinedText: Text(s.Title, s.Content),
		PageNumber:  s.PageNum,
	}
}

// All refines each selected section, preserving order.
func All(selected []types.ScoredSection) []types.SubsectionAnalysis {
	out := make([]types.SubsectionAnalysis, len(selected))
	for i, s := range selected {
		out[i] = Section(s)
	}
	return out
}
