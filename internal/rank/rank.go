// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank scores candidate sections against a persona and task and
// selects the most relevant ones. Scores are sums of small integer terms
// built from token-set overlaps and structural hints; there are no learned
// weights.
package rank

import (
	"sort"
	"strings"

	"github.com/pdiddy/persona-digest/internal/textproc"
	"github.com/pdiddy/persona-digest/pkg/types"
)

// DefaultTopN is the number of sections kept by Top when n is not positive.
const DefaultTopN = 5

const (
	commonWordCount = 10
	longContent     = 100
)

// primaryTerms and secondaryTerms are title hints; only the first matching
// bucket counts.
var (
	primaryTerms   = []string{"abstract", "introduction", "conclusion", "summary"}
	secondaryTerms = []string{"method", "results", "analysis", "discussion"}
)

// Query is the tokenized persona and task, built once per scoring pass.
type Query struct {
	personaWords textproc.Set
	taskWords    textproc.Set
	either       textproc.Set
}

// NewQuery tokenizes the persona role and the task.
func NewQuery(role, task string) Query {
	p := textproc.WordSet(role)
	j := textproc.WordSet(task)
	return Query{personaWords: p, taskWords: j, either: p.Union(j)}
}

// Breakdown holds each term of a section score.
type Breakdown struct {
	TitleTask     int `json:"title_task" yaml:"title_task"`
	ContentQuery  int `json:"content_query" yaml:"content_query"`
	CommonWords   int `json:"common_words" yaml:"common_words"`
	DocTitle      int `json:"doc_title" yaml:"doc_title"`
	TitleKeyword  int `json:"title_keyword" yaml:"title_keyword"`
	LongContent   int `json:"long_content" yaml:"long_content"`
	NumericDetail int `json:"numeric_detail" yaml:"numeric_detail"`
}

// Total returns the section score.
func (b Breakdown) Total() int {
	return b.TitleTask + b.ContentQuery + b.CommonWords + b.DocTitle +
		b.TitleKeyword + b.LongContent + b.NumericDetail
}

// Explain scores one section term by term.
func (q Query) Explain(s types.CandidateSection) Breakdown {
	title := strings.ToLower(s.Title)
	content := strings.ToLower(s.Content)

	words := textproc.ContentWords(content)
	contentSet := textproc.NewSet(words)
	common := textproc.NewSet(textproc.MostCommon(words, commonWordCount))

	b := Breakdown{
		TitleTask:    2 * textproc.WordSet(title).IntersectCount(q.taskWords),
		ContentQuery: 2 * contentSet.IntersectCount(q.either),
		CommonWords:  contentSet.IntersectCount(common),
		DocTitle:     textproc.WordSet(s.DocTitle).IntersectCount(contentSet),
	}

	switch {
	case containsAny(title, primaryTerms):
		b.TitleKeyword = 3
	case containsAny(title, secondaryTerms):
		b.TitleKeyword = 2
	}
	if textproc.FieldCount(content) > longContent {
		b.LongContent = 1
	}
	if textproc.HasDigit(content) {
		b.NumericDetail = 1
	}
	return b
}

// Score returns the relevance score of one section.
func (q Query) Score(s types.CandidateSection) int {
	return q.Explain(s).Total()
}

// Rank scores every section in the pool and returns new scored values
// sorted by descending score. Equal scores keep their pool order.
func Rank(pool []types.CandidateSection, q Query) []types.ScoredSection {
	scored := make([]types.ScoredSection, len(pool))
	for i, s := range pool {
		scored[i] = types.ScoredSection{CandidateSection: s, Score: q.Score(s)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// Top returns the first n ranked sections, or all of them when fewer
// exist. A non-positive n uses DefaultTopN.
func Top(ranked []types.ScoredSection, n int) []types.ScoredSection {
	if n <= 0 {
		n = DefaultTopN
	}
	if len(ranked) <= n {
		return ranked
	}
	return ranked[:n]
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
