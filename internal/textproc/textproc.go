// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textproc tokenizes and normalizes text for section scoring and
// refinement. Word and sentence boundaries follow Unicode text segmentation
// (UAX #29). Normalization is lowercasing plus ASCII punctuation removal;
// there is no stemming.
package textproc

import (
	"iter"
	"slices"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/clipperhouse/uax29/v2/words"
)

// Punctuation is the ASCII punctuation set removed by StripPunctuation.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Sentences returns the sentences of text, trimmed, in order. Blank
// segments are skipped. The sequence is lazy and can be ranged over more
// than once.
func Sentences(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		seg := sentences.FromString(text)
		for seg.Next() {
			s := strings.TrimSpace(seg.Value())
			if s == "" {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// Words returns the tokens of text in order. Punctuation marks are tokens
// of their own; whitespace segments are dropped. The sequence is lazy and
// can be ranged over more than once.
func Words(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		seg := words.FromString(text)
		for seg.Next() {
			w := seg.Value()
			if isSpace(w) {
				continue
			}
			if !yield(w) {
				return
			}
		}
	}
}

func isSpace(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

func isWordLike(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// CountWords returns the number of tokens in text, punctuation included.
func CountWords(text string) int {
	n := 0
	for range Words(text) {
		n++
	}
	return n
}

// WordSet returns the distinct tokens of lowercased text, punctuation
// included.
func WordSet(text string) Set {
	set := make(Set)
	for w := range Words(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

// ContentWords lowercases text, strips punctuation, tokenizes it and drops
// stop words. Tokens without a letter or digit, such as non-ASCII dashes
// and quotes, are dropped too. Duplicates are kept so callers can count
// frequencies.
func ContentWords(text string) []string {
	var out []string
	for w := range Words(StripPunctuation(strings.ToLower(text))) {
		if !isWordLike(w) || IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// StripPunctuation removes every ASCII punctuation character from s.
func StripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && strings.ContainsRune(Punctuation, r) {
			return -1
		}
		return r
	}, s)
}

// FieldCount counts whitespace-delimited fields, the measure used for
// section length thresholds.
func FieldCount(s string) int {
	return len(strings.Fields(s))
}

// HasDigit reports whether s contains any decimal digit.
func HasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// MostCommon returns up to n distinct words ordered by descending
// frequency. Words with equal counts keep the order of their first
// occurrence.
func MostCommon(ws []string, n int) []string {
	if n <= 0 {
		return nil
	}
	counts := make(map[string]int, len(ws))
	var order []string
	for _, w := range ws {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}
