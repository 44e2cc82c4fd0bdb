// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textproc

// Set is a set of tokens.
type Set map[string]struct{}

// NewSet builds a set from ws, collapsing duplicates.
func NewSet(ws []string) Set {
	s := make(Set, len(ws))
	for _, w := range ws {
		s[w] = struct{}{}
	}
	return s
}

// Has reports whether w is in the set.
func (s Set) Has(w string) bool {
	_, ok := s[w]
	return ok
}

// Union returns a new set holding the members of s and o.
func (s Set) Union(o Set) Set {
	u := make(Set, len(s)+len(o))
	for w := range s {
		u[w] = struct{}{}
	}
	for w := range o {
		u[w] = struct{}{}
	}
	return u
}

// IntersectCount returns |s ∩ o|.
func (s Set) IntersectCount(o Set) int {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for w := range small {
		if large.Has(w) {
			n++
		}
	}
	return n
}

// Without returns a new set holding the members of s for which drop is false.
func (s Set) Without(drop func(string) bool) Set {
	out := make(Set, len(s))
	for w := range s {
		if !drop(w) {
			out[w] = struct{}{}
		}
	}
	return out
}
