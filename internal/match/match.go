// Package match implements the language-independent tail of the correction
// pipeline: candidate deduplication, score-ordered conflict resolution,
// span-disjoint rewriting, and the distance-weighted context bonus.
//
// Candidates arrive from the per-language window scanners with rune offsets
// into the input text. Lower scores are better throughout.
package match

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Candidate is one potential rewrite of an input span. Start and End are
// rune offsets into the input text.
type Candidate struct {
	Start       int
	End         int
	Surface     string
	Replacement string
	Canonical   string
	Alias       string
	Score       float64
	ErrorRatio  float64
	HasContext  bool
}

// Overlaps reports whether two candidates claim intersecting spans.
func (c Candidate) Overlaps(other Candidate) bool {
	return c.Start < other.End && c.End > other.Start
}

// Distance returns the Levenshtein distance between two phonetic keys in
// absolute edits.
func Distance(a, b string) int {
	if a == b {
		return 0
	}
	return matchr.Levenshtein(a, b)
}

// ErrorRatio returns the normalised Levenshtein distance between two
// phonetic keys: distance over the longer rune length, 0 for equal keys.
func ErrorRatio(a, b string) float64 {
	if a == b {
		return 0
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}
	return float64(matchr.Levenshtein(a, b)) / float64(longest)
}

// Dedupe keeps the best-scoring candidate per (start, end, replacement),
// preserving first-seen order between distinct spans.
func Dedupe(cands []Candidate) []Candidate {
	type spanKey struct {
		start, end  int
		replacement string
	}
	index := make(map[spanKey]int, len(cands))
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		k := spanKey{c.Start, c.End, c.Replacement}
		if i, seen := index[k]; seen {
			if c.Score < out[i].Score {
				out[i] = c
			}
			continue
		}
		index[k] = len(out)
		out = append(out, c)
	}
	return out
}

// Resolve orders candidates by ascending score (ties: smaller start, longer
// span so a nested pattern never beats its containing match, then
// replacement and alias for a total order) and greedily accepts each
// candidate whose span is disjoint from all accepted ones. Accepted
// candidates return sorted by start; the rest return as rejected.
func Resolve(cands []Candidate) (accepted, rejected []Candidate) {
	ordered := slices.Clone(cands)
	slices.SortFunc(ordered, func(a, b Candidate) int {
		if c := cmp.Compare(a.Score, b.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		if c := cmp.Compare(b.End, a.End); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Replacement, b.Replacement); c != 0 {
			return c
		}
		return cmp.Compare(a.Alias, b.Alias)
	})

	for _, c := range ordered {
		conflict := false
		for _, acc := range accepted {
			if c.Overlaps(acc) {
				conflict = true
				break
			}
		}
		if conflict {
			rejected = append(rejected, c)
			continue
		}
		accepted = append(accepted, c)
	}

	slices.SortFunc(accepted, func(a, b Candidate) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return accepted, rejected
}

// Rewrite replaces each accepted span with its replacement. Accepted must be
// span-disjoint and sorted by start, as returned by Resolve.
func Rewrite(text string, accepted []Candidate) string {
	if len(accepted) == 0 {
		return text
	}
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, c := range accepted {
		b.WriteString(string(runes[last:c.Start]))
		b.WriteString(c.Replacement)
		last = c.End
	}
	b.WriteString(string(runes[last:]))
	return b.String()
}
