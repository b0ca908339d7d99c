// Package surface provides the Aho-Corasick indices used by the correctors:
// an all-occurrence index over search-target surfaces, a protected-interval
// masker, and a keyword proximity scanner for context scoring.
//
// All offsets are byte offsets into the searched string. Indices are
// immutable after construction and safe for concurrent use.
package surface

import (
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Occurrence is one pattern match. Pattern indexes the deduplicated pattern
// list returned by Patterns.
type Occurrence struct {
	Pattern int
	Start   int
	End     int
}

// Index finds every occurrence of every pattern, including overlapping and
// nested ones. Matching is case-sensitive.
type Index struct {
	ac       ahocorasick.AhoCorasick
	patterns []string
}

// NewIndex builds an index over patterns. Blank and duplicate patterns are
// dropped; the surviving list is available through Patterns.
func NewIndex(patterns []string) *Index {
	deduped := dedupe(patterns)
	ix := &Index{patterns: deduped}
	if len(deduped) == 0 {
		return ix
	}
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		MatchKind: ahocorasick.StandardMatch,
		DFA:       true,
	})
	ix.ac = builder.Build(deduped)
	return ix
}

// Patterns returns the deduplicated pattern list. Occurrence.Pattern indexes
// this slice.
func (ix *Index) Patterns() []string { return ix.patterns }

// Len returns the number of indexed patterns.
func (ix *Index) Len() int { return len(ix.patterns) }

// Occurrences returns every match of every pattern in text, overlapping
// matches included, ordered by end position.
func (ix *Index) Occurrences(text string) []Occurrence {
	if len(ix.patterns) == 0 || text == "" {
		return nil
	}
	var out []Occurrence
	iter := ix.ac.IterOverlapping(text)
	for m := iter.Next(); m != nil; m = iter.Next() {
		out = append(out, Occurrence{Pattern: m.Pattern(), Start: m.Start(), End: m.End()})
	}
	return out
}

// Contains reports whether any pattern occurs in text.
func (ix *Index) Contains(text string) bool {
	if len(ix.patterns) == 0 || text == "" {
		return false
	}
	iter := ix.ac.IterOverlapping(text)
	return iter.Next() != nil
}

func dedupe(patterns []string) []string {
	seen := make(map[string]struct{}, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
