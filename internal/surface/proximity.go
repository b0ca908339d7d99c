package surface

import (
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Proximity scans a context string for keyword and exclusion words. Matching
// is ASCII case-insensitive; byte offsets stay aligned with the original
// string because only A-Z fold.
type Proximity struct {
	ac    ahocorasick.AhoCorasick
	words []string
}

// NewProximity builds a scanner over words. Blank and duplicate words (after
// folding) are dropped.
func NewProximity(words []string) *Proximity {
	folded := make([]string, 0, len(words))
	for _, w := range words {
		folded = append(folded, asciiLower(w))
	}
	deduped := dedupe(folded)
	p := &Proximity{words: deduped}
	if len(deduped) == 0 {
		return p
	}
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		MatchKind: ahocorasick.StandardMatch,
		DFA:       true,
	})
	p.ac = builder.Build(deduped)
	return p
}

// Len returns the number of scanned words.
func (p *Proximity) Len() int { return len(p.words) }

// Words returns the folded, deduplicated word list. Occurrence.Pattern
// indexes this slice.
func (p *Proximity) Words() []string { return p.words }

// Occurrences returns every occurrence of every word in context, overlapping
// matches included.
func (p *Proximity) Occurrences(context string) []Occurrence {
	if len(p.words) == 0 || context == "" {
		return nil
	}
	var out []Occurrence
	iter := p.ac.IterOverlapping(asciiLower(context))
	for m := iter.Next(); m != nil; m = iter.Next() {
		out = append(out, Occurrence{Pattern: m.Pattern(), Start: m.Start(), End: m.End()})
	}
	return out
}

// Contains reports whether any word occurs in context.
func (p *Proximity) Contains(context string) bool {
	if len(p.words) == 0 || context == "" {
		return false
	}
	iter := p.ac.IterOverlapping(asciiLower(context))
	return iter.Next() != nil
}

// Fold normalises a word the way Proximity does before matching. Callers
// that key their own tables by proximity words must fold with it.
func Fold(s string) string { return asciiLower(s) }

// asciiLower folds A-Z to a-z without touching multi-byte runes, so byte
// offsets into the folded string match the original.
func asciiLower(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
