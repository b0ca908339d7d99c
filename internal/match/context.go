package match

import (
	"github.com/JonesHong/phonofix/internal/surface"
	"github.com/JonesHong/phonofix/internal/textutil"
)

// ProximityWindow is the rune radius around a candidate span inside which a
// keyword occurrence earns a context bonus.
const ProximityWindow = 10

// Span is a rune range of a keyword occurrence in the context string.
type Span struct {
	Start int
	End   int
}

// KeywordDistance returns the smallest rune gap between the candidate span
// [start, end) and any keyword occurrence lying fully inside the proximity
// window around it. An occurrence overlapping the span has distance 0. The
// second return is false when no occurrence qualifies.
func KeywordDistance(start, end int, occs []Span) (int, bool) {
	best := -1
	for _, o := range occs {
		if o.Start < start-ProximityWindow || o.End > end+ProximityWindow {
			continue
		}
		var d int
		switch {
		case o.End <= start:
			d = start - o.End
		case o.Start >= end:
			d = o.Start - end
		}
		if best < 0 || d < best {
			best = d
		}
	}
	return best, best >= 0
}

// ContextBonus maps a keyword distance to a score reduction: 0.8 at distance
// 0 decaying linearly to 0.32 at the window edge. A negative distance means
// no qualifying keyword and yields 0.
func ContextBonus(distance int) float64 {
	if distance < 0 {
		return 0
	}
	d := min(distance, ProximityWindow)
	return 0.8 * (1 - float64(d)/float64(ProximityWindow)*0.6)
}

// ContextState is the per-call keyword and exclusion state: which proximity
// words occur anywhere in the full context, and where, in full-context rune
// coordinates.
type ContextState struct {
	present map[string]bool
	spans   map[string][]Span
	offset  int
}

// NewContextState locates every proximity word in fullContext and records
// the rune offset of the corrected segment within it. contextOffset is a
// byte offset and clamps to the context bounds.
func NewContextState(prox *surface.Proximity, fullContext string, contextOffset int) ContextState {
	s := ContextState{
		present: make(map[string]bool),
		spans:   make(map[string][]Span),
	}
	if prox.Len() == 0 {
		return s
	}
	runeIdx := textutil.ByteToRuneIndex(fullContext)
	words := prox.Words()
	for _, occ := range prox.Occurrences(fullContext) {
		w := words[occ.Pattern]
		s.present[w] = true
		s.spans[w] = append(s.spans[w], Span{
			Start: runeIdx[occ.Start],
			End:   runeIdx[occ.End],
		})
	}
	off := min(max(contextOffset, 0), len(fullContext))
	s.offset = runeIdx[off]
	return s
}

// Gate applies the exclusion and keyword rules to a candidate span in
// segment rune coordinates. It returns whether the candidate survives, the
// context score bonus, and whether a nearby keyword earned it. Words must
// carry the same fold the proximity index applies.
func (s ContextState) Gate(excludes, keywords []string, startRune, endRune int) (ok bool, bonus float64, hasContext bool) {
	for _, w := range excludes {
		if s.present[w] {
			return false, 0, false
		}
	}
	if len(keywords) == 0 {
		return true, 0, false
	}
	any := false
	for _, w := range keywords {
		if s.present[w] {
			any = true
			break
		}
	}
	if !any {
		return false, 0, false
	}

	start := startRune + s.offset
	end := endRune + s.offset
	best := -1
	for _, w := range keywords {
		if d, near := KeywordDistance(start, end, s.spans[w]); near && (best < 0 || d < best) {
			best = d
		}
	}
	if best < 0 {
		return true, 0, false
	}
	return true, ContextBonus(best), true
}
