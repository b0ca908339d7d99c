package surface

import (
	"sort"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Interval is a half-open [Start, End) byte range.
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether the interval intersects [start, end).
func (iv Interval) Overlaps(start, end int) bool {
	return start < iv.End && end > iv.Start
}

// Protector computes the protected intervals of a text: the merged spans of
// every occurrence of every protected term. Rewrites must not intersect a
// protected interval.
type Protector struct {
	ac    ahocorasick.AhoCorasick
	terms []string
}

// NewProtector builds a protector over terms. Blank and duplicate terms are
// dropped.
func NewProtector(terms []string) *Protector {
	deduped := dedupe(terms)
	p := &Protector{terms: deduped}
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

// Len returns the number of protected terms.
func (p *Protector) Len() int { return len(p.terms) }

// Intervals returns the protected byte ranges of text, sorted by start, with
// overlapping and adjacent occurrences merged into their union.
func (p *Protector) Intervals(text string) []Interval {
	if len(p.terms) == 0 || text == "" {
		return nil
	}
	var raw []Interval
	iter := p.ac.IterOverlapping(text)
	for m := iter.Next(); m != nil; m = iter.Next() {
		raw = append(raw, Interval{Start: m.Start(), End: m.End()})
	}
	return MergeIntervals(raw)
}

// MergeIntervals sorts intervals by start and merges every overlapping or
// touching pair. The input slice is reused.
func MergeIntervals(intervals []Interval) []Interval {
	if len(intervals) <= 1 {
		return intervals
	}
	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].Start != intervals[j].Start {
			return intervals[i].Start < intervals[j].Start
		}
		return intervals[i].End < intervals[j].End
	})
	merged := intervals[:1]
	for _, iv := range intervals[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// AnyOverlap reports whether [start, end) intersects any interval. Intervals
// must be sorted by start, as returned by Intervals.
func AnyOverlap(intervals []Interval, start, end int) bool {
	// Binary search for the first interval ending after start.
	lo, hi := 0, len(intervals)
	for lo < hi {
		mid := (lo + hi) / 2
		if intervals[mid].End <= start {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(intervals) && intervals[lo].Overlaps(start, end)
}
