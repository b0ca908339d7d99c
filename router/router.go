// Package router segments mixed-script text and dispatches each segment to
// the corrector that can match it. Detection is script-based: a corrector
// only ever sees text in the phonetic domain it indexes.
package router

import (
	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/textutil"
)

// Segment is one maximal single-script run of the routed text. Start and
// End are byte offsets, so Text always equals the input slice [Start:End).
type Segment struct {
	Text  string
	Lang  phonofix.Lang
	Start int
	End   int
}

// Route splits text into single-script segments: ASCII runs route to the
// English corrector, kana runs to the Japanese one, everything else to the
// Chinese one. Han characters always route to Chinese, including those in
// Japanese sentences; kanji terms reach the Japanese corrector through its
// dictionary aliases instead.
//
// Pure-numeric ASCII runs merge into adjacent Chinese segments so figures
// like "11位" stay with their host sentence, while alphanumeric codes like
// "1kg" keep routing to English where the digit confusions live.
func Route(text string) []Segment {
	if text == "" {
		return nil
	}
	var segs []Segment
	start := 0
	current := phonofix.Lang("")
	for i, r := range text {
		lang := classify(r)
		if i == 0 {
			current = lang
			continue
		}
		if lang != current {
			segs = append(segs, Segment{Text: text[start:i], Lang: current, Start: start, End: i})
			start, current = i, lang
		}
	}
	segs = append(segs, Segment{Text: text[start:], Lang: current, Start: start, End: len(text)})
	return mergeNumeric(segs)
}

func classify(r rune) phonofix.Lang {
	switch {
	case textutil.IsASCII(r):
		return phonofix.LangEnglish
	case textutil.IsKana(r):
		return phonofix.LangJapanese
	default:
		return phonofix.LangChinese
	}
}

// mergeNumeric folds pure-numeric English segments into neighbouring
// Chinese segments: sandwiched numbers join both sides into one segment,
// edge numbers join the side that is Chinese, isolated numbers stay
// English. Segments are contiguous, so merged offsets stay exact.
func mergeNumeric(segs []Segment) []Segment {
	merged := make([]Segment, 0, len(segs))
	for i := 0; i < len(segs); {
		s := segs[i]
		if s.Lang != phonofix.LangEnglish || !textutil.IsNumeric(s.Text) {
			merged = append(merged, s)
			i++
			continue
		}

		prevZh := len(merged) > 0 && merged[len(merged)-1].Lang == phonofix.LangChinese
		nextZh := i+1 < len(segs) && segs[i+1].Lang == phonofix.LangChinese
		switch {
		case prevZh && nextZh:
			prev := merged[len(merged)-1]
			next := segs[i+1]
			merged[len(merged)-1] = Segment{
				Text:  prev.Text + s.Text + next.Text,
				Lang:  phonofix.LangChinese,
				Start: prev.Start,
				End:   next.End,
			}
			i += 2
		case prevZh:
			prev := merged[len(merged)-1]
			merged[len(merged)-1] = Segment{
				Text:  prev.Text + s.Text,
				Lang:  phonofix.LangChinese,
				Start: prev.Start,
				End:   s.End,
			}
			i++
		case nextZh:
			next := segs[i+1]
			merged = append(merged, Segment{
				Text:  s.Text + next.Text,
				Lang:  phonofix.LangChinese,
				Start: s.Start,
				End:   next.End,
			})
			i += 2
		default:
			merged = append(merged, s)
			i++
		}
	}
	return merged
}
