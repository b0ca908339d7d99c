package chinese

import (
	"strings"

	"github.com/JonesHong/phonofix/internal/match"
	"github.com/JonesHong/phonofix/internal/textutil"
)

// rules bundles the Pinyin confusion tables consulted during matching and
// variant generation. A rules value is immutable after construction; engines
// that carry config overrides build their own merged copy.
type rules struct {
	initialGroups map[string]string
	groupInitials map[string][]string
	finalPairs    [][2]string
	special       map[string][]string
	specialBidi   map[string][]string
	sticky        map[string][]string
	regional      map[string][]string
}

func defaultRules() *rules {
	return &rules{
		initialGroups: fuzzyInitialGroups,
		groupInitials: groupInitials,
		finalPairs:    fuzzyFinalPairs,
		special:       specialSyllables,
		specialBidi:   specialSyllablesBidi,
		sticky:        stickyPhrases,
		regional:      regionalAliases,
	}
}

// withOverrides returns a copy of r with the extra entries appended. The
// bidirectional special map is rebuilt from the merged one-way map. Nil or
// empty override maps return r unchanged.
func (r *rules) withOverrides(extraSpecial, extraSticky, extraRegional map[string][]string) *rules {
	if len(extraSpecial) == 0 && len(extraSticky) == 0 && len(extraRegional) == 0 {
		return r
	}
	merged := *r
	if len(extraSpecial) > 0 {
		merged.special = mergeRuleMap(r.special, extraSpecial)
		merged.specialBidi = bidiSyllables(merged.special)
	}
	if len(extraSticky) > 0 {
		merged.sticky = mergeRuleMap(r.sticky, extraSticky)
	}
	if len(extraRegional) > 0 {
		merged.regional = mergeRuleMap(r.regional, extraRegional)
	}
	return &merged
}

func mergeRuleMap(base, extra map[string][]string) map[string][]string {
	out := make(map[string][]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, vs := range extra {
		existing := out[k]
		mergedVals := make([]string, len(existing), len(existing)+len(vs))
		copy(mergedVals, existing)
		for _, v := range vs {
			if !containsString(mergedVals, v) {
				mergedVals = append(mergedVals, v)
			}
		}
		out[k] = mergedVals
	}
	return out
}

// splitSyllable splits a Pinyin syllable into initial and final. Syllables
// without a recognised initial (vowel onsets like "ai") return an empty
// initial.
func splitSyllable(p string) (initial, final string) {
	for _, ini := range initialOrder {
		if strings.HasPrefix(p, ini) {
			return ini, p[len(ini):]
		}
	}
	return "", p
}

// firstInitial returns the initial of the first syllable, or "" when the
// list is empty.
func firstInitial(syls []string) string {
	if len(syls) == 0 {
		return ""
	}
	initial, _ := splitSyllable(syls[0])
	return initial
}

// initialsMatch reports whether two initials are equal or belong to the
// same confusion group.
func (r *rules) initialsMatch(a, b string) bool {
	if a == b {
		return true
	}
	ga, ok := r.initialGroups[a]
	if !ok {
		return false
	}
	gb, ok := r.initialGroups[b]
	return ok && ga == gb
}

// finalsFuzzyEqual reports whether two whole Pinyin keys differ only by a
// confusable final ending under matching initials: same prefix, endings
// drawn from one finalPairs entry.
func (r *rules) finalsFuzzyEqual(a, b string) bool {
	ia, fa := splitSyllable(a)
	ib, fb := splitSyllable(b)
	if !r.initialsMatch(ia, ib) {
		return false
	}
	if fa == fb {
		return true
	}
	for _, pair := range r.finalPairs {
		f1, f2 := pair[0], pair[1]
		crossed := (strings.HasSuffix(fa, f1) && strings.HasSuffix(fb, f2)) ||
			(strings.HasSuffix(fa, f2) && strings.HasSuffix(fb, f1))
		if !crossed {
			continue
		}
		if trimFinal(fa, f1, f2) == trimFinal(fb, f1, f2) {
			return true
		}
	}
	return false
}

func trimFinal(final, f1, f2 string) string {
	if strings.HasSuffix(final, f1) {
		return final[:len(final)-len(f1)]
	}
	return final[:len(final)-len(f2)]
}

// alignedSpecialEqual reports whether every syllable pair is equal or linked
// by a one-way special edge from the observed syllable to the target one.
// Callers guarantee equal lengths.
func (r *rules) alignedSpecialEqual(segSyls, tgtSyls []string) bool {
	for i := range segSyls {
		s, t := segSyls[i], tgtSyls[i]
		if s == t {
			continue
		}
		if !containsString(r.special[s], t) {
			return false
		}
	}
	return true
}

// similarity returns the phonetic distance in [0, 1] between an observed
// segment and a target term, plus whether a confusion rule (rather than
// plain edit distance) produced the score. The ladder runs from cheapest to
// most permissive: key equality, syllable-aligned special edges, whole-key
// special edges, finals drift, and finally normalised Levenshtein.
func (r *rules) similarity(segKey, tgtKey string, segSyls, tgtSyls []string) (float64, bool) {
	if segKey == tgtKey {
		return 0, true
	}
	if len(segSyls) == len(tgtSyls) && len(segSyls) <= 4 &&
		r.alignedSpecialEqual(segSyls, tgtSyls) {
		return 0, true
	}
	if len(segKey) >= 2 && len(tgtKey) < 10 && containsString(r.special[segKey], tgtKey) {
		return 0, true
	}
	if r.finalsFuzzyEqual(segKey, tgtKey) {
		return 0.1, true
	}
	return match.ErrorRatio(segKey, tgtKey), false
}

// dynamicThreshold returns the acceptance bound for a target term: mixed
// Han-Latin terms tolerate the most drift, short pure-Han terms the least.
func dynamicThreshold(runeLen int, mixed bool) float64 {
	switch {
	case mixed:
		return 0.45
	case runeLen <= 2:
		return 0.20
	case runeLen == 3:
		return 0.30
	default:
		return 0.40
	}
}

// initialsGatePass is the cheap pre-filter applied before the similarity
// ladder. A window carrying Latin letters never matches a pure-Han target,
// short targets require every syllable pair to agree on initials, and
// longer targets only pin the first initial. Mixed targets skip the gate
// so the looser threshold can judge them.
func (r *rules) initialsGatePass(segment string, segSyls, tgtSyls []string, tgtRuneLen int, mixed bool) bool {
	if mixed {
		return true
	}
	if textutil.ContainsASCIILetter(segment) {
		return false
	}
	if tgtRuneLen <= 3 {
		if len(segSyls) != len(tgtSyls) {
			return false
		}
		for i := range segSyls {
			si, _ := splitSyllable(segSyls[i])
			ti, _ := splitSyllable(tgtSyls[i])
			if !r.initialsMatch(si, ti) {
				return false
			}
		}
		return true
	}
	if len(segSyls) == 0 || len(tgtSyls) == 0 {
		return false
	}
	return r.initialsMatch(firstInitial(segSyls), firstInitial(tgtSyls))
}

// fuzzyPinyinVariants expands one syllable into the confusable spellings a
// speaker might produce: special-map edges in both directions, initial
// substitutions inside the same group, then final drift applied to every
// spelling collected so far. The base spelling is always first and order is
// deterministic.
func (r *rules) fuzzyPinyinVariants(p string) []string {
	variants := []string{p}
	seen := map[string]struct{}{p: {}}
	add := func(v string) {
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}

	for _, v := range r.specialBidi[p] {
		add(v)
	}

	initial, final := splitSyllable(p)
	if group, ok := r.initialGroups[initial]; ok {
		for _, alt := range r.groupInitials[group] {
			if alt != initial {
				add(alt + final)
			}
		}
	}

	// Final drift expands the set collected so far, not its own output.
	base := variants[:len(variants):len(variants)]
	for _, v := range base {
		for _, pair := range r.finalPairs {
			f1, f2 := pair[0], pair[1]
			if strings.HasSuffix(v, f1) {
				add(v[:len(v)-len(f1)] + f2)
			} else if strings.HasSuffix(v, f2) {
				add(v[:len(v)-len(f2)] + f1)
			}
		}
	}
	return variants
}
