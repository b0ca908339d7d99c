package english

import (
	"strings"
	"unicode/utf8"

	"github.com/JonesHong/phonofix/internal/match"
)

// Length-dependent acceptance bounds for the similarity ladder.
const (
	// shortKeyTolerance applies to keys of at most eight phoneme runes.
	shortKeyTolerance = 0.35

	// longKeyTolerance applies to longer keys, where syllable splits and
	// vowel shifts accumulate more absolute edits.
	longKeyTolerance = 0.45

	// strictFirstPhonemeTolerance caps the tolerance when the first
	// phonemes are neither equal nor in one confusion group. English
	// listeners rarely mishear the onset.
	strictFirstPhonemeTolerance = 0.15

	// lengthGateRatio rejects key pairs whose rune lengths differ by more
	// than this fraction of the shorter one before any distance runs.
	lengthGateRatio = 0.8
)

// unknownGroup is the bucket of keys whose first phoneme belongs to no
// confusion group. Windows with unknown onsets scan every bucket.
const unknownGroup = -1

// minSkeletonLen is the shortest consonant skeleton worth comparing; below
// it the skeleton carries too little signal and its ratio is ignored.
const minSkeletonLen = 4

// rules bundles the generator's confusion tables. Immutable after
// construction; engines with config additions build a merged copy.
type rules struct {
	pairs      [][2]string
	reductions [][2]string
	splits     map[string][]string
}

func defaultRules() *rules {
	pairs := make([][2]string, 0, len(voicingConfusions)+len(vowelLengthConfusions)+len(similarPhoneConfusions))
	pairs = append(pairs, voicingConfusions...)
	pairs = append(pairs, vowelLengthConfusions...)
	pairs = append(pairs, similarPhoneConfusions...)
	return &rules{pairs: pairs, reductions: reductionRules, splits: asrSplits}
}

// withOverrides returns a copy of r with extra confusion pairs and split
// entries appended. Nil or empty additions return r unchanged.
func (r *rules) withOverrides(extraPairs [][2]string, extraSplits map[string][]string) *rules {
	if len(extraPairs) == 0 && len(extraSplits) == 0 {
		return r
	}
	merged := *r
	if len(extraPairs) > 0 {
		merged.pairs = append(append([][2]string{}, r.pairs...), extraPairs...)
	}
	if len(extraSplits) > 0 {
		splits := make(map[string][]string, len(r.splits)+len(extraSplits))
		for k, v := range r.splits {
			splits[k] = v
		}
		for k, vs := range extraSplits {
			existing := splits[k]
			mergedVals := make([]string, len(existing), len(existing)+len(vs))
			copy(mergedVals, existing)
			for _, v := range vs {
				if !containsString(mergedVals, v) {
					mergedVals = append(mergedVals, v)
				}
			}
			splits[k] = mergedVals
		}
		merged.splits = splits
	}
	return &merged
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// normalizeIPA prepares a key for distance comparison: whitespace, stress,
// and length marks removed, r-coloured vowels folded to schwa, and the
// script ɡ folded to ASCII g.
func normalizeIPA(ipa string) string {
	var b strings.Builder
	b.Grow(len(ipa))
	for _, r := range ipa {
		switch r {
		case ' ', '\t', 'ˈ', 'ˌ', 'ː':
			continue
		case 'ɚ', 'ɝ':
			b.WriteRune('ə')
		case 'ɡ':
			b.WriteRune('g')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// groupSignature maps each phoneme rune to its confusion-group letter so
// within-group substitutions cost nothing under edit distance. Ungrouped
// runes pass through unchanged.
func groupSignature(ipa string) string {
	var b strings.Builder
	b.Grow(len(ipa))
	for _, r := range ipa {
		if idx, ok := phonemeGroupOf[r]; ok {
			b.WriteRune(rune('A' + idx))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// skeletonVowels are dropped when reducing a key to its consonant skeleton.
var skeletonVowels = map[rune]bool{
	'a': true, 'e': true, 'i': true, 'o': true, 'u': true,
	'ɪ': true, 'ɛ': true, 'æ': true, 'ɑ': true, 'ɔ': true, 'ʌ': true,
	'ə': true, 'ɐ': true, 'ʊ': true, 'ɚ': true, 'ɝ': true,
}

// consonantSkeleton strips vowels and the unstable glides j and w, leaving
// the consonant frame that survives most mishearings.
func consonantSkeleton(ipa string) string {
	var b strings.Builder
	b.Grow(len(ipa))
	for _, r := range ipa {
		if skeletonVowels[r] || r == 'j' || r == 'w' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// skeletonRatio returns the normalised distance between consonant
// skeletons, or 1 when the longer skeleton is too short to be meaningful.
func skeletonRatio(a, b string) float64 {
	sa, sb := consonantSkeleton(a), consonantSkeleton(b)
	if max(utf8.RuneCountInString(sa), utf8.RuneCountInString(sb)) < minSkeletonLen {
		return 1
	}
	return match.ErrorRatio(sa, sb)
}

// firstPhonemeGroup returns the confusion-group index of the first phoneme
// rune of ipa, or unknownGroup when the key is empty or its onset belongs
// to no group.
func firstPhonemeGroup(ipa string) int {
	for _, r := range ipa {
		if r == ' ' || r == 'ˈ' || r == 'ˌ' {
			continue
		}
		if idx, ok := phonemeGroupOf[r]; ok {
			return idx
		}
		return unknownGroup
	}
	return unknownGroup
}

// firstPhonemesSimilar reports whether two normalised keys begin with the
// same phoneme or phonemes of one confusion group. Empty keys pass.
func firstPhonemesSimilar(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	ra, _ := utf8.DecodeRuneInString(a)
	rb, _ := utf8.DecodeRuneInString(b)
	if ra == rb {
		return true
	}
	ga, okA := phonemeGroupOf[ra]
	gb, okB := phonemeGroupOf[rb]
	return okA && okB && ga == gb
}

// tolerance returns the acceptance bound for a key pair of the given longer
// rune length.
func tolerance(length int) float64 {
	if length <= 8 {
		return shortKeyTolerance
	}
	return longKeyTolerance
}

// similarityScore returns the phonetic distance in [0, 1] between two IPA
// keys, the tolerance the pair was held to, and whether the distance clears
// it. The distance is the best of three views: raw edit distance, distance
// over confusion group signatures, and distance over consonant skeletons,
// so a pair passes when any single view explains the mishearing. A
// first-phoneme mismatch outside the confusion groups tightens the
// tolerance instead of rejecting outright.
func similarityScore(key1, key2 string) (errorRatio, bound float64, ok bool) {
	raw1 := normalizeIPA(key1)
	raw2 := normalizeIPA(key2)

	len1 := utf8.RuneCountInString(raw1)
	len2 := utf8.RuneCountInString(raw2)
	maxLen, minLen := max(len1, len2), min(len1, len2)
	tol := tolerance(maxLen)
	if maxLen == 0 {
		return 0, tol, true
	}
	if minLen > 0 && float64(maxLen-minLen)/float64(minLen) > lengthGateRatio {
		return 1, tol, false
	}

	ratio := match.ErrorRatio(raw1, raw2)
	if g := match.ErrorRatio(groupSignature(raw1), groupSignature(raw2)); g < ratio {
		ratio = g
	}
	if s := skeletonRatio(raw1, raw2); s < ratio {
		ratio = s
	}

	if !firstPhonemesSimilar(raw1, raw2) {
		tol = min(tol, strictFirstPhonemeTolerance)
	}
	return ratio, tol, ratio <= tol
}
