package japanese

import (
	"strings"

	"github.com/JonesHong/phonofix/internal/match"
)

// unknownGroup is the bucket of keys whose first letter belongs to no
// consonant group, plus empty keys.
const unknownGroup = -1

// rules bundles the kana and Romaji confusion tables consulted during
// matching and variant generation. A rules value is immutable after
// construction; engines that carry config overrides build their own
// merged copy.
type rules struct {
	romajiPairs  [][2]string
	longVowels   [][2]string
	gemination   [][2]string
	nasals       [][2]string
	particles    map[rune]rune
	voiced       map[rune]rune
	unvoiced     map[rune]rune
	semiVoiced   map[rune]rune
	unsemiVoiced map[rune]rune
	similar      map[rune][]rune
	homophones   map[string][]string
}

func defaultRules() *rules {
	return &rules{
		romajiPairs:  romajiVariantPairs,
		longVowels:   longVowelPairs,
		gemination:   geminationPairs,
		nasals:       nasalPairs,
		particles:    particleKana,
		voiced:       voicedKana,
		unvoiced:     unvoicedKana,
		semiVoiced:   semiVoicedKana,
		unsemiVoiced: unsemiVoicedKana,
		similar:      similarKana,
		homophones:   kanjiHomophones,
	}
}

// withOverrides returns a copy of r with extra Romaji rewrite pairs and
// homophone spellings appended. Nil or empty overrides return r unchanged.
func (r *rules) withOverrides(extraRomaji [][2]string, extraHomophones map[string][]string) *rules {
	if len(extraRomaji) == 0 && len(extraHomophones) == 0 {
		return r
	}
	merged := *r
	if len(extraRomaji) > 0 {
		pairs := make([][2]string, 0, len(r.romajiPairs)+len(extraRomaji))
		pairs = append(pairs, r.romajiPairs...)
		pairs = append(pairs, extraRomaji...)
		merged.romajiPairs = pairs
	}
	if len(extraHomophones) > 0 {
		merged.homophones = mergeHomophones(r.homophones, extraHomophones)
	}
	return &merged
}

func mergeHomophones(base, extra map[string][]string) map[string][]string {
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

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// kataToHira lowers katakana to hiragana. The prolonged sound mark and
// anything outside the katakana letter block pass through unchanged.
func kataToHira(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 0x30A1 && r <= 0x30F6 {
			r -= 0x60
		}
		b.WriteRune(r)
	}
	return b.String()
}

// hiraToRomaji renders a hiragana string as lowercase Hepburn Romaji.
// ASCII letters and digits pass through lowercased, the sokuon doubles the
// next consonant (t before ch), the prolonged sound mark repeats the
// previous vowel, and runes with no reading contribute nothing.
func hiraToRomaji(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) * 2)
	sokuon := false
	for i := 0; i < len(runes); {
		r := runes[i]
		if r < 0x80 {
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
			sokuon = false
			i++
			continue
		}
		switch r {
		case 'っ':
			sokuon = true
			i++
			continue
		case 'ー':
			if v := lastVowel(&b); v != 0 {
				b.WriteByte(v)
			}
			sokuon = false
			i++
			continue
		}
		if i+1 < len(runes) {
			if mora, ok := kanaRomaji[string(runes[i:i+2])]; ok {
				writeMora(&b, mora, &sokuon)
				i += 2
				continue
			}
		}
		if mora, ok := kanaRomaji[string(r)]; ok {
			writeMora(&b, mora, &sokuon)
			i++
			continue
		}
		sokuon = false
		i++
	}
	return b.String()
}

func writeMora(b *strings.Builder, mora string, sokuon *bool) {
	if *sokuon {
		*sokuon = false
		if strings.HasPrefix(mora, "ch") {
			b.WriteByte('t')
		} else if c := mora[0]; !isVowelByte(c) && c != 'n' {
			b.WriteByte(c)
		}
	}
	b.WriteString(mora)
}

func lastVowel(b *strings.Builder) byte {
	s := b.String()
	for i := len(s) - 1; i >= 0; i-- {
		if isVowelByte(s[i]) {
			return s[i]
		}
	}
	return 0
}

func isVowelByte(c byte) bool {
	return c == 'a' || c == 'i' || c == 'u' || c == 'e' || c == 'o'
}

// normalizeKey folds a Romaji key into its fuzzy-canonical form: variant
// romanisations to Hepburn, long vowels shortened, geminates single, nasal
// m before labials back to n. Each table applies in order as replace-alls,
// so toukyou, tokyo and tookyoo all normalise to tokyo.
func (r *rules) normalizeKey(key string) string {
	for _, p := range r.romajiPairs {
		key = strings.ReplaceAll(key, p[0], p[1])
	}
	for _, p := range r.longVowels {
		key = strings.ReplaceAll(key, p[0], p[1])
	}
	for _, p := range r.gemination {
		key = strings.ReplaceAll(key, p[0], p[1])
	}
	for _, p := range r.nasals {
		key = strings.ReplaceAll(key, p[0], p[1])
	}
	return key
}

// tolerance returns the edit budget for keys up to length runes: tight for
// short keys where one edit changes the word, looser for long ones.
func tolerance(length int) int {
	switch {
	case length <= 3:
		return 0
	case length <= 6:
		return 1
	default:
		return 2
	}
}

// onsetGroup buckets a Romaji key by the consonant class of its first
// letter. Keys confusable under the fuzzy rules (voicing, r/l, h/f) land in
// the same group, so bucket lookups never separate them.
func onsetGroup(key string) int {
	if key == "" {
		return unknownGroup
	}
	switch key[0] {
	case 'a', 'i', 'u', 'e', 'o':
		return 0
	case 'p', 'b':
		return 1
	case 't', 'd':
		return 2
	case 'k', 'g':
		return 3
	case 's', 'z':
		return 4
	case 'h', 'f':
		return 5
	case 'm', 'n':
		return 6
	case 'r', 'l':
		return 7
	case 'w', 'y':
		return 8
	case 'j', 'c':
		return 9
	default:
		return unknownGroup
	}
}

// similarity compares a window key against an item key and reports the
// error ratio, the acceptance bound on the same scale, and whether the
// pair is within tolerance. Both the raw keys and their normalised forms
// are compared and the smaller distance wins, so トウキョウ and トーキョー
// count as identical. Keys are ASCII by construction, so byte length is
// rune length.
func (r *rules) similarity(windowKey, windowNorm, itemKey, itemNorm string) (errorRatio, bound float64, ok bool) {
	maxLen := max(len(windowKey), len(itemKey))
	tol := tolerance(maxLen)
	if maxLen == 0 {
		return 0, 0, true
	}
	dist := match.Distance(windowKey, itemKey)
	if dist > 0 {
		if nd := match.Distance(windowNorm, itemNorm); nd < dist {
			dist = nd
		}
	}
	bound = float64(tol) / float64(maxLen)
	return float64(dist) / float64(maxLen), bound, dist <= tol
}
