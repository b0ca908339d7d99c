package english

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/match"
)

// hardcodedVariantScore ranks curated split-table variants above most
// generated respellings without outranking exact homophones.
const hardcodedVariantScore = 0.85

// phoneticVariantCap bounds the single-edit IPA variant keys expanded per
// term before back-projection.
const phoneticVariantCap = 60

// spellingCap bounds the respellings produced for one IPA key.
const spellingCap = 30

// splitComboCap bounds the split-table products over camel-case parts.
const splitComboCap = 40

// distanceGateFraction scales the base key length into the maximum IPA edit
// distance a generated variant may sit from its canonical.
const distanceGateFraction = 0.35

// Generator produces phonetically confusable surface variants for English
// terms: respellings of single-phoneme IPA edits, low-risk surface rewrites
// (case, separators, camel-case and acronym spacing), split-table
// mishearings, and optionally aggressive spelling confusions. Safe for
// concurrent use.
type Generator struct {
	backend        *Backend
	rules          *rules
	representative bool
}

var _ phonofix.FuzzyGenerator = (*Generator)(nil)

// NewGenerator returns a generator over the default confusion tables.
// A nil backend selects the shared one.
func NewGenerator(backend *Backend) *Generator {
	if backend == nil {
		backend = Shared()
	}
	return &Generator{backend: backend, rules: defaultRules()}
}

// seed is one candidate surface before phonetic keying. Fixed seeds come
// from the curated split table: they score hardcodedVariantScore and skip
// the distance gate.
type seed struct {
	text   string
	source phonofix.VariantSource
	fixed  bool
}

// GenerateVariants expands term into at most maxVariants confusable surface
// forms, deduplicated by IPA key (highest score wins) and never containing
// term itself. Generated respellings are dropped when their key drifts too
// far from the canonical's; curated split-table entries are kept as given.
func (g *Generator) GenerateVariants(term string, maxVariants int) ([]phonofix.Variant, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("%w: variant generation needs a non-blank term", phonofix.ErrInvalidInput)
	}
	if maxVariants <= 0 {
		maxVariants = phonofix.DefaultMaxVariants
	}

	ctx := context.Background()
	baseKey, err := g.backend.ToPhonetic(ctx, term)
	if err != nil {
		return nil, err
	}

	var seeds []seed
	appendSeeds := func(texts []string, source phonofix.VariantSource, fixed bool) {
		for _, t := range texts {
			seeds = append(seeds, seed{text: t, source: source, fixed: fixed})
		}
	}
	// Curated split-table entries seed first: the same surface reached
	// again through a generated family keeps its fixed score instead of
	// being re-scored or gated by key distance.
	appendSeeds(g.splitVariants(term), phonofix.SourceHardcoded, true)
	appendSeeds(safeSurfaceVariants(term), phonofix.SourceHardcoded, false)
	if g.representative {
		appendSeeds(representativeVariants(term), phonofix.SourceHardcoded, false)
	}

	// Phoneme-level edits describe IPA, not the builtin pseudo-phonetic
	// domain; in a degraded backend the surface families above still apply.
	if !g.backend.Degraded() {
		appendSeeds(ipaSpellings(baseKey, spellingCap)[1:], phonofix.SourcePhoneticFuzzy, false)
		for _, variantKey := range g.phoneticVariants(baseKey) {
			if spellings := ipaSpellings(variantKey, 1); len(spellings) > 0 {
				appendSeeds(spellings[:1], phonofix.SourcePhoneticFuzzy, false)
			}
		}
	}

	baseNorm := normalizeIPA(baseKey)
	maxDistance := max(2, int(distanceGateFraction*float64(utf8.RuneCountInString(baseNorm))))

	seen := make(map[string]struct{}, len(seeds))
	variants := make([]phonofix.Variant, 0, len(seeds))
	for _, s := range seeds {
		if s.text == "" || strings.EqualFold(s.text, term) {
			continue
		}
		if _, dup := seen[s.text]; dup {
			continue
		}
		seen[s.text] = struct{}{}

		key, err := g.backend.ToPhonetic(ctx, s.text)
		if err != nil {
			return nil, err
		}
		if key == "" {
			continue
		}
		score := hardcodedVariantScore
		if !s.fixed {
			if matchr.Levenshtein(normalizeIPA(key), baseNorm) > maxDistance {
				continue
			}
			score = 1 - match.ErrorRatio(key, baseKey)
		}
		variants = append(variants, phonofix.Variant{
			Text:   s.text,
			Key:    key,
			Score:  score,
			Source: s.source,
		})
	}

	phonofix.SortVariants(variants)
	variants = phonofix.DedupeVariantsByKey(variants)
	if len(variants) > maxVariants {
		variants = variants[:maxVariants]
	}
	return variants, nil
}

// phoneticVariants returns single-edit confusions of an IPA key: every
// confusion pair substituted in both directions and every reduction applied
// one-way, one occurrence changed per variant.
func (g *Generator) phoneticVariants(key string) []string {
	var out []string
	seen := map[string]struct{}{key: {}}
	add := func(v string) bool {
		if _, dup := seen[v]; dup {
			return len(out) < phoneticVariantCap
		}
		seen[v] = struct{}{}
		out = append(out, v)
		return len(out) < phoneticVariantCap
	}
	for _, pair := range g.rules.pairs {
		for _, v := range substituteEach(key, pair[0], pair[1]) {
			if !add(v) {
				return out
			}
		}
		for _, v := range substituteEach(key, pair[1], pair[0]) {
			if !add(v) {
				return out
			}
		}
	}
	for _, rule := range g.rules.reductions {
		for _, v := range substituteEach(key, rule[0], rule[1]) {
			if !add(v) {
				return out
			}
		}
	}
	return out
}

// substituteEach returns one copy of s per occurrence of from, with just
// that occurrence replaced by to.
func substituteEach(s, from, to string) []string {
	if from == "" {
		return nil
	}
	var out []string
	for i := 0; ; {
		idx := strings.Index(s[i:], from)
		if idx < 0 {
			return out
		}
		pos := i + idx
		out = append(out, s[:pos]+to+s[pos+len(from):])
		i = pos + len(from)
	}
}

// segmentIPA splits a key into phonemes by greedy longest match against the
// grapheme table. Unknown runes become single-rune segments.
func segmentIPA(key string) []string {
	var phonemes []string
	for i := 0; i < len(key); {
		matched := false
		for _, p := range sortedPhonemes {
			if strings.HasPrefix(key[i:], p) {
				phonemes = append(phonemes, p)
				i += len(p)
				matched = true
				break
			}
		}
		if !matched {
			r, size := utf8.DecodeRuneInString(key[i:])
			phonemes = append(phonemes, string(r))
			i += size
		}
	}
	return phonemes
}

// ipaSpellings back-projects an IPA key to plausible spellings: the most
// common grapheme per phoneme first, then alternates swapped in one
// special-phoneme position at a time. Spellings dedupe case-insensitively
// and the primary is always index 0.
func ipaSpellings(key string, maxResults int) []string {
	if maxResults <= 0 {
		return nil
	}
	phonemes := segmentIPA(stripKeySpacing(key))
	primary := make([]string, len(phonemes))
	for i, p := range phonemes {
		if graphemes, ok := ipaToGrapheme[p]; ok {
			primary[i] = graphemes[0]
			continue
		}
		primary[i] = p
	}

	spellings := []string{strings.Join(primary, "")}
	for i, p := range phonemes {
		if len(spellings) >= spellingCap {
			break
		}
		if !specialPhonemes[p] {
			continue
		}
		graphemes := ipaToGrapheme[p]
		for _, alt := range graphemes[1:min(3, len(graphemes))] {
			parts := make([]string, len(primary))
			copy(parts, primary)
			parts[i] = alt
			spellings = append(spellings, strings.Join(parts, ""))
			if len(spellings) >= spellingCap {
				break
			}
		}
	}

	seen := make(map[string]struct{}, len(spellings))
	out := spellings[:0]
	for _, sp := range spellings {
		folded := strings.ToLower(sp)
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, sp)
		if len(out) >= maxResults {
			break
		}
	}
	return out
}

// safeSurfaceVariants lists low-risk respellings of term: case folds,
// separator spacing or removal, camel-case spacing, and spaced or dotted
// letters for short acronyms.
func safeSurfaceVariants(term string) []string {
	var out []string
	out = append(out, strings.ToLower(term))

	if strings.ContainsAny(term, "._-") {
		fields := strings.FieldsFunc(term, func(r rune) bool {
			return r == '.' || r == '_' || r == '-'
		})
		spaced := strings.Join(fields, " ")
		compact := strings.Join(fields, "")
		if spaced != "" && spaced != term {
			out = append(out, spaced, strings.ToLower(spaced))
		}
		if compact != "" && compact != term {
			out = append(out, compact, strings.ToLower(compact))
		}
	}

	if parts := splitCamel(term); len(parts) >= 2 {
		spaced := strings.Join(parts, " ")
		out = append(out, spaced, strings.ToLower(spaced))
	}

	if isUpperAlpha(term) && len(term) <= 6 {
		letters := spaceLetters(term)
		out = append(out, letters, strings.ToLower(letters))
		dotted := strings.Join(strings.Split(term, ""), ".") + "."
		out = append(out, dotted)
	}
	return out
}

// splitVariants expands term through the split table: entries for the whole
// lowered term, plus products over camel-case parts where any part has an
// entry, so TensorFlow reaches "ten so floor" through tensor and flow.
func (g *Generator) splitVariants(term string) []string {
	lower := strings.ToLower(term)
	var out []string
	out = append(out, g.rules.splits[lower]...)

	parts := splitCamel(term)
	if len(parts) >= 2 {
		options := make([][]string, len(parts))
		anySplit := false
		for i, part := range parts {
			pl := strings.ToLower(part)
			options[i] = append([]string{pl}, g.rules.splits[pl]...)
			if len(options[i]) > 1 {
				anySplit = true
			}
		}
		if anySplit {
			for _, combo := range joinProducts(options, splitComboCap) {
				if combo != lower {
					out = append(out, combo)
				}
			}
		}
	}

	seen := make(map[string]struct{}, len(out))
	deduped := out[:0]
	for _, v := range out {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		deduped = append(deduped, v)
	}
	return deduped
}

// joinProducts enumerates the space-joined cartesian products of options in
// index order, capped.
func joinProducts(options [][]string, limit int) []string {
	idx := make([]int, len(options))
	var out []string
	for len(out) < limit {
		parts := make([]string, len(options))
		for i, opts := range options {
			parts[i] = opts[idx[i]]
		}
		out = append(out, strings.Join(parts, " "))

		k := len(idx) - 1
		for k >= 0 {
			idx[k]++
			if idx[k] < len(options[k]) {
				break
			}
			idx[k] = 0
			k--
		}
		if k < 0 {
			break
		}
	}
	return out
}

// representativeVariants lists aggressive single-step respellings: one
// doubled letter collapsed, common typo patterns on the lowered term, and
// letter-name or digit confusions at one position.
func representativeVariants(term string) []string {
	lower := strings.ToLower(term)
	var out []string

	if c := collapseFirstDouble(lower); c != lower {
		out = append(out, c)
	}
	for _, p := range spellingPatterns {
		if v := applyPatternOnce(lower, p.from, p.to, p.prefix, p.suffix); v != "" && v != lower {
			out = append(out, v)
		}
	}
	for i, r := range term {
		for _, repl := range letterNumberConfusions[unicode.ToUpper(r)] {
			v := term[:i] + repl + term[i+utf8.RuneLen(r):]
			if v != term {
				out = append(out, v)
			}
		}
	}
	return out
}

// collapseFirstDouble removes the second rune of the first doubled pair.
func collapseFirstDouble(s string) string {
	runes := []rune(s)
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			return string(runes[:i]) + string(runes[i+1:])
		}
	}
	return s
}

// applyPatternOnce rewrites the first occurrence of from to to, or the
// anchored prefix or suffix when the pattern binds to an end.
func applyPatternOnce(s, from, to string, prefix, suffix bool) string {
	switch {
	case prefix:
		if !strings.HasPrefix(s, from) {
			return ""
		}
		return to + s[len(from):]
	case suffix:
		if !strings.HasSuffix(s, from) {
			return ""
		}
		return s[:len(s)-len(from)] + to
	default:
		if !strings.Contains(s, from) {
			return ""
		}
		return strings.Replace(s, from, to, 1)
	}
}

// splitCamel splits a mixed-case identifier into words: lower-to-upper
// transitions, letter-digit boundaries, and acronym-before-word boundaries
// (HTTPServer into HTTP and Server). Identifiers without such a boundary
// return a single part.
func splitCamel(s string) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := false
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(cur):
			boundary = true
		case unicode.IsLetter(prev) != unicode.IsLetter(cur) &&
			(unicode.IsDigit(prev) || unicode.IsDigit(cur)):
			boundary = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) &&
			i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			boundary = true
		}
		if boundary {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}
