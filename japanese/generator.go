package japanese

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/match"
	"github.com/JonesHong/phonofix/internal/textutil"
)

// kanaComboCap bounds how many kana substitution combinations one term may
// expand into before phrase rules and romanisation multiply them further.
const kanaComboCap = 50

// romajiSeedCap bounds how many kana variants seed Romaji renditions.
const romajiSeedCap = 10

// hardcodedVariantScore ranks same-reading kanji spellings above most
// generated combinations without outranking single-kana near-homophones.
const hardcodedVariantScore = 0.85

// Generator produces phonetically confusable surface variants for Japanese
// terms: kana-level substitutions over the term's reading, whole-word sound
// shifts, Romaji renditions an ASR or typist may emit, and same-reading
// kanji spellings. Safe for concurrent use.
type Generator struct {
	backend *Backend
	rules   *rules
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

// GenerateVariants expands term into at most maxVariants confusable surface
// forms: the hiragana reading and its kana substitutions, sound-shifted
// phrasings, Romaji spellings with their romanisation-rule rewrites, and
// same-reading kanji substitutes. Generated forms are deduplicated by
// Romaji key; kanji homophones are kept per spelling because they share
// the canonical reading by construction. The result never contains term
// itself.
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
	kana, err := g.backend.hiragana(ctx, term)
	if err != nil {
		return nil, err
	}

	var (
		variants []phonofix.Variant
		seen     = make(map[string]struct{})
	)
	add := func(text string, source phonofix.VariantSource) {
		if text == "" || text == term {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		key := hiraToRomaji(text)
		variants = append(variants, phonofix.Variant{
			Text:   text,
			Key:    key,
			Score:  1 - match.ErrorRatio(key, baseKey),
			Source: source,
		})
	}

	// Kana-level substitutions over the reading: particle confusions,
	// dropped or invented voicing marks, merged sounds.
	runes := []rune(kana)
	options := make([][]rune, len(runes))
	for i, r := range runes {
		options[i] = g.kanaVariations(r)
	}
	combos := kanaCombos(options, kanaComboCap)
	for _, combo := range combos {
		add(combo, phonofix.SourcePhoneticFuzzy)
	}

	// Whole-word sound shifts on every combination.
	for _, combo := range combos {
		for _, shifted := range kanaPhraseVariants(combo) {
			add(shifted, phonofix.SourcePhraseRule)
		}
	}

	// Romaji renditions: the shortest kana variants seed lowercase Romaji
	// spellings, each expanded through the romanisation rewrite tables.
	seeds := make([]string, 0, len(seen)+1)
	for text := range seen {
		seeds = append(seeds, text)
	}
	if _, dup := seen[kana]; !dup {
		seeds = append(seeds, kana)
	}
	sortKanaSeeds(seeds)
	if len(seeds) > romajiSeedCap {
		seeds = seeds[:romajiSeedCap]
	}
	for _, seed := range seeds {
		romaji := hiraToRomaji(seed)
		add(romaji, phonofix.SourceRomanisation)
		for _, rewritten := range g.romajiRuleVariants(romaji) {
			add(rewritten, phonofix.SourceRomanisation)
		}
	}

	phonofix.SortVariants(variants)
	variants = phonofix.DedupeVariantsByKey(variants)

	// Same-reading kanji spellings join after key dedupe: they carry the
	// canonical reading on purpose, and dropping one would lose an exact
	// pattern the analyzer cannot re-derive from the wrong spelling.
	if textutil.ContainsHan(term) {
		for _, spelling := range g.rules.homophones[term] {
			if spelling == term {
				continue
			}
			if _, dup := seen[spelling]; dup {
				continue
			}
			seen[spelling] = struct{}{}
			variants = append(variants, phonofix.Variant{
				Text:   spelling,
				Key:    baseKey,
				Score:  hardcodedVariantScore,
				Source: phonofix.SourceHardcoded,
			})
		}
		phonofix.SortVariants(variants)
	}

	if len(variants) > maxVariants {
		variants = variants[:maxVariants]
	}
	return variants, nil
}

// FilterHomophones partitions terms by normalised Romaji key: the first
// term per key is kept, later ones are filtered. Callers registering many
// dictionary entries use this to find readings that would collide before
// building a corrector.
func (g *Generator) FilterHomophones(terms []string) (kept, filtered []string, err error) {
	ctx := context.Background()
	seenKeys := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		key, keyErr := g.backend.ToPhonetic(ctx, term)
		if keyErr != nil {
			return nil, nil, keyErr
		}
		norm := g.rules.normalizeKey(key)
		if _, dup := seenKeys[norm]; dup {
			filtered = append(filtered, term)
			continue
		}
		seenKeys[norm] = struct{}{}
		kept = append(kept, term)
	}
	return kept, filtered, nil
}

// kanaVariations returns the substitution options for one kana: the kana
// itself first, then its particle confusion, voicing toggles, and
// similar-sound swaps. Runes outside the tables substitute nothing.
func (g *Generator) kanaVariations(r rune) []rune {
	options := []rune{r}
	seen := map[rune]struct{}{r: {}}
	add := func(v rune) {
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		options = append(options, v)
	}
	if v, ok := g.rules.particles[r]; ok {
		add(v)
	}
	if v, ok := g.rules.voiced[r]; ok {
		add(v)
	}
	if v, ok := g.rules.unvoiced[r]; ok {
		add(v)
	}
	if v, ok := g.rules.semiVoiced[r]; ok {
		add(v)
	}
	if v, ok := g.rules.unsemiVoiced[r]; ok {
		add(v)
	}
	for _, v := range g.rules.similar[r] {
		add(v)
	}
	return options
}

// kanaCombos enumerates kana substitution combinations in ascending count
// of changed positions, so the unchanged reading comes first and
// single-kana slips precede multi-kana ones within the budget.
func kanaCombos(options [][]rune, budget int) []string {
	n := len(options)
	if n == 0 || budget <= 0 {
		return nil
	}

	base := make([]rune, n)
	for i, opts := range options {
		base[i] = opts[0]
	}
	combos := []string{string(base)}

	chosen := make([]rune, n)
	for diff := 1; diff <= n && len(combos) < budget; diff++ {
		positions := make([]int, diff)
		for i := range positions {
			positions[i] = i
		}
		for len(combos) < budget {
			combos = emitKanaProducts(combos, budget, base, options, positions, chosen)

			// Advance to the next position combination in index order.
			i := diff - 1
			for i >= 0 && positions[i] == n-diff+i {
				i--
			}
			if i < 0 {
				break
			}
			positions[i]++
			for j := i + 1; j < diff; j++ {
				positions[j] = positions[j-1] + 1
			}
		}
	}
	return combos
}

// emitKanaProducts appends every substitution product for one set of
// changed positions, up to budget. Position sets where some slot has no
// alternate produce nothing.
func emitKanaProducts(combos []string, budget int, base []rune, options [][]rune, positions []int, chosen []rune) []string {
	alts := make([][]rune, len(positions))
	for i, p := range positions {
		if len(options[p]) <= 1 {
			return combos
		}
		alts[i] = options[p][1:]
	}

	idx := make([]int, len(positions))
	for len(combos) < budget {
		copy(chosen, base)
		for i, p := range positions {
			chosen[p] = alts[i][idx[i]]
		}
		combos = append(combos, string(chosen))

		k := len(idx) - 1
		for k >= 0 {
			idx[k]++
			if idx[k] < len(alts[k]) {
				break
			}
			idx[k] = 0
			k--
		}
		if k < 0 {
			return combos
		}
	}
	return combos
}

// kanaPhraseVariants rewrites whole-word kana patterns ASR collapses: おう
// heard as おお, おー or お, えい as ええ or え, and a dropped sokuon.
func kanaPhraseVariants(kana string) []string {
	var out []string
	add := func(v string) {
		if v != kana {
			out = append(out, v)
		}
	}
	if strings.Contains(kana, "おう") {
		add(strings.ReplaceAll(kana, "おう", "おお"))
		add(strings.ReplaceAll(kana, "おう", "おー"))
		add(strings.ReplaceAll(kana, "おう", "お"))
	}
	if strings.Contains(kana, "えい") {
		add(strings.ReplaceAll(kana, "えい", "ええ"))
		add(strings.ReplaceAll(kana, "えい", "え"))
	}
	if strings.Contains(kana, "っ") {
		add(strings.ReplaceAll(kana, "っ", ""))
	}
	return out
}

// romajiRuleVariants expands one Romaji rendition through the rewrite
// tables: variant romanisations both ways since an ASR may emit either
// side, long vowels shortened, geminates singled, and nasal spellings both
// ways. Each rewrite is a replace-all of one pattern.
func (g *Generator) romajiRuleVariants(romaji string) []string {
	var out []string
	add := func(v string) {
		if v != romaji {
			out = append(out, v)
		}
	}
	for _, p := range g.rules.romajiPairs {
		if strings.Contains(romaji, p[0]) {
			add(strings.ReplaceAll(romaji, p[0], p[1]))
		}
		if strings.Contains(romaji, p[1]) {
			add(strings.ReplaceAll(romaji, p[1], p[0]))
		}
	}
	for _, p := range g.rules.longVowels {
		if strings.Contains(romaji, p[0]) {
			add(strings.ReplaceAll(romaji, p[0], p[1]))
		}
	}
	for _, p := range g.rules.gemination {
		if strings.Contains(romaji, p[0]) {
			add(strings.ReplaceAll(romaji, p[0], p[1]))
		}
	}
	for _, p := range g.rules.nasals {
		if strings.Contains(romaji, p[0]) {
			add(strings.ReplaceAll(romaji, p[0], p[1]))
		}
		if strings.Contains(romaji, p[1]) {
			add(strings.ReplaceAll(romaji, p[1], p[0]))
		}
	}
	return out
}

// sortKanaSeeds orders kana variants shortest first, ties lexicographic,
// so Romaji seeding prefers the least-mutated readings.
func sortKanaSeeds(seeds []string) {
	slices.SortFunc(seeds, func(a, b string) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return strings.Compare(a, b)
	})
}
