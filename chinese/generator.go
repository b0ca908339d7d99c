package chinese

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/match"
	"github.com/JonesHong/phonofix/internal/textutil"
)

// maxCharsPerPinyin caps how many pool characters one fuzzy spelling may
// contribute to a position's substitution options.
const maxCharsPerPinyin = 3

// maxPerPinyinKey caps how many combinations may share one whole-word
// Pinyin key: the original word plus one homophone spelling.
const maxPerPinyinKey = 2

// comboCapPerRune scales the combination budget with term length, bounded
// by comboCapTotal.
const (
	comboCapPerRune = 100
	comboCapTotal   = 300
)

// hardcodedVariantScore ranks whole-phrase rules above most generated
// combinations without outranking single-substitution near-homophones.
const hardcodedVariantScore = 0.85

// Generator produces phonetically confusable surface variants for Han
// terms: homophone and near-homophone substitutions per character, plus
// whole-phrase slur and shorthand rules. Safe for concurrent use.
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

// charOption is one substitution choice at a character position, carrying
// the fuzzy spelling that produced it so combinations can track their
// whole-word Pinyin without re-conversion.
type charOption struct {
	pinyin string
	char   rune
}

// GenerateVariants expands term into at most maxVariants confusable surface
// forms: character-substitution combinations ranked by Pinyin closeness,
// plus fixed-score slurred phrases and regional shorthands. The result is
// deduplicated by Pinyin key (highest score wins) and never contains term
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

	runes := []rune(term)
	pinyins := g.backend.runePinyins(term)
	options := make([][]charOption, len(runes))
	for i := range runes {
		options[i] = g.charVariations(runes[i], pinyins[i])
	}

	budget := min(comboCapTotal, comboCapPerRune*len(runes))
	combos := generateCombinations(options, budget)

	variants := make([]phonofix.Variant, 0, len(combos)+4)
	for _, combo := range combos {
		if combo == term {
			continue
		}
		key, err := g.backend.ToPhonetic(ctx, combo)
		if err != nil {
			return nil, err
		}
		variants = append(variants, phonofix.Variant{
			Text:   combo,
			Key:    key,
			Score:  1 - match.ErrorRatio(key, baseKey),
			Source: phonofix.SourcePhoneticFuzzy,
		})
	}

	for _, table := range []map[string][]string{g.rules.sticky, g.rules.regional} {
		for _, surfaceText := range table[term] {
			if surfaceText == term {
				continue
			}
			key, err := g.backend.ToPhonetic(ctx, surfaceText)
			if err != nil {
				return nil, err
			}
			variants = append(variants, phonofix.Variant{
				Text:   surfaceText,
				Key:    key,
				Score:  hardcodedVariantScore,
				Source: phonofix.SourceHardcoded,
			})
		}
	}

	phonofix.SortVariants(variants)
	variants = phonofix.DedupeVariantsByKey(variants)
	if len(variants) > maxVariants {
		variants = variants[:maxVariants]
	}
	return variants, nil
}

// FilterHomophones partitions terms by whole-word Pinyin key. The first two
// terms per key are kept, matching the per-key combination cap, and later
// ones are filtered. Callers registering many dictionary entries use this
// to find spellings that would collide before building a corrector.
func (g *Generator) FilterHomophones(terms []string) (kept, filtered []string, err error) {
	ctx := context.Background()
	perKey := make(map[string]int, len(terms))
	for _, term := range terms {
		key, keyErr := g.backend.ToPhonetic(ctx, term)
		if keyErr != nil {
			return nil, nil, keyErr
		}
		if perKey[key] >= maxPerPinyinKey {
			filtered = append(filtered, term)
			continue
		}
		perKey[key]++
		kept = append(kept, term)
	}
	return kept, filtered, nil
}

// charVariations returns the substitution options for one character: the
// character itself first, then pool characters of every confusable spelling
// of its Pinyin, capped per spelling. Non-Han characters substitute nothing.
func (g *Generator) charVariations(char rune, charPinyin string) []charOption {
	if charPinyin == "" || !textutil.IsHan(char) {
		return []charOption{{pinyin: charPinyin, char: char}}
	}

	options := []charOption{{pinyin: charPinyin, char: char}}
	seen := map[charOption]struct{}{options[0]: {}}
	for _, fp := range g.rules.fuzzyPinyinVariants(charPinyin) {
		for _, c := range representativeChars(fp, maxCharsPerPinyin) {
			opt := charOption{pinyin: fp, char: c}
			if _, dup := seen[opt]; dup {
				continue
			}
			seen[opt] = struct{}{}
			options = append(options, opt)
		}
	}
	return options
}

// comboCollector accumulates combination words under two limits: a total
// budget and a per-key cap allowing each whole-word Pinyin at most
// maxPerPinyinKey spellings (the original word plus one homophone).
type comboCollector struct {
	budget    int
	keyCounts map[string]int
	words     []string
}

func (cc *comboCollector) full() bool { return len(cc.words) >= cc.budget }

func (cc *comboCollector) add(chosen []charOption) {
	var word, key strings.Builder
	for _, opt := range chosen {
		word.WriteRune(opt.char)
		key.WriteString(opt.pinyin)
	}
	k := key.String()
	if cc.keyCounts[k] >= maxPerPinyinKey {
		return
	}
	cc.keyCounts[k]++
	cc.words = append(cc.words, word.String())
}

// generateCombinations enumerates substitution combinations in ascending
// count of changed positions, so the unchanged word comes first and
// single-character slips precede multi-character ones within the budget.
func generateCombinations(options [][]charOption, budget int) []string {
	n := len(options)
	if n == 0 || budget <= 0 {
		return nil
	}

	base := make([]charOption, n)
	for i, opts := range options {
		base[i] = opts[0]
	}

	cc := &comboCollector{budget: budget, keyCounts: make(map[string]int)}
	cc.add(base)

	chosen := make([]charOption, n)
	for diff := 1; diff <= n && !cc.full(); diff++ {
		positions := make([]int, diff)
		for i := range positions {
			positions[i] = i
		}
		for !cc.full() {
			emitSlotProducts(cc, base, options, positions, chosen)

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
	return cc.words
}

// emitSlotProducts walks every substitution product for one set of changed
// positions. Position sets where some slot has no alternate produce
// nothing.
func emitSlotProducts(cc *comboCollector, base []charOption, options [][]charOption, positions []int, chosen []charOption) {
	alts := make([][]charOption, len(positions))
	for i, p := range positions {
		if len(options[p]) <= 1 {
			return
		}
		alts[i] = options[p][1:]
	}

	idx := make([]int, len(positions))
	for !cc.full() {
		copy(chosen, base)
		for i, p := range positions {
			chosen[p] = alts[i][idx[i]]
		}
		cc.add(chosen)

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
			return
		}
	}
}
