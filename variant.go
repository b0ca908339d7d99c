package phonofix

import (
	"cmp"
	"slices"
)

// VariantSource records which generator rule class produced a variant.
type VariantSource string

const (
	// SourcePhoneticFuzzy marks variants derived by phoneme-level fuzzy
	// rules on the phonetic key.
	SourcePhoneticFuzzy VariantSource = "phonetic_fuzzy"

	// SourceHardcoded marks variants from whole-word surface rules:
	// regional aliases, sticky phrases, acronym spellings.
	SourceHardcoded VariantSource = "hardcoded"

	// SourcePhraseRule marks variants from multi-kana or multi-syllable
	// phrase rules.
	SourcePhraseRule VariantSource = "phrase_rule"

	// SourceRomanisation marks variants produced by alternative
	// romanisation spellings of the same reading.
	SourceRomanisation VariantSource = "romanisation"
)

// Variant is one phonetically related surface form generated for a
// canonical term. Score in [0, 1] grows with phonetic closeness to the
// base term.
type Variant struct {
	Text   string
	Key    string
	Score  float64
	Source VariantSource
}

// FuzzyGenerator is the per-language variant generator contract. The
// generated set never contains the term itself; engines add the canonical
// to the search target set separately.
type FuzzyGenerator interface {
	// GenerateVariants expands term into at most maxVariants phonetically
	// plausible surface forms, deduplicated by phonetic key and sorted by
	// SortVariants order. maxVariants <= 0 applies DefaultMaxVariants.
	GenerateVariants(term string, maxVariants int) ([]Variant, error)
}

// SortVariants orders variants by descending score, then ascending surface
// length, then lexicographic surface. The ordering is total, so truncation
// by a variant cap is deterministic across runs.
func SortVariants(variants []Variant) {
	slices.SortFunc(variants, func(a, b Variant) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(len(a.Text), len(b.Text)); c != 0 {
			return c
		}
		return cmp.Compare(a.Text, b.Text)
	})
}

// DedupeVariantsByKey keeps the first variant for each phonetic key,
// preserving order. Call after SortVariants so the highest-scoring surface
// of each key survives.
func DedupeVariantsByKey(variants []Variant) []Variant {
	seen := make(map[string]struct{}, len(variants))
	out := variants[:0]
	for _, v := range variants {
		if _, dup := seen[v.Key]; dup {
			continue
		}
		seen[v.Key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// CacheStats is a point-in-time snapshot of a backend's phonetic key cache.
// Hit and miss counters are exact: backends increment them atomically.
type CacheStats struct {
	Hits     uint64
	Misses   uint64
	Size     int
	Capacity int
}

// HitRate returns the fraction of lookups served from cache, or 0 when no
// lookups have happened.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
