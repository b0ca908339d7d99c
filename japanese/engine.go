package japanese

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/surface"
)

// EngineConfig configures a Japanese correction engine.
type EngineConfig struct {
	// Backend supplies morphological analysis and Romaji conversion. Nil
	// selects the shared backend.
	Backend *Backend

	// Logger receives engine build logs. Nil means slog.Default.
	Logger *slog.Logger

	// RomajiVariants adds romanisation rewrite pairs on top of the
	// built-in table, each {variant, standard} applied as an ordered
	// replace-all during key normalisation.
	RomajiVariants [][2]string

	// KanjiHomophones adds same-reading spellings on top of the built-in
	// table. Keys are canonical terms, values wrong spellings sharing the
	// reading.
	KanjiHomophones map[string][]string
}

// Engine builds Japanese correctors. One engine serves any number of term
// dictionaries; correctors built from it share its backend and rule tables.
type Engine struct {
	backend *Backend
	rules   *rules
	logger  *slog.Logger
}

// NewEngine returns an engine over cfg. Rule overrides merge into copies of
// the built-in tables, so engines with different overrides coexist.
func NewEngine(cfg EngineConfig) *Engine {
	backend := cfg.Backend
	if backend == nil {
		backend = Shared()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		backend: backend,
		rules:   defaultRules().withOverrides(cfg.RomajiVariants, cfg.KanjiHomophones),
		logger:  logger.With("component", "japanese"),
	}
}

// Lang returns the language this engine corrects.
func (e *Engine) Lang() phonofix.Lang { return phonofix.LangJapanese }

// Backend returns the engine's phonetic backend.
func (e *Engine) Backend() *Backend { return e.backend }

// BackendStats snapshots the backend's Romaji key cache.
func (e *Engine) BackendStats() phonofix.CacheStats { return e.backend.CacheStats() }

// Generator returns a variant generator bound to the engine's backend and
// merged rule tables.
func (e *Engine) Generator() *Generator {
	return &Generator{backend: e.backend, rules: e.rules}
}

// aliasSeed is one alias surface with its precomputed Romaji key. Generated
// homophone spellings carry the canonical reading, since the analyzer
// cannot re-derive a reading from the wrong kanji.
type aliasSeed struct {
	text      string
	key       string
	homophone bool
}

// NewCorrector builds a corrector over dict. Search targets are the
// canonicals, their aliases, and (unless disabled) generated fuzzy
// variants, deduplicated per canonical by Romaji key with user aliases
// winning.
func (e *Engine) NewCorrector(dict phonofix.TermDict, opts ...phonofix.CorrectorOption) (*Corrector, error) {
	start := time.Now()
	cfg := phonofix.NewCorrectorConfig(opts...)

	if len(cfg.ProtectedTerms) > cfg.MaxProtectedTerms {
		return nil, fmt.Errorf("%w: %d protected terms exceed cap %d",
			phonofix.ErrResourceLimit, len(cfg.ProtectedTerms), cfg.MaxProtectedTerms)
	}

	terms, err := phonofix.NormalizeTermDict(dict)
	if err != nil {
		return nil, err
	}

	gen := e.Generator()
	ctx := context.Background()

	var (
		items        []*indexItem
		aliasCount   int
		variantCount int
	)
	for _, term := range terms {
		keywords := foldAll(term.Keywords)
		excludes := foldAll(term.ExcludeWhen)

		canonicalKey, err := e.backend.ToPhonetic(ctx, term.Canonical)
		if err != nil {
			return nil, err
		}
		canonicalItem, err := e.newItem(ctx, term.Canonical, canonicalKey, term, keywords, excludes, false)
		if err != nil {
			return nil, err
		}
		items = append(items, canonicalItem)

		seeds := make([]aliasSeed, 0, len(term.Aliases))
		for _, alias := range term.Aliases {
			key, err := e.backend.ToPhonetic(ctx, alias)
			if err != nil {
				return nil, err
			}
			seeds = append(seeds, aliasSeed{text: alias, key: key})
		}
		aliasCount += len(term.Aliases)

		if cfg.SurfaceVariants {
			variants, err := gen.GenerateVariants(term.Canonical, term.MaxVariants)
			if err != nil {
				return nil, err
			}
			variantCount += len(variants)
			for _, v := range variants {
				seeds = append(seeds, aliasSeed{
					text:      v.Text,
					key:       v.Key,
					homophone: v.Source == phonofix.SourceHardcoded,
				})
			}
		}

		for _, seed := range dedupeSeeds(seeds) {
			aliasItem, err := e.newItem(ctx, seed.text, seed.key, term, keywords, excludes, true)
			if err != nil {
				return nil, err
			}
			items = append(items, aliasItem)
		}
	}

	c := newCorrector(e, cfg, items)
	e.logger.Debug("corrector built",
		"terms", len(terms),
		"aliases", aliasCount,
		"variants", variantCount,
		"targets", len(items),
		"duration", time.Since(start),
	)
	return c, nil
}

// newItem resolves the phonetic attributes of one search target surface.
// The key arrives precomputed because homophone spellings carry their
// canonical's reading rather than one derived from the surface.
func (e *Engine) newItem(ctx context.Context, surfaceText, key string, term phonofix.Term, keywords, excludes []string, isAlias bool) (*indexItem, error) {
	morphs, err := e.backend.analyze(ctx, surfaceText)
	if err != nil {
		return nil, err
	}
	return &indexItem{
		surface:    surfaceText,
		canonical:  term.Canonical,
		isAlias:    isAlias,
		weight:     term.Weight,
		keywords:   keywords,
		excludes:   excludes,
		key:        key,
		normKey:    e.rules.normalizeKey(key),
		keyLen:     len(key),
		group:      onsetGroup(key),
		tokenCount: max(len(morphs), 1),
		maxKeyDiff: float64(max(len(key), minKeyDiffBase)) * keyDiffRatio,
	}, nil
}

// dedupeSeeds keeps the first seed per Romaji key, user aliases ahead of
// generated variants so they win collisions. Homophone spellings dedupe by
// surface instead: they share the canonical's key by construction, and
// dropping one would lose an exact pattern.
func dedupeSeeds(seeds []aliasSeed) []aliasSeed {
	seenKey := make(map[string]struct{}, len(seeds))
	seenText := make(map[string]struct{}, len(seeds))
	out := make([]aliasSeed, 0, len(seeds))
	for _, s := range seeds {
		if _, dup := seenText[s.text]; dup {
			continue
		}
		if !s.homophone {
			if _, dup := seenKey[s.key]; dup {
				continue
			}
			seenKey[s.key] = struct{}{}
		}
		seenText[s.text] = struct{}{}
		out = append(out, s)
	}
	return out
}

func foldAll(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = surface.Fold(w)
	}
	return out
}
