package chinese

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/surface"
	"github.com/JonesHong/phonofix/internal/textutil"
)

// EngineConfig configures a Chinese correction engine.
type EngineConfig struct {
	// Backend supplies Pinyin conversion. Nil selects the shared backend.
	Backend *Backend

	// Logger receives engine build logs. Nil means slog.Default.
	Logger *slog.Logger

	// SpecialSyllables adds one-way syllable confusion edges on top of the
	// built-in table. Keys are observed syllables, values intended ones.
	SpecialSyllables map[string][]string

	// StickyPhrases adds whole-phrase slur rules on top of the built-in
	// table. Keys are canonical phrases, values slurred renditions.
	StickyPhrases map[string][]string

	// RegionalAliases adds whole-word shorthand rules on top of the
	// built-in table. Keys are canonical names, values shorthands.
	RegionalAliases map[string][]string
}

// Engine builds Chinese correctors. One engine serves any number of term
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
		rules:   defaultRules().withOverrides(cfg.SpecialSyllables, cfg.StickyPhrases, cfg.RegionalAliases),
		logger:  logger.With("component", "chinese"),
	}
}

// Lang returns the language this engine corrects.
func (e *Engine) Lang() phonofix.Lang { return phonofix.LangChinese }

// Backend returns the engine's phonetic backend.
func (e *Engine) Backend() *Backend { return e.backend }

// BackendStats snapshots the backend's Pinyin key cache.
func (e *Engine) BackendStats() phonofix.CacheStats { return e.backend.CacheStats() }

// Generator returns a variant generator bound to the engine's backend and
// merged rule tables.
func (e *Engine) Generator() *Generator {
	return &Generator{backend: e.backend, rules: e.rules}
}

// NewCorrector builds a corrector over dict. Search targets are the
// canonicals, their aliases, and (unless disabled) generated fuzzy variants,
// deduplicated per canonical by Pinyin key with user aliases winning.
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

		canonicalItem, err := e.newItem(ctx, term.Canonical, term, keywords, excludes, false)
		if err != nil {
			return nil, err
		}
		items = append(items, canonicalItem)

		aliases := slices.Clone(term.Aliases)
		aliasCount += len(aliases)
		if cfg.SurfaceVariants {
			variants, err := gen.GenerateVariants(term.Canonical, term.MaxVariants)
			if err != nil {
				return nil, err
			}
			variantCount += len(variants)
			for _, v := range variants {
				aliases = append(aliases, v.Text)
			}
		}

		for _, alias := range e.dedupeAliasesByKey(ctx, aliases) {
			aliasItem, err := e.newItem(ctx, alias, term, keywords, excludes, true)
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
func (e *Engine) newItem(ctx context.Context, surfaceText string, term phonofix.Term, keywords, excludes []string, isAlias bool) (*indexItem, error) {
	syls, err := e.backend.Syllables(ctx, surfaceText)
	if err != nil {
		return nil, err
	}
	key, err := e.backend.ToPhonetic(ctx, surfaceText)
	if err != nil {
		return nil, err
	}
	return &indexItem{
		surface:   surfaceText,
		canonical: term.Canonical,
		isAlias:   isAlias,
		weight:    term.Weight,
		keywords:  keywords,
		excludes:  excludes,
		key:       key,
		syllables: syls,
		runeLen:   utf8.RuneCountInString(surfaceText),
		mixed:     textutil.ContainsHan(surfaceText) && textutil.ContainsASCIILetter(surfaceText),
	}, nil
}

// dedupeAliasesByKey keeps the first alias per Pinyin key. User aliases come
// before generated variants in the input, so they win collisions.
func (e *Engine) dedupeAliasesByKey(ctx context.Context, aliases []string) []string {
	seen := make(map[string]struct{}, len(aliases))
	out := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		key, err := e.backend.ToPhonetic(ctx, alias)
		if err != nil {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, alias)
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
