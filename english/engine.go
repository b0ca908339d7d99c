package english

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/surface"
)

// EngineConfig configures an English correction engine.
type EngineConfig struct {
	// Backend supplies IPA conversion. Nil selects the shared backend.
	Backend *Backend

	// Logger receives engine build logs. Nil means slog.Default.
	Logger *slog.Logger

	// SurfaceVariants enables generated fuzzy variants for dictionary
	// terms. Off by default: each variant costs a grapheme-to-IPA
	// conversion at build time, a subprocess round trip on the espeak
	// converter. Correctors still honor WithoutSurfaceVariants when this
	// is on.
	SurfaceVariants bool

	// RepresentativeVariants additionally enables aggressive spelling and
	// letter-number confusions in the generator. No effect unless
	// SurfaceVariants is on.
	RepresentativeVariants bool

	// PhonemePairs adds bidirectional IPA confusion pairs on top of the
	// built-in voicing, vowel-length, and similar-phone tables.
	PhonemePairs [][2]string

	// MishearSplits adds whole-word split rules on top of the built-in
	// table. Keys are lowercase words, values misheard renditions.
	MishearSplits map[string][]string
}

// Engine builds English correctors. One engine serves any number of term
// dictionaries; correctors built from it share its backend and rule tables.
type Engine struct {
	backend        *Backend
	rules          *rules
	logger         *slog.Logger
	surfaceVars    bool
	representative bool
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
		backend:        backend,
		rules:          defaultRules().withOverrides(cfg.PhonemePairs, cfg.MishearSplits),
		logger:         logger.With("component", "english"),
		surfaceVars:    cfg.SurfaceVariants,
		representative: cfg.RepresentativeVariants,
	}
}

// Lang returns the language this engine corrects.
func (e *Engine) Lang() phonofix.Lang { return phonofix.LangEnglish }

// Backend returns the engine's phonetic backend.
func (e *Engine) Backend() *Backend { return e.backend }

// BackendStats snapshots the backend's IPA key cache.
func (e *Engine) BackendStats() phonofix.CacheStats { return e.backend.CacheStats() }

// Generator returns a variant generator bound to the engine's backend,
// merged rule tables, and variant aggressiveness.
func (e *Engine) Generator() *Generator {
	return &Generator{
		backend:        e.backend,
		rules:          e.rules,
		representative: e.representative,
	}
}

// NewCorrector builds a corrector over dict. Search targets are the
// canonicals, their aliases, and (when the engine enables them) generated
// fuzzy variants, deduplicated per canonical by IPA key with user aliases
// winning. Backend failures during the build propagate under FailRaise and
// yield a pass-through corrector under FailDegrade.
func (e *Engine) NewCorrector(dict phonofix.TermDict, opts ...phonofix.CorrectorOption) (*Corrector, error) {
	start := time.Now()
	cfg := phonofix.NewCorrectorConfig(opts...)

	if len(cfg.ProtectedTerms) > cfg.MaxProtectedTerms {
		return nil, fmt.Errorf("%w: %d protected terms exceed cap %d",
			phonofix.ErrResourceLimit, len(cfg.ProtectedTerms), cfg.MaxProtectedTerms)
	}

	// A raise-policy corrector demands true IPA keys; the builtin domain
	// serves degrade callers only.
	if cfg.FailPolicy == phonofix.FailRaise && e.backend.Degraded() {
		return nil, e.backend.unavailable()
	}

	terms, err := phonofix.NormalizeTermDict(dict)
	if err != nil {
		return nil, err
	}

	items, aliasCount, variantCount, err := e.buildIndex(cfg, terms)
	if err != nil {
		if cfg.FailPolicy == phonofix.FailDegrade {
			e.logger.Warn("index build failed, corrector degrades to pass-through", "err", err)
			return newDegradedCorrector(e, cfg, err), nil
		}
		return nil, err
	}

	c := newCorrector(e, cfg, items)
	e.logger.Debug("corrector built",
		"terms", len(terms),
		"aliases", aliasCount,
		"variants", variantCount,
		"targets", len(items),
		"converter", e.backend.ConverterName(),
		"duration", time.Since(start),
	)
	return c, nil
}

// buildIndex resolves every search target of terms to an index item:
// canonicals, user aliases, then generated variants, with alias collisions
// on IPA key resolved in that order.
func (e *Engine) buildIndex(cfg phonofix.CorrectorConfig, terms []phonofix.Term) ([]*indexItem, int, int, error) {
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
			return nil, 0, 0, err
		}
		items = append(items, canonicalItem)

		aliases := slices.Clone(term.Aliases)
		aliasCount += len(aliases)
		if e.surfaceVars && cfg.SurfaceVariants {
			variants, err := gen.GenerateVariants(term.Canonical, term.MaxVariants)
			if err != nil {
				return nil, 0, 0, err
			}
			variantCount += len(variants)
			for _, v := range variants {
				aliases = append(aliases, v.Text)
			}
		}

		for _, alias := range e.dedupeAliasesByKey(ctx, aliases) {
			aliasItem, err := e.newItem(ctx, alias, term, keywords, excludes, true)
			if err != nil {
				return nil, 0, 0, err
			}
			items = append(items, aliasItem)
		}
	}
	return items, aliasCount, variantCount, nil
}

// newItem resolves the phonetic attributes of one search target surface.
func (e *Engine) newItem(ctx context.Context, surfaceText string, term phonofix.Term, keywords, excludes []string, isAlias bool) (*indexItem, error) {
	key, err := e.backend.ToPhonetic(ctx, surfaceText)
	if err != nil {
		return nil, err
	}
	keyLen := utf8.RuneCountInString(key)
	return &indexItem{
		surface:    surfaceText,
		folded:     surface.Fold(surfaceText),
		canonical:  term.Canonical,
		isAlias:    isAlias,
		weight:     term.Weight,
		keywords:   keywords,
		excludes:   excludes,
		key:        key,
		keyLen:     keyLen,
		group:      firstPhonemeGroup(key),
		tokenCount: len(strings.Fields(surfaceText)),
		maxKeyDiff: float64(max(keyLen, minKeyDiffBase)) * keyDiffRatio,
	}, nil
}

// dedupeAliasesByKey keeps the first alias per IPA key. User aliases come
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
