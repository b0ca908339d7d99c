package phonofix

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultMaxVariants is the per-term variant cap applied when a TermConfig
// leaves MaxVariants unset.
const DefaultMaxVariants = 30

// TermConfig carries the optional per-canonical matching metadata. The zero
// value is valid: no aliases, no keyword requirement, no exclusions, weight
// zero, default variant cap.
type TermConfig struct {
	// Aliases are known alternative surface forms rewritten to the
	// canonical. The canonical itself must not be listed.
	Aliases []string

	// Keywords, when non-empty, require at least one keyword to occur in
	// the correction context before the term may match. Nearby keywords
	// additionally lower the candidate score.
	Keywords []string

	// ExcludeWhen rejects the term whenever any listed word occurs in the
	// correction context. Exclusion beats keywords.
	ExcludeWhen []string

	// Weight in [0, 1] shifts the candidate score in the term's favour.
	Weight float64

	// MaxVariants caps the generated fuzzy variants for this term.
	// Zero means DefaultMaxVariants.
	MaxVariants int
}

// TermDict maps canonical surface forms to their matching metadata. It is
// the single internal dictionary shape; Canonicals and AliasMap adapt the
// two simpler input forms.
type TermDict map[string]TermConfig

// Canonicals builds a TermDict from bare canonical names with no metadata.
func Canonicals(names ...string) TermDict {
	dict := make(TermDict, len(names))
	for _, n := range names {
		dict[n] = TermConfig{}
	}
	return dict
}

// AliasMap builds a TermDict from a canonical-to-aliases map.
func AliasMap(m map[string][]string) TermDict {
	dict := make(TermDict, len(m))
	for canonical, aliases := range m {
		dict[canonical] = TermConfig{Aliases: aliases}
	}
	return dict
}

// Term is one normalized dictionary entry: defaults applied, aliases
// deduplicated with the canonical removed. Terms are immutable after
// corrector construction.
type Term struct {
	Canonical string
	TermConfig
}

// NormalizeTermDict validates dict and expands it into normalized entries,
// sorted by canonical for deterministic iteration.
//
// Rules:
//   - Canonicals must be non-blank.
//   - Aliases must be non-blank; duplicates and the canonical itself are
//     dropped silently.
//   - Weight must lie in [0, 1].
//   - MaxVariants must not be negative; zero becomes DefaultMaxVariants.
//
// All violations are collected and returned joined under ErrInvalidInput.
func NormalizeTermDict(dict TermDict) ([]Term, error) {
	var errs []error
	terms := make([]Term, 0, len(dict))

	for canonical, cfg := range dict {
		if strings.TrimSpace(canonical) == "" {
			errs = append(errs, errors.New("canonical must not be blank"))
			continue
		}
		if cfg.Weight < 0 || cfg.Weight > 1 {
			errs = append(errs, fmt.Errorf("%s: weight %v outside [0, 1]", canonical, cfg.Weight))
		}
		if cfg.MaxVariants < 0 {
			errs = append(errs, fmt.Errorf("%s: max variants %d is negative", canonical, cfg.MaxVariants))
		}

		normalized := Term{Canonical: canonical, TermConfig: cfg}
		if normalized.MaxVariants == 0 {
			normalized.MaxVariants = DefaultMaxVariants
		}

		seen := map[string]struct{}{canonical: {}}
		aliases := make([]string, 0, len(cfg.Aliases))
		for _, alias := range cfg.Aliases {
			if strings.TrimSpace(alias) == "" {
				errs = append(errs, fmt.Errorf("%s: alias must not be blank", canonical))
				continue
			}
			if _, dup := seen[alias]; dup {
				continue
			}
			seen[alias] = struct{}{}
			aliases = append(aliases, alias)
		}
		normalized.Aliases = aliases

		terms = append(terms, normalized)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}

	slices.SortFunc(terms, func(a, b Term) int {
		return cmp.Compare(a.Canonical, b.Canonical)
	})
	return terms, nil
}
