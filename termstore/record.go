// Package termstore provides persistent storage for term dictionaries. A
// [TermRecord] is one canonical term within a named dictionary, together with
// the matching metadata a corrector needs: aliases, keyword requirements,
// exclusions, weight, and variant cap. Keeping dictionaries in PostgreSQL
// lets services share them and edit terms without redeploying.
//
// The primary abstraction is the [Store] interface, which offers CRUD and
// list operations keyed by (dictionary, canonical). The reference
// implementation [PostgresStore] keeps records in a single term_definitions
// table using JSONB columns for the list-valued fields.
//
// [LoadDict] and [ImportDict] bridge between the storage representation and
// the runtime [phonofix.TermDict] handed to corrector constructors.
package termstore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonesHong/phonofix"
)

// TermRecord is one canonical term within a named dictionary. It mirrors
// [phonofix.TermConfig] plus the keys that locate the term in storage.
type TermRecord struct {
	// Dictionary names the dictionary this term belongs to. Services
	// typically keep one dictionary per language or tenant.
	Dictionary string `yaml:"dictionary" json:"dictionary"`

	// Canonical is the correct surface form of the term.
	Canonical string `yaml:"canonical" json:"canonical"`

	// Aliases are known alternative surface forms rewritten to the
	// canonical.
	Aliases []string `yaml:"aliases" json:"aliases"`

	// Keywords, when non-empty, require at least one keyword to occur in
	// the correction context before the term may match.
	Keywords []string `yaml:"keywords" json:"keywords"`

	// ExcludeWhen rejects the term whenever any listed word occurs in the
	// correction context.
	ExcludeWhen []string `yaml:"exclude_when" json:"exclude_when"`

	// Weight in [0, 1] shifts candidate scores in the term's favour.
	Weight float64 `yaml:"weight" json:"weight"`

	// MaxVariants caps the generated fuzzy variants for this term. Zero
	// means the library default.
	MaxVariants int `yaml:"max_variants" json:"max_variants"`

	// CreatedAt is the time the record was first persisted.
	CreatedAt time.Time `json:"created_at" yaml:"-"`

	// UpdatedAt is the time the record was last modified.
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Validate checks the record for logical consistency. It returns a joined
// error describing every violation found, or nil if the record is valid. The
// rules match what corrector constructors accept, so a stored record never
// fails dictionary normalization later.
func (r *TermRecord) Validate() error {
	var errs []error

	if strings.TrimSpace(r.Dictionary) == "" {
		errs = append(errs, fmt.Errorf("termstore: dictionary must not be blank"))
	}
	if strings.TrimSpace(r.Canonical) == "" {
		errs = append(errs, fmt.Errorf("termstore: canonical must not be blank"))
	}
	if r.Weight < 0 || r.Weight > 1 {
		errs = append(errs, fmt.Errorf("termstore: weight must be in [0, 1], got %g", r.Weight))
	}
	if r.MaxVariants < 0 {
		errs = append(errs, fmt.Errorf("termstore: max_variants must not be negative, got %d", r.MaxVariants))
	}
	for i, alias := range r.Aliases {
		if strings.TrimSpace(alias) == "" {
			errs = append(errs, fmt.Errorf("termstore: aliases[%d] is blank", i))
		}
	}

	return errors.Join(errs...)
}

// Config converts the record into the [phonofix.TermConfig] shape used by
// corrector constructors.
func (r *TermRecord) Config() phonofix.TermConfig {
	return phonofix.TermConfig{
		Aliases:     r.Aliases,
		Keywords:    r.Keywords,
		ExcludeWhen: r.ExcludeWhen,
		Weight:      r.Weight,
		MaxVariants: r.MaxVariants,
	}
}

// FromConfig builds a record for the named dictionary from one term dict
// entry.
func FromConfig(dictionary, canonical string, cfg phonofix.TermConfig) *TermRecord {
	return &TermRecord{
		Dictionary:  dictionary,
		Canonical:   canonical,
		Aliases:     cfg.Aliases,
		Keywords:    cfg.Keywords,
		ExcludeWhen: cfg.ExcludeWhen,
		Weight:      cfg.Weight,
		MaxVariants: cfg.MaxVariants,
	}
}
