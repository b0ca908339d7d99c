package termstore

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/JonesHong/phonofix"
)

// Store provides CRUD operations for term records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create inserts a new term record. The record is validated before
	// insertion. Returns an error if the (dictionary, canonical) pair
	// already exists.
	Create(ctx context.Context, rec *TermRecord) error

	// Get retrieves a term record by dictionary and canonical. Returns
	// (nil, nil) if not found.
	Get(ctx context.Context, dictionary, canonical string) (*TermRecord, error)

	// Update replaces an existing term record. The record is validated
	// before the update. Returns an error if the record is not found.
	Update(ctx context.Context, rec *TermRecord) error

	// Delete removes a term record. Deleting a non-existent record is not
	// an error.
	Delete(ctx context.Context, dictionary, canonical string) error

	// List returns all term records, optionally filtered by dictionary.
	// An empty dictionary returns records from every dictionary.
	List(ctx context.Context, dictionary string) ([]TermRecord, error)

	// Upsert creates or replaces a term record (useful for importing
	// config-file dictionaries). The record is validated before
	// persistence.
	Upsert(ctx context.Context, rec *TermRecord) error
}

// LoadDict fetches every term in the named dictionary and assembles the
// [phonofix.TermDict] handed to corrector constructors.
func LoadDict(ctx context.Context, s Store, dictionary string) (phonofix.TermDict, error) {
	if dictionary == "" {
		return nil, errors.New("termstore: load: dictionary must not be empty")
	}
	recs, err := s.List(ctx, dictionary)
	if err != nil {
		return nil, err
	}
	dict := make(phonofix.TermDict, len(recs))
	for i := range recs {
		dict[recs[i].Canonical] = recs[i].Config()
	}
	return dict, nil
}

// ImportDict upserts every entry of dict into the named dictionary, in
// canonical order. Records for canonicals absent from dict are left alone;
// use [Store.Delete] to retire terms.
func ImportDict(ctx context.Context, s Store, dictionary string, dict phonofix.TermDict) error {
	if dictionary == "" {
		return errors.New("termstore: import: dictionary must not be empty")
	}
	for _, canonical := range slices.Sorted(maps.Keys(dict)) {
		if err := s.Upsert(ctx, FromConfig(dictionary, canonical, dict[canonical])); err != nil {
			return err
		}
	}
	return nil
}
