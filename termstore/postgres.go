package termstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the term_definitions table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment. The
// composite primary key doubles as the per-dictionary index.
const Schema = `
CREATE TABLE IF NOT EXISTS term_definitions (
    dictionary   TEXT NOT NULL,
    canonical    TEXT NOT NULL,
    aliases      JSONB NOT NULL DEFAULT '[]',
    keywords     JSONB NOT NULL DEFAULT '[]',
    exclude_when JSONB NOT NULL DEFAULT '[]',
    weight       DOUBLE PRECISION NOT NULL DEFAULT 0,
    max_variants INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (dictionary, canonical)
);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
// It serialises the list-valued fields (aliases, keywords, exclusions) as
// JSONB.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// term_definitions table if it does not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("termstore: migrate: %w", err)
	}
	return nil
}

// Create inserts a new term record. It validates the record and returns an
// error if the (dictionary, canonical) pair already exists.
func (s *PostgresStore) Create(ctx context.Context, rec *TermRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	aliasesJSON, keywordsJSON, excludeJSON, err := marshalLists(rec)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO term_definitions (
			dictionary, canonical, aliases, keywords, exclude_when,
			weight, max_variants
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`

	err = s.db.QueryRow(ctx, query,
		rec.Dictionary, rec.Canonical, aliasesJSON, keywordsJSON, excludeJSON,
		rec.Weight, rec.MaxVariants,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("termstore: term %q already exists in dictionary %q", rec.Canonical, rec.Dictionary)
		}
		return fmt.Errorf("termstore: create: %w", err)
	}
	return nil
}

// Get retrieves a term record by dictionary and canonical. It returns
// (nil, nil) if no such record exists.
func (s *PostgresStore) Get(ctx context.Context, dictionary, canonical string) (*TermRecord, error) {
	const query = `
		SELECT dictionary, canonical, aliases, keywords, exclude_when,
		       weight, max_variants, created_at, updated_at
		FROM term_definitions
		WHERE dictionary = $1 AND canonical = $2`

	var rec TermRecord
	var aliasesJSON, keywordsJSON, excludeJSON []byte

	err := s.db.QueryRow(ctx, query, dictionary, canonical).Scan(
		&rec.Dictionary, &rec.Canonical, &aliasesJSON, &keywordsJSON, &excludeJSON,
		&rec.Weight, &rec.MaxVariants, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("termstore: get %q/%q: %w", dictionary, canonical, err)
	}

	if err := unmarshalLists(&rec, aliasesJSON, keywordsJSON, excludeJSON); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update replaces an existing term record. It validates the new record and
// returns an error if the record is not found.
func (s *PostgresStore) Update(ctx context.Context, rec *TermRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	aliasesJSON, keywordsJSON, excludeJSON, err := marshalLists(rec)
	if err != nil {
		return err
	}

	const query = `
		UPDATE term_definitions SET
			aliases = $3, keywords = $4, exclude_when = $5,
			weight = $6, max_variants = $7, updated_at = now()
		WHERE dictionary = $1 AND canonical = $2
		RETURNING updated_at`

	err = s.db.QueryRow(ctx, query,
		rec.Dictionary, rec.Canonical, aliasesJSON, keywordsJSON, excludeJSON,
		rec.Weight, rec.MaxVariants,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("termstore: term %q not found in dictionary %q", rec.Canonical, rec.Dictionary)
		}
		return fmt.Errorf("termstore: update: %w", err)
	}
	return nil
}

// Delete removes a term record. Deleting a non-existent record is not an
// error.
func (s *PostgresStore) Delete(ctx context.Context, dictionary, canonical string) error {
	const query = `DELETE FROM term_definitions WHERE dictionary = $1 AND canonical = $2`
	_, err := s.db.Exec(ctx, query, dictionary, canonical)
	if err != nil {
		return fmt.Errorf("termstore: delete %q/%q: %w", dictionary, canonical, err)
	}
	return nil
}

// List returns all term records, optionally filtered by dictionary. An empty
// dictionary returns records from every dictionary.
func (s *PostgresStore) List(ctx context.Context, dictionary string) ([]TermRecord, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if dictionary == "" {
		const query = `
			SELECT dictionary, canonical, aliases, keywords, exclude_when,
			       weight, max_variants, created_at, updated_at
			FROM term_definitions
			ORDER BY dictionary, canonical`
		rows, err = s.db.Query(ctx, query)
	} else {
		const query = `
			SELECT dictionary, canonical, aliases, keywords, exclude_when,
			       weight, max_variants, created_at, updated_at
			FROM term_definitions
			WHERE dictionary = $1
			ORDER BY canonical`
		rows, err = s.db.Query(ctx, query, dictionary)
	}
	if err != nil {
		return nil, fmt.Errorf("termstore: list: %w", err)
	}
	defer rows.Close()

	var recs []TermRecord
	for rows.Next() {
		var rec TermRecord
		var aliasesJSON, keywordsJSON, excludeJSON []byte

		if err := rows.Scan(
			&rec.Dictionary, &rec.Canonical, &aliasesJSON, &keywordsJSON, &excludeJSON,
			&rec.Weight, &rec.MaxVariants, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("termstore: list scan: %w", err)
		}

		if err := unmarshalLists(&rec, aliasesJSON, keywordsJSON, excludeJSON); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("termstore: list: %w", err)
	}
	return recs, nil
}

// Upsert creates or replaces a term record. This is how [ImportDict] seeds
// the database from config-file dictionaries. The record is validated before
// persistence.
func (s *PostgresStore) Upsert(ctx context.Context, rec *TermRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	aliasesJSON, keywordsJSON, excludeJSON, err := marshalLists(rec)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO term_definitions (
			dictionary, canonical, aliases, keywords, exclude_when,
			weight, max_variants
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (dictionary, canonical) DO UPDATE SET
			aliases = EXCLUDED.aliases,
			keywords = EXCLUDED.keywords,
			exclude_when = EXCLUDED.exclude_when,
			weight = EXCLUDED.weight,
			max_variants = EXCLUDED.max_variants,
			updated_at = now()
		RETURNING created_at, updated_at`

	err = s.db.QueryRow(ctx, query,
		rec.Dictionary, rec.Canonical, aliasesJSON, keywordsJSON, excludeJSON,
		rec.Weight, rec.MaxVariants,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("termstore: upsert: %w", err)
	}
	return nil
}

// marshalLists serialises the list columns, substituting empty JSON arrays
// for nil slices so the columns never hold "null".
func marshalLists(rec *TermRecord) (aliases, keywords, exclude []byte, err error) {
	if aliases, err = json.Marshal(emptySlice(rec.Aliases)); err != nil {
		return nil, nil, nil, fmt.Errorf("termstore: marshal aliases: %w", err)
	}
	if keywords, err = json.Marshal(emptySlice(rec.Keywords)); err != nil {
		return nil, nil, nil, fmt.Errorf("termstore: marshal keywords: %w", err)
	}
	if exclude, err = json.Marshal(emptySlice(rec.ExcludeWhen)); err != nil {
		return nil, nil, nil, fmt.Errorf("termstore: marshal exclude_when: %w", err)
	}
	return aliases, keywords, exclude, nil
}

// unmarshalLists deserialises the JSONB columns into the corresponding
// [TermRecord] fields.
func unmarshalLists(rec *TermRecord, aliases, keywords, exclude []byte) error {
	if err := json.Unmarshal(aliases, &rec.Aliases); err != nil {
		return fmt.Errorf("termstore: unmarshal aliases: %w", err)
	}
	if err := json.Unmarshal(keywords, &rec.Keywords); err != nil {
		return fmt.Errorf("termstore: unmarshal keywords: %w", err)
	}
	if err := json.Unmarshal(exclude, &rec.ExcludeWhen); err != nil {
		return fmt.Errorf("termstore: unmarshal exclude_when: %w", err)
	}
	return nil
}

// emptySlice returns s if non-nil, otherwise an empty non-nil slice. This
// ensures JSON marshalling produces "[]" instead of "null".
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// isDuplicateKeyError checks whether a PostgreSQL error is a unique-violation
// (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
