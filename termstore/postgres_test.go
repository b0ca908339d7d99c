package termstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonesHong/phonofix"
)

// ---------------------------------------------------------------------------
// Test helpers: mock DB types
// ---------------------------------------------------------------------------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows for testing.
type mockRows struct {
	data    [][]any
	idx     int
	err     error
	closed  bool
	scanErr error
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = v.([]byte)
		case *float64:
			*d = v.(float64)
		case *int:
			*d = v.(int)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("scan: unsupported type at index %d: %T", i, dest[i])
		}
	}
	return nil
}

func (r *mockRows) Values() ([]any, error) { return nil, nil }

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// ---------------------------------------------------------------------------
// Validate tests
// ---------------------------------------------------------------------------

func TestTermRecord_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rec     TermRecord
		wantErr []string // substrings that must appear in the error
	}{
		{
			name: "valid minimal",
			rec:  TermRecord{Dictionary: "asr-zh", Canonical: "台北車站"},
		},
		{
			name: "valid full",
			rec: TermRecord{
				Dictionary:  "asr-zh",
				Canonical:   "台北車站",
				Aliases:     []string{"北車", "臺北車站"},
				Keywords:    []string{"搭車", "月台"},
				ExcludeWhen: []string{"新竹"},
				Weight:      0.3,
				MaxVariants: 10,
			},
		},
		{
			name: "valid boundary weight 0",
			rec:  TermRecord{Dictionary: "d", Canonical: "c", Weight: 0},
		},
		{
			name: "valid boundary weight 1",
			rec:  TermRecord{Dictionary: "d", Canonical: "c", Weight: 1},
		},
		{
			name:    "blank dictionary",
			rec:     TermRecord{Dictionary: "  ", Canonical: "c"},
			wantErr: []string{"dictionary must not be blank"},
		},
		{
			name:    "blank canonical",
			rec:     TermRecord{Dictionary: "d"},
			wantErr: []string{"canonical must not be blank"},
		},
		{
			name:    "weight too high",
			rec:     TermRecord{Dictionary: "d", Canonical: "c", Weight: 1.5},
			wantErr: []string{"weight must be in [0, 1]"},
		},
		{
			name:    "weight negative",
			rec:     TermRecord{Dictionary: "d", Canonical: "c", Weight: -0.1},
			wantErr: []string{"weight must be in [0, 1]"},
		},
		{
			name:    "negative max variants",
			rec:     TermRecord{Dictionary: "d", Canonical: "c", MaxVariants: -2},
			wantErr: []string{"max_variants must not be negative"},
		},
		{
			name:    "blank alias",
			rec:     TermRecord{Dictionary: "d", Canonical: "c", Aliases: []string{"ok", " "}},
			wantErr: []string{"aliases[1] is blank"},
		},
		{
			name: "multiple errors",
			rec: TermRecord{
				Weight:      2,
				MaxVariants: -1,
				Aliases:     []string{""},
			},
			wantErr: []string{
				"dictionary must not be blank",
				"canonical must not be blank",
				"weight must be in",
				"max_variants",
				"aliases[0]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.rec.Validate()

			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}

			errStr := err.Error()
			for _, want := range tt.wantErr {
				if !strings.Contains(errStr, want) {
					t.Errorf("Validate() error = %q, want substring %q", errStr, want)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Conversion tests
// ---------------------------------------------------------------------------

func TestTermRecord_Config(t *testing.T) {
	t.Parallel()

	rec := TermRecord{
		Dictionary:  "asr-zh",
		Canonical:   "台北車站",
		Aliases:     []string{"北車"},
		Keywords:    []string{"搭車"},
		ExcludeWhen: []string{"新竹"},
		Weight:      0.3,
		MaxVariants: 10,
	}

	cfg := rec.Config()

	assertStringSliceEqual(t, "Aliases", cfg.Aliases, rec.Aliases)
	assertStringSliceEqual(t, "Keywords", cfg.Keywords, rec.Keywords)
	assertStringSliceEqual(t, "ExcludeWhen", cfg.ExcludeWhen, rec.ExcludeWhen)
	if cfg.Weight != rec.Weight {
		t.Errorf("Weight = %g, want %g", cfg.Weight, rec.Weight)
	}
	if cfg.MaxVariants != rec.MaxVariants {
		t.Errorf("MaxVariants = %d, want %d", cfg.MaxVariants, rec.MaxVariants)
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	cfg := phonofix.TermConfig{
		Aliases:     []string{"北車"},
		Keywords:    []string{"搭車"},
		ExcludeWhen: []string{"新竹"},
		Weight:      0.3,
		MaxVariants: 10,
	}

	rec := FromConfig("asr-zh", "台北車站", cfg)

	if rec.Dictionary != "asr-zh" {
		t.Errorf("Dictionary = %q, want 'asr-zh'", rec.Dictionary)
	}
	if rec.Canonical != "台北車站" {
		t.Errorf("Canonical = %q, want '台北車站'", rec.Canonical)
	}
	assertStringSliceEqual(t, "Aliases", rec.Aliases, cfg.Aliases)
	assertStringSliceEqual(t, "Keywords", rec.Keywords, cfg.Keywords)
	assertStringSliceEqual(t, "ExcludeWhen", rec.ExcludeWhen, cfg.ExcludeWhen)
	if rec.Weight != cfg.Weight {
		t.Errorf("Weight = %g, want %g", rec.Weight, cfg.Weight)
	}
	if rec.MaxVariants != cfg.MaxVariants {
		t.Errorf("MaxVariants = %d, want %d", rec.MaxVariants, cfg.MaxVariants)
	}
}

// ---------------------------------------------------------------------------
// PostgresStore tests
// ---------------------------------------------------------------------------

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
				if !strings.Contains(sql, "CREATE TABLE") {
					t.Errorf("Migrate SQL should contain CREATE TABLE, got: %s", sql)
				}
				return pgconn.CommandTag{}, nil
			},
		}
		store := NewPostgresStore(db)
		if err := store.Migrate(context.Background()); err != nil {
			t.Fatalf("Migrate() unexpected error: %v", err)
		}
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, errors.New("connection refused")
			},
		}
		store := NewPostgresStore(db)
		err := store.Migrate(context.Background())
		if err == nil {
			t.Fatal("Migrate() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "termstore: migrate:") {
			t.Errorf("error = %q, want prefix 'termstore: migrate:'", err.Error())
		}
	})
}

func TestPostgresStore_Create(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var capturedSQL string
		var capturedArgs []any

		db := &mockDB{
			queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
				capturedSQL = sql
				capturedArgs = args
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*time.Time)) = fixedTime
						*(dest[1].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		store := NewPostgresStore(db)
		rec := &TermRecord{
			Dictionary: "asr-zh",
			Canonical:  "台北車站",
			Aliases:    []string{"北車"},
			Weight:     0.3,
		}

		err := store.Create(context.Background(), rec)
		if err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}

		if !strings.Contains(capturedSQL, "INSERT INTO term_definitions") {
			t.Errorf("SQL should contain INSERT, got: %s", capturedSQL)
		}
		if len(capturedArgs) != 7 {
			t.Errorf("expected 7 args, got %d", len(capturedArgs))
		}
		if capturedArgs[0] != "asr-zh" {
			t.Errorf("first arg = %v, want 'asr-zh'", capturedArgs[0])
		}
		if capturedArgs[1] != "台北車站" {
			t.Errorf("second arg = %v, want '台北車站'", capturedArgs[1])
		}
		if rec.CreatedAt != fixedTime {
			t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, fixedTime)
		}
		if rec.UpdatedAt != fixedTime {
			t.Errorf("UpdatedAt = %v, want %v", rec.UpdatedAt, fixedTime)
		}
	})

	t.Run("validation error", func(t *testing.T) {
		t.Parallel()
		store := NewPostgresStore(&mockDB{})
		err := store.Create(context.Background(), &TermRecord{Dictionary: "d"})
		if err == nil {
			t.Fatal("Create() expected validation error, got nil")
		}
		if !strings.Contains(err.Error(), "canonical must not be blank") {
			t.Errorf("error = %q, want validation error", err.Error())
		}
	})

	t.Run("duplicate key", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error {
						return &pgconn.PgError{Code: "23505"}
					},
				}
			},
		}
		store := NewPostgresStore(db)
		err := store.Create(context.Background(), &TermRecord{Dictionary: "d", Canonical: "dup"})
		if err == nil {
			t.Fatal("Create() expected duplicate error, got nil")
		}
		if !strings.Contains(err.Error(), "already exists") {
			t.Errorf("error = %q, want 'already exists'", err.Error())
		}
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error {
						return errors.New("connection lost")
					},
				}
			},
		}
		store := NewPostgresStore(db)
		err := store.Create(context.Background(), &TermRecord{Dictionary: "d", Canonical: "c"})
		if err == nil {
			t.Fatal("Create() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "termstore: create:") {
			t.Errorf("error = %q, want prefix 'termstore: create:'", err.Error())
		}
	})

	t.Run("nil slices marshal as empty arrays", func(t *testing.T) {
		t.Parallel()

		var capturedArgs []any
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
				capturedArgs = args
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*time.Time)) = fixedTime
						*(dest[1].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		store := NewPostgresStore(db)
		rec := &TermRecord{Dictionary: "d", Canonical: "c"}
		if err := store.Create(context.Background(), rec); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}

		// aliases, keywords, exclude_when are arg indexes 2-4
		for i := 2; i <= 4; i++ {
			if got := string(capturedArgs[i].([]byte)); got != "[]" {
				t.Errorf("arg %d = %q, want \"[]\"", i, got)
			}
		}
	})
}

func TestPostgresStore_Get(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
				if args[0] != "asr-zh" || args[1] != "台北車站" {
					t.Errorf("Get() args = %v, want [asr-zh 台北車站]", args)
				}
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*string)) = "asr-zh"
						*(dest[1].(*string)) = "台北車站"
						*(dest[2].(*[]byte)) = []byte(`["北車","臺北車站"]`)
						*(dest[3].(*[]byte)) = []byte(`["搭車"]`)
						*(dest[4].(*[]byte)) = []byte(`["新竹"]`)
						*(dest[5].(*float64)) = 0.3
						*(dest[6].(*int)) = 10
						*(dest[7].(*time.Time)) = fixedTime
						*(dest[8].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		store := NewPostgresStore(db)
		rec, err := store.Get(context.Background(), "asr-zh", "台北車站")
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if rec == nil {
			t.Fatal("Get() returned nil, want record")
		}
		if rec.Canonical != "台北車站" {
			t.Errorf("Canonical = %q, want '台北車站'", rec.Canonical)
		}
		assertStringSliceEqual(t, "Aliases", rec.Aliases, []string{"北車", "臺北車站"})
		assertStringSliceEqual(t, "Keywords", rec.Keywords, []string{"搭車"})
		assertStringSliceEqual(t, "ExcludeWhen", rec.ExcludeWhen, []string{"新竹"})
		if rec.Weight != 0.3 {
			t.Errorf("Weight = %g, want 0.3", rec.Weight)
		}
		if rec.MaxVariants != 10 {
			t.Errorf("MaxVariants = %d, want 10", rec.MaxVariants)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error { return pgx.ErrNoRows },
				}
			},
		}
		store := NewPostgresStore(db)
		rec, err := store.Get(context.Background(), "asr-zh", "missing")
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if rec != nil {
			t.Errorf("Get() = %v, want nil for missing term", rec)
		}
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error { return errors.New("timeout") },
				}
			},
		}
		store := NewPostgresStore(db)
		_, err := store.Get(context.Background(), "asr-zh", "台北車站")
		if err == nil {
			t.Fatal("Get() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "termstore: get") {
			t.Errorf("error = %q, want prefix 'termstore: get'", err.Error())
		}
	})
}

func TestPostgresStore_Update(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
				if !strings.Contains(sql, "UPDATE term_definitions") {
					t.Errorf("Update SQL should contain UPDATE, got: %s", sql)
				}
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		store := NewPostgresStore(db)
		rec := &TermRecord{Dictionary: "asr-zh", Canonical: "台北車站", Weight: 0.5}
		err := store.Update(context.Background(), rec)
		if err != nil {
			t.Fatalf("Update() unexpected error: %v", err)
		}
		if rec.UpdatedAt != fixedTime {
			t.Errorf("UpdatedAt = %v, want %v", rec.UpdatedAt, fixedTime)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error { return pgx.ErrNoRows },
				}
			},
		}
		store := NewPostgresStore(db)
		err := store.Update(context.Background(), &TermRecord{Dictionary: "d", Canonical: "missing"})
		if err == nil {
			t.Fatal("Update() expected error for missing term")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("error = %q, want 'not found'", err.Error())
		}
	})

	t.Run("validation error", func(t *testing.T) {
		t.Parallel()
		store := NewPostgresStore(&mockDB{})
		err := store.Update(context.Background(), &TermRecord{Dictionary: "d", Canonical: "c", Weight: 3})
		if err == nil {
			t.Fatal("Update() expected validation error")
		}
		if !strings.Contains(err.Error(), "weight must be in") {
			t.Errorf("error = %q, want validation error", err.Error())
		}
	})
}

func TestPostgresStore_Delete(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var capturedSQL string
		var capturedArgs []any
		db := &mockDB{
			execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				capturedSQL = sql
				capturedArgs = args
				return pgconn.CommandTag{}, nil
			},
		}

		store := NewPostgresStore(db)
		err := store.Delete(context.Background(), "asr-zh", "台北車站")
		if err != nil {
			t.Fatalf("Delete() unexpected error: %v", err)
		}
		if !strings.Contains(capturedSQL, "DELETE FROM term_definitions") {
			t.Errorf("SQL = %q, want DELETE statement", capturedSQL)
		}
		if len(capturedArgs) != 2 || capturedArgs[0] != "asr-zh" || capturedArgs[1] != "台北車站" {
			t.Errorf("args = %v, want [asr-zh 台北車站]", capturedArgs)
		}
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, errors.New("disk full")
			},
		}
		store := NewPostgresStore(db)
		err := store.Delete(context.Background(), "asr-zh", "台北車站")
		if err == nil {
			t.Fatal("Delete() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "termstore: delete") {
			t.Errorf("error = %q, want prefix 'termstore: delete'", err.Error())
		}
	})
}

func TestPostgresStore_List(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	makeRow := func(dictionary, canonical string) []any {
		return []any{
			dictionary,   // dictionary
			canonical,    // canonical
			[]byte(`[]`), // aliases
			[]byte(`[]`), // keywords
			[]byte(`[]`), // exclude_when
			0.0,          // weight
			0,            // max_variants
			fixedTime,    // created_at
			fixedTime,    // updated_at
		}
	}

	t.Run("all", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
				if strings.Contains(sql, "WHERE dictionary") {
					t.Error("List all should not filter by dictionary")
				}
				if len(args) != 0 {
					t.Errorf("List all should have 0 args, got %d", len(args))
				}
				return &mockRows{
					data: [][]any{
						makeRow("asr-en", "Python"),
						makeRow("asr-zh", "台北車站"),
					},
				}, nil
			},
		}

		store := NewPostgresStore(db)
		recs, err := store.List(context.Background(), "")
		if err != nil {
			t.Fatalf("List() unexpected error: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("List() returned %d records, want 2", len(recs))
		}
		if recs[0].Canonical != "Python" {
			t.Errorf("recs[0].Canonical = %q, want 'Python'", recs[0].Canonical)
		}
		if recs[1].Canonical != "台北車站" {
			t.Errorf("recs[1].Canonical = %q, want '台北車站'", recs[1].Canonical)
		}
	})

	t.Run("filtered by dictionary", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
				if !strings.Contains(sql, "WHERE dictionary") {
					t.Error("List filtered should contain WHERE dictionary")
				}
				if len(args) != 1 || args[0] != "asr-zh" {
					t.Errorf("args = %v, want [asr-zh]", args)
				}
				return &mockRows{
					data: [][]any{
						makeRow("asr-zh", "台北車站"),
					},
				}, nil
			},
		}

		store := NewPostgresStore(db)
		recs, err := store.List(context.Background(), "asr-zh")
		if err != nil {
			t.Fatalf("List() unexpected error: %v", err)
		}
		if len(recs) != 1 {
			t.Fatalf("List() returned %d records, want 1", len(recs))
		}
	})

	t.Run("empty result", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
				return &mockRows{}, nil
			},
		}

		store := NewPostgresStore(db)
		recs, err := store.List(context.Background(), "")
		if err != nil {
			t.Fatalf("List() unexpected error: %v", err)
		}
		if recs != nil {
			t.Errorf("List() = %v, want nil for empty result", recs)
		}
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
				return nil, errors.New("connection reset")
			},
		}

		store := NewPostgresStore(db)
		_, err := store.List(context.Background(), "")
		if err == nil {
			t.Fatal("List() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "termstore: list:") {
			t.Errorf("error = %q, want prefix 'termstore: list:'", err.Error())
		}
	})

	t.Run("rows error after iteration", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
				return &mockRows{err: errors.New("stream interrupted")}, nil
			},
		}

		store := NewPostgresStore(db)
		_, err := store.List(context.Background(), "")
		if err == nil {
			t.Fatal("List() expected error from rows.Err()")
		}
		if !strings.Contains(err.Error(), "termstore: list:") {
			t.Errorf("error = %q, want prefix 'termstore: list:'", err.Error())
		}
	})
}

func TestPostgresStore_Upsert(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var capturedSQL string
		db := &mockDB{
			queryRowFunc: func(_ context.Context, sql string, _ ...any) pgx.Row {
				capturedSQL = sql
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*time.Time)) = fixedTime
						*(dest[1].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		store := NewPostgresStore(db)
		rec := &TermRecord{Dictionary: "asr-zh", Canonical: "台北車站"}
		err := store.Upsert(context.Background(), rec)
		if err != nil {
			t.Fatalf("Upsert() unexpected error: %v", err)
		}
		if !strings.Contains(capturedSQL, "ON CONFLICT") {
			t.Errorf("SQL should contain ON CONFLICT, got: %s", capturedSQL)
		}
		if rec.CreatedAt != fixedTime {
			t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, fixedTime)
		}
	})

	t.Run("validation error", func(t *testing.T) {
		t.Parallel()
		store := NewPostgresStore(&mockDB{})
		err := store.Upsert(context.Background(), &TermRecord{})
		if err == nil {
			t.Fatal("Upsert() expected validation error")
		}
	})

	t.Run("db error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error { return errors.New("deadlock") },
				}
			},
		}
		store := NewPostgresStore(db)
		err := store.Upsert(context.Background(), &TermRecord{Dictionary: "d", Canonical: "c"})
		if err == nil {
			t.Fatal("Upsert() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "termstore: upsert:") {
			t.Errorf("error = %q, want prefix 'termstore: upsert:'", err.Error())
		}
	})
}

// ---------------------------------------------------------------------------
// LoadDict / ImportDict tests
// ---------------------------------------------------------------------------

func TestLoadDict(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("builds dict", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
				if len(args) != 1 || args[0] != "asr-zh" {
					t.Errorf("args = %v, want [asr-zh]", args)
				}
				return &mockRows{
					data: [][]any{
						{
							"asr-zh", "Python",
							[]byte(`[]`), []byte(`[]`), []byte(`[]`),
							0.0, 0, fixedTime, fixedTime,
						},
						{
							"asr-zh", "台北車站",
							[]byte(`["北車"]`), []byte(`["搭車"]`), []byte(`["新竹"]`),
							0.3, 10, fixedTime, fixedTime,
						},
					},
				}, nil
			},
		}

		store := NewPostgresStore(db)
		dict, err := LoadDict(context.Background(), store, "asr-zh")
		if err != nil {
			t.Fatalf("LoadDict() unexpected error: %v", err)
		}
		if len(dict) != 2 {
			t.Fatalf("LoadDict() returned %d entries, want 2", len(dict))
		}

		cfg, ok := dict["台北車站"]
		if !ok {
			t.Fatal("dict missing 台北車站")
		}
		assertStringSliceEqual(t, "Aliases", cfg.Aliases, []string{"北車"})
		assertStringSliceEqual(t, "Keywords", cfg.Keywords, []string{"搭車"})
		assertStringSliceEqual(t, "ExcludeWhen", cfg.ExcludeWhen, []string{"新竹"})
		if cfg.Weight != 0.3 {
			t.Errorf("Weight = %g, want 0.3", cfg.Weight)
		}
		if cfg.MaxVariants != 10 {
			t.Errorf("MaxVariants = %d, want 10", cfg.MaxVariants)
		}

		plain, ok := dict["Python"]
		if !ok {
			t.Fatal("dict missing Python")
		}
		if len(plain.Aliases) != 0 || plain.Weight != 0 || plain.MaxVariants != 0 {
			t.Errorf("Python entry = %+v, want zero metadata", plain)
		}
	})

	t.Run("empty dictionary name", func(t *testing.T) {
		t.Parallel()
		store := NewPostgresStore(&mockDB{})
		_, err := LoadDict(context.Background(), store, "")
		if err == nil {
			t.Fatal("LoadDict() expected error for empty dictionary")
		}
		if !strings.Contains(err.Error(), "dictionary must not be empty") {
			t.Errorf("error = %q, want 'dictionary must not be empty'", err.Error())
		}
	})

	t.Run("list error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryFunc: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
				return nil, errors.New("connection reset")
			},
		}
		store := NewPostgresStore(db)
		_, err := LoadDict(context.Background(), store, "asr-zh")
		if err == nil {
			t.Fatal("LoadDict() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "termstore: list:") {
			t.Errorf("error = %q, want prefix 'termstore: list:'", err.Error())
		}
	})
}

func TestImportDict(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	t.Run("upserts in canonical order", func(t *testing.T) {
		t.Parallel()

		var order []string
		db := &mockDB{
			queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
				if !strings.Contains(sql, "ON CONFLICT") {
					t.Errorf("ImportDict should upsert, got SQL: %s", sql)
				}
				order = append(order, args[1].(string))
				return &mockRow{
					scanFunc: func(dest ...any) error {
						*(dest[0].(*time.Time)) = fixedTime
						*(dest[1].(*time.Time)) = fixedTime
						return nil
					},
				}
			},
		}

		store := NewPostgresStore(db)
		dict := phonofix.TermDict{
			"Asahi":  {Weight: 0.2},
			"Python": {},
			"台北車站": {Aliases: []string{"北車"}},
		}

		if err := ImportDict(context.Background(), store, "asr-zh", dict); err != nil {
			t.Fatalf("ImportDict() unexpected error: %v", err)
		}

		want := []string{"Asahi", "Python", "台北車站"}
		assertStringSliceEqual(t, "order", order, want)
	})

	t.Run("empty dictionary name", func(t *testing.T) {
		t.Parallel()
		store := NewPostgresStore(&mockDB{})
		err := ImportDict(context.Background(), store, "", phonofix.TermDict{"x": {}})
		if err == nil {
			t.Fatal("ImportDict() expected error for empty dictionary")
		}
		if !strings.Contains(err.Error(), "dictionary must not be empty") {
			t.Errorf("error = %q, want 'dictionary must not be empty'", err.Error())
		}
	})

	t.Run("upsert error stops import", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{
			queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
				return &mockRow{
					scanFunc: func(_ ...any) error { return errors.New("deadlock") },
				}
			},
		}
		store := NewPostgresStore(db)
		err := ImportDict(context.Background(), store, "asr-zh", phonofix.TermDict{"x": {}})
		if err == nil {
			t.Fatal("ImportDict() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "termstore: upsert:") {
			t.Errorf("error = %q, want prefix 'termstore: upsert:'", err.Error())
		}
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestEmptySlice(t *testing.T) {
	t.Parallel()

	t.Run("nil returns empty", func(t *testing.T) {
		t.Parallel()
		result := emptySlice(nil)
		if result == nil || len(result) != 0 {
			t.Errorf("emptySlice(nil) = %v, want []", result)
		}
	})

	t.Run("non-nil passes through", func(t *testing.T) {
		t.Parallel()
		input := []string{"a", "b"}
		result := emptySlice(input)
		if len(result) != 2 {
			t.Errorf("emptySlice(input) len = %d, want 2", len(result))
		}
	})
}

// assertStringSliceEqual compares two string slices for equality, treating nil
// and empty as equivalent.
func assertStringSliceEqual(t *testing.T, name string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s: len = %d, want %d", name, len(got), len(want))
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("%s[%d] = %q, want %q", name, i, got[i], want[i])
		}
	}
}
