package phonofix

import "context"

// Token is one matchable unit produced by a Tokenizer. Start and End are
// byte offsets into the tokenized text, so string slicing recovers the
// surface exactly.
type Token struct {
	Surface string
	Start   int
	End     int
}

// Tokenizer maps a text segment to a sequence of matchable units.
// Character-granularity languages emit one unit per relevant code point;
// word-granularity languages split on whitespace and punctuation. Units
// cover the input without overlap.
type Tokenizer interface {
	Tokenize(text string) []Token
}

// Converter is the raw grapheme-to-phonetic boundary under a Backend. A
// Backend composes the Converter with caching and failure handling; code
// above the Backend never calls a Converter directly.
type Converter interface {
	// Name identifies the conversion strategy in logs and degraded events.
	Name() string

	// Convert returns the phonetic representation of text. Implementations
	// backed by an external process honour ctx cancellation.
	Convert(ctx context.Context, text string) (string, error)
}

// Backend is the per-language phonetic conversion service: deterministic
// text to phonetic-key mapping with memoisation. Backends are process-wide
// singletons, expensive to construct and safe for concurrent use.
type Backend interface {
	// ToPhonetic converts text to its phonetic key. Results are cached by
	// input string; repeated conversions of warm inputs never touch the
	// underlying Converter.
	ToPhonetic(ctx context.Context, text string) (string, error)

	// IsInitialized reports whether the underlying converter is usable.
	IsInitialized() bool

	// CacheStats returns a snapshot of the key cache counters.
	CacheStats() CacheStats

	// Warmup primes the cache for a term list ahead of the first Correct
	// call. Conversion failures on individual terms are not fatal.
	Warmup(ctx context.Context, terms []string) error
}

// Corrector rewrites phonetically confusable spans of text to their
// canonical surface forms. Implementations are cheap to build, immutable
// after construction, and safe for concurrent use.
//
// Correct returns the rewritten text and the events emitted during the
// call. The error return covers context cancellation and resource-limit
// violations only; content-level failures degrade to non-matches and are
// reported through events.
type Corrector interface {
	Correct(ctx context.Context, text string, opts ...CorrectOption) (string, []Event, error)
}
