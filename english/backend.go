// Package english implements IPA-space correction for English text: a
// cached grapheme-to-IPA backend over an espeak-ng subprocess with a
// rule-based builtin fallback, an IPA similarity ladder, a phoneme-level
// variant generator, and the corrector that ties them to the shared
// matching pipeline.
//
// Matching granularity is one word per token and candidate windows span a
// range of token counts around each target's, so the corrector compares
// IPA keys of spans that may split or merge words differently than the
// dictionary does.
package english

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/antzucaro/matchr"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/resilience"
	"github.com/JonesHong/phonofix/internal/textutil"
	"github.com/JonesHong/phonofix/observe"
)

const (
	// defaultCacheSize bounds the IPA key cache of a backend.
	defaultCacheSize = 10_000

	// warmupConcurrency bounds parallel conversions during Warmup.
	warmupConcurrency = 8

	// probeTimeout bounds the converter health probe at construction.
	probeTimeout = 15 * time.Second
)

// EspeakPathEnv overrides espeak binary discovery. When unset the backend
// searches $PATH for espeak-ng, then espeak.
const EspeakPathEnv = "PHONOFIX_ESPEAK_PATH"

// InstallHint is appended to backend-unavailable errors so callers can
// surface an actionable message.
const InstallHint = "install espeak-ng (https://github.com/espeak-ng/espeak-ng) " +
	"and ensure it is on $PATH, or point " + EspeakPathEnv + " at the binary"

// Converter names reported by ConverterName and in logs.
const (
	converterEspeak  = "espeak"
	converterBuiltin = "builtin"
)

// EspeakConverter shells out to an espeak-ng binary for grapheme-to-IPA
// conversion. Each Convert call runs one subprocess bounded by ctx.
type EspeakConverter struct {
	path string
}

var _ phonofix.Converter = (*EspeakConverter)(nil)

// NewEspeakConverter locates the espeak binary via EspeakPathEnv or $PATH.
// A missing binary returns ErrBackendUnavailable with an install hint.
func NewEspeakConverter() (*EspeakConverter, error) {
	if path := os.Getenv(EspeakPathEnv); path != "" {
		if _, err := exec.LookPath(path); err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not executable; %s",
				phonofix.ErrBackendUnavailable, EspeakPathEnv, path, InstallHint)
		}
		return &EspeakConverter{path: path}, nil
	}
	for _, name := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(name); err == nil {
			return &EspeakConverter{path: path}, nil
		}
	}
	return nil, fmt.Errorf("%w: espeak binary not found; %s",
		phonofix.ErrBackendUnavailable, InstallHint)
}

// Name identifies the converter in logs and events.
func (c *EspeakConverter) Name() string { return converterEspeak }

// Convert runs the espeak subprocess and returns its IPA rendering of text.
// The subprocess is killed when ctx expires.
func (c *EspeakConverter) Convert(ctx context.Context, text string) (string, error) {
	cmd := exec.CommandContext(ctx, c.path, "-q", "--ipa", "-v", "en-us", "--", text)
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("english: espeak: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// BuiltinConverter renders words phonetically without an external engine:
// ordered letter-to-sound rules give a pseudo-IPA spine that keeps vowels,
// and the word's DoubleMetaphone primary code rides along so irregular
// spellings the rules mangle still share most of their key. Matching
// quality is below espeak's; the converter exists so degrade-policy
// backends stay functional on hosts without the binary.
type BuiltinConverter struct{}

var _ phonofix.Converter = BuiltinConverter{}

// Name identifies the converter in logs and events.
func (BuiltinConverter) Name() string { return converterBuiltin }

// Convert returns the pseudo-IPA key of text, one word key per whitespace
// field. It never fails; ctx is checked for cancellation only.
func (BuiltinConverter) Convert(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fields := strings.Fields(text)
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, builtinWordKey(f))
	}
	return strings.Join(keys, " "), nil
}

// builtinWordKey joins the rule rendering of one word with its metaphone
// code. The separator keeps the two signals from blending mid-phoneme when
// keys are compared by edit distance.
func builtinWordKey(word string) string {
	sound := lettersToSound(word)
	code, _ := matchr.DoubleMetaphone(word)
	if code == "" {
		return sound
	}
	return sound + "·" + strings.ToLower(code)
}

// lettersToSound applies the longest-match letter rules to word, lowered.
// Characters no rule covers pass through lowercased.
func lettersToSound(word string) string {
	w := strings.ToLower(word)
	var b strings.Builder
	b.Grow(len(w))
	for i := 0; i < len(w); {
		matched := false
		for _, rule := range letterRules {
			if strings.HasPrefix(w[i:], rule.graphemes) {
				b.WriteString(rule.sound)
				i += len(rule.graphemes)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(w[i])
			i++
		}
	}
	return b.String()
}

// BackendConfig configures an English backend.
type BackendConfig struct {
	// CacheSize bounds the IPA key cache. Zero or negative applies the
	// default.
	CacheSize int

	// WithoutFallback restricts the backend to the espeak converter, for
	// callers that require true IPA keys. Construction then fails when
	// the binary is missing instead of degrading to the builtin rules.
	WithoutFallback bool

	// Logger receives converter selection and warmup logs. Nil means
	// slog.Default.
	Logger *slog.Logger
}

// Backend converts English text to IPA keys with an LRU cache in front of
// the converter. The converter is chosen once at construction through a
// fallback group, so every key a backend ever produces lives in one
// phonetic domain; per-call conversions run behind a circuit breaker so a
// wedged subprocess fails fast instead of stalling every window.
type Backend struct {
	conv     phonofix.Converter
	convName string
	breaker  *resilience.CircuitBreaker
	cache    *lru.Cache[string, string]
	capacity int
	metrics  *observe.Metrics
	logger   *slog.Logger

	// espeakErr holds the espeak resolution failure when the builtin
	// converter was selected instead, for install-hint reporting.
	espeakErr error

	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ phonofix.Backend = (*Backend)(nil)

// NewBackend resolves a converter and returns a backend over it. With
// fallback enabled (the default) a missing espeak binary selects the
// builtin converter and the backend reports Degraded; with
// cfg.WithoutFallback the same condition is an error.
func NewBackend(cfg BackendConfig) (*Backend, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "english")

	cache, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	b := &Backend{
		cache:    cache,
		capacity: cfg.CacheSize,
		metrics:  observe.DefaultMetrics(),
		logger:   logger,
	}

	group := resilience.NewFallbackGroup[phonofix.Converter](resilience.BreakerConfig{Logger: logger})
	esp, espErr := NewEspeakConverter()
	if espErr != nil {
		if cfg.WithoutFallback {
			return nil, espErr
		}
		b.espeakErr = espErr
		logger.Warn("espeak unavailable, builtin converter will be probed", "error", espErr)
	} else {
		group.Add(esp.Name(), esp)
	}
	if !cfg.WithoutFallback {
		group.Add(converterBuiltin, BuiltinConverter{})
	}

	probeCtx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	conv, name, err := group.Pick(func(c phonofix.Converter) error {
		_, perr := c.Convert(probeCtx, "hello")
		return perr
	})
	if err != nil {
		return nil, fmt.Errorf("english: no usable converter: %w",
			errors.Join(phonofix.ErrBackendUnavailable, err))
	}

	b.conv = conv
	b.convName = name
	b.breaker = resilience.NewCircuitBreaker(resilience.BreakerConfig{
		Name:   "english-" + name,
		Logger: logger,
	})
	if b.Degraded() {
		logger.Warn("matching in builtin phonetic domain", "converter", name)
	} else {
		logger.Debug("converter selected", "converter", name)
	}
	return b, nil
}

var (
	sharedBackend     *Backend
	sharedBackendOnce sync.Once
)

// Shared returns the process-wide backend, constructing it on first use
// with the default config. The builtin fallback keeps construction from
// failing on hosts without espeak.
func Shared() *Backend {
	sharedBackendOnce.Do(func() {
		b, err := NewBackend(BackendConfig{})
		if err != nil {
			panic("english: shared backend: " + err.Error())
		}
		sharedBackend = b
	})
	return sharedBackend
}

// ToPhonetic returns the IPA key of text: converted, stress-stripped, and
// whitespace-free. Conversion failures wrap ErrFuzzy; callers treat the
// affected span as non-matching.
func (b *Backend) ToPhonetic(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b == nil || b.conv == nil {
		return "", fmt.Errorf("english: %w: backend not initialised; %s",
			phonofix.ErrBackendUnavailable, InstallHint)
	}
	if text == "" {
		return "", nil
	}
	if key, ok := b.cache.Get(text); ok {
		b.hits.Add(1)
		b.metrics.RecordCacheLookup(ctx, "en", true)
		return key, nil
	}
	b.misses.Add(1)
	b.metrics.RecordCacheLookup(ctx, "en", false)

	expanded := expandForSpeech(text)
	var raw string
	err := b.breaker.Execute(func() error {
		var cerr error
		raw, cerr = b.conv.Convert(ctx, expanded)
		return cerr
	})
	if err != nil {
		return "", fmt.Errorf("english: convert %q: %w", text,
			errors.Join(phonofix.ErrFuzzy, err))
	}
	key := stripKeySpacing(raw)
	b.cache.Add(text, key)
	return key, nil
}

// stripKeySpacing removes whitespace and stress marks from a converter's
// output. Distance-time normalisation (length marks, r-coloured vowels)
// stays in normalizeIPA so cached keys keep their discriminating detail.
func stripKeySpacing(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == 'ˈ' || r == 'ˌ' {
			return -1
		}
		return r
	}, raw)
}

// expandForSpeech rewrites text the way it would be read aloud, so keys of
// acronyms and digit-bearing spans line up with their spoken mishearings:
// short all-caps words and known abbreviations become spaced letters, and
// digits become number words. Accents are stripped first so both converters
// see plain ASCII letters.
func expandForSpeech(text string) string {
	text = textutil.StripAccents(text)
	fields := strings.Fields(text)
	for i, f := range fields {
		switch {
		case isUpperAlpha(f) && len(f) <= 5:
			fields[i] = spaceLetters(f)
		case isAlpha(f) && commonAbbreviations[strings.ToLower(f)]:
			fields[i] = spaceLetters(strings.ToUpper(f))
		}
	}
	expanded := strings.Join(fields, " ")
	if strings.ContainsAny(expanded, "0123456789") {
		var sb strings.Builder
		sb.Grow(len(expanded) + 16)
		for _, r := range expanded {
			if w, ok := digitWords[r]; ok {
				sb.WriteString(w)
				sb.WriteByte(' ')
				continue
			}
			sb.WriteRune(r)
		}
		expanded = strings.TrimSpace(sb.String())
	}
	return expanded
}

func spaceLetters(s string) string {
	runes := []rune(s)
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

func isUpperAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// IsInitialized reports whether a converter was selected.
func (b *Backend) IsInitialized() bool { return b != nil && b.conv != nil }

// ConverterName returns the selected converter's name.
func (b *Backend) ConverterName() string {
	if b == nil {
		return ""
	}
	return b.convName
}

// Degraded reports whether the backend fell back to the builtin converter
// because espeak was unavailable.
func (b *Backend) Degraded() bool {
	return b != nil && b.conv != nil && b.convName != converterEspeak
}

// unavailable returns the error explaining why espeak could not be used.
func (b *Backend) unavailable() error {
	if b == nil || b.conv == nil {
		return fmt.Errorf("%w: backend not initialised; %s",
			phonofix.ErrBackendUnavailable, InstallHint)
	}
	if b.espeakErr != nil {
		return b.espeakErr
	}
	return fmt.Errorf("%w: espeak probe failed; %s",
		phonofix.ErrBackendUnavailable, InstallHint)
}

// CacheStats returns a snapshot of the IPA key cache counters.
func (b *Backend) CacheStats() phonofix.CacheStats {
	return phonofix.CacheStats{
		Hits:     b.hits.Load(),
		Misses:   b.misses.Load(),
		Size:     b.cache.Len(),
		Capacity: b.capacity,
	}
}

// Warmup primes the key cache for terms with bounded concurrency.
// Conversion failures on individual terms are logged and skipped; only ctx
// cancellation aborts the batch.
func (b *Backend) Warmup(ctx context.Context, terms []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupConcurrency)
	for _, term := range terms {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := b.ToPhonetic(ctx, term); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				b.logger.Debug("warmup conversion failed", "term", term, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}
