package english

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/resilience"
	"github.com/JonesHong/phonofix/observe"
)

// stubConverter returns canned keys and fails on anything unmapped, so tests
// control the phonetic domain without an espeak binary.
type stubConverter struct {
	keys map[string]string
}

func (s stubConverter) Name() string { return "stub" }

func (s stubConverter) Convert(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, ok := s.keys[text]
	if !ok {
		return "", fmt.Errorf("stub: no key for %q", text)
	}
	return key, nil
}

// failingConverter errors on every conversion.
type failingConverter struct{}

func (failingConverter) Name() string { return "failing" }

func (failingConverter) Convert(ctx context.Context, text string) (string, error) {
	return "", errors.New("converter down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestBackend wires a backend over an injected converter, skipping the
// discovery and probing NewBackend performs.
func newTestBackend(t *testing.T, conv phonofix.Converter, name string) *Backend {
	t.Helper()
	cache, err := lru.New[string, string](128)
	if err != nil {
		t.Fatalf("lru.New: %v", err)
	}
	return &Backend{
		conv:     conv,
		convName: name,
		breaker: resilience.NewCircuitBreaker(resilience.BreakerConfig{
			Name:   "test-" + name,
			Logger: discardLogger(),
		}),
		cache:    cache,
		capacity: 128,
		metrics:  observe.DefaultMetrics(),
		logger:   discardLogger(),
	}
}

func newBuiltinBackend(t *testing.T) *Backend {
	t.Helper()
	return newTestBackend(t, BuiltinConverter{}, converterBuiltin)
}

func TestNewBackendAlwaysSelectsAConverter(t *testing.T) {
	b, err := NewBackend(BackendConfig{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if !b.IsInitialized() {
		t.Fatal("backend not initialised")
	}
	if name := b.ConverterName(); name != converterEspeak && name != converterBuiltin {
		t.Fatalf("unexpected converter %q", name)
	}
}

func TestNewEspeakConverterBadEnvPath(t *testing.T) {
	t.Setenv(EspeakPathEnv, "/nonexistent/espeak-ng")
	_, err := NewEspeakConverter()
	if !errors.Is(err, phonofix.ErrBackendUnavailable) {
		t.Fatalf("want ErrBackendUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), InstallHint) {
		t.Fatalf("error lacks install hint: %v", err)
	}
}

func TestLettersToSound(t *testing.T) {
	cases := []struct{ word, want string }{
		{"chat", "tʃæt"},
		{"quick", "kwɪk"},
		{"nation", "næʃən"},
		{"photo", "fɑtɑ"},
		{"Knee", "ni"},
		{"x1", "ks1"},
	}
	for _, tc := range cases {
		if got := lettersToSound(tc.word); got != tc.want {
			t.Fatalf("lettersToSound(%q) = %q, want %q", tc.word, got, tc.want)
		}
	}
}

func TestBuiltinWordKeyCarriesMetaphone(t *testing.T) {
	key := builtinWordKey("chat")
	if !strings.HasPrefix(key, "tʃæt") {
		t.Fatalf("key %q lacks the rule rendering", key)
	}
	if !strings.Contains(key, "·") {
		t.Fatalf("key %q lacks the metaphone separator", key)
	}
}

func TestBuiltinConverterHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (BuiltinConverter{}).Convert(ctx, "hello"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestStripKeySpacing(t *testing.T) {
	if got := stripKeySpacing("ˈtɛn ˌsoʊ\tflɔː"); got != "tɛnsoʊflɔː" {
		t.Fatalf("stripKeySpacing = %q", got)
	}
}

func TestExpandForSpeech(t *testing.T) {
	cases := []struct{ in, want string }{
		{"AWS", "A W S"},
		{"api", "A P I"},
		{"room 42", "room four two"},
		{"TensorFlow", "TensorFlow"},
		{"café", "cafe"},
	}
	for _, tc := range cases {
		if got := expandForSpeech(tc.in); got != tc.want {
			t.Fatalf("expandForSpeech(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestToPhoneticCachesKeys(t *testing.T) {
	b := newBuiltinBackend(t)
	ctx := context.Background()

	first, err := b.ToPhonetic(ctx, "chat")
	if err != nil {
		t.Fatalf("ToPhonetic: %v", err)
	}
	if first == "" || strings.ContainsAny(first, " \t") {
		t.Fatalf("key %q not normalised", first)
	}
	second, err := b.ToPhonetic(ctx, "chat")
	if err != nil {
		t.Fatalf("ToPhonetic (cached): %v", err)
	}
	if first != second {
		t.Fatalf("cache returned different key: %q vs %q", first, second)
	}

	stats := b.CacheStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Fatalf("stats = %+v, want one hit, one miss, one entry", stats)
	}
	if stats.Capacity != 128 {
		t.Fatalf("capacity = %d, want 128", stats.Capacity)
	}
}

func TestToPhoneticEmptyInput(t *testing.T) {
	b := newBuiltinBackend(t)
	key, err := b.ToPhonetic(context.Background(), "")
	if err != nil || key != "" {
		t.Fatalf("ToPhonetic(\"\") = %q, %v; want empty, nil", key, err)
	}
	if stats := b.CacheStats(); stats.Size != 0 {
		t.Fatalf("empty input must not be cached: %+v", stats)
	}
}

func TestToPhoneticWrapsConversionFailures(t *testing.T) {
	b := newTestBackend(t, failingConverter{}, converterEspeak)
	_, err := b.ToPhonetic(context.Background(), "anything")
	if !errors.Is(err, phonofix.ErrFuzzy) {
		t.Fatalf("want ErrFuzzy, got %v", err)
	}
}

func TestToPhoneticBreakerOpensAfterRepeatedFailures(t *testing.T) {
	b := newTestBackend(t, failingConverter{}, converterEspeak)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if _, err := b.ToPhonetic(ctx, "anything"); !errors.Is(err, phonofix.ErrFuzzy) {
			t.Fatalf("call %d: want ErrFuzzy, got %v", i, err)
		}
	}
	if _, err := b.ToPhonetic(ctx, "anything"); !errors.Is(err, resilience.ErrOpen) {
		t.Fatalf("breaker should be open, got %v", err)
	}
}

func TestBackendDegraded(t *testing.T) {
	if b := newBuiltinBackend(t); !b.Degraded() {
		t.Fatal("builtin backend must report degraded")
	}
	if b := newTestBackend(t, stubConverter{}, converterEspeak); b.Degraded() {
		t.Fatal("espeak backend must not report degraded")
	}
}

func TestWarmupPrimesCache(t *testing.T) {
	b := newBuiltinBackend(t)
	terms := []string{"chat", "quick", "nation"}
	if err := b.Warmup(context.Background(), terms); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	if stats := b.CacheStats(); stats.Size != len(terms) {
		t.Fatalf("cache size = %d, want %d", stats.Size, len(terms))
	}
	// Subsequent conversions hit the cache.
	before := b.CacheStats().Hits
	if _, err := b.ToPhonetic(context.Background(), "chat"); err != nil {
		t.Fatalf("ToPhonetic: %v", err)
	}
	if after := b.CacheStats().Hits; after != before+1 {
		t.Fatalf("hits = %d, want %d", after, before+1)
	}
}

func TestWarmupSkipsFailedTerms(t *testing.T) {
	b := newTestBackend(t, stubConverter{keys: map[string]string{"good": "k1"}}, converterEspeak)
	if err := b.Warmup(context.Background(), []string{"good", "bad"}); err != nil {
		t.Fatalf("Warmup must skip conversion failures, got %v", err)
	}
	if stats := b.CacheStats(); stats.Size != 1 {
		t.Fatalf("cache size = %d, want 1", stats.Size)
	}
}

func TestWarmupHonoursContext(t *testing.T) {
	b := newBuiltinBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Warmup(ctx, []string{"chat", "quick"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
