package chinese

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testBackend returns the shared backend so every test reuses one syllable
// cache. Tests that assert cache counters construct private backends instead.
func testBackend(t *testing.T) *Backend {
	t.Helper()
	return Shared()
}

func TestNewBackendInitialises(t *testing.T) {
	b, err := NewBackend(0)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if !b.IsInitialized() {
		t.Fatal("backend not initialised")
	}
	if got := b.CacheStats().Capacity; got != defaultCacheSize {
		t.Fatalf("capacity = %d, want %d", got, defaultCacheSize)
	}
}

func TestSharedReturnsOneBackend(t *testing.T) {
	if Shared() != Shared() {
		t.Fatal("Shared returned two backends")
	}
}

func TestToPhoneticKeys(t *testing.T) {
	b := testBackend(t)
	cases := []struct{ text, want string }{
		{"", ""},
		{"台北車站", "taibeichezhan"},
		{"你好", "nihao"},
		{"高雄", "gaoxiong"},
		{"志明", "zhiming"},
		{"GPT模型", "gptmoxing"},
		{"hello", "hello"},
		{"GPU", "gpu"},
	}
	for _, tc := range cases {
		got, err := b.ToPhonetic(context.Background(), tc.text)
		if err != nil {
			t.Fatalf("ToPhonetic(%q): %v", tc.text, err)
		}
		if got != tc.want {
			t.Fatalf("ToPhonetic(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestSyllablesMergeNonHanRuns(t *testing.T) {
	b := testBackend(t)
	cases := []struct {
		text string
		want []string
	}{
		{"台北車站", []string{"tai", "bei", "che", "zhan"}},
		{"GPT模型", []string{"gpt", "mo", "xing"}},
		{"k8s叢集", []string{"k8s", "cong", "ji"}},
		{"", nil},
	}
	for _, tc := range cases {
		got, err := b.Syllables(context.Background(), tc.text)
		if err != nil {
			t.Fatalf("Syllables(%q): %v", tc.text, err)
		}
		if !slices.Equal(got, tc.want) {
			t.Fatalf("Syllables(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestRunePinyinsAlignPerRune(t *testing.T) {
	b := testBackend(t)
	got := b.runePinyins("GPT模型")
	want := []string{"g", "p", "t", "mo", "xing"}
	if !slices.Equal(got, want) {
		t.Fatalf("runePinyins = %v, want %v", got, want)
	}
}

func TestSyllablesCancelled(t *testing.T) {
	b := testBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Syllables(ctx, "台北"); err == nil {
		t.Fatal("want context error")
	}
}

func TestCacheCounters(t *testing.T) {
	b, err := NewBackend(8)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	ctx := context.Background()
	for range 2 {
		if _, err := b.ToPhonetic(ctx, "台北"); err != nil {
			t.Fatalf("ToPhonetic: %v", err)
		}
	}
	stats := b.CacheStats()
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Fatalf("stats = %+v, want 1 hit 1 miss", stats)
	}
	if stats.Size != 1 || stats.Capacity != 8 {
		t.Fatalf("stats = %+v, want size 1 capacity 8", stats)
	}
}

func TestWarmupPrimesCache(t *testing.T) {
	b, err := NewBackend(16)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	ctx := context.Background()
	if err := b.Warmup(ctx, []string{"台北", "高雄"}); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	if got := b.CacheStats().Size; got != 2 {
		t.Fatalf("cache size = %d, want 2", got)
	}
	if _, err := b.ToPhonetic(ctx, "台北"); err != nil {
		t.Fatalf("ToPhonetic: %v", err)
	}
	if got := b.CacheStats().Hits; got != 1 {
		t.Fatalf("hits = %d, want 1", got)
	}
}

func TestWarmupCancelled(t *testing.T) {
	b := testBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Warmup(ctx, []string{"台北"}); err == nil {
		t.Fatal("want context error")
	}
}
