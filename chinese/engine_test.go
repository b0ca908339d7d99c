package chinese

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/JonesHong/phonofix"
)

func TestEngineLangAndBackend(t *testing.T) {
	b := testBackend(t)
	eng := NewEngine(EngineConfig{Backend: b, Logger: discardLogger()})
	if eng.Lang() != phonofix.LangChinese {
		t.Fatalf("Lang = %v", eng.Lang())
	}
	if eng.Backend() != b {
		t.Fatal("engine does not carry the given backend")
	}
	if got, want := eng.BackendStats(), b.CacheStats(); got.Capacity != want.Capacity {
		t.Fatalf("BackendStats capacity = %d, want %d", got.Capacity, want.Capacity)
	}
}

func TestEngineDefaultsToSharedBackend(t *testing.T) {
	eng := NewEngine(EngineConfig{Logger: discardLogger()})
	if eng.Backend() != Shared() {
		t.Fatal("nil backend must select the shared one")
	}
}

func TestGeneratorInheritsOverrides(t *testing.T) {
	eng := NewEngine(EngineConfig{
		Backend:          testBackend(t),
		Logger:           discardLogger(),
		SpecialSyllables: map[string][]string{"lou": {"lao"}},
		StickyPhrases:    map[string][]string{"謝謝": {"蟹蟹"}},
		RegionalAliases:  map[string][]string{"台積電": {"積電"}},
	})
	g := eng.Generator()

	if got := g.rules.special["lou"]; !slices.Equal(got, []string{"rou", "lao"}) {
		t.Fatalf("merged special[lou] = %v", got)
	}
	if got := g.rules.sticky["謝謝"]; !slices.Equal(got, []string{"蟹蟹"}) {
		t.Fatalf("merged sticky = %v", got)
	}
	if got := g.rules.regional["台積電"]; !slices.Equal(got, []string{"積電"}) {
		t.Fatalf("merged regional = %v", got)
	}
	if got := g.rules.regional["台北車站"]; len(got) != 2 {
		t.Fatalf("built-in regional aliases lost: %v", got)
	}
}

func TestNewCorrectorResolvesItemAttributes(t *testing.T) {
	c := buildCorrector(t, phonofix.Canonicals("台北車站"))

	item := c.items[0]
	if item.surface != "台北車站" || item.canonical != "台北車站" || item.isAlias {
		t.Fatalf("canonical item = %+v", item)
	}
	if item.key != "taibeichezhan" {
		t.Fatalf("key = %q", item.key)
	}
	if !slices.Equal(item.syllables, []string{"tai", "bei", "che", "zhan"}) {
		t.Fatalf("syllables = %v", item.syllables)
	}
	if item.runeLen != 4 || item.mixed {
		t.Fatalf("item = %+v", item)
	}
}

func TestNewCorrectorMixedItem(t *testing.T) {
	c := buildCorrector(t, phonofix.Canonicals("GPT模型"))
	if item := c.items[0]; !item.mixed {
		t.Fatalf("item = %+v, want mixed for a Han-Latin surface", item)
	}
}

func TestNewCorrectorProtectedTermsCap(t *testing.T) {
	eng := NewEngine(EngineConfig{Backend: testBackend(t), Logger: discardLogger()})
	terms := make([]string, phonofix.DefaultMaxProtectedTerms+1)
	for i := range terms {
		terms[i] = fmt.Sprintf("term%d", i)
	}
	_, err := eng.NewCorrector(phonofix.Canonicals("台北車站"),
		phonofix.WithLogger(discardLogger()),
		phonofix.WithProtectedTerms(terms...),
	)
	if !errors.Is(err, phonofix.ErrResourceLimit) {
		t.Fatalf("err = %v, want ErrResourceLimit", err)
	}
}

func TestNewCorrectorInvalidDict(t *testing.T) {
	eng := NewEngine(EngineConfig{Backend: testBackend(t), Logger: discardLogger()})
	_, err := eng.NewCorrector(phonofix.TermDict{" ": {}},
		phonofix.WithLogger(discardLogger()),
	)
	if !errors.Is(err, phonofix.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestNewCorrectorDedupesUserAliasAgainstVariants(t *testing.T) {
	// 流奶 is also a generated variant of 牛奶; the user alias is seeded
	// first and wins the key collision.
	c := buildCorrector(t, phonofix.AliasMap(map[string][]string{
		"牛奶": {"流奶"},
	}))
	if got := len(c.exactItems["流奶"]); got != 1 {
		t.Fatalf("流奶 indexed %d times, want 1", got)
	}
}

func TestNewCorrectorWithoutSurfaceVariants(t *testing.T) {
	c := buildCorrector(t, phonofix.Canonicals("台北車站"),
		phonofix.WithoutSurfaceVariants(),
	)
	if len(c.items) != 1 {
		t.Fatalf("got %d items, want just the canonical", len(c.items))
	}
	if len(c.exactItems) != 0 {
		t.Fatalf("exact index = %v, want empty without aliases", c.exactItems)
	}
}
