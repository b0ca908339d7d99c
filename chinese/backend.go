// Package chinese implements Pinyin-space correction for Han text:
// a cached grapheme-to-Pinyin backend, syllable-level confusion rules,
// a homophone variant generator, and the corrector that ties them to the
// shared matching pipeline.
//
// Matching granularity is one character per token and candidate windows
// always span as many characters as the target term, so the corrector
// compares equal-length surfaces whose Pinyin keys may still differ.
package chinese

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mozillazg/go-pinyin"
	"golang.org/x/sync/errgroup"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/observe"
)

const (
	// defaultCacheSize bounds the syllable cache of a backend.
	defaultCacheSize = 10_000

	// warmupConcurrency bounds parallel conversions during Warmup.
	warmupConcurrency = 8
)

// Backend converts Han text to toneless Pinyin syllables with an LRU cache
// in front of the conversion tables. Construction is cheap for Chinese, but
// the backend is still shared process-wide through Shared so every corrector
// reuses one cache.
type Backend struct {
	args     pinyin.Args
	cache    *lru.Cache[string, []string]
	capacity int
	metrics  *observe.Metrics

	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ phonofix.Backend = (*Backend)(nil)

// NewBackend returns a backend with a syllable cache of cacheSize entries.
// cacheSize <= 0 applies the default.
func NewBackend(cacheSize int) (*Backend, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, []string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Backend{
		args:     pinyin.NewArgs(),
		cache:    cache,
		capacity: cacheSize,
		metrics:  observe.DefaultMetrics(),
	}, nil
}

var (
	sharedBackend     *Backend
	sharedBackendOnce sync.Once
)

// Shared returns the process-wide backend, constructing it on first use.
func Shared() *Backend {
	sharedBackendOnce.Do(func() {
		b, err := NewBackend(defaultCacheSize)
		if err != nil {
			panic("chinese: shared backend: " + err.Error())
		}
		sharedBackend = b
	})
	return sharedBackend
}

// ToPhonetic returns the concatenated toneless Pinyin key of text. Non-Han
// runs pass through lowercased, so mixed terms such as "GPT模型" key as
// "gptmoxing".
func (b *Backend) ToPhonetic(ctx context.Context, text string) (string, error) {
	syls, err := b.Syllables(ctx, text)
	if err != nil {
		return "", err
	}
	return strings.Join(syls, ""), nil
}

// Syllables returns the Pinyin syllables of text, one per Han rune with
// consecutive non-Han runes merged into a single lowercased element. The
// returned slice is shared with the cache and must not be modified.
func (b *Backend) Syllables(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.lookup(ctx, text), nil
}

func (b *Backend) lookup(ctx context.Context, text string) []string {
	if text == "" {
		return nil
	}
	if cached, ok := b.cache.Get(text); ok {
		b.hits.Add(1)
		b.metrics.RecordCacheLookup(ctx, "zh", true)
		return cached
	}
	b.misses.Add(1)
	b.metrics.RecordCacheLookup(ctx, "zh", false)
	syls := b.convert(text)
	b.cache.Add(text, syls)
	return syls
}

func (b *Backend) convert(text string) []string {
	syllables := make([]string, 0, utf8.RuneCountInString(text))
	var run []rune
	flush := func() {
		if len(run) > 0 {
			syllables = append(syllables, strings.ToLower(string(run)))
			run = run[:0]
		}
	}
	for _, r := range text {
		if py := pinyin.SinglePinyin(r, b.args); len(py) > 0 {
			flush()
			syllables = append(syllables, py[0])
		} else {
			run = append(run, r)
		}
	}
	flush()
	return syllables
}

// runePinyins returns one Pinyin string per rune of text, keeping non-Han
// runes as themselves, lowercased. The variant generator needs the strict
// one-to-one alignment that Syllables gives up by merging non-Han runs.
func (b *Backend) runePinyins(text string) []string {
	runes := []rune(text)
	out := make([]string, len(runes))
	for i, r := range runes {
		if py := pinyin.SinglePinyin(r, b.args); len(py) > 0 {
			out[i] = py[0]
		} else {
			out[i] = strings.ToLower(string(r))
		}
	}
	return out
}

// IsInitialized reports whether the backend is usable. The Pinyin tables
// ship with the library, so a constructed backend always is.
func (b *Backend) IsInitialized() bool { return true }

// CacheStats returns a snapshot of the syllable cache counters.
func (b *Backend) CacheStats() phonofix.CacheStats {
	return phonofix.CacheStats{
		Hits:     b.hits.Load(),
		Misses:   b.misses.Load(),
		Size:     b.cache.Len(),
		Capacity: b.capacity,
	}
}

// Warmup primes the syllable cache for terms. Chinese conversion is pure
// table lookup, so the only possible failure is ctx cancellation.
func (b *Backend) Warmup(ctx context.Context, terms []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupConcurrency)
	for _, term := range terms {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b.lookup(ctx, term)
			return nil
		})
	}
	return g.Wait()
}
