// Package japanese implements Romaji-space correction for Japanese text: a
// cached morphological backend over the bundled Kagome analyzer, kana and
// Romaji confusion rules, a reading-level variant generator, and the
// corrector that ties them to the shared matching pipeline.
//
// Matching granularity is one morpheme per token and candidate windows span
// a range of morpheme counts around each target's, so the corrector compares
// Romaji keys of spans that may segment differently than the dictionary
// does.
package japanese

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"golang.org/x/sync/errgroup"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/textutil"
	"github.com/JonesHong/phonofix/observe"
)

const (
	// defaultCacheSize bounds the Romaji key cache of a backend.
	defaultCacheSize = 10_000

	// warmupConcurrency bounds parallel conversions during Warmup.
	warmupConcurrency = 8
)

// Backend converts Japanese text to lowercase Hepburn Romaji keys through
// the bundled Kagome analyzer with an LRU cache in front. Loading the IPA
// dictionary costs real memory, so Shared is the normal way to obtain a
// backend; construct private ones only for isolated cache behaviour.
type Backend struct {
	tok      *tokenizer.Tokenizer
	cache    *lru.Cache[string, string]
	capacity int
	metrics  *observe.Metrics

	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ phonofix.Backend = (*Backend)(nil)

// NewBackend returns a backend with a key cache of cacheSize entries.
// cacheSize <= 0 applies the default. A dictionary load failure reports
// ErrBackendUnavailable.
func NewBackend(cacheSize int) (*Backend, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	tok, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("%w: kagome analyzer: %v",
			phonofix.ErrBackendUnavailable, err)
	}
	return &Backend{
		tok:      tok,
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
			panic("japanese: shared backend: " + err.Error())
		}
		sharedBackend = b
	})
	return sharedBackend
}

// morpheme is one analyzer token aligned to byte offsets of the input,
// carrying the hiragana form of its dictionary reading and the Romaji key
// derived from it.
type morpheme struct {
	surface string
	start   int
	end     int
	kana    string
	key     string
}

// analyze segments text into matchable morphemes: tokens carrying kana, Han
// or ASCII alphanumeric content, with symbols and whitespace dropped.
// Offsets are byte positions into text.
func (b *Backend) analyze(ctx context.Context, text string) ([]morpheme, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.segment(text), nil
}

func (b *Backend) segment(text string) []morpheme {
	if text == "" {
		return nil
	}
	tokens := b.tok.Tokenize(text)
	morphs := make([]morpheme, 0, len(tokens))
	pos := 0
	for _, tk := range tokens {
		if tk.Surface == "" {
			continue
		}
		rel := strings.Index(text[pos:], tk.Surface)
		if rel < 0 {
			continue
		}
		start := pos + rel
		end := start + len(tk.Surface)
		pos = end
		if !matchable(tk.Surface) {
			continue
		}
		reading, ok := tk.Reading()
		if !ok || reading == "" || reading == "*" {
			reading = tk.Surface
		}
		kana := kataToHira(reading)
		morphs = append(morphs, morpheme{
			surface: tk.Surface,
			start:   start,
			end:     end,
			kana:    kana,
			key:     hiraToRomaji(kana),
		})
	}
	return morphs
}

// matchable reports whether a surface carries content worth keying: kana,
// Han or ASCII alphanumerics.
func matchable(s string) bool {
	for _, r := range s {
		if textutil.IsKana(r) || textutil.IsHan(r) || textutil.IsASCIIAlnum(r) {
			return true
		}
	}
	return false
}

// ToPhonetic returns the Romaji key of text: the concatenated keys of its
// morphemes, katakana readings lowered to hiragana and rendered as Hepburn.
// ASCII passes through lowercased, so mixed terms such as "asupirin錠" key
// as "asupirinjou".
func (b *Backend) ToPhonetic(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.lookup(ctx, text), nil
}

func (b *Backend) lookup(ctx context.Context, text string) string {
	if text == "" {
		return ""
	}
	if cached, ok := b.cache.Get(text); ok {
		b.hits.Add(1)
		b.metrics.RecordCacheLookup(ctx, "ja", true)
		return cached
	}
	b.misses.Add(1)
	b.metrics.RecordCacheLookup(ctx, "ja", false)
	var sb strings.Builder
	for _, m := range b.segment(text) {
		sb.WriteString(m.key)
	}
	key := sb.String()
	b.cache.Add(text, key)
	return key
}

// hiragana returns the hiragana rendition of text: dictionary readings
// lowered from katakana, joined across morphemes. ASCII surfaces without a
// reading keep their lowercase selves, and symbols vanish.
func (b *Backend) hiragana(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, m := range b.segment(text) {
		sb.WriteString(m.kana)
	}
	return sb.String(), nil
}

// IsInitialized reports whether the backend is usable. The analyzer and its
// dictionary ship with the library, so a constructed backend always is.
func (b *Backend) IsInitialized() bool { return b.tok != nil }

// CacheStats returns a snapshot of the key cache counters.
func (b *Backend) CacheStats() phonofix.CacheStats {
	return phonofix.CacheStats{
		Hits:     b.hits.Load(),
		Misses:   b.misses.Load(),
		Size:     b.cache.Len(),
		Capacity: b.capacity,
	}
}

// Warmup primes the key cache for terms. Analysis is in-process, so the
// only possible failure is ctx cancellation.
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
