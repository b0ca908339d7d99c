package english

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/match"
	"github.com/JonesHong/phonofix/internal/surface"
	"github.com/JonesHong/phonofix/internal/textutil"
	"github.com/JonesHong/phonofix/observe"
)

// engineName tags logs, events, and metrics from this package.
const engineName = "en"

// nearMissMargin is how far above the acceptance tolerance a rejected
// candidate may sit and still earn an evaluation-mode warning.
const nearMissMargin = 0.1

// Window registration bounds: an item whose surface has t tokens serves
// windows of max(1, t-windowReach) through t+windowSlack tokens, so merged
// and over-split renditions of the spoken form still reach it.
const (
	windowReach = 2
	windowSlack = 3
)

// Key-length pruning: a window whose key length differs from an item's by
// more than maxKeyDiff runes cannot clear the tolerance, so the scan skips
// the comparison outright.
const (
	minKeyDiffBase = 5
	keyDiffRatio   = 0.6
)

// indexItem is one search target: a canonical surface, a user alias, or a
// generated variant, with its phonetic attributes resolved at build time.
type indexItem struct {
	surface    string
	folded     string
	canonical  string
	isAlias    bool
	weight     float64
	keywords   []string
	excludes   []string
	key        string
	keyLen     int
	group      int
	tokenCount int
	maxKeyDiff float64
}

// alias returns the surface to report in events: the matched alias for
// alias items, empty for direct canonical matches.
func (it *indexItem) alias() string {
	if it.isAlias {
		return it.surface
	}
	return ""
}

// Corrector rewrites phonetically confusable English spans to their
// canonical surfaces. Immutable after construction and safe for concurrent
// use.
type Corrector struct {
	cfg     phonofix.CorrectorConfig
	logger  *slog.Logger
	metrics *observe.Metrics
	backend *Backend
	tok     Tokenizer

	items      []*indexItem
	exact      *surface.Index
	exactItems map[string][]*indexItem
	buckets    map[int]map[int][]*indexItem
	lengths    []int
	protector  *surface.Protector
	prox       *surface.Proximity

	// degraded marks a pass-through corrector: the build failed under
	// FailDegrade and every call returns its input with a degraded event.
	degraded error
}

var _ phonofix.Corrector = (*Corrector)(nil)

func newCorrector(e *Engine, cfg phonofix.CorrectorConfig, items []*indexItem) *Corrector {
	c := &Corrector{
		cfg:        cfg,
		logger:     cfg.Logger.With("component", "english"),
		metrics:    observe.DefaultMetrics(),
		backend:    e.backend,
		items:      items,
		exactItems: make(map[string][]*indexItem),
		buckets:    make(map[int]map[int][]*indexItem),
		protector:  surface.NewProtector(cfg.ProtectedTerms),
	}

	var (
		exactPatterns []string
		proxWords     []string
		lengthSeen    = make(map[int]struct{})
	)
	for _, item := range items {
		if item.isAlias {
			if _, dup := c.exactItems[item.folded]; !dup {
				exactPatterns = append(exactPatterns, item.folded)
			}
			c.exactItems[item.folded] = append(c.exactItems[item.folded], item)
		}

		// Register the item under every window length a spoken rendition
		// of it may occupy.
		for length := max(1, item.tokenCount-windowReach); length <= item.tokenCount+windowSlack; length++ {
			byGroup := c.buckets[length]
			if byGroup == nil {
				byGroup = make(map[int][]*indexItem)
				c.buckets[length] = byGroup
			}
			byGroup[item.group] = append(byGroup[item.group], item)
			if _, dup := lengthSeen[length]; !dup {
				lengthSeen[length] = struct{}{}
				c.lengths = append(c.lengths, length)
			}
		}

		proxWords = append(proxWords, item.keywords...)
		proxWords = append(proxWords, item.excludes...)
	}
	slices.Sort(c.lengths)

	c.exact = surface.NewIndex(exactPatterns)
	c.prox = surface.NewProximity(proxWords)
	c.metrics.AddLiveCorrectors(context.Background(), engineName, 1)
	return c
}

// newDegradedCorrector returns a pass-through corrector for a backend that
// could not serve the index build.
func newDegradedCorrector(e *Engine, cfg phonofix.CorrectorConfig, err error) *Corrector {
	c := &Corrector{
		cfg:       cfg,
		logger:    cfg.Logger.With("component", "english"),
		metrics:   observe.DefaultMetrics(),
		backend:   e.backend,
		protector: surface.NewProtector(nil),
		degraded:  err,
	}
	c.metrics.AddLiveCorrectors(context.Background(), engineName, 1)
	return c
}

// Close releases the corrector's live gauge registration. Optional; a
// corrector works forever without it.
func (c *Corrector) Close() {
	c.metrics.AddLiveCorrectors(context.Background(), engineName, -1)
}

// Degraded reports whether the corrector passes text through unchanged
// because its build failed.
func (c *Corrector) Degraded() bool { return c.degraded != nil }

// Correct rewrites confusable spans of text and returns the corrected text
// with the events emitted. Correction events come first, ordered left to
// right; diagnostic events follow.
func (c *Corrector) Correct(ctx context.Context, text string, opts ...phonofix.CorrectOption) (string, []phonofix.Event, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	if n := utf8.RuneCountInString(text); n > c.cfg.MaxInputRunes {
		return "", nil, fmt.Errorf("%w: input is %d runes, cap is %d",
			phonofix.ErrResourceLimit, n, c.cfg.MaxInputRunes)
	}

	call := phonofix.NewCorrectCall(text, opts...)
	if call.TraceID == "" {
		call.TraceID = observe.TraceIDFromContext(ctx)
	}

	if c.degraded != nil {
		return c.passThrough(ctx, text, call, start)
	}

	runeOf := textutil.ByteToRuneIndex(text)
	byteOf := textutil.RuneByteOffsets(text)
	protected := c.protectedRuneIntervals(text, runeOf)
	cc := match.NewContextState(c.prox, call.FullContext, call.ContextOffset)

	cands := c.exactCandidates(text, runeOf, protected, cc)
	fuzzy, nearMisses, fuzzyEvents, err := c.fuzzyCandidates(ctx, text, runeOf, protected, cc, call.TraceID)
	if err != nil {
		return "", nil, err
	}
	cands = append(cands, fuzzy...)

	cands = match.Dedupe(cands)
	accepted, rejected := match.Resolve(cands)
	accepted = slices.DeleteFunc(accepted, func(cand match.Candidate) bool {
		return cand.Surface == cand.Replacement
	})
	corrected := match.Rewrite(text, accepted)

	events := make([]phonofix.Event, 0, len(accepted)+len(fuzzyEvents))
	for _, a := range accepted {
		events = append(events, phonofix.Event{
			Kind:        phonofix.EventCorrection,
			Engine:      engineName,
			TraceID:     call.TraceID,
			Start:       byteOf[a.Start],
			End:         byteOf[a.End],
			Original:    a.Surface,
			Replacement: a.Replacement,
			Canonical:   a.Canonical,
			Alias:       a.Alias,
			Score:       a.Score,
			HasContext:  a.HasContext,
		})
	}
	if c.cfg.Mode == phonofix.ModeEvaluation {
		for _, r := range rejected {
			events = append(events, phonofix.Event{
				Kind:        phonofix.EventWarning,
				Engine:      engineName,
				TraceID:     call.TraceID,
				Start:       byteOf[r.Start],
				End:         byteOf[r.End],
				Original:    r.Surface,
				Replacement: r.Replacement,
				Canonical:   r.Canonical,
				Alias:       r.Alias,
				Score:       r.Score,
				HasContext:  r.HasContext,
				Reason:      "span conflict",
			})
		}
		for _, nm := range nearMisses {
			events = append(events, phonofix.Event{
				Kind:        phonofix.EventWarning,
				Engine:      engineName,
				TraceID:     call.TraceID,
				Start:       byteOf[nm.Start],
				End:         byteOf[nm.End],
				Original:    nm.Surface,
				Replacement: nm.Replacement,
				Canonical:   nm.Canonical,
				Alias:       nm.Alias,
				Score:       nm.Score,
				Reason:      "below tolerance",
			})
		}
	}
	events = append(events, fuzzyEvents...)

	c.emit(events)
	c.metrics.RecordCorrections(ctx, engineName, int64(len(accepted)))
	c.metrics.RecordRejected(ctx, engineName, int64(len(rejected)))
	c.metrics.RecordDuration(ctx, engineName, time.Since(start).Seconds())

	if !call.Silent && !c.cfg.Silent {
		for _, a := range accepted {
			c.logger.Info("corrected",
				"trace_id", call.TraceID,
				"original", a.Surface,
				"replacement", a.Replacement,
				"score", a.Score,
			)
		}
		c.logger.Debug("correct call done",
			"trace_id", call.TraceID,
			"corrections", len(accepted),
			"rejected", len(rejected),
			"duration", time.Since(start),
		)
	}
	return corrected, events, nil
}

// passThrough serves a call on a degraded corrector: the input returns
// unchanged with one event naming the build failure.
func (c *Corrector) passThrough(ctx context.Context, text string, call phonofix.CorrectCall, start time.Time) (string, []phonofix.Event, error) {
	events := []phonofix.Event{{
		Kind:     phonofix.EventDegraded,
		Engine:   engineName,
		TraceID:  call.TraceID,
		Stage:    phonofix.StageBackendInit,
		Fallback: phonofix.FallbackNone,
		Reason:   "pass-through, backend unavailable at build",
		Err:      c.degraded.Error(),
	}}
	c.emit(events)
	c.metrics.RecordDegraded(ctx, engineName, phonofix.FallbackNone)
	c.metrics.RecordDuration(ctx, engineName, time.Since(start).Seconds())
	if !call.Silent && !c.cfg.Silent {
		c.logger.Warn("pass-through call, backend unavailable",
			"trace_id", call.TraceID,
			"err", c.degraded,
		)
	}
	return text, events, nil
}

// protectedRuneIntervals translates the protector's byte intervals to rune
// space. Monotone translation keeps them sorted and merged.
func (c *Corrector) protectedRuneIntervals(text string, runeOf []int) []surface.Interval {
	raw := c.protector.Intervals(text)
	if len(raw) == 0 {
		return nil
	}
	out := make([]surface.Interval, len(raw))
	for i, iv := range raw {
		out[i] = surface.Interval{Start: runeOf[iv.Start], End: runeOf[iv.End]}
	}
	return out
}

// exactCandidates drafts a zero-error candidate for every case-folded alias
// occurrence outside protected intervals. Folding preserves byte offsets,
// so occurrence positions index the original text directly.
func (c *Corrector) exactCandidates(text string, runeOf []int, protected []surface.Interval, cc match.ContextState) []match.Candidate {
	occs := c.exact.Occurrences(surface.Fold(text))
	if len(occs) == 0 {
		return nil
	}
	patterns := c.exact.Patterns()
	var out []match.Candidate
	for _, occ := range occs {
		pattern := patterns[occ.Pattern]
		startRune, endRune := runeOf[occ.Start], runeOf[occ.End]
		if surface.AnyOverlap(protected, startRune, endRune) {
			continue
		}
		observed := text[occ.Start:occ.End]
		for _, item := range c.exactItems[pattern] {
			if observed == item.canonical {
				continue
			}
			ok, bonus, hasCtx := cc.Gate(item.excludes, item.keywords, startRune, endRune)
			if !ok {
				continue
			}
			out = append(out, match.Candidate{
				Start:       startRune,
				End:         endRune,
				Surface:     observed,
				Replacement: item.canonical,
				Canonical:   item.canonical,
				Alias:       item.surface,
				Score:       0 - item.weight - bonus,
				ErrorRatio:  0,
				HasContext:  hasCtx,
			})
		}
	}
	return out
}

// fuzzyCandidates slides token windows over the text and drafts a candidate
// for every index item within tolerance of the window's IPA key. Token
// conversion failures degrade their windows to no-match and surface as
// fuzzy_error events; the second return lists tolerance rejections close
// enough to warn about in evaluation mode.
func (c *Corrector) fuzzyCandidates(ctx context.Context, text string, runeOf []int, protected []surface.Interval, cc match.ContextState, traceID string) ([]match.Candidate, []match.Candidate, []phonofix.Event, error) {
	toks := c.tok.Tokenize(text)
	if len(toks) == 0 || len(c.lengths) == 0 {
		return nil, nil, nil, nil
	}

	keys := make([]string, len(toks))
	keyOK := make([]bool, len(toks))
	var events []phonofix.Event
	for i, t := range toks {
		key, convErr := c.backend.ToPhonetic(ctx, t.Surface)
		if convErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, nil, ctxErr
			}
			c.metrics.RecordFuzzyError(ctx, engineName, phonofix.StageCandidateGen)
			events = append(events, phonofix.Event{
				Kind:     phonofix.EventFuzzyError,
				Engine:   engineName,
				TraceID:  traceID,
				Start:    t.Start,
				End:      t.End,
				Original: t.Surface,
				Stage:    phonofix.StageCandidateGen,
				Fallback: phonofix.FallbackExactOnly,
				Reason:   "phonetic conversion failed",
				Err:      convErr.Error(),
			})
			continue
		}
		keys[i], keyOK[i] = key, true
	}
	if failures := len(events); failures > 0 {
		c.metrics.RecordDegraded(ctx, engineName, phonofix.FallbackExactOnly)
		events = append(events, phonofix.Event{
			Kind:     phonofix.EventDegraded,
			Engine:   engineName,
			TraceID:  traceID,
			Stage:    phonofix.StageCandidateGen,
			Fallback: phonofix.FallbackExactOnly,
			Reason:   fmt.Sprintf("%d of %d tokens unconvertible", failures, len(toks)),
		})
	}

	var cands, nearMisses []match.Candidate
	for _, length := range c.lengths {
		if length > len(toks) {
			break
		}
		for i := 0; i+length <= len(toks); i++ {
			j := i + length - 1
			windowKey, ok := joinKeys(keys, keyOK, i, j)
			if !ok {
				continue
			}
			segStart, segEnd := runeOf[toks[i].Start], runeOf[toks[j].End]
			if surface.AnyOverlap(protected, segStart, segEnd) {
				continue
			}
			segment := text[toks[i].Start:toks[j].End]

			windowKeyLen := utf8.RuneCountInString(windowKey)
			// Windows that already read as a canonical draft a candidate
			// too: the accepted no-op consumes the span in Resolve, so an
			// alias embedded in correct text never rewrites it.
			for _, item := range c.bucketItems(length, firstPhonemeGroup(windowKey)) {
				diff := windowKeyLen - item.keyLen
				if diff < 0 {
					diff = -diff
				}
				if float64(diff) > item.maxKeyDiff {
					continue
				}
				ratio, bound, ok := similarityScore(windowKey, item.key)
				if !ok {
					if c.cfg.Mode == phonofix.ModeEvaluation && ratio <= bound+nearMissMargin {
						nearMisses = append(nearMisses, match.Candidate{
							Start:       segStart,
							End:         segEnd,
							Surface:     segment,
							Replacement: item.canonical,
							Canonical:   item.canonical,
							Alias:       item.alias(),
							Score:       ratio,
							ErrorRatio:  ratio,
						})
					}
					continue
				}
				gateOK, bonus, hasCtx := cc.Gate(item.excludes, item.keywords, segStart, segEnd)
				if !gateOK {
					continue
				}
				cands = append(cands, match.Candidate{
					Start:       segStart,
					End:         segEnd,
					Surface:     segment,
					Replacement: item.canonical,
					Canonical:   item.canonical,
					Alias:       item.alias(),
					Score:       ratio - item.weight - bonus,
					ErrorRatio:  ratio,
					HasContext:  hasCtx,
				})
			}
		}
	}
	return cands, nearMisses, events, nil
}

// bucketItems returns the index items a window of this token length and
// onset group is compared against. Unknown onsets scan every group in
// deterministic order; known onsets scan their group plus the unknowns.
func (c *Corrector) bucketItems(length, group int) []*indexItem {
	byGroup := c.buckets[length]
	if len(byGroup) == 0 {
		return nil
	}
	if group == unknownGroup {
		groups := make([]int, 0, len(byGroup))
		for g := range byGroup {
			groups = append(groups, g)
		}
		slices.Sort(groups)
		var all []*indexItem
		for _, g := range groups {
			all = append(all, byGroup[g]...)
		}
		return all
	}
	items := byGroup[group]
	unknown := byGroup[unknownGroup]
	if len(unknown) == 0 {
		return items
	}
	merged := make([]*indexItem, 0, len(items)+len(unknown))
	merged = append(merged, items...)
	merged = append(merged, unknown...)
	return merged
}

// joinKeys concatenates the token keys of the window [i, j]. False when any
// token in the window failed conversion.
func joinKeys(keys []string, ok []bool, i, j int) (string, bool) {
	if i == j {
		return keys[i], ok[i]
	}
	var b strings.Builder
	for k := i; k <= j; k++ {
		if !ok[k] {
			return "", false
		}
		b.WriteString(keys[k])
	}
	return b.String(), true
}

func (c *Corrector) emit(events []phonofix.Event) {
	if len(c.cfg.Observers) == 0 {
		return
	}
	for _, obs := range c.cfg.Observers {
		for _, ev := range events {
			c.safeObserve(obs, ev)
		}
	}
}

func (c *Corrector) safeObserve(obs phonofix.Observer, ev phonofix.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("observer panicked", "recover", r)
		}
	}()
	obs(ev)
}
