package japanese

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
const engineName = "ja"

// nearMissMargin is how far above the acceptance tolerance a rejected
// candidate may sit and still earn an evaluation-mode warning.
const nearMissMargin = 0.1

// Window registration bounds: an item whose surface has t morphemes serves
// windows of max(1, t-windowReach) through t+windowSlack morphemes, so
// renditions the analyzer segments differently still reach it.
const (
	windowReach = 2
	windowSlack = 2
)

// Key-length pruning: a window whose key length differs from an item's by
// more than maxKeyDiff letters cannot clear the tolerance, so the scan
// skips the comparison outright.
const (
	minKeyDiffBase = 5
	keyDiffRatio   = 0.5
)

// indexItem is one search target: a canonical surface, a user alias, or a
// generated variant, with its phonetic attributes resolved at build time.
type indexItem struct {
	surface    string
	canonical  string
	isAlias    bool
	weight     float64
	keywords   []string
	excludes   []string
	key        string
	normKey    string
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

// Corrector rewrites phonetically confusable Japanese spans to their
// canonical surfaces. Immutable after construction and safe for concurrent
// use.
type Corrector struct {
	cfg     phonofix.CorrectorConfig
	logger  *slog.Logger
	metrics *observe.Metrics
	backend *Backend
	rules   *rules

	items      []*indexItem
	exact      *surface.Index
	exactItems map[string][]*indexItem
	buckets    map[int]map[int][]*indexItem
	lengths    []int
	protector  *surface.Protector
	prox       *surface.Proximity
}

var _ phonofix.Corrector = (*Corrector)(nil)

func newCorrector(e *Engine, cfg phonofix.CorrectorConfig, items []*indexItem) *Corrector {
	c := &Corrector{
		cfg:        cfg,
		logger:     cfg.Logger.With("component", "japanese"),
		metrics:    observe.DefaultMetrics(),
		backend:    e.backend,
		rules:      e.rules,
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
			if _, dup := c.exactItems[item.surface]; !dup {
				exactPatterns = append(exactPatterns, item.surface)
			}
			c.exactItems[item.surface] = append(c.exactItems[item.surface], item)
		}

		// Items with no derivable key serve the exact index only.
		if item.key != "" {
			// Register the item under every window length a rendition of
			// it may occupy.
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

// Close releases the corrector's live gauge registration. Optional; a
// corrector works forever without it.
func (c *Corrector) Close() {
	c.metrics.AddLiveCorrectors(context.Background(), engineName, -1)
}

// Correct rewrites confusable spans of text and returns the corrected text
// with the events emitted, ordered left to right.
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

	runeOf := textutil.ByteToRuneIndex(text)
	byteOf := textutil.RuneByteOffsets(text)
	protected := c.protectedRuneIntervals(text, runeOf)
	cc := match.NewContextState(c.prox, call.FullContext, call.ContextOffset)

	cands := c.exactCandidates(text, runeOf, protected, cc)
	fuzzy, nearMisses, err := c.fuzzyCandidates(ctx, text, runeOf, protected, cc)
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

	events := make([]phonofix.Event, 0, len(accepted))
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

// exactCandidates drafts a zero-error candidate for every alias occurrence
// outside protected intervals. Matching is byte-exact: Romaji aliases in
// another letter case still reach their item through the fuzzy scan, whose
// keys are case-folded.
func (c *Corrector) exactCandidates(text string, runeOf []int, protected []surface.Interval, cc match.ContextState) []match.Candidate {
	occs := c.exact.Occurrences(text)
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
		for _, item := range c.exactItems[pattern] {
			if item.canonical == pattern {
				continue
			}
			ok, bonus, hasCtx := cc.Gate(item.excludes, item.keywords, startRune, endRune)
			if !ok {
				continue
			}
			out = append(out, match.Candidate{
				Start:       startRune,
				End:         endRune,
				Surface:     pattern,
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

// fuzzyCandidates slides morpheme windows over the text and drafts a
// candidate for every index item within tolerance of the window's Romaji
// key. The second return lists tolerance rejections close enough to warn
// about in evaluation mode.
func (c *Corrector) fuzzyCandidates(ctx context.Context, text string, runeOf []int, protected []surface.Interval, cc match.ContextState) ([]match.Candidate, []match.Candidate, error) {
	morphs, err := c.backend.analyze(ctx, text)
	if err != nil {
		return nil, nil, err
	}
	if len(morphs) == 0 || len(c.lengths) == 0 {
		return nil, nil, nil
	}

	// runLen[i] is the number of byte-adjacent morphemes starting at i, so
	// a window of length L at i is contiguous in text iff runLen[i] >= L.
	runLen := make([]int, len(morphs))
	for i := len(morphs) - 1; i >= 0; i-- {
		runLen[i] = 1
		if i+1 < len(morphs) && morphs[i].end == morphs[i+1].start {
			runLen[i] = runLen[i+1] + 1
		}
	}

	var out, nearMisses []match.Candidate
	for i := range morphs {
		for _, length := range c.lengths {
			if length > runLen[i] {
				break
			}
			j := i + length - 1
			key := windowKey(morphs, i, j)
			if key == "" {
				continue
			}
			segStart, segEnd := runeOf[morphs[i].start], runeOf[morphs[j].end]
			if surface.AnyOverlap(protected, segStart, segEnd) {
				continue
			}
			items := c.bucketItems(length, onsetGroup(key))
			if len(items) == 0 {
				continue
			}
			segment := text[morphs[i].start:morphs[j].end]
			norm := c.rules.normalizeKey(key)
			keyLen := len(key)

			// Windows that already read as a canonical draft a candidate
			// too: the accepted no-op consumes the span in Resolve, so an
			// alias embedded in correct text never rewrites it.
			for _, item := range items {
				diff := keyLen - item.keyLen
				if diff < 0 {
					diff = -diff
				}
				if float64(diff) > item.maxKeyDiff {
					continue
				}
				ratio, bound, ok := c.rules.similarity(key, norm, item.key, item.normKey)
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
				out = append(out, match.Candidate{
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
	return out, nearMisses, nil
}

// bucketItems returns the index items a window of this morpheme count and
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

// windowKey concatenates the morpheme keys of the window [i, j].
func windowKey(morphs []morpheme, i, j int) string {
	if i == j {
		return morphs[i].key
	}
	var b strings.Builder
	for k := i; k <= j; k++ {
		b.WriteString(morphs[k].key)
	}
	return b.String()
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
