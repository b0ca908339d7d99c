package chinese

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
const engineName = "zh"

// fuzzyRuleFloor is the minimum acceptance threshold applied when a
// confusion rule, rather than edit distance, scored the pair.
const fuzzyRuleFloor = 0.15

// nearMissMargin is how far above the acceptance threshold a rejected
// candidate may sit and still earn an evaluation-mode warning.
const nearMissMargin = 0.1

// indexItem is one search target: a canonical surface, a user alias, or a
// generated variant, with its phonetic attributes resolved at build time.
type indexItem struct {
	surface   string
	canonical string
	isAlias   bool
	weight    float64
	keywords  []string
	excludes  []string
	key       string
	syllables []string
	runeLen   int
	mixed     bool
}

// alias returns the surface to report in events: the matched alias for
// alias items, empty for direct canonical matches.
func (it *indexItem) alias() string {
	if it.isAlias {
		return it.surface
	}
	return ""
}

// bucketKey addresses the fuzzy search index: window rune length plus the
// first initial of the observed segment.
type bucketKey struct {
	length  int
	initial string
}

// Corrector rewrites phonetically confusable Han spans to their canonical
// surfaces. Immutable after construction and safe for concurrent use.
type Corrector struct {
	cfg     phonofix.CorrectorConfig
	logger  *slog.Logger
	metrics *observe.Metrics
	backend *Backend
	rules   *rules
	tok     Tokenizer

	items      []*indexItem
	exact      *surface.Index
	exactItems map[string][]*indexItem
	buckets    map[bucketKey][]*indexItem
	lengths    []int
	protector  *surface.Protector
	prox       *surface.Proximity
}

var _ phonofix.Corrector = (*Corrector)(nil)

func newCorrector(e *Engine, cfg phonofix.CorrectorConfig, items []*indexItem) *Corrector {
	c := &Corrector{
		cfg:        cfg,
		logger:     cfg.Logger.With("component", "chinese"),
		metrics:    observe.DefaultMetrics(),
		backend:    e.backend,
		rules:      e.rules,
		items:      items,
		exactItems: make(map[string][]*indexItem),
		buckets:    make(map[bucketKey][]*indexItem),
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

		// Register the item under every initial of its first syllable's
		// confusion group, so a lookup by the observed initial finds it.
		fi := firstInitial(item.syllables)
		initials := []string{fi}
		if group, ok := c.rules.initialGroups[fi]; ok {
			for _, alt := range c.rules.groupInitials[group] {
				if alt != fi {
					initials = append(initials, alt)
				}
			}
		}
		for _, ini := range initials {
			bk := bucketKey{length: item.runeLen, initial: ini}
			c.buckets[bk] = append(c.buckets[bk], item)
		}

		if _, dup := lengthSeen[item.runeLen]; !dup {
			lengthSeen[item.runeLen] = struct{}{}
			c.lengths = append(c.lengths, item.runeLen)
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
// outside protected intervals.
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

// fuzzyCandidates slides equal-length windows over the matchable tokens and
// drafts a candidate for every index item within its dynamic threshold. The
// second return lists threshold rejections close enough to warn about in
// evaluation mode.
func (c *Corrector) fuzzyCandidates(ctx context.Context, text string, runeOf []int, protected []surface.Interval, cc match.ContextState) ([]match.Candidate, []match.Candidate, error) {
	toks := c.tok.Tokenize(text)
	if len(toks) == 0 || len(c.lengths) == 0 {
		return nil, nil, nil
	}

	// runLen[i] is the number of byte-adjacent tokens starting at i, so a
	// window of length L at i is contiguous in text iff runLen[i] >= L.
	runLen := make([]int, len(toks))
	for i := len(toks) - 1; i >= 0; i-- {
		runLen[i] = 1
		if i+1 < len(toks) && toks[i].End == toks[i+1].Start {
			runLen[i] = runLen[i+1] + 1
		}
	}

	var out, nearMisses []match.Candidate
	for i := range toks {
		for _, length := range c.lengths {
			if length > runLen[i] {
				break
			}
			j := i + length - 1
			segment := text[toks[i].Start:toks[j].End]
			segStart, segEnd := runeOf[toks[i].Start], runeOf[toks[j].End]
			if surface.AnyOverlap(protected, segStart, segEnd) {
				continue
			}

			segSyls, err := c.backend.Syllables(ctx, segment)
			if err != nil {
				return nil, nil, err
			}
			segKey := strings.Join(segSyls, "")

			// Windows that already read as a canonical draft a candidate
			// too: the accepted no-op consumes the span in Resolve, so an
			// alias embedded in correct text never rewrites it.
			for _, item := range c.buckets[bucketKey{length: length, initial: firstInitial(segSyls)}] {
				if !c.rules.initialsGatePass(segment, segSyls, item.syllables, item.runeLen, item.mixed) {
					continue
				}
				sim, byRule := c.rules.similarity(segKey, item.key, segSyls, item.syllables)
				threshold := dynamicThreshold(item.runeLen, item.mixed)
				if byRule {
					threshold = max(threshold, fuzzyRuleFloor)
				}
				if sim > threshold {
					if c.cfg.Mode == phonofix.ModeEvaluation && sim <= threshold+nearMissMargin {
						nearMisses = append(nearMisses, match.Candidate{
							Start:       segStart,
							End:         segEnd,
							Surface:     segment,
							Replacement: item.canonical,
							Canonical:   item.canonical,
							Alias:       item.alias(),
							Score:       sim,
							ErrorRatio:  sim,
						})
					}
					continue
				}
				ok, bonus, hasCtx := cc.Gate(item.excludes, item.keywords, segStart, segEnd)
				if !ok {
					continue
				}
				out = append(out, match.Candidate{
					Start:       segStart,
					End:         segEnd,
					Surface:     segment,
					Replacement: item.canonical,
					Canonical:   item.canonical,
					Alias:       item.alias(),
					Score:       sim - item.weight - bonus,
					ErrorRatio:  sim,
					HasContext:  hasCtx,
				})
			}
		}
	}
	return out, nearMisses, nil
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
