package router

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/JonesHong/phonofix"
	"github.com/JonesHong/phonofix/internal/match"
	"github.com/JonesHong/phonofix/internal/surface"
	"github.com/JonesHong/phonofix/internal/textutil"
	"github.com/JonesHong/phonofix/observe"
)

// engineName tags logs, events, and metrics from this package.
const engineName = "router"

// Config assembles a unified corrector from per-language parts.
type Config struct {
	// Correctors maps each language to the corrector serving its segments.
	// Languages without an entry pass through uncorrected.
	Correctors map[phonofix.Lang]phonofix.Corrector

	// CrossLingual maps surfaces that span scripts (like "k8s叢集") to their
	// canonical replacements. The router rewrites them before segmentation so
	// they are never split across correctors; when matches overlap, the
	// longest surface wins.
	CrossLingual map[string]string

	// Logger receives the router's own log lines. Defaults to slog.Default().
	Logger *slog.Logger
}

// Corrector routes each single-script segment of the input to the corrector
// registered for its language and concatenates the results. Immutable after
// construction and safe for concurrent use.
type Corrector struct {
	correctors map[phonofix.Lang]phonofix.Corrector
	preIndex   *surface.Index
	preTargets map[string]string
	logger     *slog.Logger
	metrics    *observe.Metrics
}

var _ phonofix.Corrector = (*Corrector)(nil)

// New builds a unified corrector over whichever per-language correctors the
// caller constructed.
func New(cfg Config) *Corrector {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	targets := make(map[string]string, len(cfg.CrossLingual))
	surfaces := make([]string, 0, len(cfg.CrossLingual))
	for s, canonical := range cfg.CrossLingual {
		if s == "" || s == canonical {
			continue
		}
		targets[s] = canonical
		surfaces = append(surfaces, s)
	}

	return &Corrector{
		correctors: maps.Clone(cfg.Correctors),
		preIndex:   surface.NewIndex(surfaces),
		preTargets: targets,
		logger:     logger.With("component", "router"),
		metrics:    observe.DefaultMetrics(),
	}
}

// Correct applies the cross-lingual pre-matching map, splits the result into
// single-script segments, corrects each segment with its language's
// corrector, and returns the concatenated output.
//
// Every event of the call carries one shared trace ID. Pre-matching events
// come first with offsets into the input text; segment events follow in
// segment order with offsets into the routed text, the input after
// pre-matching. The two coincide when no cross-lingual map is configured.
func (c *Corrector) Correct(ctx context.Context, text string, opts ...phonofix.CorrectOption) (string, []phonofix.Event, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	call := phonofix.NewCorrectCall(text, opts...)
	if call.TraceID == "" {
		call.TraceID = observe.TraceIDFromContext(ctx)
	}

	routed, events := c.preMatch(text, call.TraceID)
	preMatched := len(events)

	segs := Route(routed)
	var out strings.Builder
	out.Grow(len(routed))
	for _, seg := range segs {
		sub := c.correctors[seg.Lang]
		if sub == nil {
			out.WriteString(seg.Text)
			continue
		}

		segOpts := []phonofix.CorrectOption{phonofix.WithTraceID(call.TraceID)}
		if call.Silent {
			segOpts = append(segOpts, phonofix.WithSilent())
		}
		// Chinese keyword windows are tight enough that the segment is its
		// own context; English and Japanese keywords usually live in the
		// surrounding CJK text, so those correctors see the whole input.
		if seg.Lang != phonofix.LangChinese {
			segOpts = append(segOpts, phonofix.WithFullContext(routed, seg.Start))
		}

		corrected, segEvents, err := sub.Correct(ctx, seg.Text, segOpts...)
		if err != nil {
			return "", nil, fmt.Errorf("%s segment at byte %d: %w", seg.Lang, seg.Start, err)
		}
		for _, ev := range segEvents {
			ev.Start += seg.Start
			ev.End += seg.Start
			events = append(events, ev)
		}
		out.WriteString(corrected)
	}

	c.metrics.RecordCorrections(ctx, engineName, int64(preMatched))
	c.metrics.RecordDuration(ctx, engineName, time.Since(start).Seconds())

	if !call.Silent {
		c.logger.Debug("unified correct done",
			"trace_id", call.TraceID,
			"segments", len(segs),
			"pre_matched", preMatched,
			"events", len(events),
			"duration", time.Since(start),
		)
	}
	return out.String(), events, nil
}

// preMatch rewrites every cross-lingual surface to its canonical form before
// routing. Overlapping matches resolve longest-first through the shared
// conflict resolver; events report byte offsets into text.
func (c *Corrector) preMatch(text, traceID string) (string, []phonofix.Event) {
	events := make([]phonofix.Event, 0, 4)
	if c.preIndex.Len() == 0 || text == "" {
		return text, events
	}
	occs := c.preIndex.Occurrences(text)
	if len(occs) == 0 {
		return text, events
	}

	runeOf := textutil.ByteToRuneIndex(text)
	byteOf := textutil.RuneByteOffsets(text)
	patterns := c.preIndex.Patterns()
	cands := make([]match.Candidate, 0, len(occs))
	for _, occ := range occs {
		surf := patterns[occ.Pattern]
		startRune, endRune := runeOf[occ.Start], runeOf[occ.End]
		cands = append(cands, match.Candidate{
			Start:       startRune,
			End:         endRune,
			Surface:     surf,
			Replacement: c.preTargets[surf],
			Canonical:   c.preTargets[surf],
			Alias:       surf,
			// Longer surfaces sort first so "k8s叢集" beats "k8s".
			Score: -float64(endRune - startRune),
		})
	}

	accepted, _ := match.Resolve(cands)
	for _, a := range accepted {
		events = append(events, phonofix.Event{
			Kind:        phonofix.EventCorrection,
			Engine:      engineName,
			TraceID:     traceID,
			Start:       byteOf[a.Start],
			End:         byteOf[a.End],
			Original:    a.Surface,
			Replacement: a.Replacement,
			Canonical:   a.Canonical,
			Alias:       a.Alias,
		})
	}
	return match.Rewrite(text, accepted), events
}
