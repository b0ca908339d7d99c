package phonofix

import "sync"

// EventKind classifies a correction event.
type EventKind string

const (
	// EventCorrection reports one accepted rewrite.
	EventCorrection EventKind = "correction"

	// EventFuzzyError reports a recovered phonetic conversion failure.
	EventFuzzyError EventKind = "fuzzy_error"

	// EventDegraded reports that a pipeline stage fell back to a reduced
	// strategy (for example exact-only matching after a fuzzy failure).
	EventDegraded EventKind = "degraded"

	// EventWarning reports a rejected near-miss candidate. Emitted only in
	// ModeEvaluation.
	EventWarning EventKind = "warning"
)

// Pipeline stages named in fuzzy_error and degraded events.
const (
	StageBackendInit  = "backend_init"
	StageCandidateGen = "candidate_gen"
	StageScoring      = "scoring"
	StageNormalize    = "normalize"
)

// Fallback strategies named in fuzzy_error and degraded events.
const (
	FallbackExactOnly = "exact_only"
	FallbackNone      = "none"
)

// Event is the observability record emitted during a Correct call. Kind
// determines which fields are populated. Start and End are byte offsets
// into the input text of the call, before any rewriting. The core emits
// events; it does not format them.
type Event struct {
	Kind    EventKind
	Engine  string
	TraceID string

	// Correction and warning fields.
	Start       int
	End         int
	Original    string
	Replacement string
	Canonical   string
	Alias       string
	Score       float64
	HasContext  bool

	// Failure fields.
	Stage    string
	Fallback string
	Reason   string
	Err      string
}

// Observer receives events during a Correct call. Observers run on the
// calling goroutine and must not block; a panicking observer is recovered
// and logged by the corrector.
type Observer func(Event)

// EventBuffer is an in-memory Observer sink. The zero value is ready to use.
// Safe for concurrent use.
type EventBuffer struct {
	mu     sync.Mutex
	events []Event
}

// Observe appends e to the buffer. It satisfies the Observer callback shape:
// register buf.Observe on a corrector.
func (b *EventBuffer) Observe(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

// Events returns a copy of the buffered events in emission order.
func (b *EventBuffer) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Reset discards all buffered events.
func (b *EventBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
