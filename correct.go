package phonofix

// CorrectOption adjusts a single Correct call.
type CorrectOption func(*CorrectCall)

// CorrectCall is the resolved per-call configuration. Correctors build one
// with NewCorrectCall; callers interact through CorrectOption values only.
type CorrectCall struct {
	// FullContext is the text consulted by keyword and exclusion checks.
	// Defaults to the corrected text itself.
	FullContext string

	// ContextOffset is the byte offset of the corrected text inside
	// FullContext, used to translate window positions for the
	// distance-weighted keyword bonus. Zero when FullContext is the text.
	ContextOffset int

	// Silent suppresses per-call logging. Events still reach observers.
	Silent bool

	// TraceID overrides the generated per-call trace ID so composed
	// correctors can share one. Empty means generate.
	TraceID string
}

// WithFullContext sets the context text consulted by keyword and exclusion
// checks, and the byte offset of the corrected text within it. Routers use
// this to give segment correctors visibility over the whole input.
func WithFullContext(context string, offset int) CorrectOption {
	return func(c *CorrectCall) {
		c.FullContext = context
		c.ContextOffset = offset
	}
}

// WithSilent suppresses the corrector's per-call logging. Registered
// observers still receive every event.
func WithSilent() CorrectOption {
	return func(c *CorrectCall) {
		c.Silent = true
	}
}

// WithTraceID pins the trace ID carried by every event of the call.
func WithTraceID(id string) CorrectOption {
	return func(c *CorrectCall) {
		c.TraceID = id
	}
}

// NewCorrectCall resolves opts against text's defaults.
func NewCorrectCall(text string, opts ...CorrectOption) CorrectCall {
	call := CorrectCall{FullContext: text}
	for _, o := range opts {
		o(&call)
	}
	if call.FullContext == "" {
		call.FullContext = text
		call.ContextOffset = 0
	}
	return call
}
