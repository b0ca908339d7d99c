package observe

import (
	"context"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"
)

// NewTraceID returns a fresh ULID for correlating the events of one Correct
// call across composed correctors. ULIDs sort by creation time, so event
// streams from concurrent calls interleave in a readable order.
func NewTraceID() string {
	return ulid.Make().String()
}

// TraceIDFromContext returns the active OTel trace ID when ctx carries a
// span, falling back to a fresh ULID otherwise. Correctors use it to mint
// per-call IDs that join the caller's trace when one exists.
func TraceIDFromContext(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return NewTraceID()
}
