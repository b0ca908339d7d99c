// Package observe provides library-wide observability primitives for
// Phonofix: OpenTelemetry metrics, a Prometheus-backed provider bootstrap,
// and ULID trace IDs shared across composed correctors.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Phonofix metrics.
const meterName = "github.com/JonesHong/phonofix"

// Metrics holds all OpenTelemetry metric instruments for the library.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation. A nil *Metrics is valid: every Record method
// becomes a no-op, so correctors never need to guard their call sites.
type Metrics struct {
	// CorrectionDuration tracks end-to-end Correct call latency. Use with
	// attribute: attribute.String("engine", ...).
	CorrectionDuration metric.Float64Histogram

	// --- Counters ---

	// Corrections counts accepted rewrites. Use with attribute:
	//   attribute.String("engine", ...)
	Corrections metric.Int64Counter

	// RejectedCandidates counts near-miss candidates discarded during
	// conflict resolution. Use with attribute:
	//   attribute.String("engine", ...)
	RejectedCandidates metric.Int64Counter

	// FuzzyErrors counts recovered phonetic conversion failures. Use with
	// attributes:
	//   attribute.String("engine", ...), attribute.String("stage", ...)
	FuzzyErrors metric.Int64Counter

	// DegradedCalls counts Correct calls that fell back to a reduced
	// strategy. Use with attributes:
	//   attribute.String("engine", ...), attribute.String("fallback", ...)
	DegradedCalls metric.Int64Counter

	// CacheHits and CacheMisses count phonetic key cache lookups. Use with
	// attribute: attribute.String("engine", ...).
	CacheHits   metric.Int64Counter
	CacheMisses metric.Int64Counter

	// --- Gauges ---

	// LiveCorrectors tracks the number of constructed correctors that have
	// not been released. Use with attribute:
	//   attribute.String("engine", ...)
	LiveCorrectors metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// in-process text matching rather than network calls.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CorrectionDuration, err = m.Float64Histogram("phonofix.correction.duration",
		metric.WithDescription("Latency of a single Correct call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Corrections, err = m.Int64Counter("phonofix.corrections",
		metric.WithDescription("Total accepted rewrites by engine."),
	); err != nil {
		return nil, err
	}
	if met.RejectedCandidates, err = m.Int64Counter("phonofix.candidates.rejected",
		metric.WithDescription("Total candidates discarded during conflict resolution by engine."),
	); err != nil {
		return nil, err
	}
	if met.FuzzyErrors, err = m.Int64Counter("phonofix.fuzzy.errors",
		metric.WithDescription("Total recovered phonetic conversion failures by engine and stage."),
	); err != nil {
		return nil, err
	}
	if met.DegradedCalls, err = m.Int64Counter("phonofix.degraded.calls",
		metric.WithDescription("Total Correct calls that fell back to a reduced strategy."),
	); err != nil {
		return nil, err
	}
	if met.CacheHits, err = m.Int64Counter("phonofix.cache.hits",
		metric.WithDescription("Total phonetic key cache hits by engine."),
	); err != nil {
		return nil, err
	}
	if met.CacheMisses, err = m.Int64Counter("phonofix.cache.misses",
		metric.WithDescription("Total phonetic key cache misses by engine."),
	); err != nil {
		return nil, err
	}

	if met.LiveCorrectors, err = m.Int64UpDownCounter("phonofix.correctors.live",
		metric.WithDescription("Number of constructed correctors not yet released."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordDuration records one Correct call latency in seconds.
func (m *Metrics) RecordDuration(ctx context.Context, engine string, seconds float64) {
	if m == nil || m.CorrectionDuration == nil {
		return
	}
	m.CorrectionDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("engine", engine)),
	)
}

// RecordCorrections records n accepted rewrites for engine.
func (m *Metrics) RecordCorrections(ctx context.Context, engine string, n int64) {
	if m == nil || m.Corrections == nil || n == 0 {
		return
	}
	m.Corrections.Add(ctx, n,
		metric.WithAttributes(attribute.String("engine", engine)),
	)
}

// RecordRejected records n discarded candidates for engine.
func (m *Metrics) RecordRejected(ctx context.Context, engine string, n int64) {
	if m == nil || m.RejectedCandidates == nil || n == 0 {
		return
	}
	m.RejectedCandidates.Add(ctx, n,
		metric.WithAttributes(attribute.String("engine", engine)),
	)
}

// RecordFuzzyError records one recovered conversion failure at stage.
func (m *Metrics) RecordFuzzyError(ctx context.Context, engine, stage string) {
	if m == nil || m.FuzzyErrors == nil {
		return
	}
	m.FuzzyErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("engine", engine),
			attribute.String("stage", stage),
		),
	)
}

// RecordDegraded records one Correct call that fell back to strategy.
func (m *Metrics) RecordDegraded(ctx context.Context, engine, fallback string) {
	if m == nil || m.DegradedCalls == nil {
		return
	}
	m.DegradedCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("engine", engine),
			attribute.String("fallback", fallback),
		),
	)
}

// RecordCacheLookup records one phonetic key cache lookup outcome.
func (m *Metrics) RecordCacheLookup(ctx context.Context, engine string, hit bool) {
	if m == nil {
		return
	}
	counter := m.CacheMisses
	if hit {
		counter = m.CacheHits
	}
	if counter == nil {
		return
	}
	counter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("engine", engine)),
	)
}

// AddLiveCorrectors moves the live corrector gauge by delta for engine.
func (m *Metrics) AddLiveCorrectors(ctx context.Context, engine string, delta int64) {
	if m == nil || m.LiveCorrectors == nil {
		return
	}
	m.LiveCorrectors.Add(ctx, delta,
		metric.WithAttributes(attribute.String("engine", engine)),
	)
}
