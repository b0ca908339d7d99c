package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// counterValue sums all data points of an int64 counter metric.
func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not an int64 sum", name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordMethods_AccumulateCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCorrections(ctx, "zh", 2)
	m.RecordCorrections(ctx, "en", 1)
	m.RecordRejected(ctx, "zh", 3)
	m.RecordFuzzyError(ctx, "en", "candidate_gen")
	m.RecordDegraded(ctx, "en", "exact_only")
	m.RecordCacheLookup(ctx, "zh", true)
	m.RecordCacheLookup(ctx, "zh", true)
	m.RecordCacheLookup(ctx, "zh", false)
	m.AddLiveCorrectors(ctx, "zh", 1)

	rm := collect(t, reader)

	cases := []struct {
		name string
		want int64
	}{
		{"phonofix.corrections", 3},
		{"phonofix.candidates.rejected", 3},
		{"phonofix.fuzzy.errors", 1},
		{"phonofix.degraded.calls", 1},
		{"phonofix.cache.hits", 2},
		{"phonofix.cache.misses", 1},
		{"phonofix.correctors.live", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := counterValue(t, rm, tc.name); got != tc.want {
				t.Errorf("counter %s = %d, want %d", tc.name, got, tc.want)
			}
		})
	}
}

func TestRecordDuration_ObservesHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordDuration(ctx, "zh", 0.004)
	m.RecordDuration(ctx, "zh", 0.2)

	rm := collect(t, reader)
	metric := findMetric(rm, "phonofix.correction.duration")
	if metric == nil {
		t.Fatal("duration histogram not found")
	}
	hist, ok := metric.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("duration metric is not a float64 histogram")
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 2 {
		t.Errorf("histogram count = %d, want 2", count)
	}
}

func TestRecordMethods_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	// None of these may panic.
	m.RecordDuration(ctx, "zh", 0.1)
	m.RecordCorrections(ctx, "zh", 1)
	m.RecordRejected(ctx, "zh", 1)
	m.RecordFuzzyError(ctx, "zh", "scoring")
	m.RecordDegraded(ctx, "zh", "none")
	m.RecordCacheLookup(ctx, "zh", true)
	m.AddLiveCorrectors(ctx, "zh", -1)
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a == nil || a != b {
		t.Errorf("DefaultMetrics not a stable singleton: %p vs %p", a, b)
	}
}

func TestNewTraceID_UniqueAndWellFormed(t *testing.T) {
	seen := make(map[string]struct{})
	for range 64 {
		id := NewTraceID()
		if len(id) != 26 {
			t.Fatalf("trace ID %q has length %d, want 26", id, len(id))
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate trace ID %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestTraceIDFromContext_FallsBackToULID(t *testing.T) {
	id := TraceIDFromContext(context.Background())
	if len(id) != 26 {
		t.Errorf("fallback trace ID %q has length %d, want 26", id, len(id))
	}
}
