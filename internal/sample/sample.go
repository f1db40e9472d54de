// Package sample produces the synthetic records a run sends: an HTTP
// server span, a request counter with a latency histogram and an INFO
// log line.
package sample

import (
	"fmt"
	"time"

	"go.opentelemetry.io/collector/pdata/pcommon"

	"github.com/ollystack/otlpgen/internal/ids"
	"github.com/ollystack/otlpgen/internal/telemetry"
)

// DurationBounds are the explicit bucket bounds, in seconds, of the
// request duration histogram.
var DurationBounds = []float64{0.1, 0.5, 1.0, 2.0, 5.0}

const metricWindow = 60 * time.Second

// Factory builds sample records. Identifiers and values come from the
// generator, so a seeded generator yields a reproducible run apart from
// timestamps.
type Factory struct {
	ids *ids.Generator
	now func() time.Time
}

// NewFactory creates a Factory. A nil clock defaults to time.Now.
func NewFactory(gen *ids.Generator, now func() time.Time) *Factory {
	if now == nil {
		now = time.Now
	}
	return &Factory{ids: gen, now: now}
}

// Scope returns the instrumentation scope used for signal.
func Scope(signal telemetry.Signal, version string) telemetry.Scope {
	return telemetry.Scope{Name: "otlpgen/" + signal.String(), Version: version}
}

// Span returns a root SERVER span lasting between 1ms and 100ms.
func (f *Factory) Span() telemetry.Span {
	start := f.now()
	d := time.Millisecond + time.Duration(f.ids.Int63n(int64(99*time.Millisecond)+1))

	return telemetry.Span{
		TraceID:   f.ids.NewTraceID(),
		SpanID:    f.ids.NewSpanID(),
		Name:      "test-operation",
		Kind:      telemetry.SpanKindServer,
		StartTime: start,
		EndTime:   start.Add(d),
		Status:    telemetry.SpanStatusOK,
		Attributes: telemetry.Attributes{
			telemetry.String("http.method", "GET"),
			telemetry.String("http.url", "http://example.com/api/test"),
			telemetry.Int("http.status_code", 200),
		},
	}
}

// Metrics returns one batch: a monotonic request counter and a request
// duration histogram, both covering the last 60 seconds.
func (f *Factory) Metrics() []telemetry.MetricPoint {
	now := f.now()
	start := now.Add(-metricWindow)

	buckets := make([]uint64, len(DurationBounds)+1)
	var count uint64
	for i := range buckets {
		buckets[i] = uint64(f.ids.Int63n(50))
		count += buckets[i]
	}

	return []telemetry.MetricPoint{
		{
			Name:        "http_requests_total",
			Description: "Total number of HTTP requests",
			Unit:        "1",
			Kind:        telemetry.MetricKindSum,
			Monotonic:   true,
			StartTime:   start,
			Time:        now,
			Value:       telemetry.IntNumber(100 + f.ids.Int63n(901)),
			Attributes: telemetry.Attributes{
				telemetry.String("method", "GET"),
				telemetry.String("status", "200"),
			},
		},
		{
			Name:        "http_request_duration_seconds",
			Description: "HTTP request duration in seconds",
			Unit:        "s",
			Kind:        telemetry.MetricKindHistogram,
			StartTime:   start,
			Time:        now,
			Histogram: telemetry.Histogram{
				Count:          count,
				Sum:            10 + f.ids.Float64()*90,
				ExplicitBounds: append([]float64(nil), DurationBounds...),
				BucketCounts:   buckets,
			},
			Attributes: telemetry.Attributes{
				telemetry.String("method", "GET"),
			},
		},
	}
}

// Log returns an INFO record. Non-empty trace and span IDs correlate it
// with a previously sent span.
func (f *Factory) Log(traceID pcommon.TraceID, spanID pcommon.SpanID) telemetry.LogRecord {
	now := f.now()
	return telemetry.LogRecord{
		Time:         now,
		ObservedTime: now,
		Severity:     telemetry.SeverityInfo,
		SeverityText: telemetry.SeverityInfo.String(),
		Body:         fmt.Sprintf("Test log message at %s", now.Format(time.RFC3339)),
		Attributes: telemetry.Attributes{
			telemetry.String("log.file", "test.log"),
			telemetry.String("user.id", "test-user"),
		},
		TraceID: traceID,
		SpanID:  spanID,
	}
}
