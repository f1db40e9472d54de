package sample

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/pdata/pcommon"

	"github.com/ollystack/otlpgen/internal/ids"
	"github.com/ollystack/otlpgen/internal/payload"
	"github.com/ollystack/otlpgen/internal/telemetry"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestFactory(seed int64) *Factory {
	return NewFactory(ids.NewSeeded(seed), func() time.Time { return fixedNow })
}

func TestSpan(t *testing.T) {
	f := newTestFactory(1)

	for i := 0; i < 200; i++ {
		span := f.Span()
		assert.False(t, span.TraceID.IsEmpty())
		assert.False(t, span.SpanID.IsEmpty())
		assert.Equal(t, telemetry.SpanKindServer, span.Kind)
		d := span.Duration()
		assert.True(t, d >= time.Millisecond && d <= 100*time.Millisecond, "duration %s", d)

		code, ok := span.Attributes.Get("http.status_code")
		require.True(t, ok)
		assert.Equal(t, int64(200), code.Int())
	}
}

func TestMetrics_AreValid(t *testing.T) {
	f := newTestFactory(2)

	for i := 0; i < 100; i++ {
		points := f.Metrics()
		require.Len(t, points, 2)

		assert.Equal(t, 60*time.Second, points[0].Time.Sub(points[0].StartTime))
		assert.GreaterOrEqual(t, points[0].Value.Int, int64(100))
		assert.LessOrEqual(t, points[0].Value.Int, int64(1000))

		hist := points[1].Histogram
		require.NoError(t, payload.ValidateHistogram(hist))
		assert.GreaterOrEqual(t, hist.Sum, 10.0)
		assert.Less(t, hist.Sum, 100.0)
	}
}

func TestLog(t *testing.T) {
	f := newTestFactory(3)
	span := f.Span()

	record := f.Log(span.TraceID, span.SpanID)
	assert.Equal(t, telemetry.SeverityInfo, record.Severity)
	assert.Equal(t, "INFO", record.SeverityText)
	assert.True(t, strings.HasPrefix(record.Body, "Test log message at 2024-03-01T12:00:00Z"))
	assert.Equal(t, span.TraceID, record.TraceID)

	uncorrelated := f.Log(pcommon.NewTraceIDEmpty(), pcommon.NewSpanIDEmpty())
	assert.True(t, uncorrelated.TraceID.IsEmpty())
}

func TestFactory_Deterministic(t *testing.T) {
	a, b := newTestFactory(42), newTestFactory(42)
	assert.Equal(t, a.Span(), b.Span())
	assert.Equal(t, a.Metrics(), b.Metrics())
}

func TestScope(t *testing.T) {
	assert.Equal(t, telemetry.Scope{Name: "otlpgen/logs", Version: "1.2.3"}, Scope(telemetry.SignalLogs, "1.2.3"))
}
