package payload

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/protobuf/proto"

	"github.com/ollystack/otlpgen/internal/telemetry"
)

var (
	testResource = telemetry.Resource{Attributes: telemetry.Attributes{
		telemetry.String("service.name", "test-service"),
		telemetry.String("service.version", "1.0.0"),
	}}
	testScope = telemetry.Scope{Name: "otlpgen/test", Version: "0.0.1"}
)

func testSpan() telemetry.Span {
	start := time.Unix(1700000000, 123456789)
	return telemetry.Span{
		TraceID:   pcommon.TraceID([16]byte{0x0a, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}),
		SpanID:    pcommon.SpanID([8]byte{0x0b, 2, 3, 4, 5, 6, 7, 8}),
		Name:      "test-operation",
		Kind:      telemetry.SpanKindServer,
		StartTime: start,
		EndTime:   start.Add(42 * time.Millisecond),
		Status:    telemetry.SpanStatusOK,
		Attributes: telemetry.Attributes{
			telemetry.String("http.method", "GET"),
			telemetry.Int("http.status_code", 200),
			telemetry.Ints("baz", 1, 2, 3),
		},
	}
}

func TestBuildTraces_RoundTrip(t *testing.T) {
	span := testSpan()

	env, err := NewBuilder(EncodingJSON).BuildTraces(testResource, testScope, span)
	require.NoError(t, err)

	assert.Equal(t, telemetry.SignalTraces, env.Signal)
	assert.Equal(t, "application/json", env.ContentType)
	assert.Equal(t, 1, env.Items)
	assert.Equal(t, "0a0102030405060708090a0b0c0d0e0f", env.Identifier)

	td, err := (&ptrace.JSONUnmarshaler{}).UnmarshalTraces(env.Body)
	require.NoError(t, err)
	require.Equal(t, 1, td.SpanCount())

	got := td.ResourceSpans().At(0).ScopeSpans().At(0).Spans().At(0)
	assert.Equal(t, span.TraceID, got.TraceID())
	assert.Equal(t, span.SpanID, got.SpanID())
	assert.Equal(t, uint64(span.StartTime.UnixNano()), uint64(got.StartTimestamp()))
	assert.Equal(t, uint64(span.EndTime.UnixNano()), uint64(got.EndTimestamp()))
	assert.Equal(t, ptrace.StatusCodeOk, got.Status().Code())
	assert.Equal(t, ptrace.SpanKindServer, got.Kind())

	code, ok := got.Attributes().Get("http.status_code")
	require.True(t, ok)
	assert.Equal(t, int64(200), code.Int())

	baz, ok := got.Attributes().Get("baz")
	require.True(t, ok)
	assert.Equal(t, 3, baz.Slice().Len())
}

func TestBuildTraces_CollectorJSONEncoding(t *testing.T) {
	span := testSpan()

	env, err := NewBuilder(EncodingJSON).BuildTraces(testResource, testScope, span)
	require.NoError(t, err)

	var doc struct {
		ResourceSpans []struct {
			Resource struct {
				Attributes []map[string]any `json:"attributes"`
			} `json:"resource"`
			ScopeSpans []struct {
				Scope struct {
					Name    string `json:"name"`
					Version string `json:"version"`
				} `json:"scope"`
				Spans []map[string]any `json:"spans"`
			} `json:"scopeSpans"`
		} `json:"resourceSpans"`
	}
	require.NoError(t, json.Unmarshal(env.Body, &doc))
	require.Len(t, doc.ResourceSpans, 1)
	require.Len(t, doc.ResourceSpans[0].ScopeSpans, 1)

	ss := doc.ResourceSpans[0].ScopeSpans[0]
	assert.Equal(t, testScope.Name, ss.Scope.Name)
	require.Len(t, ss.Spans, 1)

	s := ss.Spans[0]
	assert.Equal(t, span.TraceID.String(), s["traceId"])
	assert.Equal(t, span.SpanID.String(), s["spanId"])
	// 64-bit values travel as decimal strings, enums as integers.
	assert.Equal(t, "1700000000123456789", s["startTimeUnixNano"])
	assert.Equal(t, "1700000000165456789", s["endTimeUnixNano"])
	assert.Equal(t, float64(2), s["kind"])
	assert.Equal(t, map[string]any{"code": float64(1)}, s["status"])

	attrs, ok := s["attributes"].([]any)
	require.True(t, ok)
	require.Len(t, attrs, 3)
	assert.Equal(t, map[string]any{
		"key":   "http.status_code",
		"value": map[string]any{"intValue": "200"},
	}, attrs[1])

	assert.NotContains(t, string(env.Body), "instrumentationLibrary")
}

func TestBuildTraces_Protobuf(t *testing.T) {
	span := testSpan()

	env, err := NewBuilder(EncodingProto).BuildTraces(testResource, testScope, span)
	require.NoError(t, err)
	assert.Equal(t, "application/x-protobuf", env.ContentType)

	var req coltracepb.ExportTraceServiceRequest
	require.NoError(t, proto.Unmarshal(env.Body, &req))
	require.Len(t, req.ResourceSpans, 1)

	got := req.ResourceSpans[0].ScopeSpans[0].Spans[0]
	assert.Equal(t, span.TraceID[:], got.TraceId)
	assert.Equal(t, uint64(span.StartTime.UnixNano()), got.StartTimeUnixNano)
	assert.Equal(t, "test-operation", got.Name)
}

func TestBuildTraces_RejectsInvalidSpans(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*telemetry.Span)
		want   error
	}{
		{
			name:   "zero trace id",
			mutate: func(s *telemetry.Span) { s.TraceID = pcommon.NewTraceIDEmpty() },
			want:   ErrInvalidTraceID,
		},
		{
			name:   "zero span id",
			mutate: func(s *telemetry.Span) { s.SpanID = pcommon.NewSpanIDEmpty() },
			want:   ErrInvalidSpanID,
		},
		{
			name:   "end before start",
			mutate: func(s *telemetry.Span) { s.EndTime = s.StartTime.Add(-time.Nanosecond) },
			want:   ErrInvalidTimeWindow,
		},
		{
			name:   "missing start",
			mutate: func(s *telemetry.Span) { s.StartTime = time.Time{} },
			want:   ErrMissingTimestamp,
		},
		{
			name:   "unknown kind",
			mutate: func(s *telemetry.Span) { s.Kind = 9 },
			want:   ErrInvalidSpanKind,
		},
		{
			name:   "unknown status",
			mutate: func(s *telemetry.Span) { s.Status = 3 },
			want:   ErrInvalidStatusCode,
		},
		{
			name:   "empty attribute value",
			mutate: func(s *telemetry.Span) { s.Attributes = telemetry.Attributes{{Key: "nothing"}} },
			want:   ErrUnsupportedValue,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			span := testSpan()
			testCase.mutate(&span)

			_, err := NewBuilder(EncodingJSON).BuildTraces(testResource, testScope, span)

			var cerr *ConstructionError
			require.True(t, errors.As(err, &cerr), "expected a construction error, got %v", err)
			assert.Equal(t, telemetry.SignalTraces, cerr.Signal)
			assert.ErrorIs(t, err, testCase.want)
		})
	}
}

func TestBuildTraces_EqualStartAndEnd(t *testing.T) {
	span := testSpan()
	span.EndTime = span.StartTime

	_, err := NewBuilder(EncodingJSON).BuildTraces(testResource, testScope, span)
	assert.NoError(t, err)
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("JSON")
	require.NoError(t, err)
	assert.Equal(t, EncodingJSON, enc)

	enc, err = ParseEncoding("protobuf")
	require.NoError(t, err)
	assert.Equal(t, EncodingProto, enc)

	_, err = ParseEncoding("xml")
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}
