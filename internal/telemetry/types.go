// Package telemetry defines the synthetic telemetry records otlpgen emits.
package telemetry

import (
	"time"

	"go.opentelemetry.io/collector/pdata/pcommon"
)

// Signal identifies one of the three OTLP signal types
type Signal string

const (
	SignalTraces  Signal = "traces"
	SignalMetrics Signal = "metrics"
	SignalLogs    Signal = "logs"
)

// Signals lists every signal in the order a run emits them.
var Signals = []Signal{SignalTraces, SignalMetrics, SignalLogs}

// Path returns the OTLP/HTTP request path for the signal.
func (s Signal) Path() string {
	return "/v1/" + string(s)
}

func (s Signal) String() string {
	return string(s)
}

// Resource represents the emitting service/host
type Resource struct {
	Attributes Attributes
}

// Scope identifies the instrumentation scope that produced a record
type Scope struct {
	Name    string
	Version string
}

// SpanStatus represents span status
type SpanStatus int32

const (
	SpanStatusUnset SpanStatus = iota
	SpanStatusOK
	SpanStatusError
)

func (s SpanStatus) String() string {
	switch s {
	case SpanStatusUnset:
		return "UNSET"
	case SpanStatusOK:
		return "OK"
	case SpanStatusError:
		return "ERROR"
	default:
		return "INVALID"
	}
}

// SpanKind represents the type of span
type SpanKind int32

const (
	SpanKindUnspecified SpanKind = iota
	SpanKindInternal
	SpanKindServer
	SpanKindClient
	SpanKindProducer
	SpanKindConsumer
)

func (k SpanKind) String() string {
	switch k {
	case SpanKindUnspecified:
		return "UNSPECIFIED"
	case SpanKindInternal:
		return "INTERNAL"
	case SpanKindServer:
		return "SERVER"
	case SpanKindClient:
		return "CLIENT"
	case SpanKindProducer:
		return "PRODUCER"
	case SpanKindConsumer:
		return "CONSUMER"
	default:
		return "INVALID"
	}
}

// Span represents a trace span
type Span struct {
	TraceID       pcommon.TraceID
	SpanID        pcommon.SpanID
	ParentSpanID  pcommon.SpanID
	Name          string
	Kind          SpanKind
	StartTime     time.Time
	EndTime       time.Time
	Status        SpanStatus
	StatusMessage string
	Attributes    Attributes
}

// Duration returns the time between the span's start and end.
func (s Span) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// MetricKind represents the type of metric
type MetricKind int

const (
	MetricKindSum MetricKind = iota
	MetricKindGauge
	MetricKindHistogram
)

func (k MetricKind) String() string {
	switch k {
	case MetricKindSum:
		return "sum"
	case MetricKindGauge:
		return "gauge"
	case MetricKindHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Number is the value of a Sum or Gauge data point.
type Number struct {
	Int      int64
	Double   float64
	IsDouble bool
}

// IntNumber returns an integer Number.
func IntNumber(v int64) Number {
	return Number{Int: v}
}

// DoubleNumber returns a floating point Number.
func DoubleNumber(v float64) Number {
	return Number{Double: v, IsDouble: true}
}

// Histogram is the payload of an explicit bucket histogram data point.
// BucketCounts must hold one more entry than ExplicitBounds and its
// entries must add up to Count.
type Histogram struct {
	Count          uint64
	Sum            float64
	ExplicitBounds []float64
	BucketCounts   []uint64
}

// MetricPoint represents a single metric data point along with the
// metric identity (name, description, unit) it belongs to.
type MetricPoint struct {
	Name        string
	Description string
	Unit        string
	Kind        MetricKind
	Attributes  Attributes
	StartTime   time.Time
	Time        time.Time

	// Value is used by Sum and Gauge points.
	Value Number
	// Monotonic is only meaningful for Sum points.
	Monotonic bool
	// Histogram is only used by Histogram points.
	Histogram Histogram
}

// LogRecord represents a single log entry
type LogRecord struct {
	Time         time.Time
	ObservedTime time.Time
	Severity     Severity
	SeverityText string
	Body         string
	Attributes   Attributes
	TraceID      pcommon.TraceID
	SpanID       pcommon.SpanID
}
