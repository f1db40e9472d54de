package payload

import (
	"fmt"

	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/ollystack/otlpgen/internal/telemetry"
)

// TracesData wraps a single span in the resource/scope/spans nesting of
// an OTLP trace export request.
func TracesData(res telemetry.Resource, scope telemetry.Scope, span telemetry.Span) (ptrace.Traces, error) {
	if err := validateSpan(span); err != nil {
		return ptrace.Traces{}, constructionError(telemetry.SignalTraces, span.Name, err)
	}

	td := ptrace.NewTraces()
	rs := td.ResourceSpans().AppendEmpty()
	if err := fillResource(rs.Resource(), res); err != nil {
		return ptrace.Traces{}, constructionError(telemetry.SignalTraces, "resource", err)
	}

	ss := rs.ScopeSpans().AppendEmpty()
	fillScope(ss.Scope(), scope)

	s := ss.Spans().AppendEmpty()
	s.SetTraceID(span.TraceID)
	s.SetSpanID(span.SpanID)
	s.SetParentSpanID(span.ParentSpanID)
	s.SetName(span.Name)
	s.SetKind(ptrace.SpanKind(span.Kind))
	s.SetStartTimestamp(pcommon.NewTimestampFromTime(span.StartTime))
	s.SetEndTimestamp(pcommon.NewTimestampFromTime(span.EndTime))
	s.Status().SetCode(ptrace.StatusCode(span.Status))
	s.Status().SetMessage(span.StatusMessage)
	if err := putAttributes(s.Attributes(), span.Attributes); err != nil {
		return ptrace.Traces{}, constructionError(telemetry.SignalTraces, span.Name, err)
	}

	return td, nil
}

// BuildTraces encodes span into a trace export request. The envelope's
// Identifier is the span's trace ID.
func (b *Builder) BuildTraces(res telemetry.Resource, scope telemetry.Scope, span telemetry.Span) (Envelope, error) {
	td, err := TracesData(res, scope, span)
	if err != nil {
		return Envelope{}, err
	}

	var body []byte
	switch b.encoding {
	case EncodingProto:
		body, err = (&ptrace.ProtoMarshaler{}).MarshalTraces(td)
	default:
		body, err = (&ptrace.JSONMarshaler{}).MarshalTraces(td)
	}
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode traces: %w", err)
	}

	return b.envelope(telemetry.SignalTraces, body, td.SpanCount(), span.TraceID.String()), nil
}

func validateSpan(span telemetry.Span) error {
	switch {
	case span.Name == "":
		return ErrMissingName
	case span.TraceID.IsEmpty():
		return ErrInvalidTraceID
	case span.SpanID.IsEmpty():
		return ErrInvalidSpanID
	case span.StartTime.IsZero() || span.EndTime.IsZero():
		return ErrMissingTimestamp
	case span.EndTime.Before(span.StartTime):
		return ErrInvalidTimeWindow
	case span.Kind < telemetry.SpanKindUnspecified || span.Kind > telemetry.SpanKindConsumer:
		return ErrInvalidSpanKind
	case span.Status < telemetry.SpanStatusUnset || span.Status > telemetry.SpanStatusError:
		return ErrInvalidStatusCode
	}
	return nil
}
