package payload

import (
	"fmt"

	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/plog"

	"github.com/ollystack/otlpgen/internal/telemetry"
)

// LogsData wraps a single log record in the resource/scope/logRecords
// nesting of an OTLP logs export request. The severity number is range
// checked; the severity text is passed through as given.
func LogsData(res telemetry.Resource, scope telemetry.Scope, record telemetry.LogRecord) (plog.Logs, error) {
	switch {
	case !record.Severity.Valid():
		return plog.Logs{}, constructionError(telemetry.SignalLogs, "severityNumber",
			fmt.Errorf("%w: got %d", ErrSeverityOutOfRange, record.Severity))
	case record.Time.IsZero():
		return plog.Logs{}, constructionError(telemetry.SignalLogs, "timeUnixNano", ErrMissingTimestamp)
	}

	ld := plog.NewLogs()
	rl := ld.ResourceLogs().AppendEmpty()
	if err := fillResource(rl.Resource(), res); err != nil {
		return plog.Logs{}, constructionError(telemetry.SignalLogs, "resource", err)
	}

	sl := rl.ScopeLogs().AppendEmpty()
	fillScope(sl.Scope(), scope)

	lr := sl.LogRecords().AppendEmpty()
	lr.SetTimestamp(pcommon.NewTimestampFromTime(record.Time))
	if !record.ObservedTime.IsZero() {
		lr.SetObservedTimestamp(pcommon.NewTimestampFromTime(record.ObservedTime))
	}
	lr.SetSeverityNumber(plog.SeverityNumber(record.Severity))
	lr.SetSeverityText(record.SeverityText)
	lr.Body().SetStr(record.Body)
	lr.SetTraceID(record.TraceID)
	lr.SetSpanID(record.SpanID)
	if err := putAttributes(lr.Attributes(), record.Attributes); err != nil {
		return plog.Logs{}, constructionError(telemetry.SignalLogs, "attributes", err)
	}

	return ld, nil
}

// BuildLogs encodes record into a logs export request.
func (b *Builder) BuildLogs(res telemetry.Resource, scope telemetry.Scope, record telemetry.LogRecord) (Envelope, error) {
	ld, err := LogsData(res, scope, record)
	if err != nil {
		return Envelope{}, err
	}

	var body []byte
	switch b.encoding {
	case EncodingProto:
		body, err = (&plog.ProtoMarshaler{}).MarshalLogs(ld)
	default:
		body, err = (&plog.JSONMarshaler{}).MarshalLogs(ld)
	}
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode logs: %w", err)
	}

	return b.envelope(telemetry.SignalLogs, body, ld.LogRecordCount(), ""), nil
}
