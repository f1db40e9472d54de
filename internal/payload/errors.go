package payload

import (
	"errors"
	"fmt"

	"github.com/ollystack/otlpgen/internal/telemetry"
)

var (
	ErrInvalidTraceID     = errors.New("trace id must be non-zero")
	ErrInvalidSpanID      = errors.New("span id must be non-zero")
	ErrInvalidTimeWindow  = errors.New("end time is before start time")
	ErrMissingTimestamp   = errors.New("timestamp must be set")
	ErrInvalidSpanKind    = errors.New("unknown span kind")
	ErrInvalidStatusCode  = errors.New("unknown span status code")
	ErrMissingName        = errors.New("name must not be empty")
	ErrHistogramBuckets   = errors.New("bucket counts must have exactly one more entry than explicit bounds")
	ErrHistogramBounds    = errors.New("explicit bounds must be strictly increasing")
	ErrHistogramCount     = errors.New("bucket counts do not add up to count")
	ErrConflictingMetric  = errors.New("metric already declared with a different kind")
	ErrNoMetrics          = errors.New("at least one metric point is required")
	ErrInvalidMetricKind  = errors.New("unknown metric kind")
	ErrSeverityOutOfRange = errors.New("severity number must be between 1 and 24")
	ErrUnknownEncoding    = errors.New("unknown payload encoding")
	ErrUnsupportedValue   = errors.New("unsupported attribute value")
)

// ConstructionError reports input a builder refused to encode. It is
// returned before any payload bytes exist, so nothing was sent.
type ConstructionError struct {
	Signal telemetry.Signal
	// Field names the offending record or field, e.g. a metric name.
	Field string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e *ConstructionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s payload: %s", e.Signal, e.Cause)
	}
	return fmt.Sprintf("invalid %s payload: %s: %s", e.Signal, e.Field, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *ConstructionError) Unwrap() error {
	return e.Cause
}

func constructionError(signal telemetry.Signal, field string, cause error) error {
	return &ConstructionError{Signal: signal, Field: field, Cause: cause}
}
