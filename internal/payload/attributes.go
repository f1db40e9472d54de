package payload

import (
	"fmt"

	"go.opentelemetry.io/collector/pdata/pcommon"

	"github.com/ollystack/otlpgen/internal/telemetry"
)

func putAttributes(dest pcommon.Map, attrs telemetry.Attributes) error {
	dest.EnsureCapacity(len(attrs))
	for _, attr := range attrs {
		if attr.Key == "" {
			return fmt.Errorf("%w: empty attribute key", ErrUnsupportedValue)
		}
		if err := putValue(dest.PutEmpty(attr.Key), attr.Value); err != nil {
			return fmt.Errorf("attribute %q: %w", attr.Key, err)
		}
	}
	return nil
}

// putValue copies v into dest. Every OTLP AnyValue carries exactly one
// type key, so values without a type are rejected.
func putValue(dest pcommon.Value, v telemetry.Value) error {
	switch v.Type() {
	case telemetry.ValueTypeString:
		dest.SetStr(v.Str())
	case telemetry.ValueTypeInt:
		dest.SetInt(v.Int())
	case telemetry.ValueTypeDouble:
		dest.SetDouble(v.Double())
	case telemetry.ValueTypeBool:
		dest.SetBool(v.Bool())
	case telemetry.ValueTypeSlice:
		s := dest.SetEmptySlice()
		s.EnsureCapacity(len(v.Slice()))
		for _, e := range v.Slice() {
			if err := putValue(s.AppendEmpty(), e); err != nil {
				return err
			}
		}
	default:
		return ErrUnsupportedValue
	}
	return nil
}

func fillResource(dest pcommon.Resource, res telemetry.Resource) error {
	return putAttributes(dest.Attributes(), res.Attributes)
}

func fillScope(dest pcommon.InstrumentationScope, scope telemetry.Scope) {
	dest.SetName(scope.Name)
	dest.SetVersion(scope.Version)
}
