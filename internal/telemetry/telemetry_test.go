package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityString(t *testing.T) {
	testCases := map[Severity]string{
		SeverityTrace: "TRACE",
		SeverityDebug: "DEBUG",
		SeverityInfo:  "INFO",
		11:            "INFO3",
		SeverityWarn:  "WARN",
		SeverityError: "ERROR",
		24:            "FATAL4",
		0:             "UNSPECIFIED",
		25:            "UNSPECIFIED",
	}
	for sev, want := range testCases {
		assert.Equal(t, want, sev.String(), "severity %d", int32(sev))
	}
}

func TestSeverityValid(t *testing.T) {
	assert.False(t, Severity(0).Valid())
	assert.True(t, MinSeverity.Valid())
	assert.True(t, MaxSeverity.Valid())
	assert.False(t, (MaxSeverity + 1).Valid())
}

func TestAttributesWith(t *testing.T) {
	base := Attributes{String("service.name", "a"), Int("n", 1)}

	got := base.With(String("service.name", "b"), Bool("new", true))

	assert.Len(t, got, 3)
	v, ok := got.Get("service.name")
	assert.True(t, ok)
	assert.Equal(t, "b", v.Str())
	assert.Equal(t, "new", got[2].Key)

	// the receiver is left untouched
	v, _ = base.Get("service.name")
	assert.Equal(t, "a", v.Str())

	_, ok = got.Get("missing")
	assert.False(t, ok)
}

func TestValueAsString(t *testing.T) {
	assert.Equal(t, "42", IntValue(42).AsString())
	assert.Equal(t, "1.5", DoubleValue(1.5).AsString())
	assert.Equal(t, "true", BoolValue(true).AsString())
	assert.Equal(t, "[1,2,3]", Ints("k", 1, 2, 3).Value.AsString())
	assert.Equal(t, "", Value{}.AsString())
}

func TestSignalPath(t *testing.T) {
	assert.Equal(t, "/v1/traces", SignalTraces.Path())
	assert.Equal(t, "/v1/metrics", SignalMetrics.Path())
	assert.Equal(t, "/v1/logs", SignalLogs.Path())
}
