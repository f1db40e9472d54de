package telemetry

import "strconv"

// Severity is an OTLP log severity number. Valid values are 1 through 24,
// grouped into six ranges of four (TRACE, DEBUG, INFO, WARN, ERROR, FATAL).
type Severity int32

const (
	SeverityUnspecified Severity = 0
	SeverityTrace       Severity = 1
	SeverityDebug       Severity = 5
	SeverityInfo        Severity = 9
	SeverityWarn        Severity = 13
	SeverityError       Severity = 17
	SeverityFatal       Severity = 21

	MinSeverity = SeverityTrace
	MaxSeverity = Severity(24)
)

var severityNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// Valid reports whether s is within the OTLP severity scale.
func (s Severity) Valid() bool {
	return s >= MinSeverity && s <= MaxSeverity
}

// String returns the short name for s, e.g. "INFO" for 9 and "INFO3" for 11.
func (s Severity) String() string {
	if !s.Valid() {
		return "UNSPECIFIED"
	}
	idx := int(s-MinSeverity) / 4
	offset := int(s-MinSeverity) % 4
	if offset == 0 {
		return severityNames[idx]
	}
	return severityNames[idx] + strconv.Itoa(offset+1)
}
