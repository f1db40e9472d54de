package payload

import (
	"fmt"

	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/pmetric"

	"github.com/ollystack/otlpgen/internal/telemetry"
)

type metricIdentity struct {
	name        string
	description string
	unit        string
}

// MetricsData groups points by metric name, description and unit and
// wraps them in a single resource/scope. Sums and histograms are
// emitted with cumulative aggregation temporality.
func MetricsData(res telemetry.Resource, scope telemetry.Scope, points []telemetry.MetricPoint) (pmetric.Metrics, error) {
	if len(points) == 0 {
		return pmetric.Metrics{}, constructionError(telemetry.SignalMetrics, "", ErrNoMetrics)
	}
	for _, p := range points {
		if err := validateMetricPoint(p); err != nil {
			return pmetric.Metrics{}, constructionError(telemetry.SignalMetrics, p.Name, err)
		}
	}

	md := pmetric.NewMetrics()
	rm := md.ResourceMetrics().AppendEmpty()
	if err := fillResource(rm.Resource(), res); err != nil {
		return pmetric.Metrics{}, constructionError(telemetry.SignalMetrics, "resource", err)
	}

	sm := rm.ScopeMetrics().AppendEmpty()
	fillScope(sm.Scope(), scope)

	// Keep first-seen order so payloads are deterministic.
	byIdentity := make(map[metricIdentity]pmetric.Metric)
	kinds := make(map[metricIdentity]telemetry.MetricPoint)
	for _, p := range points {
		id := metricIdentity{name: p.Name, description: p.Description, unit: p.Unit}

		m, ok := byIdentity[id]
		if !ok {
			m = newMetric(sm.Metrics(), p)
			byIdentity[id] = m
			kinds[id] = p
		} else if first := kinds[id]; first.Kind != p.Kind || (p.Kind == telemetry.MetricKindSum && first.Monotonic != p.Monotonic) {
			return pmetric.Metrics{}, constructionError(telemetry.SignalMetrics, p.Name, ErrConflictingMetric)
		}

		if err := appendDataPoint(m, p); err != nil {
			return pmetric.Metrics{}, constructionError(telemetry.SignalMetrics, p.Name, err)
		}
	}

	return md, nil
}

// BuildMetrics encodes points into a metrics export request.
func (b *Builder) BuildMetrics(res telemetry.Resource, scope telemetry.Scope, points []telemetry.MetricPoint) (Envelope, error) {
	md, err := MetricsData(res, scope, points)
	if err != nil {
		return Envelope{}, err
	}

	var body []byte
	switch b.encoding {
	case EncodingProto:
		body, err = (&pmetric.ProtoMarshaler{}).MarshalMetrics(md)
	default:
		body, err = (&pmetric.JSONMarshaler{}).MarshalMetrics(md)
	}
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode metrics: %w", err)
	}

	return b.envelope(telemetry.SignalMetrics, body, md.DataPointCount(), ""), nil
}

func newMetric(metrics pmetric.MetricSlice, p telemetry.MetricPoint) pmetric.Metric {
	m := metrics.AppendEmpty()
	m.SetName(p.Name)
	m.SetDescription(p.Description)
	m.SetUnit(p.Unit)

	switch p.Kind {
	case telemetry.MetricKindSum:
		sum := m.SetEmptySum()
		sum.SetAggregationTemporality(pmetric.AggregationTemporalityCumulative)
		sum.SetIsMonotonic(p.Monotonic)
	case telemetry.MetricKindGauge:
		m.SetEmptyGauge()
	case telemetry.MetricKindHistogram:
		hist := m.SetEmptyHistogram()
		hist.SetAggregationTemporality(pmetric.AggregationTemporalityCumulative)
	}
	return m
}

func appendDataPoint(m pmetric.Metric, p telemetry.MetricPoint) error {
	switch p.Kind {
	case telemetry.MetricKindSum:
		dp := m.Sum().DataPoints().AppendEmpty()
		setNumberPoint(dp, p)
		return putAttributes(dp.Attributes(), p.Attributes)
	case telemetry.MetricKindGauge:
		dp := m.Gauge().DataPoints().AppendEmpty()
		setNumberPoint(dp, p)
		return putAttributes(dp.Attributes(), p.Attributes)
	case telemetry.MetricKindHistogram:
		dp := m.Histogram().DataPoints().AppendEmpty()
		if !p.StartTime.IsZero() {
			dp.SetStartTimestamp(pcommon.NewTimestampFromTime(p.StartTime))
		}
		dp.SetTimestamp(pcommon.NewTimestampFromTime(p.Time))
		dp.SetCount(p.Histogram.Count)
		dp.SetSum(p.Histogram.Sum)
		dp.ExplicitBounds().FromRaw(p.Histogram.ExplicitBounds)
		dp.BucketCounts().FromRaw(p.Histogram.BucketCounts)
		return putAttributes(dp.Attributes(), p.Attributes)
	default:
		return ErrInvalidMetricKind
	}
}

func setNumberPoint(dp pmetric.NumberDataPoint, p telemetry.MetricPoint) {
	if !p.StartTime.IsZero() {
		dp.SetStartTimestamp(pcommon.NewTimestampFromTime(p.StartTime))
	}
	dp.SetTimestamp(pcommon.NewTimestampFromTime(p.Time))
	if p.Value.IsDouble {
		dp.SetDoubleValue(p.Value.Double)
		return
	}
	dp.SetIntValue(p.Value.Int)
}

func validateMetricPoint(p telemetry.MetricPoint) error {
	if p.Name == "" {
		return ErrMissingName
	}
	if p.Time.IsZero() {
		return ErrMissingTimestamp
	}
	if !p.StartTime.IsZero() && p.Time.Before(p.StartTime) {
		return ErrInvalidTimeWindow
	}

	switch p.Kind {
	case telemetry.MetricKindSum, telemetry.MetricKindGauge:
		return nil
	case telemetry.MetricKindHistogram:
		return ValidateHistogram(p.Histogram)
	default:
		return ErrInvalidMetricKind
	}
}

// ValidateHistogram checks the explicit bucket histogram invariants:
// one more bucket than bounds, strictly increasing bounds and bucket
// counts that add up to Count.
func ValidateHistogram(h telemetry.Histogram) error {
	if len(h.BucketCounts) != len(h.ExplicitBounds)+1 {
		return fmt.Errorf("%w: got %d bucket counts for %d bounds",
			ErrHistogramBuckets, len(h.BucketCounts), len(h.ExplicitBounds))
	}
	for i := 1; i < len(h.ExplicitBounds); i++ {
		if h.ExplicitBounds[i] <= h.ExplicitBounds[i-1] {
			return fmt.Errorf("%w: bound %d (%g) <= bound %d (%g)",
				ErrHistogramBounds, i, h.ExplicitBounds[i], i-1, h.ExplicitBounds[i-1])
		}
	}

	var total uint64
	for _, c := range h.BucketCounts {
		total += c
	}
	if total != h.Count {
		return fmt.Errorf("%w: buckets sum to %d, count is %d", ErrHistogramCount, total, h.Count)
	}
	return nil
}
