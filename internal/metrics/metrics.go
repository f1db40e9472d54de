// Package metrics records run statistics as Prometheus metrics on a
// private registry, optionally exported to a node_exporter textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ollystack/otlpgen/internal/telemetry"
	"github.com/ollystack/otlpgen/internal/transport"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Recorder collects send and health check statistics. A nil *Recorder
// is valid and records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	sends        *prometheus.CounterVec
	items        *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	healthChecks *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		sends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otlpgen_sends_total",
				Help: "Total number of export requests by signal and result",
			},
			[]string{"signal", "result"},
		),
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otlpgen_items_sent_total",
				Help: "Spans, data points and log records accepted by the collector",
			},
			[]string{"signal"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "otlpgen_send_latency_seconds",
				Help:    "Export request latency",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 10},
			},
			[]string{"signal"},
		),
		healthChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otlpgen_health_checks_total",
				Help: "Total number of collector health probes by result",
			},
			[]string{"result"},
		),
	}
	r.registry.MustRegister(r.sends, r.items, r.latency, r.healthChecks)
	return r
}

// ObserveSend records the outcome of one export request.
func (r *Recorder) ObserveSend(out transport.Outcome) {
	if r == nil {
		return
	}
	signal := out.Signal.String()
	if out.Success() {
		r.sends.WithLabelValues(signal, resultSuccess).Inc()
		r.items.WithLabelValues(signal).Add(float64(out.Items))
	} else {
		r.sends.WithLabelValues(signal, resultFailure).Inc()
	}
	// Construction failures never reach the network.
	if out.URL != "" {
		r.latency.WithLabelValues(signal).Observe(out.Latency.Seconds())
	}
}

// ObserveHealth records the result of a health probe.
func (r *Recorder) ObserveHealth(res transport.HealthResult) {
	if r == nil {
		return
	}
	if res.Healthy() {
		r.healthChecks.WithLabelValues(resultSuccess).Inc()
		return
	}
	r.healthChecks.WithLabelValues(resultFailure).Inc()
}

// Sends returns the number of recorded sends for signal and result.
func (r *Recorder) Sends(signal telemetry.Signal, success bool) prometheus.Counter {
	result := resultFailure
	if success {
		result = resultSuccess
	}
	return r.sends.WithLabelValues(signal.String(), result)
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
