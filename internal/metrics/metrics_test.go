package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollystack/otlpgen/internal/telemetry"
	"github.com/ollystack/otlpgen/internal/transport"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	r.ObserveSend(transport.Outcome{Signal: telemetry.SignalTraces, URL: "http://x/v1/traces", Items: 1, StatusCode: 200, Latency: time.Millisecond})
	r.ObserveSend(transport.Outcome{Signal: telemetry.SignalTraces, URL: "http://x/v1/traces", Items: 1, StatusCode: 200, Latency: time.Millisecond})
	r.ObserveSend(transport.Outcome{Signal: telemetry.SignalLogs, URL: "http://x/v1/logs", StatusCode: 500, Err: errors.New("boom")})
	r.ObserveSend(transport.Outcome{Signal: telemetry.SignalMetrics, Err: errors.New("bad histogram")})
	r.ObserveHealth(transport.HealthResult{StatusCode: 200})
	r.ObserveHealth(transport.HealthResult{Err: errors.New("down")})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Sends(telemetry.SignalTraces, true)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Sends(telemetry.SignalLogs, false)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Sends(telemetry.SignalMetrics, false)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.items.WithLabelValues("traces")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.healthChecks.WithLabelValues(resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.healthChecks.WithLabelValues(resultFailure)))

	// only sends that reached the network are timed
	assert.Equal(t, 2, testutil.CollectAndCount(r.latency))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveSend(transport.Outcome{Signal: telemetry.SignalTraces})
	r.ObserveHealth(transport.HealthResult{})
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveSend(transport.Outcome{Signal: telemetry.SignalMetrics, URL: "http://x/v1/metrics", Items: 2})

	path := filepath.Join(t.TempDir(), "otlpgen.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `otlpgen_sends_total{result="success",signal="metrics"} 1`)
}
