package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ollystack/otlpgen/internal/otlptest"
	"github.com/ollystack/otlpgen/internal/payload"
	"github.com/ollystack/otlpgen/internal/telemetry"
)

func traceEnvelope(t *testing.T) payload.Envelope {
	t.Helper()
	start := time.Unix(1700000000, 0)
	env, err := payload.NewBuilder(payload.EncodingJSON).BuildTraces(
		telemetry.Resource{Attributes: telemetry.Attributes{telemetry.String("service.name", "svc")}},
		telemetry.Scope{Name: "otlpgen/traces"},
		telemetry.Span{
			TraceID:   [16]byte{1, 2, 3},
			SpanID:    [8]byte{4, 5, 6},
			Name:      "op",
			StartTime: start,
			EndTime:   start.Add(time.Millisecond),
		},
	)
	require.NoError(t, err)
	return env
}

func TestSend_Success(t *testing.T) {
	for _, code := range []int{http.StatusOK, http.StatusAccepted} {
		collector := otlptest.NewCollector(t)
		collector.SetStatus(telemetry.SignalTraces, code)

		client := NewClient(Config{
			Headers:   map[string]string{"X-Api-Key": "secret"},
			UserAgent: "otlpgen/test",
		}, zap.NewNop())
		defer client.Close()

		env := traceEnvelope(t)
		out := client.Send(context.Background(), collector.URL()+"/v1/traces", env)

		require.NoError(t, out.Err)
		assert.True(t, out.Success())
		assert.Equal(t, code, out.StatusCode)
		assert.Equal(t, telemetry.SignalTraces, out.Signal)
		assert.Equal(t, env.Identifier, out.Identifier)
		assert.True(t, out.Latency > 0)

		reqs := collector.Requests(telemetry.SignalTraces)
		require.Len(t, reqs, 1)
		assert.Equal(t, "application/json", reqs[0].ContentType)
		assert.Equal(t, "secret", reqs[0].Header.Get("X-Api-Key"))
		assert.Equal(t, "otlpgen/test", reqs[0].Header.Get("User-Agent"))
		assert.Equal(t, []string{env.Identifier}, reqs[0].TraceIDs)
	}
}

func TestSend_FailureStatusPreserved(t *testing.T) {
	collector := otlptest.NewCollector(t)
	collector.SetStatus(telemetry.SignalTraces, http.StatusServiceUnavailable)

	client := NewClient(Config{}, zap.NewNop())
	defer client.Close()

	out := client.Send(context.Background(), collector.URL()+"/v1/traces", traceEnvelope(t))

	assert.False(t, out.Success())
	assert.Equal(t, http.StatusServiceUnavailable, out.StatusCode)

	var serr *StatusError
	require.True(t, errors.As(out.Err, &serr))
	assert.Equal(t, http.StatusServiceUnavailable, serr.Code)
	assert.Contains(t, serr.Body, "Service Unavailable")
}

func TestSend_BodyExcerptIsBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(strings.Repeat("x", 10000)))
	}))
	defer srv.Close()

	client := NewClient(Config{}, zap.NewNop())
	defer client.Close()

	out := client.Send(context.Background(), srv.URL, traceEnvelope(t))

	var serr *StatusError
	require.True(t, errors.As(out.Err, &serr))
	assert.Len(t, serr.Body, maxExcerptBytes)
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(Config{SendTimeout: 50 * time.Millisecond}, zap.NewNop())
	defer client.Close()

	out := client.Send(context.Background(), srv.URL, traceEnvelope(t))

	assert.False(t, out.Success())
	assert.Zero(t, out.StatusCode)
	assert.ErrorIs(t, out.Err, ErrTimeout)

	var rerr *RequestError
	assert.True(t, errors.As(out.Err, &rerr))
}

func TestSend_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Config{}, zap.NewNop())
	defer client.Close()

	out := client.Send(context.Background(), url+"/v1/traces", traceEnvelope(t))

	assert.False(t, out.Success())
	assert.Zero(t, out.StatusCode)
	assert.NotErrorIs(t, out.Err, ErrTimeout)
	assert.Contains(t, out.Err.Error(), url)
}

func TestSend_InvalidURL(t *testing.T) {
	client := NewClient(Config{}, zap.NewNop())
	defer client.Close()

	out := client.Send(context.Background(), "http://[::1", traceEnvelope(t))
	assert.Error(t, out.Err)
	assert.Equal(t, "http://[::1", out.URL)
}

func TestHealthCheck(t *testing.T) {
	collector := otlptest.NewCollector(t)

	client := NewClient(Config{}, zap.NewNop())
	defer client.Close()

	res := client.HealthCheck(context.Background(), collector.HealthURL())
	assert.True(t, res.Healthy())
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// Anything but 200 is unhealthy, including other 2xx codes.
	for _, code := range []int{http.StatusNoContent, http.StatusServiceUnavailable} {
		collector.SetHealthStatus(code)

		res = client.HealthCheck(context.Background(), collector.HealthURL())
		assert.False(t, res.Healthy(), "status %d", code)
		assert.Equal(t, code, res.StatusCode)
	}
}
