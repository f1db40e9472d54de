// Package otlptest provides an in-process OTLP/HTTP collector for tests.
// It accepts JSON and protobuf export requests on /v1/traces,
// /v1/metrics and /v1/logs, records what it decoded and answers with a
// configurable status per signal.
package otlptest

import (
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"go.opentelemetry.io/collector/pdata/plog"
	"go.opentelemetry.io/collector/pdata/pmetric"
	"go.opentelemetry.io/collector/pdata/ptrace"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	"google.golang.org/protobuf/proto"

	"github.com/ollystack/otlpgen/internal/telemetry"
)

// HealthPath is the path of the health endpoint.
const HealthPath = "/health"

// Request describes one decoded export request
type Request struct {
	Signal      telemetry.Signal
	ContentType string
	Header      http.Header
	// Items is the number of spans, data points or log records.
	Items    int
	TraceIDs []string
	// Resource holds the attributes of the first resource, stringified.
	Resource map[string]string
}

// Collector is a mock OTLP/HTTP collector
type Collector struct {
	server *httptest.Server

	mu           sync.Mutex
	statuses     map[telemetry.Signal]int
	healthStatus int
	requests     []Request
	rejected     int
}

// NewCollector starts a Collector that is closed when tb finishes.
func NewCollector(tb testing.TB) *Collector {
	tb.Helper()

	c := &Collector{
		statuses:     make(map[telemetry.Signal]int),
		healthStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	for _, signal := range telemetry.Signals {
		mux.HandleFunc(signal.Path(), c.handleExport(signal))
	}
	mux.HandleFunc(HealthPath, c.handleHealth)

	c.server = httptest.NewServer(mux)
	tb.Cleanup(c.server.Close)
	return c
}

// URL returns the base URL export requests should be sent to.
func (c *Collector) URL() string {
	return c.server.URL
}

// HealthURL returns the full URL of the health endpoint.
func (c *Collector) HealthURL() string {
	return c.server.URL + HealthPath
}

// SetStatus makes the collector answer export requests for signal with
// code after decoding them. The default is 200.
func (c *Collector) SetStatus(signal telemetry.Signal, code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[signal] = code
}

// SetHealthStatus sets the status returned by the health endpoint.
func (c *Collector) SetHealthStatus(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healthStatus = code
}

// Requests returns the decoded requests for signal in arrival order.
// An empty signal returns all of them.
func (c *Collector) Requests(signal telemetry.Signal) []Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Request
	for _, r := range c.requests {
		if signal == "" || r.Signal == signal {
			out = append(out, r)
		}
	}
	return out
}

// TraceIDs returns every trace ID received, in arrival order.
func (c *Collector) TraceIDs() []string {
	var ids []string
	for _, r := range c.Requests(telemetry.SignalTraces) {
		ids = append(ids, r.TraceIDs...)
	}
	return ids
}

// Rejected returns the number of requests that could not be decoded.
func (c *Collector) Rejected() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rejected
}

func (c *Collector) handleExport(signal telemetry.Signal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			c.reject()
			http.Error(w, "Failed to read body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		contentType := r.Header.Get("Content-Type")
		req, err := decode(signal, contentType, body)
		if err != nil {
			c.reject()
			http.Error(w, "Invalid payload: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Header = r.Header.Clone()

		c.mu.Lock()
		c.requests = append(c.requests, req)
		status, ok := c.statuses[signal]
		c.mu.Unlock()

		if !ok {
			status = http.StatusOK
		}
		if status == http.StatusOK || status == http.StatusAccepted {
			w.Header().Set("Content-Type", contentType)
			w.WriteHeader(status)
			if strings.HasPrefix(contentType, "application/json") {
				_, _ = w.Write([]byte("{}"))
			}
			return
		}
		http.Error(w, http.StatusText(status), status)
	}
}

func (c *Collector) handleHealth(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	status := c.healthStatus
	c.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status == http.StatusOK {
		_, _ = w.Write([]byte(`{"status":"Server available"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"Server not available"}`))
}

func (c *Collector) reject() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected++
}

func decode(signal telemetry.Signal, contentType string, body []byte) (Request, error) {
	req := Request{Signal: signal, ContentType: contentType}

	if strings.HasPrefix(contentType, "application/x-protobuf") {
		return req, decodeProto(&req, body)
	}
	return req, decodeJSON(&req, body)
}

func decodeJSON(req *Request, body []byte) error {
	switch req.Signal {
	case telemetry.SignalTraces:
		td, err := (&ptrace.JSONUnmarshaler{}).UnmarshalTraces(body)
		if err != nil {
			return err
		}
		req.Items = td.SpanCount()
		for i := 0; i < td.ResourceSpans().Len(); i++ {
			rs := td.ResourceSpans().At(i)
			if i == 0 {
				req.Resource = stringify(rs.Resource().Attributes().AsRaw())
			}
			for j := 0; j < rs.ScopeSpans().Len(); j++ {
				spans := rs.ScopeSpans().At(j).Spans()
				for k := 0; k < spans.Len(); k++ {
					req.TraceIDs = append(req.TraceIDs, spans.At(k).TraceID().String())
				}
			}
		}
	case telemetry.SignalMetrics:
		md, err := (&pmetric.JSONUnmarshaler{}).UnmarshalMetrics(body)
		if err != nil {
			return err
		}
		req.Items = md.DataPointCount()
		if md.ResourceMetrics().Len() > 0 {
			req.Resource = stringify(md.ResourceMetrics().At(0).Resource().Attributes().AsRaw())
		}
	case telemetry.SignalLogs:
		ld, err := (&plog.JSONUnmarshaler{}).UnmarshalLogs(body)
		if err != nil {
			return err
		}
		req.Items = ld.LogRecordCount()
		if ld.ResourceLogs().Len() > 0 {
			req.Resource = stringify(ld.ResourceLogs().At(0).Resource().Attributes().AsRaw())
		}
	}
	return nil
}

func decodeProto(req *Request, body []byte) error {
	switch req.Signal {
	case telemetry.SignalTraces:
		var msg coltracepb.ExportTraceServiceRequest
		if err := proto.Unmarshal(body, &msg); err != nil {
			return err
		}
		for i, rs := range msg.ResourceSpans {
			if i == 0 {
				req.Resource = extractAttributes(rs.GetResource().GetAttributes())
			}
			for _, ss := range rs.ScopeSpans {
				for _, span := range ss.Spans {
					req.Items++
					req.TraceIDs = append(req.TraceIDs, hex.EncodeToString(span.TraceId))
				}
			}
		}
	case telemetry.SignalMetrics:
		var msg colmetricspb.ExportMetricsServiceRequest
		if err := proto.Unmarshal(body, &msg); err != nil {
			return err
		}
		for i, rm := range msg.ResourceMetrics {
			if i == 0 {
				req.Resource = extractAttributes(rm.GetResource().GetAttributes())
			}
			for _, sm := range rm.ScopeMetrics {
				for _, m := range sm.Metrics {
					req.Items += len(m.GetSum().GetDataPoints()) +
						len(m.GetGauge().GetDataPoints()) +
						len(m.GetHistogram().GetDataPoints())
				}
			}
		}
	case telemetry.SignalLogs:
		var msg collogspb.ExportLogsServiceRequest
		if err := proto.Unmarshal(body, &msg); err != nil {
			return err
		}
		for i, rl := range msg.ResourceLogs {
			if i == 0 {
				req.Resource = extractAttributes(rl.GetResource().GetAttributes())
			}
			for _, sl := range rl.ScopeLogs {
				req.Items += len(sl.LogRecords)
			}
		}
	}
	return nil
}

func extractAttributes(attrs []*commonpb.KeyValue) map[string]string {
	result := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		switch v := kv.GetValue().GetValue().(type) {
		case *commonpb.AnyValue_StringValue:
			result[kv.Key] = v.StringValue
		case *commonpb.AnyValue_IntValue:
			result[kv.Key] = strconv.FormatInt(v.IntValue, 10)
		case *commonpb.AnyValue_DoubleValue:
			result[kv.Key] = strconv.FormatFloat(v.DoubleValue, 'g', -1, 64)
		case *commonpb.AnyValue_BoolValue:
			result[kv.Key] = strconv.FormatBool(v.BoolValue)
		}
	}
	return result
}

func stringify(raw map[string]any) map[string]string {
	result := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			result[k] = v
		case int64:
			result[k] = strconv.FormatInt(v, 10)
		case float64:
			result[k] = strconv.FormatFloat(v, 'g', -1, 64)
		case bool:
			result[k] = strconv.FormatBool(v)
		}
	}
	return result
}
