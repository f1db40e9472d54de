// Package runner drives a generator run: for each signal it builds the
// configured number of payloads, sends them and feeds every outcome to
// the report.
package runner

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ollystack/otlpgen/internal/metrics"
	"github.com/ollystack/otlpgen/internal/payload"
	"github.com/ollystack/otlpgen/internal/report"
	"github.com/ollystack/otlpgen/internal/sample"
	"github.com/ollystack/otlpgen/internal/telemetry"
	"github.com/ollystack/otlpgen/internal/transport"
)

// Source produces the records to send
type Source interface {
	Span() telemetry.Span
	Metrics() []telemetry.MetricPoint
	Log(traceID pcommon.TraceID, spanID pcommon.SpanID) telemetry.LogRecord
}

// Sender delivers envelopes to the collector
type Sender interface {
	Send(ctx context.Context, url string, env payload.Envelope) transport.Outcome
	HealthCheck(ctx context.Context, url string) transport.HealthResult
}

// Config configures a run
type Config struct {
	Endpoint        string
	HealthEndpoint  string
	SkipHealthCheck bool
	Traces          int
	MetricBatches   int
	Logs            int
	// Delay is the minimum spacing between the starts of two sends of
	// the same signal.
	Delay    time.Duration
	Parallel bool
	// Version is reported as the instrumentation scope version.
	Version string
}

// Dependencies are the collaborators of a Runner. Recorder and Logger
// are optional.
type Dependencies struct {
	Resource telemetry.Resource
	Source   Source
	Builder  *payload.Builder
	Sender   Sender
	Report   *report.Report
	Recorder *metrics.Recorder
	Logger   *zap.Logger
}

// Runner executes a single run
type Runner struct {
	cfg  Config
	deps Dependencies

	mu          sync.Mutex
	lastTraceID pcommon.TraceID
	lastSpanID  pcommon.SpanID
}

// New creates a Runner.
func New(cfg Config, deps Dependencies) *Runner {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, deps: deps}
}

// Run sends every configured payload. It returns the context error when
// the run was cancelled; the report then holds the partial results and
// is marked interrupted. Send failures never end a run early.
func (r *Runner) Run(ctx context.Context) error {
	if !r.cfg.SkipHealthCheck {
		r.checkHealth(ctx)
	}

	var err error
	if r.cfg.Parallel {
		err = r.runParallel(ctx)
	} else {
		err = r.runSequential(ctx)
	}

	if err != nil {
		r.deps.Report.MarkInterrupted()
		r.deps.Logger.Warn("Run interrupted", zap.Error(err))
		return err
	}
	return nil
}

func (r *Runner) runSequential(ctx context.Context) error {
	for _, signal := range telemetry.Signals {
		if err := r.runSignal(ctx, signal); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runParallel(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, signal := range telemetry.Signals {
		signal := signal
		g.Go(func() error {
			return r.runSignal(gctx, signal)
		})
	}
	return g.Wait()
}

func (r *Runner) runSignal(ctx context.Context, signal telemetry.Signal) error {
	n := r.count(signal)
	if n == 0 {
		return nil
	}

	limiter := rate.NewLimiter(rate.Every(r.cfg.Delay), 1)
	url := r.cfg.Endpoint + signal.Path()

	r.deps.Logger.Info("Sending",
		zap.String("signal", signal.String()),
		zap.Int("count", n),
		zap.String("url", url),
	)

	for i := 0; i < n; i++ {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		r.sendOne(ctx, signal, url)
	}
	return nil
}

func (r *Runner) count(signal telemetry.Signal) int {
	switch signal {
	case telemetry.SignalTraces:
		return r.cfg.Traces
	case telemetry.SignalMetrics:
		return r.cfg.MetricBatches
	case telemetry.SignalLogs:
		return r.cfg.Logs
	default:
		return 0
	}
}

func (r *Runner) sendOne(ctx context.Context, signal telemetry.Signal, url string) {
	scope := sample.Scope(signal, r.cfg.Version)

	var (
		env  payload.Envelope
		span telemetry.Span
		err  error
	)
	switch signal {
	case telemetry.SignalTraces:
		span = r.deps.Source.Span()
		env, err = r.deps.Builder.BuildTraces(r.deps.Resource, scope, span)
	case telemetry.SignalMetrics:
		env, err = r.deps.Builder.BuildMetrics(r.deps.Resource, scope, r.deps.Source.Metrics())
	case telemetry.SignalLogs:
		traceID, spanID := r.lastTrace()
		env, err = r.deps.Builder.BuildLogs(r.deps.Resource, scope, r.deps.Source.Log(traceID, spanID))
	}

	if err != nil {
		r.deps.Logger.Error("Failed to build payload",
			zap.String("signal", signal.String()),
			zap.Error(err),
		)
		r.record(transport.Outcome{Signal: signal, Err: err})
		return
	}

	out := r.deps.Sender.Send(ctx, url, env)
	if out.Success() && signal == telemetry.SignalTraces {
		r.setLastTrace(span.TraceID, span.SpanID)
	}
	if !out.Success() {
		r.deps.Logger.Debug("Send failed",
			zap.String("signal", signal.String()),
			zap.Int("status_code", out.StatusCode),
			zap.Error(out.Err),
		)
	}
	r.record(out)
}

func (r *Runner) record(out transport.Outcome) {
	r.deps.Recorder.ObserveSend(out)
	r.deps.Report.Record(out)
}

func (r *Runner) checkHealth(ctx context.Context) {
	res := r.deps.Sender.HealthCheck(ctx, r.cfg.HealthEndpoint)
	r.deps.Recorder.ObserveHealth(res)
	r.deps.Report.RecordHealth(res)
	if !res.Healthy() {
		r.deps.Logger.Warn("Collector health check failed, continuing",
			zap.String("url", res.URL),
			zap.Error(res.Err),
		)
	}
}

func (r *Runner) lastTrace() (pcommon.TraceID, pcommon.SpanID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastTraceID, r.lastSpanID
}

func (r *Runner) setLastTrace(traceID pcommon.TraceID, spanID pcommon.SpanID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastTraceID, r.lastSpanID = traceID, spanID
}
