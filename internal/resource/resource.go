// Package resource assembles the OTLP resource attributes stamped on
// every payload of a run.
package resource

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/ollystack/otlpgen/internal/config"
	"github.com/ollystack/otlpgen/internal/telemetry"
)

// RunIDKey is the resource attribute carrying the per-run identifier.
const RunIDKey = "otlpgen.run.id"

// HostInfoFunc returns information about the local host.
type HostInfoFunc func(ctx context.Context) (*host.InfoStat, error)

// Detector builds resources for a run
type Detector struct {
	hostInfo HostInfoFunc
	newRunID func() string
	logger   *zap.Logger
}

// Option configures a Detector
type Option func(*Detector)

// WithHostInfo replaces host detection, mainly for tests. A nil func
// disables host detection.
func WithHostInfo(f HostInfoFunc) Option {
	return func(d *Detector) { d.hostInfo = f }
}

// WithRunID fixes the run identifier instead of generating a UUID.
func WithRunID(id string) Option {
	return func(d *Detector) { d.newRunID = func() string { return id } }
}

// NewDetector creates a Detector using gopsutil for host information.
func NewDetector(logger *zap.Logger, opts ...Option) *Detector {
	d := &Detector{
		hostInfo: host.InfoWithContext,
		newRunID: func() string { return uuid.New().String() },
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the resource for svc. Host attributes are added when
// detectHost is set and the lookup succeeds; a failed lookup is logged
// and otherwise ignored.
func (d *Detector) Detect(ctx context.Context, svc config.ServiceConfig, detectHost bool) telemetry.Resource {
	runID := d.newRunID()

	attrs := telemetry.Attributes{
		telemetry.String("service.name", svc.Name),
		telemetry.String("service.version", svc.Version),
		telemetry.String("environment", svc.Environment),
		telemetry.String("deployment.environment", svc.Environment),
	}

	instanceID := runID
	if detectHost && d.hostInfo != nil {
		info, err := d.hostInfo(ctx)
		switch {
		case err != nil:
			d.logger.Warn("Failed to get host info", zap.Error(err))
		case info != nil:
			if info.Hostname != "" {
				instanceID = info.Hostname
				attrs = append(attrs, telemetry.String("host.name", info.Hostname))
			}
			if info.OS != "" {
				attrs = append(attrs, telemetry.String("os.type", info.OS))
			}
			if info.KernelArch != "" {
				attrs = append(attrs, telemetry.String("host.arch", info.KernelArch))
			}
		}
	}

	attrs = append(attrs,
		telemetry.String("service.instance.id", instanceID),
		telemetry.String(RunIDKey, runID),
	)

	keys := make([]string, 0, len(svc.Attributes))
	for k := range svc.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = attrs.With(telemetry.String(k, svc.Attributes[k]))
	}

	return telemetry.Resource{Attributes: attrs}
}
