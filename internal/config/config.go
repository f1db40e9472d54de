// Package config loads otlpgen settings from defaults, an optional YAML
// file, OTLPGEN_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration for a generator run
type Config struct {
	Endpoint        string            `mapstructure:"endpoint" yaml:"endpoint"`
	HealthEndpoint  string            `mapstructure:"health_endpoint" yaml:"health_endpoint"`
	SkipHealthCheck bool              `mapstructure:"skip_health_check" yaml:"skip_health_check"`
	Service         ServiceConfig     `mapstructure:"service" yaml:"service"`
	Counts          CountsConfig      `mapstructure:"counts" yaml:"counts"`
	InterCallDelay  time.Duration     `mapstructure:"inter_call_delay" yaml:"inter_call_delay"`
	Timeouts        TimeoutsConfig    `mapstructure:"timeouts" yaml:"timeouts"`
	Encoding        string            `mapstructure:"encoding" yaml:"encoding"`
	Parallel        bool              `mapstructure:"parallel" yaml:"parallel"`
	Seed            int64             `mapstructure:"seed" yaml:"seed"`
	Headers         map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
	MetricsTextfile string            `mapstructure:"metrics_textfile" yaml:"metrics_textfile,omitempty"`
	DetectHost      bool              `mapstructure:"detect_host" yaml:"detect_host"`
}

// ServiceConfig describes the emitting service stamped on every resource
type ServiceConfig struct {
	Name        string            `mapstructure:"name" yaml:"name"`
	Version     string            `mapstructure:"version" yaml:"version"`
	Environment string            `mapstructure:"environment" yaml:"environment"`
	Attributes  map[string]string `mapstructure:"attributes" yaml:"attributes,omitempty"`
}

// CountsConfig holds the number of sends per signal
type CountsConfig struct {
	Traces        int `mapstructure:"traces" yaml:"traces"`
	MetricBatches int `mapstructure:"metric_batches" yaml:"metric_batches"`
	Logs          int `mapstructure:"logs" yaml:"logs"`
}

// TimeoutsConfig holds per-call timeouts
type TimeoutsConfig struct {
	Send   time.Duration `mapstructure:"send" yaml:"send"`
	Health time.Duration `mapstructure:"health" yaml:"health"`
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"endpoint":          "endpoint",
	"health-endpoint":   "health_endpoint",
	"skip-health-check": "skip_health_check",
	"service-name":      "service.name",
	"environment":       "service.environment",
	"traces":            "counts.traces",
	"metric-batches":    "counts.metric_batches",
	"logs":              "counts.logs",
	"delay":             "inter_call_delay",
	"timeout":           "timeouts.send",
	"health-timeout":    "timeouts.health",
	"encoding":          "encoding",
	"parallel":          "parallel",
	"seed":              "seed",
	"metrics-textfile":  "metrics_textfile",
	"detect-host":       "detect_host",
}

// RegisterFlags adds the run flags to fs. Their defaults mirror setDefaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("endpoint", "http://localhost:4318", "OTLP/HTTP collector base URL")
	fs.String("health-endpoint", "http://localhost:13133", "collector health check URL")
	fs.Bool("skip-health-check", false, "skip the pre-flight health probe")
	fs.String("service-name", "test-service", "service.name resource attribute")
	fs.String("environment", "development", "deployment environment resource attribute")
	fs.Int("traces", 3, "number of trace payloads to send")
	fs.Int("metric-batches", 1, "number of metric payloads to send")
	fs.Int("logs", 2, "number of log payloads to send")
	fs.Duration("delay", time.Second, "delay between repeated sends of the same signal")
	fs.Duration("timeout", 10*time.Second, "timeout for each export request")
	fs.Duration("health-timeout", 5*time.Second, "timeout for the health probe")
	fs.String("encoding", "json", "payload encoding (json, proto)")
	fs.Bool("parallel", false, "send the three signals concurrently")
	fs.Int64("seed", 0, "seed for identifiers and sample values (0 = random)")
	fs.String("metrics-textfile", "", "write run metrics to this file in Prometheus text format")
	fs.Bool("detect-host", true, "add host.name, os.type and host.arch to the resource")
}

// Load loads configuration from file, environment and flags. flags may
// be nil; only flags registered by RegisterFlags are bound.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("otlpgen")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/otlpgen/")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("OTLPGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Standard OpenTelemetry variables are honoured as fallbacks.
	_ = v.BindEnv("endpoint", "OTLPGEN_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("service.name", "OTLPGEN_SERVICE_NAME", "OTEL_SERVICE_NAME")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	cfg.Encoding = strings.ToLower(strings.TrimSpace(cfg.Encoding))

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", "http://localhost:4318")
	v.SetDefault("health_endpoint", "http://localhost:13133")
	v.SetDefault("skip_health_check", false)

	v.SetDefault("service.name", "test-service")
	v.SetDefault("service.version", "1.0.0")
	v.SetDefault("service.environment", "development")
	v.SetDefault("service.attributes", map[string]string{})

	v.SetDefault("counts.traces", 3)
	v.SetDefault("counts.metric_batches", 1)
	v.SetDefault("counts.logs", 2)

	v.SetDefault("inter_call_delay", 1*time.Second)
	v.SetDefault("timeouts.send", 10*time.Second)
	v.SetDefault("timeouts.health", 5*time.Second)

	v.SetDefault("encoding", "json")
	v.SetDefault("parallel", false)
	v.SetDefault("seed", 0)
	v.SetDefault("headers", map[string]string{})
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("detect_host", true)
}

func validate(cfg *Config) error {
	if err := validateURL("endpoint", cfg.Endpoint); err != nil {
		return err
	}
	if err := validateURL("health_endpoint", cfg.HealthEndpoint); err != nil {
		return err
	}
	if cfg.Service.Name == "" {
		return fmt.Errorf("%w: service.name must be set", ErrInvalid)
	}
	if cfg.Counts.Traces < 0 || cfg.Counts.MetricBatches < 0 || cfg.Counts.Logs < 0 {
		return fmt.Errorf("%w: counts must not be negative: %+v", ErrInvalid, cfg.Counts)
	}
	if cfg.InterCallDelay < 0 {
		return fmt.Errorf("%w: inter_call_delay must not be negative: %s", ErrInvalid, cfg.InterCallDelay)
	}
	if cfg.Timeouts.Send <= 0 {
		return fmt.Errorf("%w: timeouts.send must be positive: %s", ErrInvalid, cfg.Timeouts.Send)
	}
	if cfg.Timeouts.Health <= 0 {
		return fmt.Errorf("%w: timeouts.health must be positive: %s", ErrInvalid, cfg.Timeouts.Health)
	}
	switch cfg.Encoding {
	case "json", "proto", "protobuf":
	default:
		return fmt.Errorf("%w: unknown encoding %q", ErrInvalid, cfg.Encoding)
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute http(s) URL, got %q", ErrInvalid, key, raw)
	}
	return nil
}
