// otlpgen sends synthetic traces, metrics and logs to an OTLP/HTTP
// collector and reports which of them were accepted.
//
// The process exits with 0 when every send succeeded, with the number
// of failed sends (at most 124) otherwise and with 125 when the run
// could not be set up.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ollystack/otlpgen/internal/config"
	"github.com/ollystack/otlpgen/internal/ids"
	"github.com/ollystack/otlpgen/internal/logging"
	"github.com/ollystack/otlpgen/internal/metrics"
	"github.com/ollystack/otlpgen/internal/payload"
	"github.com/ollystack/otlpgen/internal/report"
	"github.com/ollystack/otlpgen/internal/resource"
	"github.com/ollystack/otlpgen/internal/runner"
	"github.com/ollystack/otlpgen/internal/sample"
	"github.com/ollystack/otlpgen/internal/transport"
)

var version = "0.1.0"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

type app struct {
	cfgFile   string
	logLevel  string
	logFormat string

	stdout   io.Writer
	stderr   io.Writer
	exitCode int
}

func execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: stdout, stderr: stderr}
	rootCmd := a.rootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return report.ExitSetupError
	}
	return a.exitCode
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "otlpgen",
		Short: "Send synthetic OTLP traces, metrics and logs to a collector",
		Long: `otlpgen builds valid OTLP/HTTP payloads for traces, metrics and logs,
POSTs them to a collector and reports per signal which were accepted.

Trace IDs of every sent trace are printed so they can be looked up in
the tracing backend.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          a.run,
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&a.logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "console", "log format (console, json)")
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(a.validateCmd())
	rootCmd.AddCommand(a.healthCmd())
	rootCmd.AddCommand(a.versionCmd())

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) (*zap.Logger, *config.Config, error) {
	logger, err := logging.New(a.logLevel, a.logFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return logger, cfg, nil
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	logger, cfg, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	enc, err := payload.ParseEncoding(cfg.Encoding)
	if err != nil {
		return err
	}

	logger.Info("Starting otlpgen",
		zap.String("version", version),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("encoding", string(enc)),
	)

	gen := ids.NewRandom()
	if cfg.Seed != 0 {
		gen = ids.NewSeeded(cfg.Seed)
	}

	ctx := cmd.Context()
	res := resource.NewDetector(logger).Detect(ctx, cfg.Service, cfg.DetectHost)

	client := newClient(cfg, logger)
	defer client.Close()

	rep := report.New(a.stdout)
	recorder := metrics.NewRecorder()

	r := runner.New(runner.Config{
		Endpoint:        cfg.Endpoint,
		HealthEndpoint:  cfg.HealthEndpoint,
		SkipHealthCheck: cfg.SkipHealthCheck,
		Traces:          cfg.Counts.Traces,
		MetricBatches:   cfg.Counts.MetricBatches,
		Logs:            cfg.Counts.Logs,
		Delay:           cfg.InterCallDelay,
		Parallel:        cfg.Parallel,
		Version:         version,
	}, runner.Dependencies{
		Resource: res,
		Source:   sample.NewFactory(gen, nil),
		Builder:  payload.NewBuilder(enc),
		Sender:   client,
		Report:   rep,
		Recorder: recorder,
		Logger:   logger,
	})

	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("Run ended early", zap.Error(err))
	}

	rep.Render()

	if cfg.MetricsTextfile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("Failed to write metrics textfile",
				zap.String("path", cfg.MetricsTextfile),
				zap.Error(err),
			)
		}
	}

	a.exitCode = rep.ExitCode()
	return nil
}

func newClient(cfg *config.Config, logger *zap.Logger) *transport.Client {
	return transport.NewClient(transport.Config{
		SendTimeout:   cfg.Timeouts.Send,
		HealthTimeout: cfg.Timeouts.Health,
		Headers:       cfg.Headers,
		UserAgent:     "otlpgen/" + version,
	}, logger)
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			fmt.Fprintln(a.stdout, "Configuration valid:")
			_, err = a.stdout.Write(out)
			return err
		},
	}
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the collector health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, err := a.setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			client := newClient(cfg, logger)
			defer client.Close()

			res := client.HealthCheck(cmd.Context(), cfg.HealthEndpoint)
			if res.Healthy() {
				fmt.Fprintf(a.stdout, "collector at %s is healthy (status=%d)\n", res.URL, res.StatusCode)
				return nil
			}
			fmt.Fprintf(a.stdout, "collector at %s is unhealthy: %v\n", res.URL, res.Err)
			a.exitCode = 1
			return nil
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "otlpgen v%s\n", version)
		},
	}
}
