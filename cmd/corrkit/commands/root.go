package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/corrkit/corrkit/pkg/config"
	"github.com/corrkit/corrkit/pkg/telemetry"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	logLevel      string
	logFormat     string
	traceExporter string
	traceEndpoint string
	metricsAddr   string
	dev           bool
	version       string

	tel *telemetry.Telemetry
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := &globalOptions{version: version}

	rootCmd := &cobra.Command{
		Use:   "corrkit",
		Short: "corrkit - align and correlate two dated data series",
		Long: `corrkit reads two dated data series from CSV or JSON, buckets them by day,
month or year, merges each bucket and pairs the buckets both series share.

Features:
  - Pipeline files in CUE, YAML or JSON
  - Local files or HTTP sources
  - Sum or average merging per side
  - Starlark entry filters
  - Pearson correlation of the aligned pairs
  - Watch mode with Prometheus metrics`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.setupTelemetry(); err != nil {
				return err
			}
			cmd.SetContext(opts.tel.WithContext(cmd.Context()))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.shutdownTelemetry()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&opts.traceExporter, "trace-exporter", "none", "trace exporter (none, stdout, otlp)")
	rootCmd.PersistentFlags().StringVar(&opts.traceEndpoint, "trace-endpoint", "localhost:4317", "OTLP collector endpoint")
	rootCmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "development mode: debug logs with caller and stdout traces")

	rootCmd.AddCommand(newAlignCommand(opts))
	rootCmd.AddCommand(newValidateCommand(opts))
	rootCmd.AddCommand(newKeysCommand(opts))
	rootCmd.AddCommand(newWatchCommand(opts))

	return rootCmd
}

func (o *globalOptions) telemetryConfig() *telemetry.Config {
	if o.dev {
		cfg := telemetry.DevelopmentConfig()
		cfg.ServiceVersion = o.version
		cfg.Logging.Format = o.logFormat
		cfg.Metrics.ListenAddress = o.metricsAddr
		return cfg
	}

	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = o.version
	cfg.Logging.Level = o.logLevel
	cfg.Logging.Format = o.logFormat
	cfg.Tracing.Exporter = o.traceExporter
	cfg.Tracing.Enabled = o.traceExporter != "" && o.traceExporter != "none"
	cfg.Tracing.Endpoint = o.traceEndpoint
	cfg.Metrics.ListenAddress = o.metricsAddr
	return cfg
}

func (o *globalOptions) setupTelemetry() error {
	if o.tel != nil {
		return nil
	}
	tel, err := telemetry.NewTelemetry(o.telemetryConfig())
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	o.tel = tel
	return nil
}

func (o *globalOptions) shutdownTelemetry() error {
	if o.tel == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return o.tel.Shutdown(ctx)
}

// telemetryFrom returns the telemetry installed on the command context.
func telemetryFrom(cmd *cobra.Command) *telemetry.Telemetry {
	if tel := telemetry.FromTelemetryContext(cmd.Context()); tel != nil {
		return tel
	}
	return telemetry.Nop()
}

// loadPipeline loads and validates a pipeline file, printing every problem.
func loadPipeline(cmd *cobra.Command, path string) (*config.PipelineConfig, error) {
	if path == "" {
		return nil, fmt.Errorf("no pipeline file given, use --file")
	}

	pc, err := config.NewLoader().Load(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	if len(pc.Errors) > 0 {
		printValidationErrors(cmd, pc.Errors)
		return nil, fmt.Errorf("%s: %d validation error(s)", path, len(pc.Errors))
	}
	return pc.Pipeline, nil
}

func printValidationErrors(cmd *cobra.Command, errs []config.ValidationError) {
	for _, e := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", e.Severity, e.Error())
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func addFileFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, "file", "f", "pipeline.cue", "pipeline file (.cue, .yaml, .yml, .json)")
}
