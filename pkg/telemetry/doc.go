// Package telemetry provides the observability layer of corrkit.
//
// It combines structured logging (zerolog), tracing (OpenTelemetry) and
// metrics (Prometheus) behind one Telemetry value that the pipeline runner
// and the CLI pass around.
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = version
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// # Logging
//
//	logger := tel.Logger.NewComponentLogger("pipeline")
//	logger.WithRunID(runID).WithSource("y", "rain").Info("Source built")
//
// Library packages that do not depend on telemetry accept a plain
// zerolog.Logger; Logger.Zerolog returns one.
//
// # Tracing
//
// Each pipeline run is one trace. Source builds and the alignment are child
// spans:
//
//	ctx, span := tel.Tracer.StartSourceSpan(ctx, "x", "Football goals")
//	defer span.End()
//
// Exporters: stdout (development), otlp over gRPC, none.
//
// # Metrics
//
// Metrics live in a private registry exposed by Metrics.Handler:
//
//   - corrkit_source_builds_total{side,status}
//   - corrkit_source_entries{side}
//   - corrkit_alignments_total{resolution}
//   - corrkit_alignment_duration_seconds{resolution}
//   - corrkit_matched_pairs
//   - corrkit_alignment_recomputations_total
//   - corrkit_filter_errors_total
//   - corrkit_errors_total{kind}
//   - corrkit_runs_total{status}, corrkit_run_duration_seconds{status}
package telemetry
