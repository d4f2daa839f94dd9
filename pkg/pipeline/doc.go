// Package pipeline runs a pipeline configuration end to end: it builds both
// data sources, aligns them and computes their correlation.
//
// Every run gets a UUID that appears in its logs and on its root span.
// Each phase is traced and recorded in the metrics of the runner's
// telemetry.
//
//	runner := pipeline.NewRunner(tel)
//	result, err := runner.Run(ctx, pc.Pipeline)
package pipeline
