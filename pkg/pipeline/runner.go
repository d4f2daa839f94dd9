package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/corrkit/corrkit/pkg/config"
	"github.com/corrkit/corrkit/pkg/engine"
	"github.com/corrkit/corrkit/pkg/series"
	"github.com/corrkit/corrkit/pkg/stats"
	"github.com/corrkit/corrkit/pkg/telemetry"
)

// Error kinds recorded in the errors_total metric.
const (
	KindConfig = "config"
	KindSource = "source"
	KindAlign  = "align"
)

// Error is a failed run phase.
type Error struct {
	Kind string
	Side string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Side != "" {
		return fmt.Sprintf("%s %s: %v", e.Side, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Runner executes pipeline configurations.
type Runner struct {
	telemetry *telemetry.Telemetry
	client    *http.Client
}

// Option configures a Runner.
type Option func(*Runner)

// WithHTTPClient sets the client used for url sources.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) { r.client = c }
}

// NewRunner returns a Runner reporting to tel. A nil tel disables telemetry.
func NewRunner(tel *telemetry.Telemetry, opts ...Option) *Runner {
	if tel == nil {
		tel = telemetry.Nop()
	}
	r := &Runner{
		telemetry: tel,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run builds both sources of cfg, aligns them and computes the correlation.
func (r *Runner) Run(ctx context.Context, cfg *config.PipelineConfig) (result *Result, err error) {
	runID := uuid.NewString()
	log := r.telemetry.Logger.WithRunID(runID)
	metrics := r.telemetry.Metrics
	timer := telemetry.NewTimer()

	ctx, span := r.telemetry.Tracer.StartRunSpan(ctx, runID, cfg.Title)
	defer func() {
		telemetry.EndSpan(span, err)
		status := "succeeded"
		if err != nil {
			status = "failed"
			var re *Error
			if errors.As(err, &re) {
				metrics.RecordError(re.Kind)
			}
			log.WithError(err).Error("Pipeline run failed")
		}
		metrics.RecordRun(status, timer.Duration())
	}()

	res, err := cfg.ResolutionValue()
	if err != nil {
		return nil, &Error{Kind: KindConfig, Err: err}
	}
	xm, err := cfg.X.MergeType()
	if err != nil {
		return nil, &Error{Kind: KindConfig, Side: "x", Err: err}
	}
	ym, err := cfg.Y.MergeType()
	if err != nil {
		return nil, &Error{Kind: KindConfig, Side: "y", Err: err}
	}

	filters := config.NewFilterCompiler(
		config.WithFilterLogger(log.Zerolog()),
		config.WithFilterMetrics(metrics),
	)

	x, err := r.buildSource(ctx, "x", &cfg.X, filters, log)
	if err != nil {
		return nil, err
	}
	y, err := r.buildSource(ctx, "y", &cfg.Y, filters, log)
	if err != nil {
		return nil, err
	}

	c, err := r.align(ctx, cfg, x, y, res, xm, ym, log)
	if err != nil {
		return nil, &Error{Kind: KindAlign, Err: err}
	}

	corr, err := stats.CollectionCorrelation(c)
	if err != nil {
		log.WithError(err).Debugf("Correlation undefined for %q", c.Title())
		corr = math.NaN()
	}

	xs, ys := c.Values()
	result = &Result{
		RunID:          runID,
		Collection:     c,
		X:              sourceInfo("x", &cfg.X, x, xm, xs),
		Y:              sourceInfo("y", &cfg.Y, y, ym, ys),
		Correlation:    corr,
		FilterFailures: filters.Failures(),
		Duration:       timer.Duration(),
	}

	fields := map[string]interface{}{
		"title":       c.Title(),
		"pairs":       c.Len(),
		"duration_ms": result.Duration.Milliseconds(),
		"trace_id":    telemetry.TraceID(ctx),
	}
	// NaN does not encode as JSON.
	if result.HasCorrelation() {
		fields["correlation"] = corr
	}
	log.WithFields(fields).Info("Pipeline run completed")

	return result, nil
}

// BuildSource builds the source of one side without aligning it.
func (r *Runner) BuildSource(ctx context.Context, side string, sc *config.SourceConfig) (*series.Source, error) {
	log := r.telemetry.Logger.WithRunID(uuid.NewString())
	filters := config.NewFilterCompiler(
		config.WithFilterLogger(log.Zerolog()),
		config.WithFilterMetrics(r.telemetry.Metrics),
	)
	return r.buildSource(ctx, side, sc, filters, log)
}

func (r *Runner) buildSource(ctx context.Context, side string, sc *config.SourceConfig, filters *config.FilterCompiler, log *telemetry.Logger) (src *series.Source, err error) {
	log = log.WithSource(side, sc.Name)
	ctx, span := r.telemetry.Tracer.StartSourceSpan(ctx, side, sc.Name)
	defer func() {
		entries := 0
		status := "failed"
		if err == nil {
			entries = src.Len()
			status = "succeeded"
			span.SetAttributes(telemetry.AttrSourceEntries.Int(entries))
		}
		telemetry.EndSpan(span, err)
		r.telemetry.Metrics.RecordSourceBuild(side, status, entries)
	}()

	b, err := NewSourceBuilder(ctx, sc, r.client, filters, log)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Side: side, Err: err}
	}

	src, err = b.Build()
	if err != nil {
		return nil, &Error{Kind: KindSource, Side: side, Err: err}
	}

	log.WithField("location", sc.Location()).
		Debugf("Built data source with %d entries", src.Len())
	return src, nil
}

func (r *Runner) align(ctx context.Context, cfg *config.PipelineConfig, x, y *series.Source, res series.Resolution, xm, ym series.MergeType, log *telemetry.Logger) (c *engine.Collection, err error) {
	_, span := r.telemetry.Tracer.StartAlignSpan(ctx, res.String(), xm.String(), ym.String())
	defer func() {
		if err == nil {
			span.SetAttributes(telemetry.AttrMatchedPairs.Int(c.Len()))
		}
		telemetry.EndSpan(span, err)
	}()

	b := engine.NewCollectionBuilder(x, y, res,
		engine.WithLogger(log.Zerolog()),
		engine.WithMetrics(r.telemetry.Metrics),
	).SetXMergeType(xm).SetYMergeType(ym)
	if cfg.Title != "" {
		b.SetTitle(cfg.Title)
	}
	return b.Result()
}

func sourceInfo(side string, sc *config.SourceConfig, src *series.Source, m series.MergeType, values []float64) SourceInfo {
	return SourceInfo{
		Side:       side,
		Name:       src.Name(),
		Unit:       src.Unit(),
		Location:   sc.Location(),
		Entries:    src.Len(),
		Merge:      m,
		Provenance: src.Provenance(),
		Summary:    stats.Describe(values),
	}
}
