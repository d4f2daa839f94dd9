package config

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/corrkit/corrkit/pkg/series"
	"github.com/corrkit/corrkit/pkg/telemetry"
)

// defaultMaxSteps bounds the work of a single filter evaluation.
const defaultMaxSteps = 10_000

// FilterCompiler compiles Starlark filter expressions.
type FilterCompiler struct {
	maxSteps uint64
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
	failures atomic.Int64
}

// FilterOption configures a FilterCompiler.
type FilterOption func(*FilterCompiler)

// WithFilterLogger logs evaluation failures to logger.
func WithFilterLogger(logger zerolog.Logger) FilterOption {
	return func(fc *FilterCompiler) { fc.logger = logger }
}

// WithFilterMetrics counts evaluation failures on m.
func WithFilterMetrics(m *telemetry.Metrics) FilterOption {
	return func(fc *FilterCompiler) { fc.metrics = m }
}

// WithMaxSteps sets the execution step limit of one evaluation.
func WithMaxSteps(n uint64) FilterOption {
	return func(fc *FilterCompiler) { fc.maxSteps = n }
}

// NewFilterCompiler creates a new filter compiler.
func NewFilterCompiler(opts ...FilterOption) *FilterCompiler {
	fc := &FilterCompiler{
		maxSteps: defaultMaxSteps,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(fc)
	}
	return fc
}

// Failures returns how many evaluations have failed.
func (fc *FilterCompiler) Failures() int64 {
	return fc.failures.Load()
}

// Compile turns expr into a series.Filter. The expression sees two names:
// value, the entry value, and date, a struct with year, month, day and iso.
// An entry is excluded when the expression is true. An evaluation that
// fails, or does not yield a bool, keeps the entry and is counted.
func (fc *FilterCompiler) Compile(expr string) (series.Filter, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("empty filter expression")
	}

	opts := &syntax.FileOptions{}
	if _, err := opts.ParseExpr("filter", expr, 0); err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}

	outer, err := starlark.ExprFuncOptions(opts, "filter", "lambda date, value: ("+expr+"\n)", nil)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}
	fn, err := starlark.Call(fc.newThread(), outer, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}

	return func(d series.Date, v float64) bool {
		excluded, err := fc.eval(fn, d, v)
		if err != nil {
			fc.failures.Add(1)
			fc.metrics.RecordFilterError()
			fc.logger.Warn().
				Err(err).
				Str("filter", expr).
				Str("date", d.String()).
				Float64("value", v).
				Msg("Filter evaluation failed, keeping entry")
			return false
		}
		return excluded
	}, nil
}

func (fc *FilterCompiler) eval(fn starlark.Value, d series.Date, v float64) (bool, error) {
	result, err := starlark.Call(fc.newThread(), fn, starlark.Tuple{dateValue(d), starlark.Float(v)}, nil)
	if err != nil {
		return false, err
	}
	b, ok := result.(starlark.Bool)
	if !ok {
		return false, fmt.Errorf("filter must yield a bool, got %s", result.Type())
	}
	return bool(b), nil
}

func (fc *FilterCompiler) newThread() *starlark.Thread {
	thread := &starlark.Thread{
		Name:  "filter",
		Print: func(*starlark.Thread, string) {},
	}
	if fc.maxSteps > 0 {
		thread.SetMaxExecutionSteps(fc.maxSteps)
	}
	return thread
}

func dateValue(d series.Date) *starlarkstruct.Struct {
	return starlarkstruct.FromStringDict(starlark.String("date"), starlark.StringDict{
		"year":  starlark.MakeInt(d.Year),
		"month": starlark.MakeInt(int(d.Month)),
		"day":   starlark.MakeInt(d.Day),
		"iso":   starlark.String(d.String()),
	})
}
