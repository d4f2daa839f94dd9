package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/corrkit/corrkit/pkg/cache"
	"github.com/corrkit/corrkit/pkg/series"
	"github.com/corrkit/corrkit/pkg/telemetry"
)

// SourceBuilder produces a data source. *series.Builder and the builders in
// package sources satisfy it.
type SourceBuilder interface {
	Build() (*series.Source, error)
}

type alignment struct {
	keys  []string
	pairs map[string]MatchedPair
}

// CollectionBuilder aligns an x and a y source. It is not safe for
// concurrent use.
type CollectionBuilder struct {
	x, y       *series.Source
	title      string
	resolution series.Resolution
	xMerge     series.MergeType
	yMerge     series.MergeType

	result       *cache.Value[alignment]
	computations int

	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

// NewCollectionBuilder returns a builder for x and y at res. Both merge types
// default to series.MergeSum.
func NewCollectionBuilder(x, y *series.Source, res series.Resolution, opts ...Option) *CollectionBuilder {
	b := &CollectionBuilder{
		x:          x,
		y:          y,
		resolution: res,
		xMerge:     series.MergeSum,
		yMerge:     series.MergeSum,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.result = cache.New[alignment](b.compute)
	return b
}

// NewCollectionBuilderFrom builds both sources and returns a builder over
// them. A build failure of either side is returned unchanged.
func NewCollectionBuilderFrom(xb, yb SourceBuilder, res series.Resolution, opts ...Option) (*CollectionBuilder, error) {
	if xb == nil || yb == nil {
		return nil, ErrNilSource
	}
	x, err := xb.Build()
	if err != nil {
		return nil, fmt.Errorf("build x source: %w", err)
	}
	y, err := yb.Build()
	if err != nil {
		return nil, fmt.Errorf("build y source: %w", err)
	}
	return NewCollectionBuilder(x, y, res, opts...), nil
}

// SetTitle overrides the default title. It never invalidates the result.
func (b *CollectionBuilder) SetTitle(title string) *CollectionBuilder {
	b.title = title
	return b
}

// SetResolution changes the bucketing resolution.
func (b *CollectionBuilder) SetResolution(res series.Resolution) *CollectionBuilder {
	if res != b.resolution {
		b.resolution = res
		b.invalidate("resolution")
	}
	return b
}

// SetXMergeType changes the merge strategy of the x side.
func (b *CollectionBuilder) SetXMergeType(m series.MergeType) *CollectionBuilder {
	if m != b.xMerge {
		b.xMerge = m
		b.invalidate("x_merge")
	}
	return b
}

// SetYMergeType changes the merge strategy of the y side.
func (b *CollectionBuilder) SetYMergeType(m series.MergeType) *CollectionBuilder {
	if m != b.yMerge {
		b.yMerge = m
		b.invalidate("y_merge")
	}
	return b
}

// Title returns the override title, or "<x name> : <y name>".
func (b *CollectionBuilder) Title() string {
	if b.title != "" {
		return b.title
	}
	return sourceName(b.x) + " : " + sourceName(b.y)
}

// Resolution returns the current resolution.
func (b *CollectionBuilder) Resolution() series.Resolution { return b.resolution }

// XMergeType returns the x merge strategy.
func (b *CollectionBuilder) XMergeType() series.MergeType { return b.xMerge }

// YMergeType returns the y merge strategy.
func (b *CollectionBuilder) YMergeType() series.MergeType { return b.yMerge }

// Computations reports how many times the alignment has been computed.
func (b *CollectionBuilder) Computations() int { return b.computations }

// Result returns the aligned collection, computing it if needed.
func (b *CollectionBuilder) Result() (*Collection, error) {
	if b.x == nil || b.y == nil {
		return nil, ErrNilSource
	}
	if !b.resolution.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResolution, string(b.resolution))
	}
	if !b.xMerge.Valid() {
		return nil, fmt.Errorf("%w: x %q", ErrInvalidMergeType, string(b.xMerge))
	}
	if !b.yMerge.Valid() {
		return nil, fmt.Errorf("%w: y %q", ErrInvalidMergeType, string(b.yMerge))
	}

	a, err := b.result.Get()
	if err != nil {
		return nil, err
	}
	return &Collection{
		title:       b.Title(),
		xUnit:       b.x.Unit(),
		yUnit:       b.y.Unit(),
		resolution:  b.resolution,
		keys:        a.keys,
		pairs:       a.pairs,
		xProvenance: b.x.Provenance(),
		yProvenance: b.y.Provenance(),
	}, nil
}

func (b *CollectionBuilder) compute() (alignment, error) {
	start := time.Now()
	keys, pairs := MatchData(b.x, b.xMerge, b.y, b.yMerge, b.resolution)
	b.computations++

	elapsed := time.Since(start)
	b.metrics.RecordAlignment(b.resolution.String(), len(keys), elapsed)
	b.logger.Debug().
		Str("x", b.x.Name()).
		Str("y", b.y.Name()).
		Str("resolution", b.resolution.String()).
		Str("x_merge", b.xMerge.String()).
		Str("y_merge", b.yMerge.String()).
		Int("x_entries", b.x.Len()).
		Int("y_entries", b.y.Len()).
		Int("pairs", len(keys)).
		Dur("duration", elapsed).
		Msg("Aligned sources")

	return alignment{keys: keys, pairs: pairs}, nil
}

func (b *CollectionBuilder) invalidate(field string) {
	if !b.result.Cached() {
		return
	}
	b.result.ClearCache()
	b.metrics.RecordRecomputation()
	b.logger.Debug().Str("field", field).Msg("Alignment invalidated")
}

func sourceName(s *series.Source) string {
	if s == nil {
		return ""
	}
	return s.Name()
}
