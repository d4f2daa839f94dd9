package engine

import (
	"github.com/rs/zerolog"

	"github.com/corrkit/corrkit/pkg/telemetry"
)

// Option configures a CollectionBuilder.
type Option func(*CollectionBuilder)

// WithLogger sets the logger used for alignment diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *CollectionBuilder) {
		b.logger = logger.With().Str("component", "engine").Logger()
	}
}

// WithMetrics records alignments and recomputations on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(b *CollectionBuilder) {
		b.metrics = m
	}
}
