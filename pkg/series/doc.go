// Package series defines the time series vocabulary shared by every corrkit
// component: calendar dates, immutable data sources, the resolutions used to
// bucket dates and the merge strategies that reduce a bucket to one value.
//
// # Data sources
//
// A Source is a named, unit-tagged series of (Date, value) entries kept in
// ascending date order with unique dates. Sources are produced by a Builder
// and never change afterwards, so they can be shared freely for reading.
//
// # Builders
//
// Builder holds the parts every source needs (name, unit, optional data
// filter, provenance) and delegates data extraction to a Generator. Format
// specific builders embed *Builder and pass themselves as the generator:
//
//	type RainBuilder struct {
//	    *series.Builder
//	    raw string
//	}
//
//	func NewRainBuilder(raw string) *RainBuilder {
//	    b := &RainBuilder{raw: raw}
//	    b.Builder = series.NewBuilder(b)
//	    return b
//	}
//
//	func (b *RainBuilder) GenerateData() (map[series.Date]float64, error) { ... }
//
// Build validates the configuration and fails with ErrMissingName,
// ErrMissingUnit or ErrMissingData wrapped in a *BuildError. Extraction
// failures are wrapped in the same *BuildError kind with the original error
// as its cause.
//
// # Resolutions and merge strategies
//
// Resolution maps a date to a bucket key (DAY "2014-03-30", MONTH "2014-03",
// YEAR "2014"). MergeType reduces the values that land in one bucket (SUM or
// AVERAGE).
package series
