package series

import (
	"errors"
	"fmt"

	"github.com/corrkit/corrkit/pkg/cache"
)

// Generator produces the raw date to value mapping of a source. Returning a
// nil map means no data could be produced; an empty map is valid.
type Generator interface {
	GenerateData() (map[Date]float64, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func() (map[Date]float64, error)

// GenerateData calls f.
func (f GeneratorFunc) GenerateData() (map[Date]float64, error) {
	return f()
}

// Filter decides whether an entry is removed from a source. Returning true
// excludes the entry.
type Filter func(date Date, value float64) bool

// Builder validates and assembles a Source from a Generator.
type Builder struct {
	gen        Generator
	name       cache.Value[string]
	unit       cache.Value[string]
	filter     Filter
	provenance Provenance
}

// NewBuilder returns a Builder that pulls its data from gen.
func NewBuilder(gen Generator) *Builder {
	return &Builder{gen: gen}
}

// SetName sets a constant source name.
func (b *Builder) SetName(name string) *Builder {
	b.name.UpdateProducer(cache.Const(name))
	return b
}

// SetUnit sets a constant source unit.
func (b *Builder) SetUnit(unit string) *Builder {
	b.unit.UpdateProducer(cache.Const(unit))
	return b
}

// NameValue exposes the cached name holder so format specific builders can
// derive the name from their raw input.
func (b *Builder) NameValue() *cache.Value[string] {
	return &b.name
}

// UnitValue exposes the cached unit holder.
func (b *Builder) UnitValue() *cache.Value[string] {
	return &b.unit
}

// SetDataFilter sets the entry filter. Entries for which filter returns
// true are left out of the built source. A nil filter keeps everything.
func (b *Builder) SetDataFilter(filter Filter) *Builder {
	b.filter = filter
	return b
}

// SetProvenance records where the data comes from.
func (b *Builder) SetProvenance(name, link string) *Builder {
	b.provenance = Provenance{Name: name, Link: link}
	return b
}

// SetCaching toggles memoization of the name and unit holders.
func (b *Builder) SetCaching(enabled bool) *Builder {
	b.name.SetCachingEnabled(enabled)
	b.unit.SetCachingEnabled(enabled)
	return b
}

// Build validates the configuration, generates the data, applies the data
// filter and returns an immutable Source. Every failure is a *BuildError.
func (b *Builder) Build() (*Source, error) {
	if b.gen == nil {
		return nil, NewBuildError("", errors.New("no data generator"))
	}
	if !b.name.HasProducer() {
		return nil, NewBuildError("", ErrMissingName)
	}
	if !b.unit.HasProducer() {
		return nil, NewBuildError("", ErrMissingUnit)
	}

	name, err := b.name.Get()
	if err != nil {
		return nil, NewBuildError("", fmt.Errorf("resolve name: %w", err))
	}
	unit, err := b.unit.Get()
	if err != nil {
		return nil, NewBuildError(name, fmt.Errorf("resolve unit: %w", err))
	}

	generated, err := b.gen.GenerateData()
	if err != nil {
		return nil, NewBuildError(name, err)
	}
	if generated == nil {
		return nil, NewBuildError(name, ErrMissingData)
	}

	data := make(map[Date]float64, len(generated))
	for d, v := range generated {
		if b.filter != nil && b.filter(d, v) {
			continue
		}
		data[d] = v
	}

	return NewSource(name, unit, data, b.provenance), nil
}
