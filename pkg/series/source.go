package series

import (
	"iter"
	"slices"
)

// Entry is one dated observation of a Source.
type Entry struct {
	Date  Date
	Value float64
}

// Provenance describes where a source's data came from. Both fields are
// optional pass-through metadata.
type Provenance struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Link string `json:"link,omitempty" yaml:"link,omitempty"`
}

// Source is an immutable named, unit-tagged time series. Entries are unique
// by date and iterate in ascending date order.
type Source struct {
	name       string
	unit       string
	entries    []Entry
	index      map[Date]int
	provenance Provenance
}

// NewSource copies data into a new Source.
func NewSource(name, unit string, data map[Date]float64, provenance Provenance) *Source {
	entries := make([]Entry, 0, len(data))
	for d, v := range data {
		entries = append(entries, Entry{Date: d, Value: v})
	}
	slices.SortFunc(entries, func(a, b Entry) int { return a.Date.Compare(b.Date) })

	index := make(map[Date]int, len(entries))
	for i, e := range entries {
		index[e.Date] = i
	}

	return &Source{
		name:       name,
		unit:       unit,
		entries:    entries,
		index:      index,
		provenance: provenance,
	}
}

// Name returns the source name.
func (s *Source) Name() string { return s.name }

// Unit returns the unit of the source values.
func (s *Source) Unit() string { return s.unit }

// Provenance returns the source provenance.
func (s *Source) Provenance() Provenance { return s.provenance }

// Len returns the number of entries.
func (s *Source) Len() int { return len(s.entries) }

// Value returns the value recorded for d.
func (s *Source) Value(d Date) (float64, bool) {
	i, ok := s.index[d]
	if !ok {
		return 0, false
	}
	return s.entries[i].Value, true
}

// Entries returns a copy of the entries in ascending date order.
func (s *Source) Entries() []Entry {
	return slices.Clone(s.entries)
}

// Dates returns the entry dates in ascending order.
func (s *Source) Dates() []Date {
	dates := make([]Date, len(s.entries))
	for i, e := range s.entries {
		dates[i] = e.Date
	}
	return dates
}

// All iterates over the entries in ascending date order.
func (s *Source) All() iter.Seq2[Date, float64] {
	return func(yield func(Date, float64) bool) {
		for _, e := range s.entries {
			if !yield(e.Date, e.Value) {
				return
			}
		}
	}
}

// Span returns the first and last date of the source. ok is false for an
// empty source.
func (s *Source) Span() (first, last Date, ok bool) {
	if len(s.entries) == 0 {
		return Date{}, Date{}, false
	}
	return s.entries[0].Date, s.entries[len(s.entries)-1].Date, true
}

// String implements fmt.Stringer.
func (s *Source) String() string {
	return "[Source: " + s.name + " (" + s.unit + ")]"
}
