package engine

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"

	"github.com/corrkit/corrkit/pkg/series"
)

// MatchedPair holds the merged x and y value of one bucket.
type MatchedPair struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// String renders the pair as "(x : y)".
func (p MatchedPair) String() string {
	return "(" + strconv.FormatFloat(p.X, 'g', -1, 64) + " : " + strconv.FormatFloat(p.Y, 'g', -1, 64) + ")"
}

// Collection is the immutable result of an alignment.
type Collection struct {
	title       string
	xUnit       string
	yUnit       string
	resolution  series.Resolution
	keys        []string
	pairs       map[string]MatchedPair
	xProvenance series.Provenance
	yProvenance series.Provenance
}

// Title returns the collection title.
func (c *Collection) Title() string { return c.title }

// XUnit returns the unit of the x values.
func (c *Collection) XUnit() string { return c.xUnit }

// YUnit returns the unit of the y values.
func (c *Collection) YUnit() string { return c.yUnit }

// Resolution returns the resolution the pairs were bucketed at.
func (c *Collection) Resolution() series.Resolution { return c.resolution }

// XProvenance returns the provenance of the x source.
func (c *Collection) XProvenance() series.Provenance { return c.xProvenance }

// YProvenance returns the provenance of the y source.
func (c *Collection) YProvenance() series.Provenance { return c.yProvenance }

// Len returns the number of pairs.
func (c *Collection) Len() int { return len(c.keys) }

// Keys returns the bucket keys in x-source order.
func (c *Collection) Keys() []string { return slices.Clone(c.keys) }

// Pair returns the pair stored under key.
func (c *Collection) Pair(key string) (MatchedPair, bool) {
	p, ok := c.pairs[key]
	return p, ok
}

// Pairs returns a copy of the key to pair mapping.
func (c *Collection) Pairs() map[string]MatchedPair {
	return maps.Clone(c.pairs)
}

// All iterates over the pairs in key order.
func (c *Collection) All() iter.Seq2[string, MatchedPair] {
	return func(yield func(string, MatchedPair) bool) {
		for _, k := range c.keys {
			if !yield(k, c.pairs[k]) {
				return
			}
		}
	}
}

// Values returns the x and y values in key order.
func (c *Collection) Values() (xs, ys []float64) {
	xs = make([]float64, len(c.keys))
	ys = make([]float64, len(c.keys))
	for i, k := range c.keys {
		p := c.pairs[k]
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

// String implements fmt.Stringer.
func (c *Collection) String() string {
	return fmt.Sprintf("[Collection: %s]", c.title)
}
