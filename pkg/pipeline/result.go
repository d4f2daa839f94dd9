package pipeline

import (
	"math"
	"time"

	"github.com/corrkit/corrkit/pkg/engine"
	"github.com/corrkit/corrkit/pkg/series"
	"github.com/corrkit/corrkit/pkg/stats"
)

// SourceInfo describes one built source.
type SourceInfo struct {
	Side       string            `json:"side"`
	Name       string            `json:"name"`
	Unit       string            `json:"unit"`
	Location   string            `json:"location"`
	Entries    int               `json:"entries"`
	Merge      series.MergeType  `json:"merge"`
	Provenance series.Provenance `json:"provenance"`
	Summary    stats.Summary     `json:"summary"`
}

// Result is the outcome of one run.
type Result struct {
	RunID      string             `json:"run_id"`
	Collection *engine.Collection `json:"-"`
	X          SourceInfo         `json:"x"`
	Y          SourceInfo         `json:"y"`

	// Correlation is the Pearson coefficient of the pairs, or NaN when it
	// is undefined.
	Correlation float64 `json:"-"`

	// FilterFailures counts filter evaluations that failed and kept their
	// entry.
	FilterFailures int64         `json:"filter_failures"`
	Duration       time.Duration `json:"duration"`
}

// HasCorrelation reports whether Correlation is defined.
func (r *Result) HasCorrelation() bool {
	return !math.IsNaN(r.Correlation)
}
