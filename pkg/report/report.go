// Package report renders pipeline results as a table, JSON or CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"github.com/corrkit/corrkit/pkg/engine"
	"github.com/corrkit/corrkit/pkg/pipeline"
)

// Format is an output format.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatCSV}
}

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatTable, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q, want table, json or csv", s)
	}
}

// Write renders r to w in format f. Pairs are written in collection key
// order.
func Write(w io.Writer, r *pipeline.Result, f Format) error {
	if r == nil || r.Collection == nil {
		return fmt.Errorf("report: empty result")
	}
	switch f {
	case FormatTable:
		return writeTable(w, r)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatCSV:
		return writeCSV(w, r)
	default:
		return fmt.Errorf("report: unsupported format %q", f)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func correlationText(r *pipeline.Result) string {
	if !r.HasCorrelation() {
		return "n/a"
	}
	return strconv.FormatFloat(r.Correlation, 'f', 4, 64)
}

func writeTable(w io.Writer, r *pipeline.Result) error {
	c := r.Collection

	fmt.Fprintf(w, "%s\n", c.Title())
	fmt.Fprintf(w, "Resolution: %s   X: %s (%s, %s)   Y: %s (%s, %s)\n\n",
		c.Resolution(),
		r.X.Name, c.XUnit(), r.X.Merge,
		r.Y.Name, c.YUnit(), r.Y.Merge,
	)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "KEY\tX [%s]\tY [%s]\t\n", c.XUnit(), c.YUnit())
	for key, p := range c.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", key, formatFloat(p.X), formatFloat(p.Y))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nPairs: %d   Correlation: %s   Entries: x=%d y=%d\n",
		c.Len(), correlationText(r), r.X.Entries, r.Y.Entries)
	if p := c.XProvenance(); p.Name != "" || p.Link != "" {
		fmt.Fprintf(w, "X source: %s\n", strings.TrimSpace(p.Name+" "+p.Link))
	}
	if p := c.YProvenance(); p.Name != "" || p.Link != "" {
		fmt.Fprintf(w, "Y source: %s\n", strings.TrimSpace(p.Name+" "+p.Link))
	}
	return nil
}

type jsonPair struct {
	Key string  `json:"key"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

type jsonReport struct {
	RunID       string              `json:"run_id"`
	Title       string              `json:"title"`
	Resolution  string              `json:"resolution"`
	XUnit       string              `json:"x_unit"`
	YUnit       string              `json:"y_unit"`
	X           pipeline.SourceInfo `json:"x"`
	Y           pipeline.SourceInfo `json:"y"`
	Pairs       []jsonPair          `json:"pairs"`
	Correlation *float64            `json:"correlation"`
	Duration    string              `json:"duration"`
}

func writeJSON(w io.Writer, r *pipeline.Result) error {
	c := r.Collection
	out := jsonReport{
		RunID:      r.RunID,
		Title:      c.Title(),
		Resolution: string(c.Resolution()),
		XUnit:      c.XUnit(),
		YUnit:      c.YUnit(),
		X:          r.X,
		Y:          r.Y,
		Pairs:      pairs(c),
		Duration:   r.Duration.Round(time.Microsecond).String(),
	}
	if r.HasCorrelation() {
		corr := r.Correlation
		out.Correlation = &corr
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func pairs(c *engine.Collection) []jsonPair {
	out := make([]jsonPair, 0, c.Len())
	for key, p := range c.All() {
		out = append(out, jsonPair{Key: key, X: p.X, Y: p.Y})
	}
	return out
}

func writeCSV(w io.Writer, r *pipeline.Result) error {
	c := r.Collection
	cw := csv.NewWriter(w)

	header := []string{"key", "x", "y"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for key, p := range c.All() {
		if err := cw.Write([]string{key, formatFloat(p.X), formatFloat(p.Y)}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
