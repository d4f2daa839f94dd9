package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/corrkit/corrkit/pkg/series"
)

// Source formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// PipelineConfig describes one alignment of two data sources.
type PipelineConfig struct {
	// Title overrides the default "<x> : <y>" collection title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Resolution is the bucketing resolution (day, month, year).
	Resolution string `json:"resolution" yaml:"resolution" validate:"required,oneof=day month year"`

	// X is the source plotted on the x axis.
	X SourceConfig `json:"x" yaml:"x"`

	// Y is the source plotted on the y axis.
	Y SourceConfig `json:"y" yaml:"y"`
}

// SourceConfig describes how to read and merge one data source.
type SourceConfig struct {
	// Name is the source name.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Unit is the unit of the values.
	Unit string `json:"unit" yaml:"unit" validate:"required"`

	// Format is the text format (csv, json).
	Format string `json:"format" yaml:"format" validate:"required,oneof=csv json"`

	// Path is a local file. Exactly one of Path and URL is set.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// URL is fetched with a single GET.
	URL string `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`

	// Merge is the bucket merge strategy (sum, average).
	Merge string `json:"merge,omitempty" yaml:"merge,omitempty" validate:"omitempty,oneof=sum average avg mean"`

	// Filter is a Starlark expression; entries for which it is true are
	// dropped.
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty"`

	// Cache enables memoization inside the source builder. Defaults to true.
	Cache *bool `json:"cache,omitempty" yaml:"cache,omitempty"`

	// SourceName and SourceLink are passed through as provenance.
	SourceName string `json:"source_name,omitempty" yaml:"source_name,omitempty"`
	SourceLink string `json:"source_link,omitempty" yaml:"source_link,omitempty" validate:"omitempty,url"`

	// CSV holds the options for format csv.
	CSV *CSVConfig `json:"csv,omitempty" yaml:"csv,omitempty"`

	// JSON holds the options for format json.
	JSON *JSONConfig `json:"json,omitempty" yaml:"json,omitempty"`
}

// CSVConfig holds the options of a delimited text source.
type CSVConfig struct {
	Delimiter   string `json:"delimiter,omitempty" yaml:"delimiter,omitempty" validate:"omitempty,len=1"`
	Comment     string `json:"comment,omitempty" yaml:"comment,omitempty" validate:"omitempty,len=1"`
	SkipRows    int    `json:"skip_rows,omitempty" yaml:"skip_rows,omitempty" validate:"gte=0"`
	DateColumn  int    `json:"date_column" yaml:"date_column" validate:"gte=0"`
	ValueColumn int    `json:"value_column" yaml:"value_column" validate:"gte=0"`
	DateLayout  string `json:"date_layout,omitempty" yaml:"date_layout,omitempty"`
}

// JSONConfig holds the options of a JSON source. Paths are dotted; numeric
// segments index arrays.
type JSONConfig struct {
	ListPath   string `json:"list_path,omitempty" yaml:"list_path,omitempty"`
	DatePath   string `json:"date_path" yaml:"date_path" validate:"required"`
	ValuePath  string `json:"value_path" yaml:"value_path" validate:"required"`
	DateLayout string `json:"date_layout,omitempty" yaml:"date_layout,omitempty"`
}

// ResolutionValue parses Resolution.
func (p *PipelineConfig) ResolutionValue() (series.Resolution, error) {
	return series.ParseResolution(p.Resolution)
}

// Source returns the source of one side ("x" or "y").
func (p *PipelineConfig) Source(side string) (*SourceConfig, error) {
	switch side {
	case "x":
		return &p.X, nil
	case "y":
		return &p.Y, nil
	default:
		return nil, fmt.Errorf("unknown side %q, want x or y", side)
	}
}

// MergeType parses Merge. An empty Merge is sum.
func (s *SourceConfig) MergeType() (series.MergeType, error) {
	if s.Merge == "" {
		return series.MergeSum, nil
	}
	return series.ParseMergeType(s.Merge)
}

// CachingEnabled reports whether builder caching is on.
func (s *SourceConfig) CachingEnabled() bool {
	return s.Cache == nil || *s.Cache
}

// Location returns the path or URL of the source.
func (s *SourceConfig) Location() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Path
}

// IsRemote reports whether the source is fetched over HTTP.
func (s *SourceConfig) IsRemote() bool {
	return s.URL != ""
}

// DelimiterRune returns the CSV delimiter, ',' by default.
func (c *CSVConfig) DelimiterRune() rune {
	if c == nil || c.Delimiter == "" {
		return ','
	}
	return []rune(c.Delimiter)[0]
}

// CommentRune returns the CSV comment rune, or zero when unset.
func (c *CSVConfig) CommentRune() rune {
	if c == nil || c.Comment == "" {
		return 0
	}
	return []rune(c.Comment)[0]
}

// ParsedConfig is the outcome of loading a pipeline file.
type ParsedConfig struct {
	// Pipeline is nil when the file could not be decoded.
	Pipeline *PipelineConfig `json:"pipeline,omitempty"`

	// SourceFiles lists the files that were read.
	SourceFiles []string `json:"source_files"`

	// ParsedAt is when parsing finished.
	ParsedAt time.Time `json:"parsed_at"`

	// Errors holds every problem found.
	Errors []ValidationError `json:"errors,omitempty"`
}

// Err returns the collected errors as one error, or nil.
func (pc *ParsedConfig) Err() error {
	if len(pc.Errors) == 0 {
		return nil
	}
	return ValidationErrors(pc.Errors)
}

// ValidationError represents a validation error with location information.
type ValidationError struct {
	// File is the source file path.
	File string `json:"file,omitempty"`

	// Line is the line number (1-indexed).
	Line int `json:"line,omitempty"`

	// Column is the column number (1-indexed).
	Column int `json:"column,omitempty"`

	// Path is the field path of the error (e.g., "x.csv.date_column").
	Path string `json:"path,omitempty"`

	// Message is the error message.
	Message string `json:"message"`

	// Severity is the error severity (error, warning, info).
	Severity string `json:"severity" validate:"required,oneof=error warning info"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d:%d", e.Line, e.Column)
		}
		b.WriteString(": ")
	}
	if e.Path != "" && !strings.HasPrefix(e.Message, e.Path) {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// ValidationErrors is a list of problems reported as a single error.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (es ValidationErrors) Error() string {
	switch len(es) {
	case 0:
		return "no errors"
	case 1:
		return es[0].Error()
	}
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(es), strings.Join(msgs, "; "))
}
