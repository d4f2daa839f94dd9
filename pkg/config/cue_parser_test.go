package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validPipeline = `
title: "Goals vs rain"
resolution: "day"

x: {
	name:   "Goals"
	unit:   "goals"
	format: "csv"
	path:   "goals.csv"
	csv: {
		date_column:  0
		value_column: 3
	}
}

y: {
	name:   "Rain"
	unit:   "mm"
	format: "json"
	url:    "https://opendata.example.org/rain.json"
	merge:  "average"
	filter: "value < 0"
	cache:  false
	json: {
		list_path:  "value"
		date_path:  "date"
		value_path: "value"
	}
}
`

func hasError(errs []ValidationError, path string) bool {
	for _, e := range errs {
		if strings.HasPrefix(e.Path, path) || strings.Contains(e.Message, path) {
			return true
		}
	}
	return false
}

func TestCUEParser_ParseInline(t *testing.T) {
	parser := NewCUEParser()
	ctx := context.Background()

	pc, err := parser.ParseInline(ctx, validPipeline)
	if err != nil {
		t.Fatalf("ParseInline() error = %v", err)
	}
	if len(pc.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", pc.Err())
	}

	p := pc.Pipeline
	if p.Title != "Goals vs rain" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.X.Merge != "sum" {
		t.Errorf("X.Merge = %q, want schema default sum", p.X.Merge)
	}
	if !p.X.CachingEnabled() {
		t.Error("X caching should default to true")
	}
	if p.Y.CachingEnabled() {
		t.Error("Y caching should be disabled")
	}
	if p.X.CSV.DelimiterRune() != ',' {
		t.Errorf("X delimiter = %q, want ','", p.X.CSV.DelimiterRune())
	}
	if p.X.CSV.ValueColumn != 3 {
		t.Errorf("X value column = %d, want 3", p.X.CSV.ValueColumn)
	}
	if p.Y.JSON.ListPath != "value" {
		t.Errorf("Y list path = %q", p.Y.JSON.ListPath)
	}
	if p.X.Path != "goals.csv" {
		t.Errorf("inline parsing should keep relative paths, got %q", p.X.Path)
	}

	m, err := p.Y.MergeType()
	if err != nil || m.String() != "AVERAGE" {
		t.Errorf("Y.MergeType() = %v, %v", m, err)
	}
	res, err := p.ResolutionValue()
	if err != nil || res.String() != "DAY" {
		t.Errorf("ResolutionValue() = %v, %v", res, err)
	}
}

func TestCUEParser_ParseInlineErrors(t *testing.T) {
	parser := NewCUEParser()
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		path    string
	}{
		{
			name:    "invalid CUE syntax",
			content: "resolution: \"day\"\nx: {name: \"a\"",
		},
		{
			name:    "unsupported resolution",
			content: strings.Replace(validPipeline, `resolution: "day"`, `resolution: "week"`, 1),
			path:    "resolution",
		},
		{
			name:    "unknown field",
			content: validPipeline + "\nz: 1\n",
			path:    "z",
		},
		{
			name:    "unsupported format",
			content: strings.Replace(validPipeline, `format: "json"`, `format: "xml"`, 1),
			path:    "y",
		},
		{
			name:    "missing csv block",
			content: strings.Replace(validPipeline, "csv: {\n\t\tdate_column:  0\n\t\tvalue_column: 3\n\t}", "", 1),
			path:    "x",
		},
		{
			name:    "path and url",
			content: strings.Replace(validPipeline, `path:   "goals.csv"`, "path: \"goals.csv\"\n\turl: \"https://example.org/g.csv\"", 1),
			path:    "x.url",
		},
		{
			name:    "missing location",
			content: strings.Replace(validPipeline, `path:   "goals.csv"`, "", 1),
			path:    "x.path",
		},
		{
			name:    "bad filter",
			content: strings.Replace(validPipeline, `filter: "value < 0"`, `filter: "value <"`, 1),
			path:    "y.filter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := parser.ParseInline(ctx, tt.content)
			if err != nil {
				t.Fatalf("ParseInline() error = %v", err)
			}
			if len(pc.Errors) == 0 {
				t.Fatal("expected validation errors")
			}
			if pc.Err() == nil {
				t.Error("Err() should be non-nil")
			}
			if tt.path != "" && !hasError(pc.Errors, tt.path) {
				t.Errorf("expected an error at %s, got %v", tt.path, pc.Errors)
			}
		})
	}
}

func TestCUEParser_SyntaxErrorLocation(t *testing.T) {
	parser := NewCUEParser()

	pc, err := parser.ParseInline(context.Background(), "resolution: \"day\"\nx: {name: \"a\"")
	if err != nil {
		t.Fatalf("ParseInline() error = %v", err)
	}
	if len(pc.Errors) == 0 {
		t.Fatal("expected a syntax error")
	}
	if pc.Errors[0].Line == 0 {
		t.Errorf("expected a line number, got %+v", pc.Errors[0])
	}
	if pc.Errors[0].Severity != "error" {
		t.Errorf("Severity = %q, want error", pc.Errors[0].Severity)
	}
}

func TestCUEParser_ParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.cue")
	if err := os.WriteFile(path, []byte(validPipeline), 0o600); err != nil {
		t.Fatal(err)
	}

	pc, err := NewCUEParser().ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if err := pc.Err(); err != nil {
		t.Fatalf("unexpected errors: %v", err)
	}

	if want := filepath.Join(dir, "goals.csv"); pc.Pipeline.X.Path != want {
		t.Errorf("X.Path = %q, want %q", pc.Pipeline.X.Path, want)
	}
	if pc.Pipeline.Y.Location() != "https://opendata.example.org/rain.json" {
		t.Errorf("Y.Location() = %q", pc.Pipeline.Y.Location())
	}
	if len(pc.SourceFiles) != 1 || pc.SourceFiles[0] != path {
		t.Errorf("SourceFiles = %v", pc.SourceFiles)
	}
}

func TestCUEParser_ParseJSONFile(t *testing.T) {
	content := `{
  "resolution": "month",
  "x": {"name": "A", "unit": "u", "format": "csv", "path": "/data/a.csv",
        "csv": {"delimiter": ";", "skip_rows": 1, "date_column": 0, "value_column": 1}},
  "y": {"name": "B", "unit": "v", "format": "csv", "path": "/data/b.csv",
        "csv": {"date_column": 2, "value_column": 5}}
}`
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	pc, err := NewCUEParser().ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if err := pc.Err(); err != nil {
		t.Fatalf("unexpected errors: %v", err)
	}
	if pc.Pipeline.X.CSV.DelimiterRune() != ';' {
		t.Errorf("X delimiter = %q", pc.Pipeline.X.CSV.DelimiterRune())
	}
	if pc.Pipeline.X.Path != "/data/a.csv" {
		t.Errorf("absolute paths must be kept, got %q", pc.Pipeline.X.Path)
	}
}

func TestCUEParser_MissingFile(t *testing.T) {
	_, err := NewCUEParser().ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.cue"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	if _, err := NewCUEParser().Parse(context.Background(), nil); err == nil {
		t.Fatal("expected error for no sources")
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{Message: "boom"}, "boom"},
		{ValidationError{Path: "x.unit", Message: "is required"}, "x.unit: is required"},
		{ValidationError{File: "p.cue", Line: 3, Column: 7, Message: "bad"}, "p.cue:3:7: bad"},
		{ValidationError{Path: "resolution", Message: "resolution: conflicting values"}, "resolution: conflicting values"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}

	errs := ValidationErrors{{Message: "a"}, {Message: "b"}}
	if got := errs.Error(); got != "2 errors: a; b" {
		t.Errorf("ValidationErrors.Error() = %q", got)
	}
}
