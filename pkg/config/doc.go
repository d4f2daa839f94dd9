// Package config loads and validates pipeline files and compiles their
// Starlark data filters.
//
// # Overview
//
// A pipeline file names two data sources, how to read them and how to align
// them. Files are written in CUE, YAML or JSON; all three end up in a
// PipelineConfig that has been checked against the built-in #Pipeline schema
// and the struct validation rules.
//
// # Components
//
// CUEParser: parses .cue and .json files, unifies them with the #Pipeline
// schema and decodes the result. Defaults declared in the schema (merge
// "sum", cache true, delimiter ",") are applied by unification.
//
// SchemaRegistry: holds the compiled CUE schemas. Go values, such as a
// decoded YAML file, can be validated against a schema by name.
//
// FilterCompiler: compiles a Starlark boolean expression into a
// series.Filter.
//
// # Pipeline File
//
//	title: "Goals vs rain"
//	resolution: "day"
//
//	x: {
//	    name:   "Goals"
//	    unit:   "goals"
//	    format: "csv"
//	    path:   "data/allsvenskan.csv"
//	    merge:  "sum"
//	    csv: {
//	        delimiter:    ";"
//	        skip_rows:    1
//	        date_column:  0
//	        value_column: 3
//	    }
//	}
//
//	y: {
//	    name:   "Rain"
//	    unit:   "mm"
//	    format: "json"
//	    url:    "https://opendata.example.org/rain.json"
//	    merge:  "average"
//	    filter: "value < 0"
//	    json: {
//	        list_path:  "value"
//	        date_path:  "date"
//	        value_path: "value"
//	    }
//	}
//
// Relative paths are resolved against the directory of the pipeline file.
//
// # Filters
//
// A filter is a Starlark expression evaluated for every entry with two
// predeclared names: value (a float) and date (a struct with year, month,
// day and iso). An entry is dropped when the expression is true:
//
//	value < 0 or date.month in (6, 7, 8)
//
// # Error Handling
//
// Parse and validation problems are collected rather than returned one at a
// time:
//
//	ValidationError{
//	    File:     "pipeline.cue",
//	    Line:     12,
//	    Column:   5,
//	    Path:     "x.format",
//	    Message:  `x.format: 2 errors in empty disjunction`,
//	    Severity: "error",
//	}
package config
