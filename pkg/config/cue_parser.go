package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"github.com/go-playground/validator/v10"
)

// CUEParser parses and validates CUE and JSON pipeline files.
type CUEParser struct {
	ctx            *cue.Context
	schemaRegistry *SchemaRegistry
	validator      *validator.Validate
	filters        *FilterCompiler
}

// NewCUEParser creates a new CUE parser.
func NewCUEParser() *CUEParser {
	sr := NewSchemaRegistry()
	return &CUEParser{
		ctx:            sr.Context(),
		schemaRegistry: sr,
		validator:      newValidator(),
		filters:        NewFilterCompiler(),
	}
}

// ParseFile parses a single .cue or .json file.
func (cp *CUEParser) ParseFile(ctx context.Context, path string) (*ParsedConfig, error) {
	return cp.Parse(ctx, []string{path})
}

// Parse parses configuration from the given files or directories. All
// sources are unified into one pipeline.
func (cp *CUEParser) Parse(ctx context.Context, sources []string) (*ParsedConfig, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources provided")
	}

	var cueValue cue.Value
	var sourceFiles []string
	var parseErrors []ValidationError

	for _, source := range sources {
		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source %s: %w", source, err)
		}

		var val cue.Value
		var errs []ValidationError
		if info.IsDir() {
			var files []string
			val, files, errs = cp.loadDirectory(source)
			sourceFiles = append(sourceFiles, files...)
		} else {
			val, errs = cp.loadFile(source)
			sourceFiles = append(sourceFiles, source)
		}

		parseErrors = append(parseErrors, errs...)
		if val.Exists() {
			if cueValue.Exists() {
				cueValue = cueValue.Unify(val)
			} else {
				cueValue = val
			}
		}
	}

	if len(parseErrors) > 0 {
		return &ParsedConfig{
			SourceFiles: sourceFiles,
			ParsedAt:    time.Now(),
			Errors:      parseErrors,
		}, nil
	}

	pc := cp.extractConfig(ctx, cueValue, sourceFiles)
	if pc.Pipeline != nil && len(sources) == 1 {
		base := sources[0]
		if info, err := os.Stat(base); err == nil && !info.IsDir() {
			base = filepath.Dir(base)
		}
		resolvePaths(pc.Pipeline, base)
	}
	return pc, nil
}

// ParseInline parses inline CUE or JSON content. Relative paths are kept as
// written.
func (cp *CUEParser) ParseInline(ctx context.Context, content string) (*ParsedConfig, error) {
	val := cp.ctx.CompileString(content, cue.Filename("inline"))
	if err := val.Err(); err != nil {
		return &ParsedConfig{
			SourceFiles: []string{"inline"},
			ParsedAt:    time.Now(),
			Errors:      cp.convertCUEErrors(err),
		}, nil
	}

	return cp.extractConfig(ctx, val, []string{"inline"}), nil
}

// loadDirectory loads a directory as a CUE package.
func (cp *CUEParser) loadDirectory(dir string) (cue.Value, []string, []ValidationError) {
	buildInstances := load.Instances([]string{dir}, nil)
	if len(buildInstances) == 0 {
		return cue.Value{}, nil, []ValidationError{{
			File:     dir,
			Message:  "no CUE files found",
			Severity: "error",
		}}
	}

	inst := buildInstances[0]
	if inst.Err != nil {
		return cue.Value{}, nil, cp.convertCUEErrors(inst.Err)
	}

	val := cp.ctx.BuildInstance(inst)
	if err := val.Err(); err != nil {
		return cue.Value{}, nil, cp.convertCUEErrors(err)
	}

	var files []string
	for _, file := range inst.Files {
		if file.Filename != "" {
			files = append(files, file.Filename)
		}
	}

	return val, files, nil
}

// loadFile loads a single CUE or JSON file.
func (cp *CUEParser) loadFile(path string) (cue.Value, []ValidationError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, []ValidationError{{
			File:     path,
			Message:  fmt.Sprintf("failed to read file: %v", err),
			Severity: "error",
		}}
	}

	val := cp.ctx.CompileString(string(content), cue.Filename(path))
	if err := val.Err(); err != nil {
		return cue.Value{}, cp.convertCUEErrors(err)
	}

	return val, nil
}

// extractConfig unifies val with the pipeline schema, decodes it and runs
// the struct and filter checks.
func (cp *CUEParser) extractConfig(ctx context.Context, val cue.Value, sourceFiles []string) *ParsedConfig {
	parsedConfig := &ParsedConfig{
		SourceFiles: sourceFiles,
		ParsedAt:    time.Now(),
	}

	unified, err := cp.schemaRegistry.Unify(PipelineSchema, val)
	if err != nil {
		parsedConfig.Errors = cp.convertCUEErrors(err)
		return parsedConfig
	}

	var pipeline PipelineConfig
	if err := unified.Decode(&pipeline); err != nil {
		parsedConfig.Errors = append(parsedConfig.Errors, ValidationError{
			Message:  fmt.Sprintf("failed to decode pipeline: %v", err),
			Severity: "error",
		})
		return parsedConfig
	}

	parsedConfig.Pipeline = &pipeline
	parsedConfig.Errors = append(parsedConfig.Errors, validatePipeline(cp.validator, cp.filters, &pipeline)...)
	return parsedConfig
}

// convertCUEErrors converts CUE errors to ValidationError slice.
func (cp *CUEParser) convertCUEErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	for _, e := range errors.Errors(err) {
		pos := errors.Positions(e)
		var file string
		var line, column int

		if len(pos) > 0 {
			file = pos[0].Filename()
			line = pos[0].Line()
			column = pos[0].Column()
		}

		var path string
		if p := e.Path(); len(p) > 0 {
			path = strings.Join(p, ".")
		}

		validationErrors = append(validationErrors, ValidationError{
			File:     file,
			Line:     line,
			Column:   column,
			Path:     path,
			Message:  errors.Details(e, nil),
			Severity: "error",
		})
	}

	return validationErrors
}

// GetSchemaRegistry returns the schema registry.
func (cp *CUEParser) GetSchemaRegistry() *SchemaRegistry {
	return cp.schemaRegistry
}
