package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads pipeline files of any supported format.
type Loader struct {
	parser *CUEParser
}

// NewLoader returns a Loader with its own CUE parser.
func NewLoader() *Loader {
	return &Loader{parser: NewCUEParser()}
}

// Parser returns the CUE parser used for .cue and .json files.
func (l *Loader) Parser() *CUEParser {
	return l.parser
}

// Load reads the pipeline file at path, choosing the decoder by extension.
// Validation problems are reported in ParsedConfig.Errors; the returned
// error is reserved for files that cannot be read at all.
func (l *Loader) Load(ctx context.Context, path string) (*ParsedConfig, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue", ".json":
		return l.parser.ParseFile(ctx, path)
	case ".yaml", ".yml":
		return l.LoadYAML(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported pipeline file %s: want .cue, .json, .yaml or .yml", path)
	}
}

// LoadYAML reads a YAML pipeline file.
func (l *Loader) LoadYAML(ctx context.Context, path string) (*ParsedConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	pc, err := l.DecodeYAML(ctx, path, content)
	if err != nil {
		return nil, err
	}
	if pc.Pipeline != nil {
		resolvePaths(pc.Pipeline, filepath.Dir(path))
	}
	return pc, nil
}

// DecodeYAML decodes YAML content. name is used in error locations.
func (l *Loader) DecodeYAML(ctx context.Context, name string, content []byte) (*ParsedConfig, error) {
	pc := &ParsedConfig{
		SourceFiles: []string{name},
		ParsedAt:    time.Now(),
	}

	var pipeline PipelineConfig
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&pipeline); err != nil {
		if errors.Is(err, io.EOF) {
			pc.Errors = append(pc.Errors, ValidationError{File: name, Message: "empty pipeline file", Severity: "error"})
			return pc, nil
		}
		pc.Errors = append(pc.Errors, yamlErrors(name, err)...)
		return pc, nil
	}

	applyDefaults(&pipeline)
	pc.Pipeline = &pipeline

	if err := l.parser.schemaRegistry.ValidatePipeline(ctx, &pipeline); err != nil {
		for _, ve := range l.parser.convertCUEErrors(err) {
			ve.File = name
			ve.Line, ve.Column = 0, 0
			pc.Errors = append(pc.Errors, ve)
		}
	}
	pc.Errors = append(pc.Errors, validatePipeline(l.parser.validator, l.parser.filters, &pipeline)...)
	return pc, nil
}

var yamlLine = regexp.MustCompile(`line (\d+):\s*(.*)`)

// yamlErrors converts a yaml.v3 error into located validation errors.
func yamlErrors(file string, err error) []ValidationError {
	var msgs []string
	var te *yaml.TypeError
	if errors.As(err, &te) {
		msgs = te.Errors
	} else {
		msgs = []string{err.Error()}
	}

	out := make([]ValidationError, 0, len(msgs))
	for _, msg := range msgs {
		ve := ValidationError{File: file, Message: strings.TrimPrefix(msg, "yaml: "), Severity: "error"}
		if m := yamlLine.FindStringSubmatch(msg); m != nil {
			ve.Line, _ = strconv.Atoi(m[1])
			ve.Message = m[2]
		}
		out = append(out, ve)
	}
	return out
}
