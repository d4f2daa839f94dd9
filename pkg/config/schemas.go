package config

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// PipelineSchema is the name of the built-in pipeline schema.
const PipelineSchema = "pipeline"

// SchemaRegistry manages CUE schemas for validation.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a new schema registry with built-in schemas.
func NewSchemaRegistry() *SchemaRegistry {
	sr := &SchemaRegistry{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}

	if err := sr.RegisterSchema(PipelineSchema, builtinPipelineSchema, "#Pipeline"); err != nil {
		panic(err)
	}
	if err := sr.RegisterSchema("source", builtinPipelineSchema, "#Source"); err != nil {
		panic(err)
	}

	return sr
}

// Context returns the CUE context schemas are compiled in. Values unified
// with a schema must come from the same context.
func (sr *SchemaRegistry) Context() *cue.Context {
	return sr.ctx
}

// RegisterSchema compiles schema and registers the definition def under
// name. An empty def registers the whole file.
func (sr *SchemaRegistry) RegisterSchema(name, schema, def string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema, cue.Filename(name+".cue"))
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	if def != "" {
		val = val.LookupPath(cue.ParsePath(def))
		if !val.Exists() {
			return fmt.Errorf("schema %s: definition %s not found", name, def)
		}
	}

	sr.schemas[name] = val
	return nil
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// Unify unifies val with a named schema and checks that the result is
// concrete.
func (sr *SchemaRegistry) Unify(schemaName string, val cue.Value) (cue.Value, error) {
	schema, ok := sr.GetSchema(schemaName)
	if !ok {
		return cue.Value{}, fmt.Errorf("schema %s not found", schemaName)
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return unified, err
	}
	return unified, nil
}

// ValidateAgainstSchema validates a Go value against a named schema.
func (sr *SchemaRegistry) ValidateAgainstSchema(ctx context.Context, schemaName string, data any) error {
	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	if _, err := sr.Unify(schemaName, dataVal); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ListSchemas returns all registered schema names in sorted order.
func (sr *SchemaRegistry) ListSchemas() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	names := make([]string, 0, len(sr.schemas))
	for name := range sr.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidatePipeline validates a decoded pipeline against the pipeline schema.
func (sr *SchemaRegistry) ValidatePipeline(ctx context.Context, p *PipelineConfig) error {
	return sr.ValidateAgainstSchema(ctx, PipelineSchema, p)
}

const builtinPipelineSchema = `
#Pipeline: {
	// Title overrides the default collection title
	title?: string

	resolution: "day" | "month" | "year"

	x: #Source
	y: #Source
}

#Source: {
	name: string & !=""
	unit: string & !=""

	format: "csv" | "json"

	// Exactly one of path and url
	path?: string & !=""
	url?:  string & =~"^https?://"

	merge: *"sum" | "average" | "avg" | "mean"

	// Starlark expression; true drops the entry
	filter?: string

	cache: *true | bool

	source_name?: string
	source_link?: string

	// Each format carries its own options block
	{format: "csv", csv: #CSV} | {format: "json", json: #JSON}
}

#CSV: {
	delimiter:    *"," | string
	comment?:     string
	skip_rows:    *0 | int & >=0
	date_column:  int & >=0
	value_column: int & >=0
	date_layout?: string
}

#JSON: {
	list_path:    *"" | string
	date_path:    string & !=""
	value_path:   string & !=""
	date_layout?: string
}
`
