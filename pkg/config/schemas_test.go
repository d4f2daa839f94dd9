package config

import (
	"context"
	"slices"
	"testing"
)

func TestSchemaRegistry_BuiltInSchemas(t *testing.T) {
	sr := NewSchemaRegistry()

	for _, name := range []string{PipelineSchema, "source"} {
		schema, ok := sr.GetSchema(name)
		if !ok {
			t.Fatalf("built-in schema %s not registered", name)
		}
		if schema.Err() != nil {
			t.Errorf("schema %s has errors: %v", name, schema.Err())
		}
		if err := schema.Validate(); err != nil {
			t.Errorf("schema %s does not validate: %v", name, err)
		}
	}

	if got := sr.ListSchemas(); !slices.Equal(got, []string{"pipeline", "source"}) {
		t.Errorf("ListSchemas() = %v", got)
	}
}

func TestSchemaRegistry_RegisterSchema(t *testing.T) {
	sr := NewSchemaRegistry()

	custom := `
#Threshold: {
	limit: number & >=0
}
`
	if err := sr.RegisterSchema("threshold", custom, "#Threshold"); err != nil {
		t.Fatalf("RegisterSchema() error = %v", err)
	}

	ctx := context.Background()
	if err := sr.ValidateAgainstSchema(ctx, "threshold", map[string]any{"limit": 3}); err != nil {
		t.Errorf("valid data rejected: %v", err)
	}
	if err := sr.ValidateAgainstSchema(ctx, "threshold", map[string]any{"limit": -1}); err == nil {
		t.Error("expected negative limit to fail")
	}

	if err := sr.RegisterSchema("broken", "#X: {", ""); err == nil {
		t.Error("expected compile error")
	}
	if err := sr.RegisterSchema("missing", custom, "#Nope"); err == nil {
		t.Error("expected missing definition error")
	}
	if err := sr.ValidateAgainstSchema(ctx, "nope", 1); err == nil {
		t.Error("expected unknown schema error")
	}
}

func TestSchemaRegistry_SourceFormats(t *testing.T) {
	sr := NewSchemaRegistry()
	ctx := context.Background()

	tests := []struct {
		name    string
		source  SourceConfig
		wantErr bool
	}{
		{
			name:   "csv",
			source: SourceConfig{Name: "A", Unit: "u", Format: FormatCSV, Path: "a.csv", CSV: &CSVConfig{ValueColumn: 1}},
		},
		{
			name:   "json",
			source: SourceConfig{Name: "B", Unit: "v", Format: FormatJSON, Path: "b.json", JSON: &JSONConfig{DatePath: "d", ValuePath: "v"}},
		},
		{
			name:    "json without options",
			source:  SourceConfig{Name: "B", Unit: "v", Format: FormatJSON, Path: "b.json"},
			wantErr: true,
		},
		{
			name:    "csv with json options",
			source:  SourceConfig{Name: "A", Unit: "u", Format: FormatCSV, Path: "a.csv", JSON: &JSONConfig{DatePath: "d", ValuePath: "v"}},
			wantErr: true,
		},
		{
			name:    "unknown format",
			source:  SourceConfig{Name: "A", Unit: "u", Format: "xml", Path: "a.xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sr.ValidateAgainstSchema(ctx, "source", tt.source)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAgainstSchema() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchemaRegistry_ValidatePipeline(t *testing.T) {
	sr := NewSchemaRegistry()
	ctx := context.Background()

	p := &PipelineConfig{
		Resolution: "year",
		X: SourceConfig{
			Name: "A", Unit: "u", Format: FormatCSV, Path: "a.csv",
			CSV: &CSVConfig{DateColumn: 0, ValueColumn: 1},
		},
		Y: SourceConfig{
			Name: "B", Unit: "v", Format: FormatJSON, URL: "https://example.org/b.json",
			JSON: &JSONConfig{DatePath: "d", ValuePath: "v"},
		},
	}
	if err := sr.ValidatePipeline(ctx, p); err != nil {
		t.Fatalf("ValidatePipeline() error = %v", err)
	}

	p.Y.CSV = &CSVConfig{}
	if err := sr.ValidatePipeline(ctx, p); err == nil {
		t.Error("expected csv block on a json source to be rejected")
	}
}
