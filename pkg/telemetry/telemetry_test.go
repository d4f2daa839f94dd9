package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "default", modify: func(*Config) {}},
		{name: "development", modify: func(c *Config) { *c = *DevelopmentConfig() }},
		{name: "missing service name", modify: func(c *Config) { c.ServiceName = "" }, wantErr: true},
		{name: "bad level", modify: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "bad format", modify: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{
			name: "bad exporter",
			modify: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "jaeger"
			},
			wantErr: true,
		},
		{
			name: "otlp without endpoint",
			modify: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "otlp"
			},
			wantErr: true,
		},
		{name: "sampling out of range", modify: func(c *Config) { c.Tracing.SamplingRate = 1.5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogger_StructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LoggingConfig{Level: "debug", Format: "json"}, &buf)

	logger.NewComponentLogger("pipeline").
		WithRunID("run-1").
		WithSource("x", "Football goals").
		Debug("Source built")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}

	want := map[string]string{
		"component": "pipeline",
		"run_id":    "run-1",
		"side":      "x",
		"source":    "Football goals",
		"message":   "Source built",
		"level":     "debug",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("expected %s=%q, got %v", k, v, entry[k])
		}
	}
}

func TestLogger_FieldsAndFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LoggingConfig{Level: "debug", Format: "json"}, &buf)

	logger.WithFields(map[string]interface{}{"pairs": 2, "title": "Goals : Rain"}).
		WithField("location", "rain.json").
		Infof("Run %d completed", 7)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	if entry["message"] != "Run 7 completed" || entry["level"] != "info" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["pairs"] != float64(2) || entry["title"] != "Goals : Rain" || entry["location"] != "rain.json" {
		t.Errorf("missing fields in %v", entry)
	}

	buf.Reset()
	logger.Debugf("%d entries", 3)
	if !bytes.Contains(buf.Bytes(), []byte(`"message":"3 entries"`)) {
		t.Errorf("unexpected debug line %q", buf.String())
	}
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}

	logger.Warn("shown")
	if buf.Len() == 0 {
		t.Error("expected warn to be written")
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a fallback logger")
	}

	tel := Nop()
	ctx := tel.WithContext(context.Background())
	if FromTelemetryContext(ctx) != tel {
		t.Error("expected telemetry from context")
	}
	if FromContext(ctx) != tel.Logger {
		t.Error("expected logger from context")
	}
}

func TestMetrics_Record(t *testing.T) {
	m, err := NewMetrics(DefaultConfig().Metrics)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	m.RecordSourceBuild("x", "succeeded", 12)
	m.RecordSourceBuild("y", "failed", 0)
	m.RecordAlignment("day", 4, 2*time.Millisecond)
	m.RecordAlignment("day", 3, time.Millisecond)
	m.RecordRecomputation()
	m.RecordFilterError()
	m.RecordError("build")
	m.RecordRun("succeeded", time.Second)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"x builds", testutil.ToFloat64(m.sourceBuilds.WithLabelValues("x", "succeeded")), 1},
		{"y failures", testutil.ToFloat64(m.sourceBuilds.WithLabelValues("y", "failed")), 1},
		{"x entries", testutil.ToFloat64(m.sourceEntries.WithLabelValues("x")), 12},
		{"alignments", testutil.ToFloat64(m.alignments.WithLabelValues("day")), 2},
		{"matched pairs", testutil.ToFloat64(m.matchedPairs), 3},
		{"recomputations", testutil.ToFloat64(m.recomputations), 1},
		{"filter errors", testutil.ToFloat64(m.filterErrors), 1},
		{"errors", testutil.ToFloat64(m.errorsByKind.WithLabelValues("build")), 1},
		{"runs", testutil.ToFloat64(m.runs.WithLabelValues("succeeded")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestMetrics_DisabledAndNil(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	m.RecordAlignment("day", 1, time.Millisecond)
	if m.Registry() != nil {
		t.Error("expected no registry when disabled")
	}

	var nilMetrics *Metrics
	nilMetrics.RecordRun("failed", time.Second)
	nilMetrics.RecordSourceBuild("x", "succeeded", 1)
}

func TestTracer_DisabledAndNone(t *testing.T) {
	cfg := DefaultConfig()
	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		t.Fatalf("NewTracer() error = %v", err)
	}
	_, span := tracer.StartRunSpan(context.Background(), "run-1", "goals : rain")
	EndSpan(span, errors.New("boom"))

	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "none"
	tracer, err = NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		t.Fatalf("NewTracer() error = %v", err)
	}
	ctx, span := tracer.StartAlignSpan(context.Background(), "day", "sum", "average")
	if TraceID(ctx) == "" {
		t.Error("expected a sampled span to carry a trace id")
	}
	EndSpan(span, nil)
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
