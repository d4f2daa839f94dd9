package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrkit/corrkit/pkg/config"
	"github.com/corrkit/corrkit/pkg/engine"
	"github.com/corrkit/corrkit/pkg/series"
	"github.com/corrkit/corrkit/pkg/telemetry"
)

const goalsCSV = `date;home;away;goals
2014-03-01;AIK;MFF;2
2014-03-15;DIF;HIF;4
2014-04-02;IFK;AIK;1
2014-05-10;MFF;DIF;3
`

const rainJSON = `{"value": [
  {"date": "2014-03-10", "value": 10},
  {"date": "2014-04-20", "value": 4},
  {"date": "2014-04-21", "value": -1},
  {"date": "2014-06-01", "value": 7}
]}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testPipeline(t *testing.T) *config.PipelineConfig {
	t.Helper()
	dir := t.TempDir()
	return &config.PipelineConfig{
		Resolution: "month",
		X: config.SourceConfig{
			Name:   "Goals",
			Unit:   "goals",
			Format: config.FormatCSV,
			Path:   writeFile(t, dir, "goals.csv", goalsCSV),
			Merge:  "average",
			CSV:    &config.CSVConfig{Delimiter: ";", SkipRows: 1, DateColumn: 0, ValueColumn: 3},
		},
		Y: config.SourceConfig{
			Name:       "Rain",
			Unit:       "mm",
			Format:     config.FormatJSON,
			Path:       writeFile(t, dir, "rain.json", rainJSON),
			Filter:     "value < 0",
			SourceName: "SMHI",
			JSON:       &config.JSONConfig{ListPath: "value", DatePath: "date", ValuePath: "value"},
		},
	}
}

func TestRunner_Run(t *testing.T) {
	runner := NewRunner(telemetry.Nop())

	result, err := runner.Run(context.Background(), testPipeline(t))
	require.NoError(t, err)

	c := result.Collection
	assert.Equal(t, "Goals : Rain", c.Title())
	assert.Equal(t, []string{"2014-03", "2014-04"}, c.Keys())
	assert.Equal(t, map[string]engine.MatchedPair{
		"2014-03": {X: 3, Y: 10},
		"2014-04": {X: 1, Y: 4},
	}, c.Pairs())

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 4, result.X.Entries)
	assert.Equal(t, 3, result.Y.Entries)
	assert.Equal(t, series.MergeAverage, result.X.Merge)
	assert.Equal(t, series.MergeSum, result.Y.Merge)
	assert.Equal(t, "SMHI", result.Y.Provenance.Name)
	assert.Equal(t, 2, result.X.Summary.Count)
	assert.InDelta(t, 2.0, result.X.Summary.Mean, 1e-12)

	require.True(t, result.HasCorrelation())
	assert.InDelta(t, 1.0, result.Correlation, 1e-12)
	assert.Zero(t, result.FilterFailures)
}

func TestRunner_TitleAndResolution(t *testing.T) {
	cfg := testPipeline(t)
	cfg.Title = "Goals vs rain"
	cfg.Resolution = "day"

	result, err := NewRunner(nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "Goals vs rain", result.Collection.Title())
	assert.Equal(t, 0, result.Collection.Len())
	assert.False(t, result.HasCorrelation())
}

func TestRunner_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.PipelineConfig)
		kind   string
		side   string
		target error
	}{
		{
			name:   "bad resolution",
			mutate: func(c *config.PipelineConfig) { c.Resolution = "week" },
			kind:   KindConfig,
		},
		{
			name:   "bad merge",
			mutate: func(c *config.PipelineConfig) { c.Y.Merge = "median" },
			kind:   KindConfig,
			side:   "y",
		},
		{
			name:   "missing file",
			mutate: func(c *config.PipelineConfig) { c.X.Path = filepath.Join(t.TempDir(), "nope.csv") },
			kind:   KindSource,
			side:   "x",
			target: os.ErrNotExist,
		},
		{
			name:   "bad filter",
			mutate: func(c *config.PipelineConfig) { c.Y.Filter = "value <" },
			kind:   KindConfig,
			side:   "y",
		},
		{
			name:   "short record",
			mutate: func(c *config.PipelineConfig) { c.X.CSV.ValueColumn = 9 },
			kind:   KindSource,
			side:   "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testPipeline(t)
			tt.mutate(cfg)

			_, err := NewRunner(telemetry.Nop()).Run(context.Background(), cfg)
			require.Error(t, err)

			var re *Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.kind, re.Kind)
			assert.Equal(t, tt.side, re.Side)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestRunner_SourceBuildErrorIsBuildError(t *testing.T) {
	cfg := testPipeline(t)
	cfg.X.CSV.ValueColumn = 1

	_, err := NewRunner(nil).Run(context.Background(), cfg)
	assert.ErrorIs(t, err, &series.BuildError{})
}

func TestRunner_URLSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rainJSON))
	}))
	defer srv.Close()

	cfg := testPipeline(t)
	cfg.Y.Path = ""
	cfg.Y.URL = srv.URL + "/rain.json"

	result, err := NewRunner(nil, WithHTTPClient(srv.Client())).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Collection.Len())
	assert.Equal(t, srv.URL+"/rain.json", result.Y.Location)
}

func TestRunner_Metrics(t *testing.T) {
	tel := telemetry.Nop()
	runner := NewRunner(tel)

	_, err := runner.Run(context.Background(), testPipeline(t))
	require.NoError(t, err)

	bad := testPipeline(t)
	bad.X.Path = filepath.Join(t.TempDir(), "missing.csv")
	_, err = runner.Run(context.Background(), bad)
	require.Error(t, err)

	reg := tel.Metrics.Registry()
	for _, name := range []string{
		"corrkit_runs_total",
		"corrkit_source_builds_total",
		"corrkit_alignments_total",
		"corrkit_errors_total",
	} {
		n, err := testutil.GatherAndCount(reg, name)
		require.NoError(t, err)
		assert.Positive(t, n, name)
	}
}

func TestBuildSource(t *testing.T) {
	cfg := testPipeline(t)

	src, err := NewRunner(nil).BuildSource(context.Background(), "y", &cfg.Y)
	require.NoError(t, err)
	assert.Equal(t, "Rain", src.Name())
	assert.Equal(t, 3, src.Len())
}

func TestNewSourceBuilder_Errors(t *testing.T) {
	log := telemetry.NopLogger()
	ctx := context.Background()

	_, err := NewSourceBuilder(ctx, &config.SourceConfig{Name: "a", Format: config.FormatCSV}, nil, nil, log)
	assert.Error(t, err)

	_, err = NewSourceBuilder(ctx, &config.SourceConfig{Name: "a", Format: "xml", Path: "a.xml"}, nil, nil, log)
	assert.Error(t, err)

	_, err = NewSourceBuilder(ctx, &config.SourceConfig{Name: "a", Format: config.FormatJSON, Path: "a.json"}, nil, nil, log)
	assert.Error(t, err)

	var re *Error
	assert.False(t, errors.As(err, &re))
}

func TestRunner_Logs(t *testing.T) {
	var buf bytes.Buffer
	tel := telemetry.Nop()
	tel.Logger = telemetry.NewLoggerWithWriter(telemetry.LoggingConfig{Level: "debug", Format: "json"}, &buf)

	result, err := NewRunner(tel).Run(context.Background(), testPipeline(t))
	require.NoError(t, err)

	entries := map[string]map[string]interface{}{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		if msg, ok := entry["message"].(string); ok {
			entries[msg] = entry
		}
	}

	done := entries["Pipeline run completed"]
	require.NotNil(t, done)
	assert.Equal(t, "info", done["level"])
	assert.Equal(t, result.RunID, done["run_id"])
	assert.Equal(t, float64(2), done["pairs"])
	assert.Equal(t, "Goals : Rain", done["title"])
	assert.InDelta(t, 1.0, done["correlation"], 1e-12)

	built := entries["Built data source with 4 entries"]
	require.NotNil(t, built)
	assert.Equal(t, "x", built["side"])
	assert.Equal(t, "Goals", built["source"])
	assert.True(t, strings.HasSuffix(built["location"].(string), "goals.csv"))
}
