package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
  {"date": "2014-06-01", "value": 7}
]}`

const pipelineYAML = `
resolution: month
x:
  name: Goals
  unit: goals
  format: csv
  path: goals.csv
  merge: average
  csv:
    delimiter: ";"
    skip_rows: 1
    date_column: 0
    value_column: 3
y:
  name: Rain
  unit: mm
  format: json
  path: rain.json
  json:
    list_path: value
    date_path: date
    value_path: value
`

func writePipeline(t *testing.T, pipeline string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "goals.csv"), []byte(goalsCSV), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rain.json"), []byte(rainJSON), 0o600))
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(pipeline), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand("test", "none", "today")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestAlignCommand_CSV(t *testing.T) {
	path := writePipeline(t, pipelineYAML)

	out, _, err := execute(t, "align", "-f", path, "-o", "csv")
	require.NoError(t, err)
	assert.Equal(t, "key,x,y\n2014-03,3,10\n2014-04,1,4\n", out)
}

func TestAlignCommand_Overrides(t *testing.T) {
	path := writePipeline(t, pipelineYAML)

	out, _, err := execute(t, "align", "-f", path, "-o", "csv", "--resolution", "year")
	require.NoError(t, err)
	assert.Equal(t, "key,x,y\n2014,2.5,21\n", out)

	out, _, err = execute(t, "align", "-f", path, "--title", "Goals vs rain")
	require.NoError(t, err)
	assert.Contains(t, out, "Goals vs rain")
}

func TestAlignCommand_Errors(t *testing.T) {
	path := writePipeline(t, pipelineYAML)

	_, _, err := execute(t, "align", "-f", path, "-o", "xml")
	assert.Error(t, err)

	_, _, err = execute(t, "align", "-f", path, "--resolution", "week")
	assert.Error(t, err)

	_, _, err = execute(t, "align", "-f", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	path := writePipeline(t, pipelineYAML)

	out, _, err := execute(t, "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
	assert.Contains(t, out, "resolution: month")

	bad := writePipeline(t, pipelineYAML+"  filter: \"value <\"\n")
	_, stderr, err := execute(t, "validate", "-f", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
	assert.NotEmpty(t, stderr)
}

func TestKeysCommand(t *testing.T) {
	path := writePipeline(t, pipelineYAML)

	out, _, err := execute(t, "keys", "-f", path)
	require.NoError(t, err)
	assert.Equal(t, "2014-03\n2014-04\n2014-05\n", out)

	out, _, err = execute(t, "keys", "-f", path, "--side", "y", "--resolution", "day")
	require.NoError(t, err)
	assert.Equal(t, "2014-03-10\n2014-04-20\n2014-06-01\n", out)

	_, _, err = execute(t, "keys", "-f", path, "--side", "z")
	assert.Error(t, err)
}

func TestWatchedFiles(t *testing.T) {
	path := writePipeline(t, pipelineYAML)
	dir := filepath.Dir(path)

	files := watchedFiles(context.Background(), path)
	assert.Equal(t, []string{path, filepath.Join(dir, "goals.csv"), filepath.Join(dir, "rain.json")}, files)

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	assert.Equal(t, []string{missing}, watchedFiles(context.Background(), missing))
}

func TestTelemetryConfig(t *testing.T) {
	opts := &globalOptions{logLevel: "warn", logFormat: "json", traceExporter: "none", version: "1.2.3"}
	cfg := opts.telemetryConfig()
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)

	opts.dev = true
	opts.metricsAddr = ":9090"
	cfg = opts.telemetryConfig()
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "stdout", cfg.Tracing.Exporter)
	assert.Equal(t, ":9090", cfg.Metrics.ListenAddress)
	require.NoError(t, cfg.Validate())
}

func TestTelemetryFrom(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	assert.NotNil(t, telemetryFrom(cmd))

	tel := telemetry.Nop()
	cmd.SetContext(tel.WithContext(context.Background()))
	assert.Same(t, tel, telemetryFrom(cmd))
}

func TestRootCommand_InstallsTelemetry(t *testing.T) {
	var got *telemetry.Telemetry
	root := newRootCommand("test", "none", "today")
	root.AddCommand(&cobra.Command{
		Use: "capture",
		RunE: func(cmd *cobra.Command, args []string) error {
			got = telemetry.FromTelemetryContext(cmd.Context())
			return nil
		},
	})
	root.SetArgs([]string{"capture", "--log-level", "error"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	require.NotNil(t, got)
	assert.Equal(t, "error", got.Config.Logging.Level)
}
