package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corrkit/corrkit/pkg/config"
	"github.com/corrkit/corrkit/pkg/pipeline"
	"github.com/corrkit/corrkit/pkg/report"
	"github.com/corrkit/corrkit/pkg/telemetry"
	"github.com/corrkit/corrkit/pkg/watch"
)

func newWatchCommand(opts *globalOptions) *cobra.Command {
	var (
		file   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run a pipeline whenever its files change",
		Long: `Watch runs a pipeline, prints the report and runs it again each time the
pipeline file or one of its local data files changes. Runs never overlap.

With --metrics-addr the Prometheus metrics of all runs are served over HTTP.`,
		Example: `  # Watch and serve metrics on :9090/metrics
  corrkit watch -f pipeline.cue --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			tel := telemetryFrom(cmd)
			log := telemetry.FromContext(ctx).NewComponentLogger("watch")
			errCh := tel.Metrics.StartMetricsServer(ctx)

			runner := pipeline.NewRunner(tel)
			run := func(ctx context.Context) error {
				defer func() {
					if err := tel.Flush(context.WithoutCancel(ctx)); err != nil {
						log.WithError(err).Warn("Failed to flush traces")
					}
				}()

				pc, err := config.NewLoader().Load(ctx, file)
				if err != nil {
					return err
				}
				if len(pc.Errors) > 0 {
					printValidationErrors(cmd, pc.Errors)
					return fmt.Errorf("%s: %d validation error(s)", file, len(pc.Errors))
				}
				result, err := runner.Run(ctx, pc.Pipeline)
				if err != nil {
					return err
				}
				return report.Write(cmd.OutOrStdout(), result, f)
			}

			if err := run(ctx); err != nil {
				log.WithError(err).Warn("Initial run failed, waiting for changes")
			}

			files := watchedFiles(ctx, file)
			w, err := watch.New(files, watch.WithLogger(log.Zerolog()))
			if err != nil {
				return err
			}
			log.Infof("Watching %d files", len(files))

			go func() {
				for err := range errCh {
					log.WithError(err).Error("Metrics server failed")
				}
			}()

			return w.Run(ctx, run)
		},
	}

	addFileFlag(cmd, &file)
	cmd.Flags().StringVarP(&format, "format", "o", "table", "output format (table, json, csv)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

// watchedFiles returns the pipeline file and its local data files.
func watchedFiles(ctx context.Context, file string) []string {
	files := []string{file}
	pc, err := config.NewLoader().Load(ctx, file)
	if err != nil || pc.Pipeline == nil {
		return files
	}
	for _, sc := range []*config.SourceConfig{&pc.Pipeline.X, &pc.Pipeline.Y} {
		if sc.Path != "" {
			files = append(files, sc.Path)
		}
	}
	return files
}
