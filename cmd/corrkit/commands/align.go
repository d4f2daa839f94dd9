package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/corrkit/corrkit/pkg/pipeline"
	"github.com/corrkit/corrkit/pkg/report"
	"github.com/corrkit/corrkit/pkg/series"
)

func newAlignCommand(opts *globalOptions) *cobra.Command {
	var (
		file       string
		format     string
		resolution string
		title      string
	)

	cmd := &cobra.Command{
		Use:   "align",
		Short: "Align the two sources of a pipeline and print the pairs",
		Long: `Align reads both sources of a pipeline file, buckets their dates at the
pipeline resolution, merges each bucket and prints the pairs of buckets
present in both sources together with their correlation.`,
		Example: `  # Align using pipeline.cue in the current directory
  corrkit align

  # Override the resolution and print JSON
  corrkit align -f goals-vs-rain.yaml --resolution month --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			p, err := loadPipeline(cmd, file)
			if err != nil {
				return err
			}
			if resolution != "" {
				res, err := series.ParseResolution(resolution)
				if err != nil {
					return err
				}
				p.Resolution = string(res)
			}
			if title != "" {
				p.Title = title
			}

			log.Debug().
				Str("file", file).
				Str("resolution", p.Resolution).
				Msg("Aligning pipeline")

			result, err := pipeline.NewRunner(telemetryFrom(cmd)).Run(cmd.Context(), p)
			if err != nil {
				return fmt.Errorf("align failed: %w", err)
			}
			return report.Write(cmd.OutOrStdout(), result, f)
		},
	}

	addFileFlag(cmd, &file)
	cmd.Flags().StringVarP(&format, "format", "o", "table", "output format (table, json, csv)")
	cmd.Flags().StringVarP(&resolution, "resolution", "r", "", "override the pipeline resolution (day, month, year)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "override the collection title")

	return cmd
}
