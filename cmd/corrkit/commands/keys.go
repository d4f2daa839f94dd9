package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corrkit/corrkit/pkg/engine"
	"github.com/corrkit/corrkit/pkg/pipeline"
	"github.com/corrkit/corrkit/pkg/series"
)

func newKeysCommand(opts *globalOptions) *cobra.Command {
	var (
		file       string
		side       string
		resolution string
	)

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Print the bucket keys of one source",
		Long: `Keys builds one source of a pipeline and prints its distinct bucket keys
in date order, one per line.`,
		Example: `  # Monthly buckets of the x source
  corrkit keys --side x --resolution month`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPipeline(cmd, file)
			if err != nil {
				return err
			}

			sc, err := p.Source(side)
			if err != nil {
				return err
			}

			resText := p.Resolution
			if resolution != "" {
				resText = resolution
			}
			res, err := series.ParseResolution(resText)
			if err != nil {
				return err
			}

			src, err := pipeline.NewRunner(telemetryFrom(cmd)).BuildSource(cmd.Context(), side, sc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, k := range engine.CollectKeys(src, res) {
				fmt.Fprintln(out, k)
			}
			return nil
		},
	}

	addFileFlag(cmd, &file)
	cmd.Flags().StringVarP(&side, "side", "s", "x", "source side (x, y)")
	cmd.Flags().StringVarP(&resolution, "resolution", "r", "", "override the pipeline resolution (day, month, year)")

	return cmd
}
