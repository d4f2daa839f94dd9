package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corrkit/corrkit/pkg/config"
)

func newValidateCommand(opts *globalOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a pipeline file",
		Long: `Validate a pipeline file without reading its data.

This command checks:
  - CUE, YAML or JSON syntax
  - Conformance to the pipeline schema
  - Field rules (exactly one of path and url, format options)
  - Filter expressions compile`,
		Example: `  # Validate pipeline.cue
  corrkit validate

  # Validate a YAML pipeline
  corrkit validate -f pipeline.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := config.NewLoader().Load(cmd.Context(), file)
			if err != nil {
				return err
			}

			if len(pc.Errors) > 0 {
				printValidationErrors(cmd, pc.Errors)
				return fmt.Errorf("%s: %d validation error(s)", file, len(pc.Errors))
			}

			p := pc.Pipeline
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s is valid\n", file)
			fmt.Fprintf(out, "  resolution: %s\n", p.Resolution)
			fmt.Fprintf(out, "  x: %s [%s] %s from %s\n", p.X.Name, p.X.Unit, p.X.Format, p.X.Location())
			fmt.Fprintf(out, "  y: %s [%s] %s from %s\n", p.Y.Name, p.Y.Unit, p.Y.Format, p.Y.Location())
			return nil
		},
	}

	addFileFlag(cmd, &file)
	return cmd
}
