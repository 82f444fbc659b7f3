package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nbeckett/tiercloud/pkg/cloud"
	"github.com/nbeckett/tiercloud/pkg/cloud/sink"
	"github.com/nbeckett/tiercloud/pkg/errors"
	"github.com/nbeckett/tiercloud/pkg/pipeline"
)

// rulesCommand creates the rules command: run the rule generator alone and
// print the CSS block it would embed in the page. Handy for inspecting the
// thresholds a given level count and width span produce.
func (c *CLI) rulesCommand() *cobra.Command {
	var (
		levels   int
		minWidth float64
		maxWidth float64
		output   string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the generated width-threshold rules as CSS",
		Long: `Generate the visibility rules for a tier count and width span.

The output is the same CSS block convert embeds in the page header: a
baseline rule hiding every tier, then one min-width media rule per
threshold. The span is widened by one tier-step and the tier count by one,
exactly as in conversion.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(levels, minWidth, maxWidth, output)
		},
	}

	cmd.Flags().IntVar(&levels, "levels", pipeline.DefaultLevels, "number of visibility tiers")
	cmd.Flags().Float64Var(&minWidth, "min-width", pipeline.DefaultMinWidth, "narrowest reveal threshold (px)")
	cmd.Flags().Float64Var(&maxWidth, "max-width", pipeline.DefaultMaxWidth, "nominal widest reveal threshold (px)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

func runRules(levels int, minWidth, maxWidth float64, output string) error {
	if levels < 1 {
		return errors.New(errors.ErrCodeInvalidLevels, "levels must be at least 1, got %d", levels)
	}
	if minWidth >= maxWidth {
		return errors.New(errors.ErrCodeInvalidWidthSpan,
			"min width %g must be below max width %g", minWidth, maxWidth)
	}

	span, tiers := cloud.Widen(cloud.WidthSpan{Min: minWidth, Max: maxWidth}, levels)
	css := sink.RenderCSS(tiers, cloud.BuildRules(tiers, span))

	if output == "" {
		_, err := os.Stdout.Write(css)
		return err
	}
	if err := os.WriteFile(output, css, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printFile(output)
	return nil
}
