package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nbeckett/tiercloud/pkg/pipeline"
)

// convertCommand creates the convert command, the main entry point of the
// tool: run the full pipeline and write the output document.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{
		Levels:   pipeline.DefaultLevels,
		MinWidth: pipeline.DefaultMinWidth,
		MaxWidth: pipeline.DefaultMaxWidth,
	}

	cmd := &cobra.Command{
		Use:   "convert [file] [content-column] [score-column]",
		Short: "Convert a scored token table into a responsive page",
		Long: `Convert a delimited table into a single static HTML page.

The input needs a header row. The two column arguments name the token text
and its numeric salience score. Scores that fail to parse count as 0.

The page renders every token, hidden by default; generated width-threshold
rules reveal one additional tier of tokens at each threshold as the viewport
widens. Rows whose ignore column (if configured) is empty are emitted
untagged and stay visible at every width.

The scan pass is cached per input file; repeat runs over an unchanged file
skip it. Use --refresh to force a rescan.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			opts.ContentColumn = args[1]
			opts.ScoreColumn = args[2]

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyConfig(cfg, cmd.Flags(), &opts, &output)
			if output == "" {
				output = pipeline.DefaultOutput
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runConvert(ctx, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", fmt.Sprintf("output file (default %q)", pipeline.DefaultOutput))
	cmd.Flags().StringVar(&opts.IgnoreColumn, "ignore-column", "", "column whose empty value marks a row always-visible")
	cmd.Flags().IntVar(&opts.Levels, "levels", opts.Levels, "number of visibility tiers")
	cmd.Flags().Float64Var(&opts.MinWidth, "min-width", opts.MinWidth, "narrowest reveal threshold (px)")
	cmd.Flags().Float64Var(&opts.MaxWidth, "max-width", opts.MaxWidth, "nominal widest reveal threshold (px)")
	cmd.Flags().StringVar(&opts.Delimiter, "delimiter", "", "field delimiter (default \",\")")
	cmd.Flags().StringVar(&opts.Title, "title", "", "document title (default derived from input name)")
	cmd.Flags().Float64Var(&opts.Sensitivity, "sensitivity", 0, fmt.Sprintf("minimum score spread (default %g)", pipeline.DefaultSensitivity))
	cmd.Flags().BoolVar(&opts.Clamp, "clamp", false, "clamp the top-score tier into range instead of overflowing")
	cmd.Flags().BoolVar(&opts.NoEscape, "no-escape", false, "emit token text without HTML escaping")
	cmd.Flags().BoolVar(&opts.NoBreaks, "no-breaks", false, "keep embedded newlines instead of <br>")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass the scan cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runConvert executes the pipeline and writes the document. The document is
// assembled fully in memory first, so a failing run (missing column,
// degenerate range) writes no output file at all.
func (c *CLI) runConvert(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner := c.newRunner(noCache)
	defer runner.Close()

	opts.Logger = loggerFromContext(ctx)

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Converting %s...", opts.Input))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Conversion failed")
		return fmt.Errorf("convert: %w", err)
	}
	spinner.Stop()

	if err := os.WriteFile(output, result.Document, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Converted %s", opts.Input)
	printDetail("score range [%g, %g]", result.Range.Min, result.Range.Max)
	printStats(result.RowCount, result.Tiers, result.CacheInfo.ScanHit)
	printFile(output)
	return nil
}
