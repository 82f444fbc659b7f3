package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nbeckett/tiercloud/pkg/cloud"
	"github.com/nbeckett/tiercloud/pkg/errors"
	"github.com/nbeckett/tiercloud/pkg/pipeline"
	"github.com/nbeckett/tiercloud/pkg/tabular"
)

// scanCommand creates the scan command: run the first pipeline stage alone
// and report the score range. Useful for checking whether an input has
// enough score separation before committing to a conversion.
func (c *CLI) scanCommand() *cobra.Command {
	var (
		delimiter   string
		sensitivity float64
	)

	cmd := &cobra.Command{
		Use:   "scan [file] [score-column]",
		Short: "Compute the score range of an input file",
		Long: `Scan every row of the input once and print the count and score range.

Exits non-zero when the range is degenerate (narrower than the sensitivity
threshold) - such an input cannot be converted into distinct tiers.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScan(args[0], args[1], delimiter, sensitivity)
		},
	}

	cmd.Flags().StringVar(&delimiter, "delimiter", "", "field delimiter (default \",\")")
	cmd.Flags().Float64Var(&sensitivity, "sensitivity", 0, fmt.Sprintf("minimum score spread (default %g)", pipeline.DefaultSensitivity))

	return cmd
}

func (c *CLI) runScan(input, scoreColumn, delimiter string, sensitivity float64) error {
	comma := ','
	if r := []rune(delimiter); len(r) == 1 {
		comma = r[0]
	} else if len(r) > 1 {
		return errors.New(errors.ErrCodeInvalidDelimiter,
			"delimiter must be a single character, got %q", delimiter)
	}

	p := newProgress(c.Logger)
	reader := tabular.NewReader(input, tabular.Columns{
		// Only the score column matters for the range pass; reuse it as the
		// content column to satisfy header resolution.
		Content: scoreColumn,
		Score:   scoreColumn,
	}, comma)

	var scanner cloud.RangeScanner
	if err := reader.Each(func(row tabular.Row) error {
		scanner.Observe(row.Score)
		return nil
	}); err != nil {
		return err
	}

	rng, rangeErr := scanner.Range(sensitivity)
	p.done(fmt.Sprintf("Scanned %d rows", scanner.Count()))

	printKeyValue("rows", strconv.Itoa(scanner.Count()))
	printKeyValue("min", strconv.FormatFloat(rng.Min, 'g', -1, 64))
	printKeyValue("max", strconv.FormatFloat(rng.Max, 'g', -1, 64))
	printKeyValue("span", strconv.FormatFloat(rng.Span(), 'g', -1, 64))

	if rangeErr != nil {
		printWarning("range too narrow to quantize")
		return rangeErr
	}
	printSuccess("Range is wide enough to quantize")
	return nil
}
