package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nbeckett/tiercloud/pkg/cloud"
	"github.com/nbeckett/tiercloud/pkg/errors"
	"github.com/nbeckett/tiercloud/pkg/tabular"
)

// previewCommand creates the preview command: an interactive terminal view
// that sweeps a simulated viewport width and shows which tokens the
// generated rules would reveal. A debugging aid for picking levels and
// width spans; it never writes output.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		ignoreColumn string
		delimiter    string
		levels       int
		minWidth     float64
		maxWidth     float64
		clamp        bool
	)

	cmd := &cobra.Command{
		Use:   "preview [file] [content-column] [score-column]",
		Short: "Interactively preview tier visibility across widths",
		Long: `Preview which tokens are visible at a given viewport width.

Use the arrow keys to sweep the simulated width across the (widened) span
and watch tiers appear exactly where the generated rules place them.
Tokens not yet revealed are dimmed; always-visible (ignored) rows are
highlighted.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := previewOpts{
				input:         args[0],
				contentColumn: args[1],
				scoreColumn:   args[2],
				ignoreColumn:  ignoreColumn,
				delimiter:     delimiter,
				levels:        levels,
				minWidth:      minWidth,
				maxWidth:      maxWidth,
				clamp:         clamp,
			}
			return c.runPreview(opts)
		},
	}

	cmd.Flags().StringVar(&ignoreColumn, "ignore-column", "", "column whose empty value marks a row always-visible")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "field delimiter (default \",\")")
	cmd.Flags().IntVar(&levels, "levels", 10, "number of visibility tiers")
	cmd.Flags().Float64Var(&minWidth, "min-width", 200, "narrowest reveal threshold (px)")
	cmd.Flags().Float64Var(&maxWidth, "max-width", 800, "nominal widest reveal threshold (px)")
	cmd.Flags().BoolVar(&clamp, "clamp", false, "clamp the top-score tier into range")

	return cmd
}

type previewOpts struct {
	input         string
	contentColumn string
	scoreColumn   string
	ignoreColumn  string
	delimiter     string
	levels        int
	minWidth      float64
	maxWidth      float64
	clamp         bool
}

// previewToken is one row prepared for display.
type previewToken struct {
	text   string
	tier   int
	ignore bool
}

func (c *CLI) runPreview(opts previewOpts) error {
	if opts.levels < 1 {
		return errors.New(errors.ErrCodeInvalidLevels, "levels must be at least 1, got %d", opts.levels)
	}
	if opts.minWidth >= opts.maxWidth {
		return errors.New(errors.ErrCodeInvalidWidthSpan,
			"min width %g must be below max width %g", opts.minWidth, opts.maxWidth)
	}
	comma := ','
	if r := []rune(opts.delimiter); len(r) == 1 {
		comma = r[0]
	} else if len(r) > 1 {
		return errors.New(errors.ErrCodeInvalidDelimiter,
			"delimiter must be a single character, got %q", opts.delimiter)
	}

	reader := tabular.NewReader(opts.input, tabular.Columns{
		Content: opts.contentColumn,
		Score:   opts.scoreColumn,
		Ignore:  opts.ignoreColumn,
	}, comma)

	// Unlike conversion, the preview buffers the rows: it needs random
	// re-rendering as the width changes, and inputs small enough to eyeball
	// fit in memory anyway.
	var rows []tabular.Row
	var scanner cloud.RangeScanner
	if err := reader.Each(func(row tabular.Row) error {
		rows = append(rows, row)
		scanner.Observe(row.Score)
		return nil
	}); err != nil {
		return err
	}

	rng, err := scanner.Range(0)
	if err != nil {
		return err
	}

	tierFn := cloud.Tier
	if opts.clamp {
		tierFn = cloud.TierClamped
	}

	tokens := make([]previewToken, len(rows))
	for i, row := range rows {
		tokens[i] = previewToken{
			text:   row.Content,
			tier:   tierFn(row.Score, rng, opts.levels),
			ignore: row.Ignore,
		}
	}

	span, tiers := cloud.Widen(cloud.WidthSpan{Min: opts.minWidth, Max: opts.maxWidth}, opts.levels)
	model := previewModel{
		title:  opts.input,
		tokens: tokens,
		rules:  cloud.BuildRules(tiers, span),
		tiers:  tiers,
		span:   span,
		step:   (span.Max - span.Min) / float64(tiers),
		width:  span.Min,
	}

	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// PreviewModel - Width Sweep
// =============================================================================

var (
	previewVisibleStyle = lipgloss.NewStyle().Foreground(colorWhite)
	previewPinnedStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	previewHiddenStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// previewModel is the bubbletea model for the width sweep.
type previewModel struct {
	title  string
	tokens []previewToken
	rules  []cloud.Rule
	tiers  int
	span   cloud.WidthSpan
	step   float64
	width  float64
	win    int // terminal width
}

func (m previewModel) Init() tea.Cmd {
	return nil
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.width -= m.step / 2
			if m.width < m.span.Min-m.step {
				m.width = m.span.Min - m.step
			}
		case "right", "l":
			m.width += m.step / 2
			if m.width > m.span.Max+m.step {
				m.width = m.span.Max + m.step
			}
		case "home":
			m.width = m.span.Min - m.step
		case "end":
			m.width = m.span.Max
		}
	case tea.WindowSizeMsg:
		m.win = msg.Width
	}
	return m, nil
}

func (m previewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Preview " + m.title))
	b.WriteString("\n")
	b.WriteString(previewHiddenStyle.Render("←/→ sweep width  home/end jump  q quit"))
	b.WriteString("\n\n")

	visible := m.visibleTiers()
	b.WriteString(fmt.Sprintf("viewport %spx  %s\n\n",
		StyleHighlight.Render(fmt.Sprintf("%.0f", m.width)),
		StyleDim.Render(fmt.Sprintf("%d/%d tiers revealed", visible, m.tiers))))

	parts := make([]string, len(m.tokens))
	for i, tok := range m.tokens {
		text := strings.ReplaceAll(tok.text, "\n", " ")
		switch {
		case tok.ignore:
			parts[i] = previewPinnedStyle.Render(text)
		case tok.tier < visible:
			parts[i] = previewVisibleStyle.Render(text)
		default:
			parts[i] = previewHiddenStyle.Render(text)
		}
	}

	body := strings.Join(parts, " ")
	if m.win > 0 {
		body = lipgloss.NewStyle().Width(m.win).Render(body)
	}
	b.WriteString(body)
	b.WriteString("\n")

	return b.String()
}

// visibleTiers applies every rule whose threshold is at or below the current
// width and returns the size of the union of their visible sets. Because
// rule x reveals tiers [0..x], the union is simply the highest applicable
// rule index plus one.
func (m previewModel) visibleTiers() int {
	count := 0
	for i, r := range m.rules {
		if r.Threshold <= m.width {
			count = i + 1
		}
	}
	return count
}
