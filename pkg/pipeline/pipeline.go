// Package pipeline provides the core conversion pipeline for tiercloud.
//
// This package implements the complete scan → rules → render → assemble
// pipeline behind the CLI. Centralizing it keeps behavior identical across
// the convert command, the scan/rules stage commands, and the preview tool.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Scan: one full pass over the input to compute the score range
//  2. Rules: widen the width span and generate the threshold rules
//  3. Render: a second full pass quantizing each row into a fragment
//  4. Assemble: build the self-contained HTML document
//
// The input is read twice rather than buffered - the range must be known
// before any row can be quantized, and streaming both passes keeps memory
// flat regardless of input size.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.Options{
//	    Input:         "tokens.csv",
//	    ContentColumn: "token",
//	    ScoreColumn:   "weight",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("cloud.html", result.Document, 0644)
package pipeline

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nbeckett/tiercloud/pkg/cloud"
	"github.com/nbeckett/tiercloud/pkg/errors"
	"github.com/nbeckett/tiercloud/pkg/tabular"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Config File
// =============================================================================

const (
	// DefaultLevels is the user-facing tier count. Rule generation widens
	// this by one (see cloud.Widen).
	DefaultLevels = 10

	// DefaultMinWidth is the narrowest viewport width (pixels) at which any
	// tier becomes visible.
	DefaultMinWidth = 200.0

	// DefaultMaxWidth is the nominal widest viewport width (pixels). The
	// widening pre-step pushes the real top threshold past this.
	DefaultMaxWidth = 800.0

	// DefaultOutput is the output document path.
	DefaultOutput = "cloud.html"

	// DefaultDelimiter is the input field delimiter.
	DefaultDelimiter = ","

	// DefaultSensitivity is the minimum score spread required to quantize.
	DefaultSensitivity = cloud.DefaultSensitivity
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the conversion pipeline. It is
// built once at process start and treated as read-only for the rest of the
// run.
type Options struct {
	// Input options
	Input         string `json:"input"`
	ContentColumn string `json:"content_column"`
	ScoreColumn   string `json:"score_column"`
	IgnoreColumn  string `json:"ignore_column,omitempty"`
	Delimiter     string `json:"delimiter,omitempty"`

	// Tier options
	Levels      int     `json:"levels,omitempty"`
	MinWidth    float64 `json:"min_width,omitempty"`
	MaxWidth    float64 `json:"max_width,omitempty"`
	Sensitivity float64 `json:"sensitivity,omitempty"`
	Clamp       bool    `json:"clamp,omitempty"` // clamp the quantizer's overflow tier (opt-in)

	// Render options
	Title    string `json:"title,omitempty"`
	NoEscape bool   `json:"no_escape,omitempty"`
	NoBreaks bool   `json:"no_breaks,omitempty"`

	// Runtime options (not serialized)
	Refresh bool        `json:"-"` // bypass the scan cache
	Logger  *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input file is required")
	}
	if o.ContentColumn == "" {
		return errors.New(errors.ErrCodeInvalidColumn, "content column is required")
	}
	if o.ScoreColumn == "" {
		return errors.New(errors.ErrCodeInvalidColumn, "score column is required")
	}

	if o.Levels == 0 {
		o.Levels = DefaultLevels
	}
	if o.Levels < 1 {
		return errors.New(errors.ErrCodeInvalidLevels, "levels must be at least 1, got %d", o.Levels)
	}

	if o.MinWidth == 0 {
		o.MinWidth = DefaultMinWidth
	}
	if o.MaxWidth == 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MinWidth >= o.MaxWidth {
		return errors.New(errors.ErrCodeInvalidWidthSpan,
			"min width %g must be below max width %g", o.MinWidth, o.MaxWidth)
	}

	if o.Sensitivity == 0 {
		o.Sensitivity = DefaultSensitivity
	}
	if o.Delimiter == "" {
		o.Delimiter = DefaultDelimiter
	}
	if _, err := o.delimiterRune(); err != nil {
		return err
	}
	if o.Title == "" {
		o.Title = titleFromInput(o.Input)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// WidthSpan returns the (unwidened) width span.
func (o *Options) WidthSpan() cloud.WidthSpan {
	return cloud.WidthSpan{Min: o.MinWidth, Max: o.MaxWidth}
}

// TextOptions returns the normalization policy derived from the flags.
func (o *Options) TextOptions() cloud.TextOptions {
	return cloud.TextOptions{
		EscapeHTML:    !o.NoEscape,
		BreakNewlines: !o.NoBreaks,
	}
}

// TierFunc returns the quantizer: overflowing by default, the clamped
// variant when opted in.
func (o *Options) TierFunc() func(float64, cloud.ScoreRange, int) int {
	if o.Clamp {
		return cloud.TierClamped
	}
	return cloud.Tier
}

// Reader builds the input reader for one pass over the file.
func (o *Options) Reader() (*tabular.Reader, error) {
	comma, err := o.delimiterRune()
	if err != nil {
		return nil, err
	}
	return tabular.NewReader(o.Input, tabular.Columns{
		Content: o.ContentColumn,
		Score:   o.ScoreColumn,
		Ignore:  o.IgnoreColumn,
	}, comma), nil
}

// delimiterRune validates and returns the single-rune delimiter.
func (o *Options) delimiterRune() (rune, error) {
	r := []rune(o.Delimiter)
	switch {
	case len(r) == 0:
		return ',', nil
	case len(r) == 1:
		return r[0], nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidDelimiter,
			"delimiter must be a single character, got %q", o.Delimiter)
	}
}

// titleFromInput derives a document title from the input file name.
func titleFromInput(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
