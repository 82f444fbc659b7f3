package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nbeckett/tiercloud/pkg/cache"
	"github.com/nbeckett/tiercloud/pkg/cloud"
	"github.com/nbeckett/tiercloud/pkg/cloud/sink"
	"github.com/nbeckett/tiercloud/pkg/tabular"
)

// Runner encapsulates pipeline execution with scan caching.
//
// The Runner is stateless except for the cache and logger - it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Logger: logger,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Range is the computed score range.
	Range cloud.ScoreRange

	// RowCount is the number of data rows in the input.
	RowCount int

	// Tiers is the widened tier count the rules cover.
	Tiers int

	// Rules are the generated width-threshold rules.
	Rules []cloud.Rule

	// Document is the assembled output page. Built entirely in memory; a
	// failing run produces no partial document.
	Document []byte

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ScanTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ScanHit bool // Whether the range scan came from cache
}

// Execute runs the complete scan → rules → render → assemble pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Scan
	scanStart := time.Now()
	rng, count, scanHit, err := r.ScanWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	result.Range = rng
	result.RowCount = count
	result.Stats.ScanTime = time.Since(scanStart)
	result.CacheInfo.ScanHit = scanHit

	opts.Logger.Info("scanned input",
		"rows", count,
		"min", rng.Min,
		"max", rng.Max,
		"duration", result.Stats.ScanTime)

	// Stage 2: Rules
	span, tiers := cloud.Widen(opts.WidthSpan(), opts.Levels)
	result.Tiers = tiers
	result.Rules = cloud.BuildRules(tiers, span)

	opts.Logger.Debug("generated rules",
		"tiers", tiers,
		"min_width", span.Min,
		"max_width", span.Max)

	// Stage 3: Render
	renderStart := time.Now()
	fragments, err := r.renderFragments(opts, rng)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Stats.RenderTime = time.Since(renderStart)

	opts.Logger.Info("rendered rows",
		"fragments", len(fragments),
		"duration", result.Stats.RenderTime)

	// Stage 4: Assemble
	result.Document = sink.RenderHTML(tiers, result.Rules, fragments, sink.WithTitle(opts.Title))

	return result, nil
}

// scanResult is the cached representation of a range scan.
type scanResult struct {
	Range cloud.ScoreRange `json:"range"`
	Count int              `json:"count"`
}

// ScanWithCacheInfo computes the score range with caching and returns cache
// hit info. The cache key covers the file's identity (size, mtime) and every
// option the result depends on, so a changed input is always rescanned.
func (r *Runner) ScanWithCacheInfo(ctx context.Context, opts Options) (cloud.ScoreRange, int, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return cloud.ScoreRange{}, 0, false, err
	}
	r.applyLogger(&opts)

	cacheKey, keyErr := r.scanKey(opts)

	// Try cache first (unless refresh requested)
	if !opts.Refresh && keyErr == nil {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached scanResult
			if err := json.Unmarshal(data, &cached); err == nil {
				// The key does not encode sensitivity, so a cached range must
				// be re-checked against this run's threshold: a span that
				// passed under an earlier sensitivity can be degenerate now.
				return cached.Range, cached.Count, true, cached.Range.Check(opts.Sensitivity)
			}
		}
	}

	rng, count, err := r.scan(opts)
	if err != nil {
		return rng, count, false, err
	}

	// Cache the result
	if keyErr == nil {
		if data, err := json.Marshal(scanResult{Range: rng, Count: count}); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLRange)
		}
	}

	return rng, count, false, nil // Cache miss
}

// Scan is a convenience wrapper that calls ScanWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Scan(ctx context.Context, opts Options) (cloud.ScoreRange, int, error) {
	rng, count, _, err := r.ScanWithCacheInfo(ctx, opts)
	return rng, count, err
}

// scan performs the first full pass: accumulate the score range.
func (r *Runner) scan(opts Options) (cloud.ScoreRange, int, error) {
	reader, err := opts.Reader()
	if err != nil {
		return cloud.ScoreRange{}, 0, err
	}

	var scanner cloud.RangeScanner
	if err := reader.Each(func(row tabular.Row) error {
		scanner.Observe(row.Score)
		return nil
	}); err != nil {
		return cloud.ScoreRange{}, 0, err
	}

	rng, err := scanner.Range(opts.Sensitivity)
	return rng, scanner.Count(), err
}

// renderFragments performs the second full pass: quantize every row and
// produce its markup fragment, preserving input order.
func (r *Runner) renderFragments(opts Options, rng cloud.ScoreRange) ([]string, error) {
	reader, err := opts.Reader()
	if err != nil {
		return nil, err
	}

	tier := opts.TierFunc()
	text := opts.TextOptions()

	var fragments []string
	if err := reader.Each(func(row tabular.Row) error {
		t := tier(row.Score, rng, opts.Levels)
		fragments = append(fragments, cloud.Fragment(row.Content, t, row.Ignore, text))
		return nil
	}); err != nil {
		return nil, err
	}
	return fragments, nil
}

// scanKey builds the cache key for the scan stage from the file's identity.
func (r *Runner) scanKey(opts Options) (string, error) {
	info, err := os.Stat(opts.Input)
	if err != nil {
		return "", err
	}
	return cache.RangeKey(opts.Input, cache.RangeKeyOpts{
		Size:        info.Size(),
		ModTime:     info.ModTime().UnixNano(),
		ScoreColumn: opts.ScoreColumn,
		Delimiter:   opts.Delimiter,
	}), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
