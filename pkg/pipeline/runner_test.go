package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nbeckett/tiercloud/pkg/cache"
	"github.com/nbeckett/tiercloud/pkg/errors"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions(input string) Options {
	return Options{
		Input:         input,
		ContentColumn: "token",
		ScoreColumn:   "weight",
		Levels:        2,
		MinWidth:      100,
		MaxWidth:      200,
	}
}

func TestExecute(t *testing.T) {
	input := writeInput(t, "token,weight\nfoo,1\nbar,5.5\nbaz,10\n")
	runner := NewRunner(nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), testOptions(input))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if result.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", result.RowCount)
	}
	if result.Range.Min != 1 || result.Range.Max != 10 {
		t.Errorf("Range = [%g, %g], want [1, 10]", result.Range.Min, result.Range.Max)
	}
	if result.Tiers != 3 {
		t.Errorf("Tiers = %d, want 3 (widened)", result.Tiers)
	}
	if len(result.Rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(result.Rules))
	}
	for i, want := range []float64{100, 150, 200} {
		if result.Rules[i].Threshold != want {
			t.Errorf("rule %d threshold = %g, want %g", i, result.Rules[i].Threshold, want)
		}
	}

	doc := string(result.Document)
	for _, want := range []string{
		`<span class="tier-0">foo</span>`,
		`<span class="tier-1">bar</span>`,
		// The top score lands in the overflow tier, which the widened rule
		// set still covers.
		`<span class="tier-2">baz</span>`,
		".tier-0, .tier-1, .tier-2 { display: none; }",
		"@media screen and (min-width: 200px) { .tier-0, .tier-1, .tier-2 { display: inline; } }",
		"<title>input</title>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestExecuteClamp(t *testing.T) {
	input := writeInput(t, "token,weight\nfoo,1\nbaz,10\n")
	runner := NewRunner(nil, nil)
	defer runner.Close()

	opts := testOptions(input)
	opts.Clamp = true
	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(result.Document), `<span class="tier-1">baz</span>`) {
		t.Error("clamped top score should land in the last valid tier")
	}
}

func TestExecuteIgnoreColumn(t *testing.T) {
	input := writeInput(t, "token,weight,keep\nfoo,1,yes\npinned,10,\nbaz,10,yes\n")
	runner := NewRunner(nil, nil)
	defer runner.Close()

	opts := testOptions(input)
	opts.IgnoreColumn = "keep"
	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}

	doc := string(result.Document)
	if !strings.Contains(doc, "\npinned\n") {
		t.Error("ignorable row should render untagged")
	}
	if strings.Contains(doc, `<span class="tier-2">pinned</span>`) {
		t.Error("ignorable row must not carry a tier tag")
	}
}

func TestExecuteAllIgnored(t *testing.T) {
	input := writeInput(t, "token,weight,keep\nfoo,1,\nbar,5,\nbaz,10,\n")
	runner := NewRunner(nil, nil)
	defer runner.Close()

	opts := testOptions(input)
	opts.IgnoreColumn = "keep"
	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}

	// Every row ignorable: the body is the normalized input verbatim, with
	// no tier tags anywhere in the document.
	doc := string(result.Document)
	if strings.Contains(doc, "<span") {
		t.Error("all-ignored input must produce no tier tags")
	}
	if !strings.Contains(doc, "foo\nbar\nbaz\n") {
		t.Error("ignorable rows should appear verbatim in input order")
	}
}

func TestExecuteTextOptions(t *testing.T) {
	input := writeInput(t, "token,weight\n\"a\nb\",1\n<raw>,10\n")
	runner := NewRunner(nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), testOptions(input))
	if err != nil {
		t.Fatal(err)
	}
	doc := string(result.Document)
	if !strings.Contains(doc, "a<br>b") {
		t.Error("embedded newline should become <br>")
	}
	if !strings.Contains(doc, "&lt;raw&gt;") {
		t.Error("markup in content should be escaped")
	}

	opts := testOptions(input)
	opts.NoEscape = true
	opts.NoBreaks = true
	result, err = runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	doc = string(result.Document)
	if !strings.Contains(doc, ">a\nb<") {
		t.Error("newline should survive with breaks off")
	}
	if !strings.Contains(doc, "<raw>") {
		t.Error("content should pass through verbatim with escaping off")
	}
}

func TestExecuteInsufficientRange(t *testing.T) {
	input := writeInput(t, "token,weight\nfoo,5\nbar,5\n")
	runner := NewRunner(nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), testOptions(input))
	if !errors.Is(err, errors.ErrCodeInsufficientRange) {
		t.Errorf("expected INSUFFICIENT_RANGE, got %v", err)
	}
	if result != nil {
		t.Error("a failing run must not produce a partial result")
	}
}

func TestExecuteEmptyInput(t *testing.T) {
	input := writeInput(t, "token,weight\n")
	runner := NewRunner(nil, nil)
	defer runner.Close()

	if _, err := runner.Execute(context.Background(), testOptions(input)); !errors.Is(err, errors.ErrCodeInsufficientRange) {
		t.Errorf("expected INSUFFICIENT_RANGE for header-only input, got %v", err)
	}
}

func TestScanCaching(t *testing.T) {
	input := writeInput(t, "token,weight\nfoo,1\nbar,10\n")
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil)
	defer runner.Close()

	ctx := context.Background()
	opts := testOptions(input)

	_, _, hit, err := runner.ScanWithCacheInfo(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first scan should miss the cache")
	}

	rng, count, hit, err := runner.ScanWithCacheInfo(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second scan should hit the cache")
	}
	if rng.Min != 1 || rng.Max != 10 || count != 2 {
		t.Errorf("cached scan = [%g, %g] over %d rows", rng.Min, rng.Max, count)
	}

	// Refresh bypasses the cache.
	opts.Refresh = true
	if _, _, hit, _ := runner.ScanWithCacheInfo(ctx, opts); hit {
		t.Error("refresh should bypass the cache")
	}
}

func TestScanCacheRespectsSensitivity(t *testing.T) {
	// The cache key does not include sensitivity, so a cached range must be
	// re-checked against the sensitivity of the run that reads it.
	input := writeInput(t, "token,weight\nfoo,1\nbar,1.5\n") // span 0.5
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil)
	defer runner.Close()

	ctx := context.Background()

	// First run passes at the default sensitivity and caches the scan.
	if _, err := runner.Execute(ctx, testOptions(input)); err != nil {
		t.Fatalf("first run should succeed: %v", err)
	}

	// A stricter sensitivity over the same unchanged file must abort even
	// though the scan comes from the cache, and must not produce a document.
	strict := testOptions(input)
	strict.Sensitivity = 2.0
	result, err := runner.Execute(ctx, strict)
	if !errors.Is(err, errors.ErrCodeInsufficientRange) {
		t.Fatalf("expected INSUFFICIENT_RANGE from cached scan, got %v", err)
	}
	if result != nil {
		t.Error("degenerate run must not produce a result")
	}

	// The cache hit itself surfaces the error with the cached range intact.
	rng, count, hit, err := runner.ScanWithCacheInfo(ctx, strict)
	if !hit {
		t.Error("scan should still hit the cache")
	}
	if !errors.Is(err, errors.ErrCodeInsufficientRange) {
		t.Errorf("cache hit should fail the range check, got %v", err)
	}
	if rng.Min != 1 || rng.Max != 1.5 || count != 2 {
		t.Errorf("cached scan = [%g, %g] over %d rows", rng.Min, rng.Max, count)
	}

	// The looser default still accepts the same cached range.
	if _, err := runner.Execute(ctx, testOptions(input)); err != nil {
		t.Errorf("default sensitivity should still pass: %v", err)
	}
}

func TestScanCacheInvalidatedByFileChange(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.csv")
	if err := os.WriteFile(input, []byte("token,weight\nfoo,1\nbar,10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	fc, err := cache.NewFileCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil)
	defer runner.Close()

	ctx := context.Background()
	if _, _, _, err := runner.ScanWithCacheInfo(ctx, testOptions(input)); err != nil {
		t.Fatal(err)
	}

	// Rewriting the file changes its size, so the key no longer matches.
	if err := os.WriteFile(input, []byte("token,weight\nfoo,2\nbar,20\nbaz,30\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rng, count, hit, err := runner.ScanWithCacheInfo(ctx, testOptions(input))
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("changed file should not hit the cache")
	}
	if rng.Min != 2 || rng.Max != 30 || count != 3 {
		t.Errorf("rescan = [%g, %g] over %d rows", rng.Min, rng.Max, count)
	}
}

func TestExecuteMissingFile(t *testing.T) {
	runner := NewRunner(nil, nil)
	defer runner.Close()

	opts := testOptions(filepath.Join(t.TempDir(), "missing.csv"))
	if _, err := runner.Execute(context.Background(), opts); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("expected FILE_NOT_FOUND, got %v", err)
	}
}
