package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/nbeckett/tiercloud/pkg/errors"
	"github.com/nbeckett/tiercloud/pkg/pipeline"
)

func TestLoadConfigExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
levels = 5
min_width = 150.0
max_width = 900.0
output = "page.html"
delimiter = "\t"
clamp = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c := &CLI{ConfigPath: path}
	cfg, err := c.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config, got nil")
	}

	if cfg.Levels != 5 {
		t.Errorf("Levels = %d", cfg.Levels)
	}
	if cfg.MinWidth != 150 || cfg.MaxWidth != 900 {
		t.Errorf("widths = [%g, %g]", cfg.MinWidth, cfg.MaxWidth)
	}
	if cfg.Output != "page.html" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.Delimiter != "\t" {
		t.Errorf("Delimiter = %q", cfg.Delimiter)
	}
	if !cfg.Clamp {
		t.Error("Clamp should be true")
	}
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	c := &CLI{ConfigPath: filepath.Join(t.TempDir(), "nope.toml")}
	if _, err := c.loadConfig(); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("expected FILE_NOT_FOUND for explicit missing config, got %v", err)
	}
}

func TestLoadConfigDefaultMissing(t *testing.T) {
	// Point the default location at an empty directory: a missing file there
	// is not an error, config is optional.
	oldXdg := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", t.TempDir())
	defer func() {
		if oldXdg != "" {
			os.Setenv("XDG_CONFIG_HOME", oldXdg)
		} else {
			os.Unsetenv("XDG_CONFIG_HOME")
		}
	}()

	c := &CLI{}
	cfg, err := c.loadConfig()
	if err != nil {
		t.Errorf("missing default config should not error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("levels = [broken"), 0644); err != nil {
		t.Fatal(err)
	}

	c := &CLI{ConfigPath: path}
	if _, err := c.loadConfig(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for unparseable config, got %v", err)
	}
}

func TestApplyConfig(t *testing.T) {
	flags := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	flags.Int("levels", 10, "")
	flags.Float64("min-width", 200, "")
	flags.Float64("max-width", 800, "")
	flags.String("output", "", "")
	flags.String("ignore-column", "", "")
	flags.String("delimiter", "", "")
	flags.String("title", "", "")
	flags.Bool("clamp", false, "")

	// The user set --levels explicitly; everything else comes from the file.
	if err := flags.Parse([]string{"--levels", "4"}); err != nil {
		t.Fatal(err)
	}

	cfg := &fileConfig{
		Levels:    7,
		MinWidth:  100,
		Output:    "out.html",
		Delimiter: ";",
		Title:     "From File",
		Clamp:     true,
	}
	opts := pipeline.Options{Levels: 4, MinWidth: 200, MaxWidth: 800}
	output := ""

	applyConfig(cfg, flags, &opts, &output)

	if opts.Levels != 4 {
		t.Errorf("explicit flag overridden: Levels = %d", opts.Levels)
	}
	if opts.MinWidth != 100 {
		t.Errorf("MinWidth = %g, want 100 from config", opts.MinWidth)
	}
	if opts.MaxWidth != 800 {
		t.Errorf("MaxWidth = %g, want untouched default", opts.MaxWidth)
	}
	if output != "out.html" {
		t.Errorf("output = %q", output)
	}
	if opts.Delimiter != ";" {
		t.Errorf("Delimiter = %q", opts.Delimiter)
	}
	if opts.Title != "From File" {
		t.Errorf("Title = %q", opts.Title)
	}
	if !opts.Clamp {
		t.Error("Clamp should come from config")
	}
}

func TestApplyConfigNil(t *testing.T) {
	flags := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	opts := pipeline.Options{Levels: 10}
	output := "keep.html"

	applyConfig(nil, flags, &opts, &output)

	if opts.Levels != 10 || output != "keep.html" {
		t.Error("nil config must not change anything")
	}
}
