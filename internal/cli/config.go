package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/nbeckett/tiercloud/pkg/errors"
	"github.com/nbeckett/tiercloud/pkg/pipeline"
)

// fileConfig holds optional defaults loaded from a TOML file. Every field
// maps to a convert flag; explicit flags always win over the file.
//
// Default location: $XDG_CONFIG_HOME/tiercloud/config.toml (or
// ~/.config/tiercloud/config.toml), overridable with --config.
type fileConfig struct {
	Levels       int     `toml:"levels"`
	MinWidth     float64 `toml:"min_width"`
	MaxWidth     float64 `toml:"max_width"`
	Output       string  `toml:"output"`
	IgnoreColumn string  `toml:"ignore_column"`
	Delimiter    string  `toml:"delimiter"`
	Title        string  `toml:"title"`
	Clamp        bool    `toml:"clamp"`
}

// loadConfig reads the defaults file. A missing default-location file is not
// an error (config is optional); a missing file named explicitly via
// --config is.
func (c *CLI) loadConfig() (*fileConfig, error) {
	path := c.ConfigPath
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return nil, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	return &cfg, nil
}

// applyConfig fills options from the config file for every flag the user did
// not set explicitly. Precedence: flag > config file > built-in default.
func applyConfig(cfg *fileConfig, flags *pflag.FlagSet, opts *pipeline.Options, output *string) {
	if cfg == nil {
		return
	}
	if !flags.Changed("levels") && cfg.Levels != 0 {
		opts.Levels = cfg.Levels
	}
	if !flags.Changed("min-width") && cfg.MinWidth != 0 {
		opts.MinWidth = cfg.MinWidth
	}
	if !flags.Changed("max-width") && cfg.MaxWidth != 0 {
		opts.MaxWidth = cfg.MaxWidth
	}
	if !flags.Changed("output") && cfg.Output != "" {
		*output = cfg.Output
	}
	if !flags.Changed("ignore-column") && cfg.IgnoreColumn != "" {
		opts.IgnoreColumn = cfg.IgnoreColumn
	}
	if !flags.Changed("delimiter") && cfg.Delimiter != "" {
		opts.Delimiter = cfg.Delimiter
	}
	if !flags.Changed("title") && cfg.Title != "" {
		opts.Title = cfg.Title
	}
	if !flags.Changed("clamp") && cfg.Clamp {
		opts.Clamp = true
	}
}
