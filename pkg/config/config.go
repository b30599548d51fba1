// Package config loads plastic's user configuration.
//
// The configuration is a TOML file holding defaults for the simplify and
// draw commands. It is looked up at $XDG_CONFIG_HOME/plastic/config.toml,
// falling back to ~/.config/plastic/config.toml:
//
//	[visualization]
//	support_threshold = 10
//	collapse_simple_paths = true
//
//	[draw]
//	show_support = true
//	show_color = true
//	format = "pdf"
//
//	[cache]
//	enabled = true
//	ttl_hours = 168
//	dir = ""  # default $XDG_CACHE_HOME/plastic
//
// Keys missing from the file keep their built-in defaults, and command-line
// flags override both.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/plastic-phy/plastic/pkg/errors"
	"github.com/plastic-phy/plastic/pkg/render"
)

const (
	appName  = "plastic"
	fileName = "config.toml"
)

// Config holds the user defaults.
type Config struct {
	Visualization Visualization `toml:"visualization"`
	Draw          Draw          `toml:"draw"`
	Cache         Cache         `toml:"cache"`

	source string
}

// Visualization holds the defaults for tree simplification.
type Visualization struct {
	// SupportThreshold enables low-support collapsing when set.
	SupportThreshold    *int `toml:"support_threshold,omitempty"`
	CollapseSimplePaths bool `toml:"collapse_simple_paths"`
}

// Draw holds the defaults for drawing.
type Draw struct {
	ShowSupport bool   `toml:"show_support"`
	ShowColor   bool   `toml:"show_color"`
	Format      string `toml:"format"`
}

// Cache controls the drawing cache.
type Cache struct {
	Enabled bool `toml:"enabled"`
	// TTLHours is the entry lifetime; 0 keeps entries until cleared.
	TTLHours int    `toml:"ttl_hours"`
	Dir      string `toml:"dir,omitempty"`
}

// TTL returns the entry lifetime.
func (c Cache) TTL() time.Duration { return time.Duration(c.TTLHours) * time.Hour }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Draw: Draw{
			ShowSupport: true,
			ShowColor:   true,
			Format:      string(render.FormatPDF),
		},
		Cache: Cache{
			Enabled:  true,
			TTLHours: 7 * 24,
		},
	}
}

// Source returns the file the configuration was read from, or "" for the
// built-in defaults.
func (c Config) Source() string { return c.source }

// DefaultPath returns the location of the user configuration file.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate home directory")
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load reads the configuration at path on top of [Default]. An empty path
// means [DefaultPath], which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return cfg, nil
		}
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return Default(), errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
			}
			return Default(), nil
		}
		return Default(), errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Default(), errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.source = path
	if err := cfg.Validate(); err != nil {
		return Default(), errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if t := c.Visualization.SupportThreshold; t != nil && (*t < 0 || *t > 100) {
		return errors.New(errors.ErrCodeInvalidConfig, "support_threshold must be between 0 and 100, got %d", *t)
	}
	if c.Cache.TTLHours < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl_hours must not be negative, got %d", c.Cache.TTLHours)
	}
	if _, err := render.ParseFormat(c.Draw.Format); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "draw.format")
	}
	return nil
}

// Encode writes the configuration as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
