// Package config loads and validates lava's site configuration.
package config

import (
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/lava/internal/foundation/errors"
	"git.home.luguber.info/inful/lava/internal/markdown"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the source root.
const FileName = "lava.yaml"

// Config describes one site: where it lives, where it is written and how it
// is rendered.
type Config struct {
	Source       string         `yaml:"source"`
	Destination  string         `yaml:"destination"`
	PagesDir     string         `yaml:"pages_dir"`
	TemplatesDir string         `yaml:"templates_dir"`
	PartialsDir  string         `yaml:"partials_dir"` // relative to TemplatesDir
	Exclude      []string       `yaml:"exclude,omitempty"`
	Markdown     MarkdownConfig `yaml:"markdown"`
	Logging      LoggingConfig  `yaml:"logging"`
	Report       string         `yaml:"report,omitempty"`       // build report path, empty disables
	MetricsFile  string         `yaml:"metrics_file,omitempty"` // Prometheus textfile path, empty disables
}

// MarkdownConfig toggles goldmark features.
type MarkdownConfig struct {
	GFM       bool `yaml:"gfm"`
	HardWraps bool `yaml:"hard_wraps"`
	Unsafe    bool `yaml:"unsafe"`
}

// Options converts to converter options.
func (m MarkdownConfig) Options() markdown.Options {
	return markdown.Options{GFM: m.GFM, HardWraps: m.HardWraps, Unsafe: m.Unsafe}
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads a configuration file. Fields the file leaves out keep their
// defaults, ${VAR} references are expanded from the environment (after
// .env files next to the config are loaded) and the result is validated.
func Load(path string) (*Config, error) {
	if _, err := LoadEnv(filepath.Dir(path)); err != nil {
		return nil, err
	}

	// #nosec G304 -- path is the user-selected configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.NewError(ferrors.CategoryNotFound, "configuration file not found").
				WithContext("path", path).
				Fatal().
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", path).
			Fatal().
			Build()
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
			WithContext("path", path).
			Fatal().
			Build()
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve picks the configuration for a run. An explicit path must exist.
// Without one, <source>/lava.yaml is used when present, otherwise defaults
// rooted at source.
func Resolve(explicit, source string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	if source == "" {
		source = DefaultSource
	}

	candidate := filepath.Join(source, FileName)
	if _, err := os.Stat(candidate); err == nil {
		cfg, err := Load(candidate)
		if err != nil {
			return nil, err
		}
		// A config found inside the source tree describes that tree.
		if cfg.Source == DefaultSource {
			cfg.Source = source
		}
		return cfg, nil
	}

	if _, err := LoadEnv(source); err != nil {
		return nil, err
	}
	cfg := Default()
	cfg.Source = source
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PagesPath is the directory holding content pages.
func (c *Config) PagesPath() string {
	return filepath.Join(c.Source, c.PagesDir)
}

// TemplatesPath is the directory holding templates.
func (c *Config) TemplatesPath() string {
	return filepath.Join(c.Source, c.TemplatesDir)
}

// PartialsPath is the directory holding partials.
func (c *Config) PartialsPath() string {
	return filepath.Join(c.TemplatesPath(), c.PartialsDir)
}

// Reserved lists the top-level source entries that are never copied as
// assets: the pages and templates directories and the config file.
func (c *Config) Reserved() []string {
	return []string{c.PagesDir, c.TemplatesDir, FileName}
}

// Artifacts lists the files a build writes outside the destination: the
// report and the metrics textfile, when configured.
func (c *Config) Artifacts() []string {
	var out []string
	for _, path := range []string{c.Report, c.MetricsFile} {
		if path != "" {
			out = append(out, path)
		}
	}
	return out
}
