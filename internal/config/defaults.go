package config

// Defaults for a site laid out the conventional way.
const (
	DefaultSource       = "."
	DefaultDestination  = "./_site/"
	DefaultPagesDir     = "_pages"
	DefaultTemplatesDir = "_templates"
	DefaultPartialsDir  = "partials"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Source:       DefaultSource,
		Destination:  DefaultDestination,
		PagesDir:     DefaultPagesDir,
		TemplatesDir: DefaultTemplatesDir,
		PartialsDir:  DefaultPartialsDir,
		Markdown: MarkdownConfig{
			GFM:    true,
			Unsafe: true,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// applyDefaults fills values a config file explicitly blanked out.
func applyDefaults(cfg *Config) {
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if cfg.Destination == "" {
		cfg.Destination = DefaultDestination
	}
	if cfg.PagesDir == "" {
		cfg.PagesDir = DefaultPagesDir
	}
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = DefaultTemplatesDir
	}
	if cfg.PartialsDir == "" {
		cfg.PartialsDir = DefaultPartialsDir
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}
