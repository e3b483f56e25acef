package commands

import (
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/lava/internal/config"
	ferrors "git.home.luguber.info/inful/lava/internal/foundation/errors"
	"github.com/alecthomas/kong"
)

// Global is passed to every command.
type Global struct {
	Logger *slog.Logger
	// Stdout receives user-facing output; os.Stdout when nil.
	Stdout io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI is the root command line.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (default: <source>/lava.yaml when present)"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text|json); overrides logging.format"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Render pages and copy assets into the destination"`
	Watch WatchCmd `cmd:"" help:"Build, then rebuild whenever the source changes"`
	Init  InitCmd  `cmd:"" help:"Scaffold a new site"`
}

// AfterApply runs after flag parsing and sets up logging from the flags.
// Commands that load a configuration refine it with configureLogging.
func (c *CLI) AfterApply() error {
	format := config.LogFormatText
	if c.LogFormat != "" {
		f, err := logFormat(c.LogFormat)
		if err != nil {
			return err
		}
		format = f
	}
	slog.SetDefault(newLogger(os.Stderr, c.Verbose, config.LogLevelInfo, format))
	return nil
}

// configureLogging applies the logging section of cfg. --verbose and
// --log-format win over the file.
func (c *CLI) configureLogging(g *Global, cfg *config.Config) {
	format := cfg.Logging.Format
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	logger := newLogger(os.Stderr, c.Verbose, cfg.Logging.Level, format)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
}

func logFormat(raw string) (config.LogFormat, error) {
	cfg := config.Default()
	cfg.Logging.Format = config.LogFormat(raw)
	if err := cfg.Validate(); err != nil {
		return "", ferrors.ValidationError("invalid --log-format").
			WithCause(err).
			WithContext("value", raw).
			Build()
	}
	return config.NormalizeLogFormat(raw), nil
}

func newLogger(w io.Writer, verbose bool, level config.LogLevel, format config.LogFormat) *slog.Logger {
	lvl := level.Slog()
	if verbose {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if config.NormalizeLogFormat(string(format)) == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SiteFlags select the site and where its build artifacts go. Empty values
// fall back to the configuration file, then to the defaults.
type SiteFlags struct {
	Source      string `short:"s" help:"Source directory (default: .)"`
	Destination string `short:"d" help:"Destination directory (default: ./_site/)"`
	Report      string `help:"Write a JSON build report to this path"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this textfile after each build"`
}

// loadConfig resolves the configuration and applies flag overrides.
func (f SiteFlags) loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Resolve(root.Config, f.Source)
	if err != nil {
		return nil, err
	}
	if f.Source != "" {
		cfg.Source = f.Source
	}
	if f.Destination != "" {
		cfg.Destination = f.Destination
	}
	if f.Report != "" {
		cfg.Report = f.Report
	}
	if f.MetricsFile != "" {
		cfg.MetricsFile = f.MetricsFile
	}
	return cfg, nil
}
