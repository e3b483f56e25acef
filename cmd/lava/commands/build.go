package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/lava/internal/config"
	"git.home.luguber.info/inful/lava/internal/logfields"
	"git.home.luguber.info/inful/lava/internal/metrics"
	"git.home.luguber.info/inful/lava/internal/site"
	"github.com/prometheus/client_golang/prometheus"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SiteFlags `embed:""`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := b.loadConfig(root)
	if err != nil {
		return err
	}
	root.configureLogging(g, cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r := newRunner(g, cfg)
	_, err = r.build(ctx)
	return err
}

// runner performs builds with shared metrics state, so watch mode
// accumulates counters across rebuilds.
type runner struct {
	g        *Global
	cfg      *config.Config
	registry *prometheus.Registry
	recorder metrics.Recorder
}

func newRunner(g *Global, cfg *config.Config) *runner {
	reg := prometheus.NewRegistry()
	return &runner{
		g:        g,
		cfg:      cfg,
		registry: reg,
		recorder: metrics.NewPrometheusRecorder(reg),
	}
}

// build runs one build, then persists the report and metrics when asked to.
// Failing to persist is logged and does not change the build result.
func (r *runner) build(ctx context.Context) (*site.Report, error) {
	logger := slog.Default()
	if r.g != nil && r.g.Logger != nil {
		logger = r.g.Logger
	}

	report, err := site.NewBuilder(r.cfg).
		WithRecorder(r.recorder).
		WithLogger(logger).
		Build(ctx)

	if r.cfg.Report != "" {
		if perr := report.Persist(r.cfg.Report); perr != nil {
			logger.Warn("Could not write build report", logfields.Path(r.cfg.Report), logfields.Error(perr))
		}
	}
	if r.cfg.MetricsFile != "" {
		if merr := metrics.WriteTextfile(r.cfg.MetricsFile, r.registry); merr != nil {
			logger.Warn("Could not write metrics file", logfields.Path(r.cfg.MetricsFile), logfields.Error(merr))
		}
	}

	_, _ = fmt.Fprintln(r.g.stdout(), report.Summary())
	return report, err
}
