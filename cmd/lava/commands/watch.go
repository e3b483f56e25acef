package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/lava/internal/copytree"
	ferrors "git.home.luguber.info/inful/lava/internal/foundation/errors"
	"git.home.luguber.info/inful/lava/internal/logfields"
	"git.home.luguber.info/inful/lava/internal/metrics"
	"git.home.luguber.info/inful/lava/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SiteFlags   `embed:""`
	Debounce    time.Duration `help:"Quiet period before a rebuild" default:"300ms"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address while watching (e.g. :9090)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := w.loadConfig(root)
	if err != nil {
		return err
	}
	root.configureLogging(g, cfg)

	if copytree.SamePath(cfg.Source, cfg.Destination) {
		return ferrors.ConfigError("watch needs a destination different from the source").
			WithContext("source", cfg.Source).
			Build()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r := newRunner(g, cfg)
	if _, err := r.build(ctx); err != nil {
		if ferrors.HasCategory(err, ferrors.CategoryBuild) {
			// Interrupted before the watcher started.
			return nil
		}
		// Keep watching: the next change may fix the site.
		slog.Error("Initial build failed", logfields.Error(err))
	}

	if w.MetricsAddr != "" {
		stop := serveMetrics(w.MetricsAddr, r)
		defer stop()
	}

	watcher, err := watch.New(watch.Ignore{
		Root:        cfg.Source,
		Destination: cfg.Destination,
		Artifacts:   cfg.Artifacts(),
		Extra:       cfg.Exclude,
	}, w.Debounce)
	if err != nil {
		return ferrors.FileSystemError("failed to watch source").
			WithCause(err).
			WithContext("source", cfg.Source).
			Fatal().
			Build()
	}
	defer func() { _ = watcher.Close() }()

	slog.Info("Watching for changes", logfields.Path(cfg.Source), logfields.Output(cfg.Destination))
	err = watcher.Run(ctx, func(ctx context.Context) {
		slog.Info("Change detected, rebuilding site")
		if _, err := r.build(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Rebuild failed", logfields.Error(err))
		}
	})
	slog.Info("Stopped watching")
	return err
}

// serveMetrics exposes the runner's registry until the returned stop is called.
func serveMetrics(addr string, r *runner) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(r.registry))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", slog.String("addr", addr), logfields.Error(err))
		}
	}()
	slog.Info("Serving metrics", slog.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
