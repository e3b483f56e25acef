// Package watch rebuilds a site when its source tree changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/lava/internal/logfields"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the source must stay quiet before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches every directory below a source root, except ignored ones,
// and asks for a rebuild once a burst of changes has settled.
type Watcher struct {
	fsw      *fsnotify.Watcher
	ignore   Ignore
	debounce time.Duration
}

// New starts watching root. Directories matched by ignore are not watched;
// directories created later are added as they appear.
func New(ignore Ignore, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{fsw: fsw, ignore: ignore, debounce: debounce}
	if err := w.addDirsRecursive(ignore.Root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run calls rebuild after every settled burst of relevant changes until ctx
// is done. Rebuilds run one at a time on the calling goroutine; changes that
// arrive during a rebuild queue exactly one more.
func (w *Watcher) Run(ctx context.Context, rebuild func(context.Context)) error {
	requests := make(chan struct{}, 1)
	errc := make(chan error, 1)
	go func() { errc <- w.collect(ctx, requests) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case <-requests:
			rebuild(ctx)
		}
	}
}

// collect turns filesystem events into debounced rebuild requests.
func (w *Watcher) collect(ctx context.Context, requests chan<- struct{}) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			select {
			case requests <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// handleEvent reports whether ev should trigger a rebuild, watching new
// directories on the way.
func (w *Watcher) handleEvent(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod || w.ignore.Match(ev.Name) {
		return false
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(ev.Name)
		}
	}
	slog.Debug("Source change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func (w *Watcher) addDirsRecursive(root string) error {
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.ignore.Root && w.ignore.Match(path) {
			return fs.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}
