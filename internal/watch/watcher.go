// Package watch implements the preview server's file-watch registrar on top
// of fsnotify. Registered directories are watched recursively and bursts of
// changes are reported through a debounced callback.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/extassets/internal/foundation/errors"
	"git.home.luguber.info/inful/extassets/internal/logfields"
)

// maxDelayFactor bounds how long a steady stream of events can postpone a rebuild.
const maxDelayFactor = 10

// Watcher is a recursive fsnotify watcher. It implements plugin.WatchRegistrar.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	roots []string
}

// New creates a watcher that reports changes after the given quiet window.
func New(debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		return nil, errors.ValidationError("debounce must be > 0").WithContext("debounce", debounce.String()).Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create file watcher").Build()
	}
	return &Watcher{fsw: fsw, debounce: debounce, logger: logger}, nil
}

// Watch registers path and every directory below it.
func (w *Watcher) Watch(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotFound, "cannot watch path").WithContext("path", path).Build()
	}
	if !st.IsDir() {
		if err := w.fsw.Add(path); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "cannot watch path").WithContext("path", path).Build()
		}
	} else {
		w.addDirsRecursive(path)
	}

	w.mu.Lock()
	if !slices.Contains(w.roots, path) {
		w.roots = append(w.roots, path)
	}
	w.mu.Unlock()
	w.logger.Debug("Watching path", logfields.Path(path))
	return nil
}

// Roots returns the registered paths in registration order.
func (w *Watcher) Roots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.roots)
}

// Run delivers debounced change notifications to onChange until ctx is done
// or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	d := NewDebouncer(w.debounce, maxDelayFactor*w.debounce, onChange)
	defer d.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev, d)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handleEvent(ev fsnotify.Event, d *Debouncer) {
	if ShouldIgnore(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	d.Trigger()
}

func (w *Watcher) addDirsRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// ShouldIgnore reports whether a change to path should not trigger a rebuild:
// hidden files, editor swap and backup files, and OS metadata files.
func ShouldIgnore(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
