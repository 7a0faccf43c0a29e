package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault is used when Config.Debounce is zero.
const debounceDefault = 200 * time.Millisecond

// TriggerFunc is called once per debounced burst of changes. trigger is the
// path of the last change seen, relative to Config.Root.
type TriggerFunc func(ctx context.Context, trigger string)

// Config holds watcher configuration.
type Config struct {
	Root     string        // paths and triggers are relative to Root
	Paths    []string      // directories watched recursively
	Ignore   []string      // base names that never trigger (the output artifact, the lock)
	SkipDirs []string      // directories, relative to Root, that are never watched (the build dir)
	Debounce time.Duration // quiet period before a trigger fires
}

// Watcher re-runs a function whenever files under the watched paths change.
// Runs never overlap: changes made while fn is running are coalesced into
// one more call after it returns.
type Watcher struct {
	cfg    Config
	fn     TriggerFunc
	ignore map[string]struct{}
	skip   []string // absolute, cleaned
}

// New creates a watcher with validated configuration.
func New(cfg Config, fn TriggerFunc) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("at least one watch path is required")
	}
	if fn == nil {
		return nil, fmt.Errorf("trigger function is required")
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = debounceDefault
	}

	ignore := make(map[string]struct{}, len(cfg.Ignore))
	for _, name := range cfg.Ignore {
		ignore[filepath.Base(name)] = struct{}{}
	}

	w := &Watcher{cfg: cfg, fn: fn, ignore: ignore}
	for _, d := range cfg.SkipDirs {
		abs, err := filepath.Abs(w.abs(d))
		if err != nil {
			return nil, fmt.Errorf("resolve skip dir %s: %w", d, err)
		}
		w.skip = append(w.skip, abs)
	}
	return w, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	added := 0
	for _, p := range w.cfg.Paths {
		n, err := w.addTree(watcher, w.abs(p))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Warn("watch path does not exist", "path", p)
				continue
			}
			return fmt.Errorf("watch %s: %w", p, err)
		}
		added += n
	}
	if added == 0 {
		return fmt.Errorf("none of the watch paths exist: %v", w.cfg.Paths)
	}

	slog.Info("watching for changes", "paths", w.cfg.Paths, "dirs", added, "debounce", w.cfg.Debounce)

	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			slog.Info("watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if _, err := w.addTree(watcher, event.Name); err != nil {
						slog.Warn("watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			last = w.rel(event.Name)
			slog.Debug("change", "path", last, "op", event.Op.String())
			timer.Reset(w.cfg.Debounce)

		case <-timer.C:
			w.fn(ctx, last)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if _, skip := w.ignore[filepath.Base(event.Name)]; skip {
		return false
	}
	return !w.skipped(event.Name)
}

// skipped reports whether path is a skip dir or lies below one.
func (w *Watcher) skipped(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, d := range w.skip {
		if abs == d || strings.HasPrefix(abs, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addTree adds root and every directory below it, returning the count.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if w.skipped(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func (w *Watcher) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(w.cfg.Root, p)
}

func (w *Watcher) rel(p string) string {
	if r, err := filepath.Rel(w.cfg.Root, p); err == nil {
		return r
	}
	return p
}
