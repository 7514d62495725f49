// Package watch triggers site rebuilds when the source tree changes.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period that ends a burst of file events.
const DefaultDebounce = 200 * time.Millisecond

// Options tunes a watcher.
type Options struct {
	// Exclude lists absolute directories (typically the output directory)
	// whose events are ignored.
	Exclude  []string
	Debounce time.Duration
}

// Watch watches root recursively and calls onChange once per burst of
// events until ctx is cancelled. New directories are watched as they
// appear.
func Watch(ctx context.Context, root string, opts Options, logger *slog.Logger, onChange func()) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	root = filepath.Clean(root)
	excluded := make([]string, 0, len(opts.Exclude))
	for _, e := range opts.Exclude {
		if abs, err := filepath.Abs(e); err == nil {
			excluded = append(excluded, abs)
		}
	}
	skip := func(p string) bool {
		abs, err := filepath.Abs(p)
		if err != nil {
			return false
		}
		for _, e := range excluded {
			if abs == e || strings.HasPrefix(abs, e+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root, skip); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			timerCh = timer.C
			return
		}
		timer.Reset(opts.Debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			onChange()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if skip(ev.Name) || isTempFile(ev.Name) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name, skip); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
				}
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("watcher: change",
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// isTempFile reports editor swap files and atomic-write temporaries.
func isTempFile(p string) bool {
	base := filepath.Base(p)
	return strings.HasPrefix(base, ".ghmd-tmp-") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasPrefix(base, ".#")
}

func addDirsRecursive(w *fsnotify.Watcher, root string, skip func(string) bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if skip(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
