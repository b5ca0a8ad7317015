// Package watch reruns a job when the files it reads change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Watcher coalesces file events into batches. Editors often replace a file
// instead of writing it, so directories are watched and events filtered.
type Watcher struct {
	fsw      *fsnotify.Watcher
	patterns []string
	debounce time.Duration
	logger   *slog.Logger
}

// New watches the directories that patterns can match. A pattern is a file
// path or a doublestar glob; "**" patterns watch their whole subtree.
func New(patterns []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{fsw: fsw, debounce: debounce, logger: logger}

	for _, p := range patterns {
		w.patterns = append(w.patterns, filepath.ToSlash(filepath.Clean(p)))
	}

	for _, dir := range dirs(w.patterns) {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}

		logger.Debug("Watching directory", "path", dir)
	}

	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Matches reports whether path is one of the watched files.
func (w *Watcher) Matches(path string) bool {
	path = filepath.ToSlash(filepath.Clean(path))

	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}

	return false
}

// Run calls fn with the sorted changed paths once events settle for the
// debounce period. fn runs on the calling goroutine, so a run always
// finishes before the next starts; events during a run form the next batch.
// Run returns when ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, changed []string)) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	pending := map[string]struct{}{}

	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if event.Op&relevantOps == 0 || !w.Matches(event.Name) {
				continue
			}

			w.logger.Debug("Change detected", "path", event.Name, "op", event.Op.String())

			pending[event.Name] = struct{}{}

			timer.Reset(w.debounce)
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("Watcher error", "error", err)

		case <-fire:
			fire = nil

			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}

			clear(pending)
			slices.Sort(changed)

			fn(ctx, changed)
		}
	}
}

// dirs returns the directories to watch for patterns, without duplicates.
func dirs(patterns []string) []string {
	var out []string

	seen := map[string]bool{}
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			out = append(out, dir)
		}
	}

	for _, p := range patterns {
		base, rest := doublestar.SplitPattern(p)
		root := filepath.FromSlash(base)

		if !strings.Contains(rest, "**") {
			add(root)
			continue
		}

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}

			if !d.IsDir() {
				return nil
			}

			if name := d.Name(); path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}

			add(path)

			return nil
		})
	}

	return out
}
