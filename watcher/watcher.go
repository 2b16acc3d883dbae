package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 100 * time.Millisecond

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".libpack":     true,
}

// Watcher reports batches of changed files under a set of directories.
type Watcher struct {
	paths    []string
	ignore   []string
	exclude  []string
	debounce time.Duration
	onChange func(paths []string)
	onError  func(err error)
	fsw      *fsnotify.Watcher
	mu       sync.Mutex
}

func NewWatcher(paths []string, ignore []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		paths:    paths,
		ignore:   ignore,
		debounce: DefaultDebounce,
		fsw:      fsw,
	}, nil
}

// Exclude skips everything below the given directories, e.g. output dirs.
func (w *Watcher) Exclude(dirs ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, dir := range dirs {
		w.exclude = append(w.exclude, filepath.Clean(dir))
	}
}

func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

func (w *Watcher) OnChange(fn func(paths []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

func (w *Watcher) OnError(fn func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Start watches until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	for _, path := range w.paths {
		if err := w.addRecursive(path); err != nil {
			return fmt.Errorf("failed to watch path %s: %w", path, err)
		}
	}

	w.mu.Lock()
	changes := newBatch(w.debounce, w.notify)
	w.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			changes.Stop()
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if w.shouldIgnore(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				changes.Add(event.Name)
			}

			if event.Op&fsnotify.Create != 0 {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if err = w.addRecursive(event.Name); err != nil {
						w.reportError(err)
					}
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) notify(paths []string) {
	w.mu.Lock()
	fn := w.onChange
	w.mu.Unlock()

	if fn != nil {
		fn(paths)
	}
}

func (w *Watcher) reportError(err error) {
	w.mu.Lock()
	fn := w.onError
	w.mu.Unlock()

	if fn != nil && err != nil {
		fn(err)
	}
}

func (w *Watcher) Stop() {
	w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if skipDirs[d.Name()] || w.shouldIgnore(path) {
				return filepath.SkipDir
			}

			if err = w.fsw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
		}

		return nil
	})
}

func (w *Watcher) shouldIgnore(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	path = filepath.Clean(path)
	for _, dir := range w.exclude {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	if strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, "~") {
		return true
	}

	for _, pattern := range w.ignore {
		pattern = strings.TrimPrefix(pattern, "./")
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
	}

	return false
}
