package watcher

import (
	"sort"
	"sync"
	"time"
)

// batch collects changed paths and hands them over, sorted and deduplicated,
// once no new path has arrived for the quiet period.
type batch struct {
	quiet time.Duration
	fire  func(paths []string)

	mu    sync.Mutex
	timer *time.Timer
	paths map[string]bool
}

func newBatch(quiet time.Duration, fire func(paths []string)) *batch {
	return &batch{
		quiet: quiet,
		fire:  fire,
		paths: make(map[string]bool),
	}
}

func (b *batch) Add(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.paths[path] = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.quiet, b.flush)
}

func (b *batch) flush() {
	b.mu.Lock()
	paths := make([]string, 0, len(b.paths))
	for path := range b.paths {
		paths = append(paths, path)
	}
	b.paths = make(map[string]bool)
	b.mu.Unlock()

	if len(paths) == 0 || b.fire == nil {
		return
	}
	sort.Strings(paths)
	b.fire(paths)
}

// Stop drops pending paths without firing.
func (b *batch) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.paths = make(map[string]bool)
}
