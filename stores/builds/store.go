package builds

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Version of the builds file layout. Files written with another version are
// discarded, which only costs a rebuild.
const Version = 1

// Entry records the last successful emit of one target.
type Entry struct {
	InputHash  string    `json:"input_hash"`
	TargetHash string    `json:"target_hash"`
	OutputHash string    `json:"output_hash,omitempty"`
	Files      []string  `json:"files,omitempty"`
	Size       int64     `json:"size"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
}

type file struct {
	Version int               `json:"version"`
	Targets map[string]*Entry `json:"targets"`
}

// Store is the build cache, keyed by target id (library:format). It is safe
// for concurrent use by emit workers.
type Store struct {
	path    string
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewStore(path string) *Store {
	return &Store{
		path:    path,
		entries: make(map[string]*Entry),
	}
}

// Load replaces the in-memory entries with the ones on disk. A missing file
// leaves the store empty.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read builds file %s: %w", s.path, err)
	}

	var f file
	if err = json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse builds file %s: %w", s.path, err)
	}
	if f.Version != Version {
		return fmt.Errorf("builds file %s has version %d, expected %d", s.path, f.Version, Version)
	}
	if f.Targets == nil {
		f.Targets = make(map[string]*Entry)
	}

	s.mu.Lock()
	s.entries = f.Targets
	s.mu.Unlock()

	return nil
}

func (s *Store) Get(targetID string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[targetID]
	return entry, ok
}

func (s *Store) Set(targetID string, entry *Entry) {
	s.mu.Lock()
	s.entries[targetID] = entry
	s.mu.Unlock()
}

func (s *Store) Delete(targetID string) {
	s.mu.Lock()
	delete(s.entries, targetID)
	s.mu.Unlock()
}

// Prune drops the entries of library whose ids are not in keep and returns
// the removed ids.
func (s *Store) Prune(library string, keep map[string]bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id := range s.entries {
		if strings.HasPrefix(id, library+":") && !keep[id] {
			delete(s.entries, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Save writes the store through a temp file so readers never see a torn file.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(file{Version: Version, Targets: s.entries}, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal builds: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", s.path, err)
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write builds file %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace builds file %s: %w", s.path, err)
	}

	return nil
}
