package manifests

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vcnkl/libpack/models"
)

const Version = 1

type Library struct {
	Name    string               `json:"name" yaml:"name"`
	Path    string               `json:"path" yaml:"path"`
	OutDir  string               `json:"out_dir" yaml:"out_dir"`
	Targets []models.BuildTarget `json:"targets" yaml:"targets"`
}

// Manifest is the resolved target set of a project, written to
// .libpack/targets.json for tooling that consumes libpack output.
type Manifest struct {
	Version   int       `json:"version" yaml:"version"`
	Libraries []Library `json:"libraries" yaml:"libraries"`
}

func New(libraries ...Library) *Manifest {
	m := &Manifest{Version: Version, Libraries: make([]Library, 0, len(libraries))}
	m.Merge(libraries...)
	return m
}

// Merge replaces libraries with the same name and keeps the rest, ordered by name.
func (m *Manifest) Merge(libraries ...Library) {
	index := make(map[string]int, len(m.Libraries))
	for i, lib := range m.Libraries {
		index[lib.Name] = i
	}

	for _, lib := range libraries {
		if i, ok := index[lib.Name]; ok {
			m.Libraries[i] = lib
			continue
		}
		index[lib.Name] = len(m.Libraries)
		m.Libraries = append(m.Libraries, lib)
	}

	sort.Slice(m.Libraries, func(i, j int) bool {
		return m.Libraries[i].Name < m.Libraries[j].Name
	})
}

// Retain drops libraries whose names are not in keep.
func (m *Manifest) Retain(keep map[string]bool) {
	kept := m.Libraries[:0]
	for _, lib := range m.Libraries {
		if keep[lib.Name] {
			kept = append(kept, lib)
		}
	}
	m.Libraries = kept
}

func (m *Manifest) Library(name string) (Library, bool) {
	for _, lib := range m.Libraries {
		if lib.Name == name {
			return lib, true
		}
	}
	return Library{}, false
}

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Save(manifest *Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := s.path + ".tmp"
	if err = os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file %s: %w", tmpPath, err)
	}

	if err = os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename manifest file: %w", err)
	}

	return nil
}

func (s *Store) Load() (*Manifest, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file %s: %w", s.path, err)
	}

	var manifest Manifest
	if err = json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest file %s: %w", s.path, err)
	}
	if manifest.Version != Version {
		return nil, fmt.Errorf("unsupported manifest version %d in %s", manifest.Version, s.path)
	}
	if manifest.Libraries == nil {
		manifest.Libraries = []Library{}
	}

	return &manifest, nil
}
