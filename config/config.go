package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vcnkl/libpack/formats"
	"github.com/vcnkl/libpack/models"
)

type Config struct {
	root         string
	projectFile  string
	stateDir     string
	buildsPath   string
	manifestPath string
	project      *ProjectConfig
	registry     *formats.Registry
	libraries    map[string]*models.Library
}

// NewConfig loads the project rooted at the enclosing git repository, or the
// current directory outside of one.
func NewConfig(projectFile string) (*Config, error) {
	root, err := findProjectRoot()
	if err != nil {
		return nil, err
	}
	return Load(root, projectFile)
}

func Load(root string, projectFile string) (*Config, error) {
	if projectFile == "" {
		projectFile = ProjectFile
	}
	if !filepath.IsAbs(projectFile) {
		projectFile = filepath.Join(root, projectFile)
	}

	project, err := loadProjectConfig(projectFile)
	if err != nil {
		return nil, err
	}

	registry, err := project.Registry()
	if err != nil {
		return nil, fmt.Errorf("invalid formats in %s: %w", projectFile, err)
	}

	libraries, err := discoverLibraries(root, project)
	if err != nil {
		return nil, err
	}

	libraryMap := make(map[string]*models.Library, len(libraries))
	for _, lib := range libraries {
		if existing, ok := libraryMap[lib.Name]; ok {
			return nil, fmt.Errorf("library %s is declared in both %s and %s", lib.Name, existing.Path, lib.Path)
		}
		libraryMap[lib.Name] = lib
	}

	stateDir := filepath.Join(root, StateDir)

	return &Config{
		root:         root,
		projectFile:  projectFile,
		stateDir:     stateDir,
		buildsPath:   filepath.Join(stateDir, "builds.json"),
		manifestPath: filepath.Join(stateDir, "targets.json"),
		project:      project,
		registry:     registry,
		libraries:    libraryMap,
	}, nil
}

func (c *Config) Root() string {
	return c.root
}

// Reload reads the project file and library manifests again.
func (c *Config) Reload() (*Config, error) {
	return Load(c.root, c.projectFile)
}

// IsManifest reports whether path is the project file or a library manifest,
// i.e. whether a change to it calls for a Reload.
func (c *Config) IsManifest(path string) bool {
	if filepath.Clean(path) == c.projectFile {
		return true
	}
	return manifestNames[filepath.Base(path)]
}

func (c *Config) StateDir() string {
	return c.stateDir
}

func (c *Config) BuildsPath() string {
	return c.buildsPath
}

func (c *Config) ManifestPath() string {
	return c.manifestPath
}

func (c *Config) Project() *ProjectConfig {
	return c.project
}

func (c *Config) Registry() *formats.Registry {
	return c.registry
}

// Libraries returns every discovered library ordered by name.
func (c *Config) Libraries() []*models.Library {
	libs := make([]*models.Library, 0, len(c.libraries))
	for _, lib := range c.libraries {
		libs = append(libs, lib)
	}
	sort.Slice(libs, func(i, j int) bool {
		return libs[i].Name < libs[j].Name
	})
	return libs
}

func (c *Config) Library(name string) (*models.Library, bool) {
	lib, ok := c.libraries[name]
	return lib, ok
}

// SelectLibraries returns the named libraries, or all of them when names is empty.
func (c *Config) SelectLibraries(names []string) ([]*models.Library, error) {
	if len(names) == 0 {
		return c.Libraries(), nil
	}

	seen := make(map[string]bool, len(names))
	libs := make([]*models.Library, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		lib, ok := c.libraries[name]
		if !ok {
			return nil, &LibraryNotFoundError{Name: name}
		}
		libs = append(libs, lib)
	}
	return libs, nil
}

// SelectAffected returns the libraries owning at least one of the changed
// paths. Paths are relative to the project root.
func (c *Config) SelectAffected(changed []string) []*models.Library {
	var libs []*models.Library
	for _, lib := range c.Libraries() {
		for _, path := range changed {
			if owns(lib.Path, path) {
				libs = append(libs, lib)
				break
			}
		}
	}
	return libs
}

func owns(libPath string, path string) bool {
	libPath = filepath.ToSlash(filepath.Clean(libPath))
	path = filepath.ToSlash(filepath.Clean(path))
	if libPath == "." {
		return true
	}
	return path == libPath || strings.HasPrefix(path, libPath+"/")
}

type LibraryNotFoundError struct {
	Name string
}

func (e *LibraryNotFoundError) Error() string {
	return "library not found: " + e.Name
}
