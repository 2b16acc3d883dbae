package config

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/vcnkl/libpack/git"
	"github.com/vcnkl/libpack/models"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"
)

const (
	ProjectFile = "libpack.yml"
	StateDir    = ".libpack"
)

// Package names contain dots and slashes, so neither can be the key delimiter.
const keyDelim = "::"

var manifestNames = map[string]bool{
	"library.yml":   true,
	"library.yaml":  true,
	"library.jsonc": true,
	"library.json":  true,
}

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	StateDir:       true,
}

func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to get current directory")
	}
	if root, err := git.RepoRoot(cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

// jsoncParser strips comments and trailing commas, then hands the JSON to the
// yaml parser since YAML is a superset of JSON.
type jsoncParser struct{}

func (jsoncParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	return yaml.Parser().Unmarshal(jsonc.ToJSON(b))
}

func (jsoncParser) Marshal(m map[string]interface{}) ([]byte, error) {
	return json.Marshal(m)
}

func parserFor(path string) koanf.Parser {
	switch filepath.Ext(path) {
	case ".jsonc", ".json":
		return jsoncParser{}
	}
	return yaml.Parser()
}

func loadProjectConfig(path string) (*ProjectConfig, error) {
	var project ProjectConfig

	if _, err := os.Stat(path); err == nil {
		k := koanf.New(keyDelim)
		if err = k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		if err = k.Unmarshal("", &project); err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}

	project.SetDefaults()
	return &project, nil
}

func discoverLibraries(root string, project *ProjectConfig) ([]*models.Library, error) {
	var libraries []*models.Library
	checkTracking := git.IsRepo(root)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		for _, pattern := range project.Ignore {
			if skip, _ := filepath.Match(pattern, relPath); skip {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			if checkTracking && path != root {
				tracked, err := git.IsTracked(path)
				if err != nil {
					return err
				}
				if !tracked {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if manifestNames[d.Name()] {
			lib, err := loadLibraryConfig(path, root, project)
			if err != nil {
				return err
			}
			libraries = append(libraries, lib)
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to discover libraries")
	}

	sort.Slice(libraries, func(i, j int) bool {
		return libraries[i].Name < libraries[j].Name
	})

	return libraries, nil
}

func loadLibraryConfig(path string, root string, project *ProjectConfig) (*models.Library, error) {
	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var cfg LibraryConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	cfg.SetDefaults(project.OutDir)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", path)
	}

	libDir := filepath.Dir(path)
	relPath, err := filepath.Rel(root, libDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get relative path for %s", path)
	}

	pkg, err := readPackageJSON(libDir)
	if err != nil {
		return nil, err
	}

	if cfg.Name == "" {
		cfg.Name = pkg.Name
	}
	if cfg.Name == "" {
		cfg.Name = filepath.Base(libDir)
	}

	declared, err := cfg.GetExternals()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid externals in %s", path)
	}

	externals, err := models.NewExternalDeclaration(declared...)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid externals in %s", path)
	}

	if cfg.PeerExternals {
		externals = externals.With(pkg.peerExternals()...)
	}

	return &models.Library{
		Name: cfg.Name,
		Path: relPath,
		Spec: models.LibrarySpec{
			Entry:      cfg.Entry,
			Name:       cfg.Name,
			GlobalName: cfg.GlobalName,
			Formats:    cfg.FormatIDs(),
			FileName:   cfg.FileName,
		},
		Externals: externals,
		In:        cfg.In,
		OutDir:    cfg.OutDir,
		Options: models.EmitOptions{
			Minify:    *cfg.Options.Minify,
			Sourcemap: *cfg.Options.Sourcemap,
			Platform:  cfg.Options.Platform,
		},
		Hooks: models.Hooks{
			Pre:  commandList(cfg.Hooks.Pre),
			Post: commandList(cfg.Hooks.Post),
		},
		Env: cfg.Env,
	}, nil
}

type packageJSON struct {
	Name             string            `json:"name"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

func (p packageJSON) peerExternals() []models.External {
	names := make([]string, 0, len(p.PeerDependencies))
	for name := range p.PeerDependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]models.External, len(names))
	for i, name := range names {
		result[i] = models.External{Package: name}
	}
	return result
}

func readPackageJSON(dir string) (packageJSON, error) {
	var pkg packageJSON

	path := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return pkg, nil
	}
	if err != nil {
		return pkg, errors.Wrapf(err, "failed to read %s", path)
	}

	if err = json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		return pkg, errors.Wrapf(err, "failed to parse %s", path)
	}
	return pkg, nil
}
