package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnkl/libpack/models"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestProjectConfig_SetDefaults(t *testing.T) {
	tests := []struct {
		name     string
		initial  ProjectConfig
		expected ProjectConfig
	}{
		{
			name:    "all defaults",
			initial: ProjectConfig{},
			expected: ProjectConfig{
				Shell:  "/bin/sh",
				Env:    map[string]string{},
				OutDir: "dist",
				Ignore: []string{},
			},
		},
		{
			name: "preserves existing values",
			initial: ProjectConfig{
				Shell:  "/bin/bash",
				Env:    map[string]string{"NODE_ENV": "production"},
				OutDir: "build",
				Ignore: []string{"examples"},
			},
			expected: ProjectConfig{
				Shell:  "/bin/bash",
				Env:    map[string]string{"NODE_ENV": "production"},
				OutDir: "build",
				Ignore: []string{"examples"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			cfg.SetDefaults()
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestProjectConfig_Registry(t *testing.T) {
	tests := []struct {
		name        string
		formats     []FormatConfig
		expectedIDs []models.FormatID
		expectError bool
	}{
		{
			name:        "builtins only",
			expectedIDs: []models.FormatID{"esm", "cjs", "umd", "iife"},
		},
		{
			name:        "extra alias",
			formats:     []FormatConfig{{ID: "es", Wrapping: "esm"}},
			expectedIDs: []models.FormatID{"esm", "cjs", "umd", "iife", "es"},
		},
		{
			name:        "unknown wrapping",
			formats:     []FormatConfig{{ID: "amd", Wrapping: "amd"}},
			expectError: true,
		},
		{
			name:        "redefines builtin",
			formats:     []FormatConfig{{ID: "umd", Wrapping: "iife"}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ProjectConfig{Formats: tt.formats}
			registry, err := cfg.Registry()
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedIDs, registry.IDs())
		})
	}
}

func TestLibraryConfig_SetDefaults(t *testing.T) {
	tests := []struct {
		name     string
		initial  LibraryConfig
		validate func(t *testing.T, cfg LibraryConfig)
	}{
		{
			name:    "all defaults",
			initial: LibraryConfig{Entry: "src/index.js"},
			validate: func(t *testing.T, cfg LibraryConfig) {
				assert.Equal(t, []string{"esm", "umd"}, cfg.Formats)
				assert.Equal(t, "dist", cfg.OutDir)
				assert.Equal(t, []string{"**"}, cfg.In)
				assert.NotNil(t, cfg.Env)
				require.NotNil(t, cfg.Options.Minify)
				assert.False(t, *cfg.Options.Minify)
				require.NotNil(t, cfg.Options.Sourcemap)
				assert.False(t, *cfg.Options.Sourcemap)
				assert.Equal(t, "browser", cfg.Options.Platform)
			},
		},
		{
			name: "preserves existing values",
			initial: func() LibraryConfig {
				minify := true
				return LibraryConfig{
					Formats: []string{"cjs"},
					OutDir:  "lib",
					In:      []string{"src/**"},
					Options: OptionsConfig{Minify: &minify, Platform: "node"},
				}
			}(),
			validate: func(t *testing.T, cfg LibraryConfig) {
				assert.Equal(t, []string{"cjs"}, cfg.Formats)
				assert.Equal(t, "lib", cfg.OutDir)
				assert.Equal(t, []string{"src/**"}, cfg.In)
				assert.True(t, *cfg.Options.Minify)
				assert.Equal(t, "node", cfg.Options.Platform)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			cfg.SetDefaults("dist")
			tt.validate(t, cfg)
		})
	}
}

func TestLibraryConfig_Validate(t *testing.T) {
	for _, platform := range []string{"browser", "node", "neutral"} {
		cfg := LibraryConfig{Options: OptionsConfig{Platform: platform}}
		assert.NoError(t, cfg.Validate(), platform)
	}

	cfg := LibraryConfig{Options: OptionsConfig{Platform: "deno"}}
	assert.Error(t, cfg.Validate())
}

func TestLibraryConfig_GetExternals(t *testing.T) {
	tests := []struct {
		name        string
		externals   interface{}
		expected    []models.External
		expectError bool
	}{
		{
			name:      "nil",
			externals: nil,
			expected:  nil,
		},
		{
			name:      "map of globals",
			externals: map[string]interface{}{"vue": "Vue"},
			expected:  []models.External{{Package: "vue", Global: "Vue"}},
		},
		{
			name:      "map with missing global",
			externals: map[string]interface{}{"vue": nil},
			expected:  []models.External{{Package: "vue"}},
		},
		{
			name:      "list of names",
			externals: []interface{}{"vue", "lodash"},
			expected:  []models.External{{Package: "vue"}, {Package: "lodash"}},
		},
		{
			name: "list of objects",
			externals: []interface{}{
				map[string]interface{}{"name": "vue", "global": "Vue"},
			},
			expected: []models.External{{Package: "vue", Global: "Vue"}},
		},
		{
			name:      "string slice",
			externals: []string{"react"},
			expected:  []models.External{{Package: "react"}},
		},
		{
			name:        "non-string global",
			externals:   map[string]interface{}{"vue": 42},
			expectError: true,
		},
		{
			name:        "scalar",
			externals:   "vue",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LibraryConfig{Externals: tt.externals}
			result, err := cfg.GetExternals()
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.expected, result)
		})
	}
}

func TestCommandList(t *testing.T) {
	tests := []struct {
		name     string
		cmd      interface{}
		expected []string
	}{
		{name: "string", cmd: "npm run lint", expected: []string{"npm run lint"}},
		{name: "interface slice", cmd: []interface{}{"a", "b"}, expected: []string{"a", "b"}},
		{name: "string slice", cmd: []string{"a"}, expected: []string{"a"}},
		{name: "blank", cmd: "  ", expected: nil},
		{name: "nil", cmd: nil, expected: nil},
		{name: "int", cmd: 42, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, commandList(tt.cmd))
		})
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "libpack.yml"), `
out_dir: build
env:
  NODE_ENV: production
formats:
  - id: es
    wrapping: esm
`)
	writeFile(t, filepath.Join(root, "packages", "zoom", "library.yml"), `
name: vuejs-image-zoom
entry: src/index.js
formats: [es, umd]
externals:
  vue: Vue
  lodash.debounce: debounce
hooks:
  pre: npm run lint
`)
	writeFile(t, filepath.Join(root, "packages", "utils", "library.jsonc"), `{
  // comments are allowed
  "entry": "index.ts",
  "formats": ["esm", "cjs"],
  "peer_externals": true,
  "options": {"minify": true, "platform": "node"},
}`)
	writeFile(t, filepath.Join(root, "packages", "utils", "package.json"), `{
  "name": "@acme/utils",
  "peerDependencies": {"react": "^18.0.0"}
}`)
	writeFile(t, filepath.Join(root, "node_modules", "dep", "library.yml"), "entry: index.js\n")

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root())
	assert.Equal(t, filepath.Join(root, ".libpack", "builds.json"), cfg.BuildsPath())
	assert.Equal(t, filepath.Join(root, ".libpack", "targets.json"), cfg.ManifestPath())
	assert.Equal(t, []models.FormatID{"esm", "cjs", "umd", "iife", "es"}, cfg.Registry().IDs())

	libs := cfg.Libraries()
	require.Len(t, libs, 2)
	assert.Equal(t, "@acme/utils", libs[0].Name)
	assert.Equal(t, "vuejs-image-zoom", libs[1].Name)

	zoom, ok := cfg.Library("vuejs-image-zoom")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("packages", "zoom"), zoom.Path)
	assert.Equal(t, "src/index.js", zoom.Spec.Entry)
	assert.Equal(t, []models.FormatID{"es", "umd"}, zoom.Spec.Formats)
	assert.Equal(t, "build", zoom.OutDir)
	assert.Equal(t, []string{"npm run lint"}, zoom.Hooks.Pre)
	assert.Equal(t, []models.External{
		{Package: "lodash.debounce", Global: "debounce"},
		{Package: "vue", Global: "Vue"},
	}, zoom.Externals.Externals())

	utils, ok := cfg.Library("@acme/utils")
	require.True(t, ok)
	assert.Equal(t, []models.FormatID{"esm", "cjs"}, utils.Spec.Formats)
	assert.True(t, utils.Options.Minify)
	assert.Equal(t, "node", utils.Options.Platform)
	assert.Equal(t, []string{"react"}, utils.Externals.Packages())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{
			name: "duplicate library names",
			files: map[string]string{
				"a/library.yml": "name: dup\nentry: index.js\n",
				"b/library.yml": "name: dup\nentry: index.js\n",
			},
		},
		{
			name: "duplicate external",
			files: map[string]string{
				"a/library.yml": "entry: index.js\nexternals: [vue, vue]\n",
			},
		},
		{
			name: "unknown platform",
			files: map[string]string{
				"a/library.yml": "entry: index.js\noptions:\n  platform: deno\n",
			},
		},
		{
			name: "invalid project formats",
			files: map[string]string{
				"libpack.yml": "formats:\n  - id: x\n    wrapping: amd\n",
			},
		},
		{
			name: "malformed yaml",
			files: map[string]string{
				"a/library.yml": "entry: [\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for path, content := range tt.files {
				writeFile(t, filepath.Join(root, path), content)
			}
			_, err := Load(root, "")
			assert.Error(t, err)
		})
	}
}

func TestLoad_IgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "libpack.yml"), "ignore: [examples]\n")
	writeFile(t, filepath.Join(root, "examples", "library.yml"), "entry: index.js\n")
	writeFile(t, filepath.Join(root, "lib", "library.yml"), "entry: index.js\n")

	cfg, err := Load(root, "")
	require.NoError(t, err)

	libs := cfg.Libraries()
	require.Len(t, libs, 1)
	assert.Equal(t, "lib", libs[0].Name)
}

func TestConfig_SelectLibraries(t *testing.T) {
	cfg := &Config{libraries: map[string]*models.Library{
		"core":  {Name: "core", Path: "packages/core"},
		"utils": {Name: "utils", Path: "packages/utils"},
	}}

	tests := []struct {
		name        string
		names       []string
		expected    []string
		expectError bool
	}{
		{name: "all", names: nil, expected: []string{"core", "utils"}},
		{name: "one", names: []string{"utils"}, expected: []string{"utils"}},
		{name: "deduplicated", names: []string{"utils", "utils", "core"}, expected: []string{"utils", "core"}},
		{name: "unknown", names: []string{"missing"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			libs, err := cfg.SelectLibraries(tt.names)
			if tt.expectError {
				var notFound *LibraryNotFoundError
				assert.True(t, errors.As(err, &notFound))
				return
			}
			require.NoError(t, err)

			names := make([]string, len(libs))
			for i, lib := range libs {
				names[i] = lib.Name
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestConfig_SelectAffected(t *testing.T) {
	cfg := &Config{libraries: map[string]*models.Library{
		"core":    {Name: "core", Path: "packages/core"},
		"core-ui": {Name: "core-ui", Path: "packages/core-ui"},
	}}

	tests := []struct {
		name     string
		changed  []string
		expected []string
	}{
		{name: "nothing changed", changed: nil, expected: nil},
		{name: "inside library", changed: []string{"packages/core/src/index.js"}, expected: []string{"core"}},
		{name: "prefix is not ownership", changed: []string{"packages/core-ui/a.js"}, expected: []string{"core-ui"}},
		{name: "outside every library", changed: []string{"README.md"}, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var names []string
			for _, lib := range cfg.SelectAffected(tt.changed) {
				names = append(names, lib.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestConfig_Reload(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "libpack.yml"), "out_dir: dist\n")
	manifest := filepath.Join(root, "zoom", "library.yml")
	writeFile(t, manifest, "name: zoom\nentry: index.js\nformats: [esm]\n")

	cfg, err := Load(root, "")
	require.NoError(t, err)

	writeFile(t, manifest, "name: zoom\nentry: index.js\nformats: [esm, cjs]\n")
	reloaded, err := cfg.Reload()
	require.NoError(t, err)

	zoom, ok := reloaded.Library("zoom")
	require.True(t, ok)
	assert.Equal(t, []models.FormatID{"esm", "cjs"}, zoom.Spec.Formats)

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{name: "project file", path: filepath.Join(root, "libpack.yml"), expected: true},
		{name: "yaml manifest", path: manifest, expected: true},
		{name: "jsonc manifest", path: filepath.Join(root, "utils", "library.jsonc"), expected: true},
		{name: "source file", path: filepath.Join(root, "zoom", "index.js"), expected: false},
		{name: "nested project file name", path: filepath.Join(root, "zoom", "libpack.yml"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cfg.IsManifest(tt.path))
		})
	}
}
