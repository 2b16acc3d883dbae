package hashing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnkl/libpack/models"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0644))
	}
}

func TestHashFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "simple file", content: "export default 1"},
		{name: "empty file", content: ""},
		{name: "binary content", content: "\x00\x01\x02\x03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(t.TempDir(), "index.js")
			require.NoError(t, os.WriteFile(filePath, []byte(tt.content), 0644))

			hash, err := HashFile(filePath)
			require.NoError(t, err)
			assert.Len(t, hash, 64)
			assert.Equal(t, HashBytes([]byte(tt.content)), hash)
		})
	}
}

func TestHashFile_NonExistent(t *testing.T) {
	_, err := HashFile("/nonexistent/path/index.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}

func TestHashInputs(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		patterns []string
	}{
		{
			name:     "single file",
			files:    map[string]string{"src/index.js": "export {}"},
			patterns: []string{"src/index.js"},
		},
		{
			name:     "glob",
			files:    map[string]string{"src/a.js": "a", "src/b.js": "b"},
			patterns: []string{"src/*.js"},
		},
		{
			name:     "double star",
			files:    map[string]string{"src/a/a.ts": "a", "src/b/b.ts": "b"},
			patterns: []string{"src/**/*.ts"},
		},
		{
			name:     "no patterns",
			files:    map[string]string{},
			patterns: []string{},
		},
		{
			name:     "no matches",
			files:    map[string]string{"src/index.js": "x"},
			patterns: []string{"lib/*.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFiles(t, root, tt.files)

			hash, err := HashInputs(root, tt.patterns, nil)
			require.NoError(t, err)
			assert.Contains(t, hash, "sha256:")

			again, err := HashInputs(root, tt.patterns, nil)
			require.NoError(t, err)
			assert.Equal(t, hash, again)
		})
	}
}

func TestHashInputs_ChangesOnModification(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/index.js": "v1"})

	hash1, err := HashInputs(root, []string{"**"}, nil)
	require.NoError(t, err)

	writeFiles(t, root, map[string]string{"src/index.js": "v2"})

	hash2, err := HashInputs(root, []string{"**"}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestHashInputs_ChangesOnRename(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/a.js": "same"})
	hash1, err := HashInputs(root, []string{"**"}, nil)
	require.NoError(t, err)

	require.NoError(t, os.Rename(filepath.Join(root, "src/a.js"), filepath.Join(root, "src/b.js")))
	hash2, err := HashInputs(root, []string{"**"}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestHashInputs_ExcludesOutputs(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/index.js": "source"})

	before, err := HashInputs(root, []string{"**"}, []string{"dist"})
	require.NoError(t, err)

	writeFiles(t, root, map[string]string{
		"dist/lib.umd.js":             "bundle",
		"node_modules/vue/index.js":   "vendor",
		"src/node_modules/x/index.js": "vendor",
	})

	after, err := HashInputs(root, []string{"**"}, []string{"dist"})
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestExpandDoubleStarGlob(t *testing.T) {
	tests := []struct {
		name          string
		files         []string
		pattern       string
		expectedCount int
	}{
		{
			name:          "match all js files recursively",
			files:         []string{"a.js", "pkg/b.js", "pkg/sub/c.js"},
			pattern:       "**/*.js",
			expectedCount: 3,
		},
		{
			name:          "match all files",
			files:         []string{"a.js", "b.css", "pkg/c.js"},
			pattern:       "**",
			expectedCount: 3,
		},
		{
			name:          "no matches",
			files:         []string{"a.js"},
			pattern:       "**/*.vue",
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for _, file := range tt.files {
				writeFiles(t, root, map[string]string{file: "content"})
			}

			matches, err := expandDoubleStarGlob(filepath.Join(root, tt.pattern))
			require.NoError(t, err)
			assert.Len(t, matches, tt.expectedCount)
		})
	}
}

func TestHashTarget(t *testing.T) {
	target := models.BuildTarget{
		Library:    "zoom",
		Format:     models.FormatUMD,
		Wrapping:   models.WrapUMD,
		FileName:   "zoom.umd.js",
		GlobalName: "zoom",
		Globals:    map[string]string{"vue": "Vue"},
		Externals:  []string{"vue"},
	}
	options := models.EmitOptions{Platform: "browser"}

	base, err := HashTarget(target, "src/index.js", options)
	require.NoError(t, err)
	assert.Contains(t, base, "sha256:")

	same, err := HashTarget(target, "src/index.js", options)
	require.NoError(t, err)
	assert.Equal(t, base, same)

	changedGlobals := target
	changedGlobals.Globals = map[string]string{"vue": "VueNext"}
	other, err := HashTarget(changedGlobals, "src/index.js", options)
	require.NoError(t, err)
	assert.NotEqual(t, base, other)

	minified := options
	minified.Minify = true
	other, err = HashTarget(target, "src/index.js", minified)
	require.NoError(t, err)
	assert.NotEqual(t, base, other)
}
