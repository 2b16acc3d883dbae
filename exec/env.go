package exec

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vcnkl/libpack/models"
)

// ComposeEnv builds the environment hooks run with. Later sources win: the
// process environment, project env, the libpack variables, library env and
// finally the library's .env file.
func ComposeEnv(projectRoot string, projectEnv map[string]string, lib *models.Library) []string {
	env := os.Environ()

	for k, v := range projectEnv {
		env = append(env, k+"="+v)
	}

	libRoot := lib.Root(projectRoot)
	env = append(env,
		"PROJECT_ROOT="+projectRoot,
		"LIBRARY_ROOT="+libRoot,
		"LIBRARY_NAME="+lib.Name,
		"OUT_DIR="+lib.OutputDir(projectRoot),
	)

	for k, v := range lib.Env {
		env = append(env, k+"="+v)
	}

	if dotenvVars, err := LoadDotenv(filepath.Join(libRoot, ".env")); err == nil {
		for k, v := range dotenvVars {
			env = append(env, k+"="+v)
		}
	}

	return MergeEnv(env, nil)
}

func LoadDotenv(path string) (map[string]string, error) {
	return godotenv.Read(path)
}

// MergeEnv flattens KEY=VALUE lists, the last occurrence of a key winning.
// The result is sorted by key.
func MergeEnv(base, override []string) []string {
	envMap := make(map[string]string)

	for _, list := range [][]string{base, override} {
		for _, e := range list {
			idx := strings.Index(e, "=")
			if idx != -1 {
				envMap[e[:idx]] = e[idx+1:]
			}
		}
	}

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, k+"="+envMap[k])
	}

	return result
}
