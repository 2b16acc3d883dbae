package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vcnkl/libpack/models"
)

// HashInputs hashes every file under libRoot matched by patterns. Paths under
// any of the exclude directories are skipped so that emitted bundles never feed
// back into the input hash.
func HashInputs(libRoot string, patterns []string, exclude []string) (string, error) {
	excluded := make([]string, 0, len(exclude))
	for _, dir := range exclude {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(libRoot, dir)
		}
		excluded = append(excluded, filepath.Clean(dir))
	}

	seen := make(map[string]bool)
	var allFiles []string

	for _, pattern := range patterns {
		fullPattern := pattern
		if !filepath.IsAbs(pattern) {
			fullPattern = filepath.Join(libRoot, pattern)
		}

		matches, err := expandGlob(fullPattern)
		if err != nil {
			return "", fmt.Errorf("failed to expand glob pattern %s: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || isExcluded(m, excluded) {
				continue
			}
			seen[m] = true
			allFiles = append(allFiles, m)
		}
	}

	sort.Strings(allFiles)

	h := sha256.New()
	for _, file := range allFiles {
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}

		fileHash, err := HashFile(file)
		if err != nil {
			return "", err
		}

		rel, err := filepath.Rel(libRoot, file)
		if err != nil {
			rel = file
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write([]byte{0})
		h.Write([]byte(fileHash))
	}

	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

func isExcluded(path string, excluded []string) bool {
	for _, dir := range excluded {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "node_modules" || part == ".git" {
			return true
		}
	}
	return false
}

func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return expandDoubleStarGlob(pattern)
	}
	return filepath.Glob(pattern)
}

func expandDoubleStarGlob(pattern string) ([]string, error) {
	parts := strings.SplitN(pattern, "**", 2)

	baseDir := strings.TrimSuffix(parts[0], string(filepath.Separator))
	if baseDir == "" {
		baseDir = "."
	}
	suffix := strings.TrimPrefix(parts[1], string(filepath.Separator))

	var matches []string
	err := filepath.WalkDir(baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		if suffix == "" {
			matches = append(matches, path)
			return nil
		}

		matched, err := filepath.Match(suffix, filepath.Base(path))
		if err != nil {
			return nil
		}
		if matched {
			matches = append(matches, path)
		}

		return nil
	})

	return matches, err
}

func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err = io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type fingerprint struct {
	Target  models.BuildTarget `json:"target"`
	Options models.EmitOptions `json:"options"`
	Entry   string             `json:"entry"`
}

// HashTarget fingerprints everything about a target that changes its output
// other than the source files themselves.
func HashTarget(target models.BuildTarget, entry string, options models.EmitOptions) (string, error) {
	data, err := json.Marshal(fingerprint{Target: target, Options: options, Entry: entry})
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint target %s: %w", target.ID(), err)
	}
	return "sha256:" + HashBytes(data), nil
}
