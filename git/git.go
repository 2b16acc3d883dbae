package git

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// RepoRoot returns the top level of the git work tree containing dir.
func RepoRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", errors.Wrapf(err, "%s is not inside a git work tree", dir)
	}
	return strings.TrimSpace(string(output)), nil
}

func IsRepo(dir string) bool {
	_, err := RepoRoot(dir)
	return err == nil
}

func IsTracked(path string) (bool, error) {
	cmd := exec.Command("git", "ls-files", "--error-unmatch", filepath.Base(path))
	cmd.Dir = filepath.Dir(path)
	err := cmd.Run()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to check git tracking for %s", path)
	}
	return true, nil
}

// GetChangedFiles lists modified, staged and untracked files as absolute paths.
func GetChangedFiles(repoRoot string) ([]string, error) {
	var combined strings.Builder

	for _, args := range [][]string{
		{"diff", "--name-only", "HEAD"},
		{"diff", "--name-only", "--cached"},
		{"ls-files", "--others", "--exclude-standard"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = repoRoot
		output, err := cmd.Output()
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
				return nil, errors.Wrapf(err, "git %s", strings.Join(args, " "))
			}
		}
		combined.Write(output)
		combined.WriteByte('\n')
	}

	seen := make(map[string]bool)
	var files []string

	for _, line := range strings.Split(combined.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(repoRoot, line)
		if !seen[absPath] {
			seen[absPath] = true
			files = append(files, absPath)
		}
	}

	return files, nil
}
