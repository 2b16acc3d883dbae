package exec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunCommand(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name        string
		cmd         string
		env         []string
		expected    string
		expectError bool
	}{
		{
			name:     "echo",
			cmd:      "echo hello",
			expected: "hello",
		},
		{
			name:     "environment",
			cmd:      `echo "$LIBRARY_NAME"`,
			env:      []string{"LIBRARY_NAME=zoom"},
			expected: "zoom",
		},
		{
			name:        "non-zero exit",
			cmd:         "exit 3",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			err := RunCommand(context.Background(), tt.cmd, &ShellOptions{
				Env:    tt.env,
				Stdout: &stdout,
				Stderr: &bytes.Buffer{},
			})

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, strings.TrimSpace(stdout.String()))
		})
	}
}

func TestRunCommand_WorkDir(t *testing.T) {
	requireShell(t)

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	var stdout bytes.Buffer
	require.NoError(t, RunCommand(context.Background(), "pwd", &ShellOptions{
		WorkDir: dir,
		Stdout:  &stdout,
	}))
	assert.Equal(t, dir, strings.TrimSpace(stdout.String()))
}

func TestRunCommand_Timeout(t *testing.T) {
	requireShell(t)

	err := RunCommand(context.Background(), "sleep 5", &ShellOptions{
		Timeout: 50 * time.Millisecond,
		Stdout:  &bytes.Buffer{},
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunHooks(t *testing.T) {
	requireShell(t)

	var stdout bytes.Buffer
	err := RunHooks(context.Background(), []string{"echo one", "false", "echo three"}, &ShellOptions{
		Stdout: &stdout,
		Stderr: &bytes.Buffer{},
	})

	var hookErr *HookError
	require.True(t, errors.As(err, &hookErr))
	assert.Equal(t, "false", hookErr.Command)
	assert.Equal(t, "one", strings.TrimSpace(stdout.String()))
}

func TestRunHooks_Empty(t *testing.T) {
	assert.NoError(t, RunHooks(context.Background(), nil, &ShellOptions{}))
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple string", input: "hello world", expected: "'hello world'"},
		{name: "single quote", input: "it's working", expected: "'it'\"'\"'s working'"},
		{name: "empty string", input: "", expected: "''"},
		{name: "special chars", input: "echo $HOME && ls", expected: "'echo $HOME && ls'"},
		{name: "newlines", input: "line1\nline2", expected: "'line1\nline2'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shellQuote(tt.input))
		})
	}
}

func TestShellOptions_CommandLine(t *testing.T) {
	tests := []struct {
		name     string
		opts     ShellOptions
		expected string
	}{
		{
			name:     "default shell",
			opts:     ShellOptions{},
			expected: "/bin/sh -c 'npm test'",
		},
		{
			name:     "shell with flags",
			opts:     ShellOptions{Shell: "bash  -eo pipefail"},
			expected: "bash -eo pipefail -c 'npm test'",
		},
		{
			name:     "work dir",
			opts:     ShellOptions{WorkDir: "/repo/libs/zoom"},
			expected: "/bin/sh -c 'cd '\"'\"'/repo/libs/zoom'\"'\"' && (\nnpm test\n)'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.opts.withDefaults().commandLine("npm test"))
		})
	}
}

func TestRunCommand_DoesNotModifyOptions(t *testing.T) {
	requireShell(t)

	opts := &ShellOptions{Stdout: &bytes.Buffer{}}
	require.NoError(t, RunCommand(context.Background(), "true", opts))
	assert.Empty(t, opts.Shell)
	assert.Nil(t, opts.Stderr)
}
