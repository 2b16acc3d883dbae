package exec

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bitfield/script"
)

const DefaultShell = "/bin/sh"

type ShellOptions struct {
	WorkDir string
	Env     []string
	Shell   string
	Stdout  io.Writer
	Stderr  io.Writer
	Timeout time.Duration
}

// withDefaults returns a copy of opts with the shell and output streams set.
func (opts ShellOptions) withDefaults() ShellOptions {
	if strings.TrimSpace(opts.Shell) == "" {
		opts.Shell = DefaultShell
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return opts
}

// commandLine wraps cmd in `<shell> -c`, changing into WorkDir first.
func (opts ShellOptions) commandLine(cmd string) string {
	if opts.WorkDir != "" {
		cmd = fmt.Sprintf("cd %s && (\n%s\n)", shellQuote(opts.WorkDir), cmd)
	}
	return strings.Join(strings.Fields(opts.Shell), " ") + " -c " + shellQuote(cmd)
}

// RunCommand runs cmd through the configured shell. It returns ctx.Err() as
// soon as ctx is done, without waiting for the command.
func RunCommand(ctx context.Context, cmd string, opts *ShellOptions) error {
	o := ShellOptions{}
	if opts != nil {
		o = *opts
	}
	o = o.withDefaults()

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		p := script.NewPipe().
			WithEnv(o.Env).
			Exec(o.commandLine(cmd)).
			WithStdout(o.Stdout).
			WithStderr(o.Stderr)

		_, err := p.Stdout()
		if status := p.ExitStatus(); err == nil && status != 0 {
			err = fmt.Errorf("command exited with status %d", status)
		}
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// RunHooks runs commands in order and stops at the first failure.
func RunHooks(ctx context.Context, commands []string, opts *ShellOptions) error {
	for _, cmd := range commands {
		if err := RunCommand(ctx, cmd, opts); err != nil {
			return &HookError{Command: cmd, Err: err}
		}
	}
	return nil
}

type HookError struct {
	Command string
	Err     error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook %q failed: %v", e.Command, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
