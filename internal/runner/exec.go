package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Result is the outcome of one delegated process.
type Result struct {
	ExitCode int
	Duration time.Duration

	// Err is set when the process could not be started or its stdout file
	// could not be opened. ExitCode is -1 in that case.
	Err error
}

// OK reports whether the process ran and exited zero.
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Executor runs a command to completion and reports its exit status.
type Executor interface {
	Exec(ctx context.Context, c Command) Result
}

// ProcessExecutor runs commands as child processes of this one.
type ProcessExecutor struct {
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewProcessExecutor creates an executor rooted at dir that inherits the
// terminal's standard streams.
func NewProcessExecutor(dir string) *ProcessExecutor {
	return &ProcessExecutor{
		Dir:    dir,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Exec runs c and blocks until it exits or ctx is cancelled.
func (e *ProcessExecutor) Exec(ctx context.Context, c Command) Result {
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = e.Dir
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if c.Group {
		setupProcessGroup(cmd)
	}

	if c.Stdout != "" {
		f, err := os.Create(e.path(c.Stdout))
		if err != nil {
			return Result{ExitCode: -1, Duration: time.Since(start), Err: fmt.Errorf("open %s: %w", c.Stdout, err)}
		}
		defer func() { _ = f.Close() }()
		cmd.Stdout = f
	}

	slog.Debug("spawning", "stage", c.Stage, "cmd", c.String(), "dir", e.Dir)

	err := cmd.Run()
	res := Result{Duration: time.Since(start)}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Err = fmt.Errorf("%s: %w", c.Name, err)
	}

	return res
}

func (e *ProcessExecutor) path(p string) string {
	if e.Dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.Dir, p)
}
