package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/drivercheck/internal/config"
)

// ErrCleanup is returned when a stale output artifact cannot be removed.
var ErrCleanup = errors.New("remove stale output")

// Echoer prints a command before it runs.
type Echoer interface {
	Echo(cmd string)
}

// Runner drives one build → cleanup → execute → compare cycle.
type Runner struct {
	settings *config.Settings
	exec     Executor
	echo     Echoer
}

// New creates a Runner. echo may be nil.
func New(s *config.Settings, exec Executor, echo Echoer) *Runner {
	return &Runner{settings: s, exec: exec, echo: echo}
}

// Plan returns the commands a successful run of id would echo, in order.
func (r *Runner) Plan(id string) []Command {
	return []Command{
		BuildCommand(r.settings),
		ExecuteCommand(r.settings, id),
		CompareCommand(r.settings, id),
	}
}

// Run executes the pipeline for id. A failing build or driver ends the run
// early and is reported through the returned Report, not as an error.
// Errors are reserved for conditions that abort the run: an output artifact
// that cannot be removed, a held lock, or a cancelled context.
func (r *Runner) Run(ctx context.Context, id string) (*Report, error) {
	s := r.settings
	report := &Report{
		RunID:      uuid.NewString()[:8],
		Identifier: id,
		Reference:  ReferencePath(s, id),
		StartedAt:  time.Now(),
	}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	if s.Lock {
		if err := Acquire(s.Dir, lockOwner(report)); err != nil {
			return report, err
		}
		defer Release(s.Dir)
	}

	slog.Debug("pipeline start", "run_id", report.RunID, "identifier", id, "reference", report.Reference)

	if res := r.step(ctx, report, BuildCommand(s), true); !res.OK() {
		report.Outcome = OutcomeBuildFailed
		return report, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	removed, err := removeStale(r.outputPath())
	if err != nil {
		return report, err
	}
	report.StaleRemoved = removed

	if res := r.step(ctx, report, ExecuteCommand(s, id), true); !res.OK() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r.step(ctx, report, ViewCommand(s), false)
		report.Outcome = OutcomeExecFailed
		return report, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	r.step(ctx, report, CompareCommand(s, id), true)
	report.Outcome = OutcomeCompared

	slog.Debug("pipeline done", "run_id", report.RunID, "outcome", report.Outcome)
	return report, ctx.Err()
}

func (r *Runner) step(ctx context.Context, report *Report, c Command, echo bool) Result {
	if echo && r.echo != nil {
		r.echo.Echo(c.String())
	}

	res := r.exec.Exec(ctx, c)
	report.record(c, res)

	if res.Err != nil {
		slog.Warn("stage could not run", "stage", c.Stage, "error", res.Err)
	} else {
		slog.Debug("stage finished", "stage", c.Stage, "exit_code", res.ExitCode, "duration", res.Duration)
	}
	return res
}

func (r *Runner) outputPath() string {
	if filepath.IsAbs(r.settings.Output) {
		return r.settings.Output
	}
	return filepath.Join(r.settings.Dir, r.settings.Output)
}

// removeStale deletes path if present and reports whether it existed.
func removeStale(path string) (bool, error) {
	err := os.Remove(path)
	switch {
	case err == nil:
		slog.Debug("removed stale output", "path", path)
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w %s: %v", ErrCleanup, path, err)
	}
}
