package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/drivercheck/internal/runner"
)

// TextReporter writes command echoes and watch-mode status lines.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a text reporter.
// If w is nil, defaults to os.Stdout.
// Without color, echoes are the bare command line.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color}
}

// Echo prints a command line before it runs.
func (r *TextReporter) Echo(cmd string) {
	if !r.color {
		fmt.Fprintln(r.w, cmd)
		return
	}
	fmt.Fprintln(r.w, r.style(promptStyle, "$ ")+r.style(cmdStyle, cmd))
}

// PrintDryRun lists the commands a run would execute without running them.
func (r *TextReporter) PrintDryRun(id string, cmds []runner.Command) {
	fmt.Fprintf(r.w, "%s\n", r.style(dimStyle, fmt.Sprintf("dry run, identifier %q", id)))
	for _, c := range cmds {
		fmt.Fprintf(r.w, "  %-8s %s\n", c.Stage, c.String())
	}
}

// PrintWatchHeader marks the start of a re-run in watch mode.
func (r *TextReporter) PrintWatchHeader(n int, trigger string) {
	line := fmt.Sprintf("── run %d", n)
	if trigger != "" {
		line += fmt.Sprintf(" (%s changed)", trigger)
	}
	fmt.Fprintf(r.w, "\n%s\n", r.style(dimStyle, line))
}

// PrintWatchResult writes a one-line verdict after a run in watch mode.
func (r *TextReporter) PrintWatchResult(rep *runner.Report) {
	dur := rep.Duration.Truncate(time.Millisecond)
	switch rep.Outcome {
	case runner.OutcomeBuildFailed:
		fmt.Fprintf(r.w, "%s  %s\n", r.style(failedStyle, "✗ build failed"), dur)
	case runner.OutcomeExecFailed:
		code := 0
		if st := rep.Stage(runner.StageExecute); st != nil {
			code = st.ExitCode
		}
		fmt.Fprintf(r.w, "%s  %s\n", r.style(failedStyle, fmt.Sprintf("✗ driver exited %d", code)), dur)
	case runner.OutcomeCompared:
		st := rep.Stage(runner.StageCompare)
		if st != nil && st.OK {
			fmt.Fprintf(r.w, "%s  %s\n", r.style(doneStyle, "✓ compared against "+rep.Reference), dur)
		} else {
			fmt.Fprintf(r.w, "%s  %s\n", r.style(warnStyle, "≠ differs from "+rep.Reference), dur)
		}
	default:
		fmt.Fprintf(r.w, "%s\n", r.style(warnStyle, "run interrupted"))
	}
}

// PrintWatching tells the user which paths trigger a re-run.
func (r *TextReporter) PrintWatching(paths []string) {
	fmt.Fprintf(r.w, "%s\n", r.style(dimStyle, "watching "+strings.Join(paths, ", ")+" (ctrl-c to stop)"))
}

func (r *TextReporter) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}
