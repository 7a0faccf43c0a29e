package runner

import (
	"strings"

	"github.com/ppiankov/drivercheck/internal/config"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageBuild   Stage = "build"
	StageExecute Stage = "execute"
	StageView    Stage = "view"
	StageCompare Stage = "compare"
)

// Command is a delegated process invocation.
type Command struct {
	Stage Stage
	Name  string
	Args  []string

	// Stdout, when set, is a path (relative to the working dir) that receives
	// the process's standard output. The file is truncated first.
	Stdout string

	// Group runs the process in its own process group so that cancellation
	// also reaps its children. Left off for tools that page to the terminal.
	Group bool
}

// String renders the command the way a shell user would type it.
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	for _, a := range c.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	if c.Stdout != "" {
		b.WriteString(" > ")
		b.WriteString(c.Stdout)
	}
	return b.String()
}

// BuildCommand returns "<build_tool> -C<build_dir>".
func BuildCommand(s *config.Settings) Command {
	return Command{
		Stage: StageBuild,
		Name:  s.BuildTool,
		Args:  []string{"-C" + s.BuildDir},
		Group: true,
	}
}

// ExecuteCommand runs the driver with id as its only argument, capturing
// stdout into the output artifact.
func ExecuteCommand(s *config.Settings, id string) Command {
	return Command{
		Stage:  StageExecute,
		Name:   s.Driver,
		Args:   []string{id},
		Stdout: s.Output,
		Group:  true,
	}
}

// ViewCommand shows the output artifact highlighted as a log.
func ViewCommand(s *config.Settings) Command {
	args := append([]string{s.Output}, s.ViewerArgs...)
	return Command{
		Stage: StageView,
		Name:  s.Viewer,
		Args:  args,
	}
}

// CompareCommand diffs the output artifact against the reference for id.
func CompareCommand(s *config.Settings, id string) Command {
	return Command{
		Stage: StageCompare,
		Name:  s.DiffTool,
		Args:  []string{s.Output, ReferencePath(s, id)},
	}
}

// ReferencePath selects the expected-output file for id: the default
// reference for the reference identifier ("0" unless configured), the
// templated path otherwise. The default identifier plays no part.
func ReferencePath(s *config.Settings, id string) string {
	if id == s.ReferenceID {
		return s.DefaultReference
	}
	return strings.ReplaceAll(s.ReferencePattern, config.IDPlaceholder, id)
}
