package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ppiankov/drivercheck/internal/config"
)

// Version, Commit and BuildDate are set via LDFLAGS at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	verbose    bool
	noColor    bool
	configFile string
)

func NewRootCmd() *cobra.Command {
	root := newRunCmd()
	root.Use = "drivercheck [identifier]"
	root.Short = "Build, run and diff one driver scenario"
	root.Long = `drivercheck rebuilds the project, runs the driver with the given identifier,
captures its output and diffs it against the expected output for that identifier.
The identifier defaults to 0. Identifiers that start with a dash must follow --:

  drivercheck -- -5`
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "print commands without styling")
	root.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "path to config file")

	// explicit form for identifiers that collide with a subcommand name
	run := newRunCmd()
	run.Short = "Run the pipeline (same as the root command)"
	root.AddCommand(run)
	root.AddCommand(newWatchCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func useColor(cmd *cobra.Command) bool {
	return !noColor && cmd.OutOrStdout() == os.Stdout && isTerminal()
}
