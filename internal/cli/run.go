package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/drivercheck/internal/config"
	"github.com/ppiankov/drivercheck/internal/reporter"
	"github.com/ppiankov/drivercheck/internal/runner"
)

func newRunCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run [identifier]",
		Short: "Build, run the driver and diff its output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}
			id := identifierFromArgs(args, settings.DefaultID)
			rep := reporter.NewTextReporter(cmd.OutOrStdout(), useColor(cmd))

			if dryRun {
				rep.PrintDryRun(id, runner.New(settings, nil, nil).Plan(id))
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = newRunner(cmd, settings, rep).Run(ctx, id)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the commands without running them")

	return cmd
}

// identifierFromArgs returns the single positional argument, or def when
// none was given. The argument is used as-is.
func identifierFromArgs(args []string, def string) string {
	if len(args) == 0 {
		return def
	}
	return args[0]
}

func newRunner(cmd *cobra.Command, settings *config.Settings, echo runner.Echoer) *runner.Runner {
	exec := runner.NewProcessExecutor(settings.Dir)
	exec.Stdout = cmd.OutOrStdout()
	exec.Stderr = cmd.ErrOrStderr()
	exec.Stdin = cmd.InOrStdin()
	return runner.New(settings, exec, echo)
}
