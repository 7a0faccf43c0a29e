package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/drivercheck/internal/config"
	"github.com/ppiankov/drivercheck/internal/reporter"
	"github.com/ppiankov/drivercheck/internal/runner"
	"github.com/ppiankov/drivercheck/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var paths []string

	cmd := &cobra.Command{
		Use:   "watch [identifier]",
		Short: "Re-run the pipeline whenever sources change",
		Long:  "Watch runs the pipeline once, then again after every burst of changes under the watched paths. Stop with ctrl-c.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}
			if len(paths) > 0 {
				settings.Watch = paths
			}
			return runWatch(cmd, settings, identifierFromArgs(args, settings.DefaultID))
		},
	}

	cmd.Flags().StringSliceVar(&paths, "path", nil, "directory to watch, repeatable (default from config: src, tests)")

	return cmd
}

func runWatch(cmd *cobra.Command, settings *config.Settings, id string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := reporter.NewTextReporter(cmd.OutOrStdout(), useColor(cmd))
	r := newRunner(cmd, settings, rep)

	runs := 0
	var fatal error
	runOnce := func(ctx context.Context, trigger string) {
		runs++
		rep.PrintWatchHeader(runs, trigger)
		report, err := r.Run(ctx, id)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			// a held lock only skips this round; anything else ends the watch
			if errors.Is(err, runner.ErrLocked) {
				slog.Warn("skipping run", "error", err)
				return
			}
			fatal = err
			stop()
			return
		}
		rep.PrintWatchResult(report)
	}

	w, err := watch.New(watch.Config{
		Root:     settings.Dir,
		Paths:    settings.Watch,
		Ignore:   []string{settings.Output, runner.LockFileName},
		SkipDirs: []string{settings.BuildDir},
		Debounce: settings.Debounce,
	}, runOnce)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	runOnce(ctx, "")
	if fatal != nil {
		return fatal
	}

	rep.PrintWatching(settings.Watch)
	if err := w.Run(ctx); err != nil {
		return err
	}
	return fatal
}
