package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/adexit/internal/exitconfig"
	"github.com/hupe1980/adexit/internal/logging"
	"github.com/hupe1980/adexit/internal/watch"
)

type watchOptions struct {
	debounce time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <config>",
		Short: "Re-validate an exit config on every change",
		Long: `Watch validates an exit config once and then again every time the
file changes, printing one status line per run. File changes are
debounced so that editors writing in several steps trigger a single run.

Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().DurationVar(&opts.debounce, "debounce", 300*time.Millisecond, "debounce interval for file changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string, opts *watchOptions) error {
	if opts.debounce <= 0 {
		return &ExitError{Code: ExitCodeUsage, Err: fmt.Errorf("--debounce must be positive, got %s", opts.debounce)}
	}

	wOpts := watch.DefaultOptions()
	wOpts.Path = path
	wOpts.Debounce = opts.debounce
	wOpts.Logger = logging.FromContext(ctx)
	wOpts.Out = cmd.OutOrStdout()

	runFn := func(context.Context) (string, error) {
		cfg, err := exitconfig.LoadFile(path)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("%d target(s), %d filter(s)", len(cfg.TargetNames()), len(cfg.FilterNames())), nil
	}

	if err := watch.Run(ctx, wOpts, runFn); err != nil {
		return &ExitError{Code: ExitCodeError, Err: err}
	}

	return nil
}
