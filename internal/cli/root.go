// Package cli implements the cobra command tree for adexit.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/adexit/internal/config"
	"github.com/hupe1980/adexit/internal/logging"
)

// Process exit codes.
const (
	ExitCodeError      = 1
	ExitCodeUsage      = 2
	ExitCodeValidation = 7
	ExitCodeBlocked    = 8
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return ExitCodeError
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "adexit",
		Short: "Lint and replay declarative ad exit configs",
		Long: `adexit validates exit configurations and replays user interactions
against them.

An exit config names navigation targets (a final URL, tracking URLs and
URL variables) and the filters a click must pass before navigation is
allowed. Every click must also pass an implicit 1000ms minimum delay.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: ExitCodeUsage, Err: err}
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .adexit.yaml)")
	pf.String("log-level", config.LogLevelInfo, "log level: debug, info, warn, error")
	pf.String("log-format", config.LogFormatText, "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.Duration("beacon-timeout", config.DefaultBeaconTimeout, "timeout for a single tracking ping")
	pf.Int("beacon-workers", config.DefaultBeaconWorkers, "size of the tracking ping pool")
	pf.Float64("viewport-width", config.DefaultViewportWidth, "simulated viewport width in CSS pixels")
	pf.Float64("viewport-height", config.DefaultViewportHeight, "simulated viewport height in CSS pixels")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitCodeUsage, Err: err}
	})

	cmd.AddCommand(
		newVersionCommand(),
		newValidateCommand(),
		newSimulateCommand(),
		newDiffCommand(),
		newWatchCommand(),
		newCompletionCommand(),
	)

	return cmd
}
