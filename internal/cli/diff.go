package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/adexit/internal/config"
	"github.com/hupe1980/adexit/internal/exitconfig"
	"github.com/hupe1980/adexit/internal/output"
)

const formatUnified = "unified"

type diffOptions struct {
	// Output format: "unified" (default), "json", "yaml".
	format string

	// Return exit code 1 when the configs differ.
	exitCode bool
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <old-config> <new-config>",
		Short: "Compare two exit configs",
		Long: `Diff validates two exit configs and reports which targets and filters
were added, removed, or modified, followed by a unified diff of their
canonical JSON form.

Exit codes:
  0  No differences (or --exit-code not set)
  1  Differences found with --exit-code, or error
  2  Invalid arguments
  7  Either config is invalid`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args[0], args[1], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "output", "o", formatUnified, "output format: unified, json, yaml")
	f.BoolVar(&opts.exitCode, "exit-code", false, "exit with code 1 when the configs differ")

	return cmd
}

func runDiff(cmd *cobra.Command, oldPath, newPath string, opts *diffOptions) error {
	registry := output.DefaultRegistry()

	if opts.format != formatUnified {
		if _, err := registry.Encoder(opts.format); err != nil {
			return &ExitError{Code: ExitCodeUsage, Err: err}
		}
	}

	oldCfg, err := loadExitConfig(oldPath)
	if err != nil {
		return err
	}

	newCfg, err := loadExitConfig(newPath)
	if err != nil {
		return err
	}

	diffOpts := exitconfig.DefaultDiffOptions()
	diffOpts.OldLabel = oldPath
	diffOpts.NewLabel = newPath

	result, err := exitconfig.Diff(oldCfg, newCfg, diffOpts)
	if err != nil {
		return &ExitError{Code: ExitCodeError, Err: fmt.Errorf("computing diff: %w", err)}
	}

	w := cmd.OutOrStdout()

	if opts.format == formatUnified {
		exitconfig.WriteDiff(w, result, !config.FromContext(cmd.Context()).NoColor)
	} else if err := registry.Write(w, opts.format, result); err != nil {
		return err
	}

	if opts.exitCode && result.HasDifferences {
		return &ExitError{Code: ExitCodeError, Err: errors.New("exit configs differ")}
	}

	return nil
}
