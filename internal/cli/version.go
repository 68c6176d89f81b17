package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/adexit/internal/output"
	"github.com/hupe1980/adexit/internal/version"
)

type versionOptions struct {
	json    bool
	require string
}

func newVersionCommand() *cobra.Command {
	opts := &versionOptions{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Display the version, git commit, build date, Go version, and platform.

With --require the binary's version is checked against a semantic version
constraint (e.g. ">= 1.2, < 2") and the command fails with exit code 1
when it is not met.`,
		Args: cobra.NoArgs,
		// Override parent PersistentPreRunE: version needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "output version info as JSON")
	cmd.Flags().StringVar(&opts.require, "require", "", "fail unless the version satisfies this semver constraint")

	return cmd
}

func runVersion(cmd *cobra.Command, opts *versionOptions) error {
	info := version.GetInfo()

	if opts.require != "" {
		ok, err := info.Satisfies(opts.require)
		if err != nil {
			return &ExitError{Code: ExitCodeError, Err: fmt.Errorf("checking version constraint: %w", err)}
		}

		if !ok {
			return &ExitError{Code: ExitCodeError, Err: fmt.Errorf("version %s does not satisfy %q", info.Version, opts.require)}
		}
	}

	format := output.FormatText
	if opts.json {
		format = output.FormatJSON
	}

	return output.DefaultRegistry().Write(cmd.OutOrStdout(), format, info)
}
