package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hupe1980/adexit/internal/exitconfig"
	"github.com/hupe1980/adexit/internal/filter"
	"github.com/hupe1980/adexit/internal/output"
)

type validateOptions struct {
	format string
}

func newValidateCommand() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate an exit config",
		Long: `Validate an exit config file (JSON or YAML).

Checks that every filter has a known type and well-formed parameters,
that every target has a string final_url, and that every filter a target
references is defined. Returns exit code 7 on validation failure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "output", "o", output.FormatText, "output format: text, json, yaml")

	return cmd
}

func runValidate(cmd *cobra.Command, path string, opts *validateOptions) error {
	registry := output.DefaultRegistry()

	if _, err := registry.Encoder(opts.format); err != nil {
		return &ExitError{Code: ExitCodeUsage, Err: err}
	}

	cfg, err := loadExitConfig(path)
	if err != nil {
		return err
	}

	return registry.Write(cmd.OutOrStdout(), opts.format, newValidateReport(path, cfg))
}

// validateReport summarises a valid exit config.
type validateReport struct {
	File    string              `json:"file" yaml:"file"`
	Valid   bool                `json:"valid" yaml:"valid"`
	Targets []targetSummary     `json:"targets" yaml:"targets"`
	Filters map[string]string   `json:"filters" yaml:"filters"`
	Types   map[filter.Type]int `json:"filterTypes" yaml:"filterTypes"`
}

type targetSummary struct {
	Name     string   `json:"name" yaml:"name"`
	FinalURL string   `json:"finalUrl" yaml:"finalUrl"`
	Tracking int      `json:"trackingUrls" yaml:"trackingUrls"`
	Filters  []string `json:"filters,omitempty" yaml:"filters,omitempty"`
}

func newValidateReport(path string, cfg *exitconfig.ExitConfig) *validateReport {
	r := &validateReport{
		File:    path,
		Valid:   true,
		Filters: make(map[string]string),
		Types:   make(map[filter.Type]int),
	}

	for _, name := range cfg.TargetNames() {
		t, _ := cfg.Target(name)
		r.Targets = append(r.Targets, targetSummary{
			Name:     name,
			FinalURL: t.FinalURL,
			Tracking: len(t.TrackingURLs),
			Filters:  t.Filters,
		})
	}

	for name, spec := range cfg.Filters() {
		r.Filters[name] = string(spec.Type())
		r.Types[spec.Type()]++
	}

	return r
}

func (r *validateReport) WriteText(w io.Writer) error {
	_, _ = fmt.Fprintf(w, "%s: valid (%d target(s), %d filter(s))\n", r.File, len(r.Targets), len(r.Filters))

	for _, t := range r.Targets {
		_, _ = fmt.Fprintf(w, "  target %-12s %s", t.Name, t.FinalURL)

		if t.Tracking > 0 {
			_, _ = fmt.Fprintf(w, " (+%d tracking)", t.Tracking)
		}

		_, _ = fmt.Fprintln(w)
	}

	names := make([]string, 0, len(r.Filters))
	for name := range r.Filters {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		_, _ = fmt.Fprintf(w, "  filter %-12s %s\n", name, r.Filters[name])
	}

	return nil
}
