package cli

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/hupe1980/adexit/internal/beacon"
	"github.com/hupe1980/adexit/internal/config"
	"github.com/hupe1980/adexit/internal/exit"
	"github.com/hupe1980/adexit/internal/filter"
	"github.com/hupe1980/adexit/internal/host"
	"github.com/hupe1980/adexit/internal/logging"
	"github.com/hupe1980/adexit/internal/output"
	"github.com/hupe1980/adexit/internal/urlvars"
)

// simulationEpoch is the fake clock's start, so TIMESTAMP expansions are
// reproducible.
var simulationEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type simulateOptions struct {
	target  string
	elapsed time.Duration
	x       float64
	y       float64
	touch   bool
	seed    uint64
	format  string
}

func newSimulateCommand() *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate <config>",
		Short: "Replay a click against an exit config",
		Long: `Simulate replays a single click against an exit config using a
fake clock and recording collaborators. Nothing is opened and no tracking
ping leaves the process.

The click happens --elapsed after the ad entered the viewport, at
(--x, --y) relative to the viewport. With --touch the coordinates are
delivered as a touch point instead.

Exit codes:
  0  Navigation allowed
  1  Error
  2  Invalid arguments or unknown target
  7  Invalid exit config
  8  Click blocked by a filter`,
		Example: `  adexit simulate exit.json --target landing --elapsed 1500ms --x 40 --y 20`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.target, "target", "", "exit target name (default \"default\")")
	f.DurationVar(&opts.elapsed, "elapsed", 0, "time between entering the viewport and the click")
	f.Float64Var(&opts.x, "x", 0, "click x coordinate")
	f.Float64Var(&opts.y, "y", 0, "click y coordinate")
	f.BoolVar(&opts.touch, "touch", false, "deliver the click as a touch point")
	f.Uint64Var(&opts.seed, "seed", 1, "seed for RANDOM url variables")
	f.StringVarP(&opts.format, "output", "o", output.FormatText, "output format: text, json, yaml")

	return cmd
}

func runSimulate(cmd *cobra.Command, path string, opts *simulateOptions) error {
	registry := output.DefaultRegistry()

	if _, err := registry.Encoder(opts.format); err != nil {
		return &ExitError{Code: ExitCodeUsage, Err: err}
	}

	if opts.elapsed < 0 {
		return &ExitError{Code: ExitCodeUsage, Err: fmt.Errorf("--elapsed must not be negative, got %s", opts.elapsed)}
	}

	exitCfg, err := loadExitConfig(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	appCfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	clk := testingclock.NewFakeClock(simulationEpoch)
	viewport := filter.RectFromSize(appCfg.ViewportWidth, appCfg.ViewportHeight)
	navigator := &host.RecordingNavigator{}
	pings := &beacon.Recorder{}

	ctrl := exit.New(navigator, pings,
		exit.WithConfig(exitCfg),
		exit.WithClock(clk),
		exit.WithArea(host.NewDocument(viewport, viewport)),
		exit.WithExpander(urlvars.New(
			urlvars.WithClock(clk),
			urlvars.WithRandom(rand.New(rand.NewPCG(opts.seed, 0)).Float64), //nolint:gosec // reproducible cache busters
		)),
		exit.WithLogger(logger),
	)

	ctrl.ViewportChanged(true)
	clk.Step(opts.elapsed)

	click := &filter.Click{X: opts.x, Y: opts.y}
	if opts.touch {
		click = &filter.Click{TouchPoints: []filter.Point{{X: opts.x, Y: opts.y}}}
	}

	decision, err := ctrl.Decide(opts.target, click)
	if err != nil {
		if errors.Is(err, exit.ErrTargetNotFound) {
			return &ExitError{Code: ExitCodeUsage, Err: err}
		}

		return &ExitError{Code: ExitCodeError, Err: err}
	}

	report := &simulateReport{
		Decision:    *decision,
		Elapsed:     opts.elapsed.String(),
		Click:       filter.Point{X: opts.x, Y: opts.y},
		Touch:       opts.touch,
		Navigations: navigator.Opened,
		Pings:       pings.URLs,
	}

	if err := registry.Write(cmd.OutOrStdout(), opts.format, report); err != nil {
		return err
	}

	if !decision.Allowed {
		return &ExitError{Code: ExitCodeBlocked, Err: fmt.Errorf("click blocked by filter %q", decision.FailedFilter)}
	}

	return nil
}

// simulateReport is the outcome of one replayed click.
type simulateReport struct {
	exit.Decision `yaml:",inline"`

	Elapsed     string            `json:"elapsed" yaml:"elapsed"`
	Click       filter.Point      `json:"click" yaml:"click"`
	Touch       bool              `json:"touch" yaml:"touch"`
	Navigations []host.Navigation `json:"navigations" yaml:"navigations"`
	Pings       []string          `json:"pings" yaml:"pings"`
}

func (r *simulateReport) WriteText(w io.Writer) error {
	kind := "click"
	if r.Touch {
		kind = "tap"
	}

	_, _ = fmt.Fprintf(w, "%s at (%g, %g) after %s on target %q\n", kind, r.Click.X, r.Click.Y, r.Elapsed, r.Target)

	if !r.Allowed {
		_, _ = fmt.Fprintf(w, "blocked by filter %q\n", r.FailedFilter)
		return nil
	}

	for _, p := range r.Pings {
		_, _ = fmt.Fprintf(w, "ping %s\n", p)
	}

	for _, n := range r.Navigations {
		_, _ = fmt.Fprintf(w, "open %s (target=%s)\n", n.URL, n.Target)
	}

	return nil
}
