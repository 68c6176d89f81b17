// Package adexit provides a public Go API for guarding ad exit navigations.
//
// An Engine holds one validated exit config. Each call to Exit runs the
// implicit 1000ms minimum-delay filter, then the target's own filters, and
// only when all pass fires the target's tracking pings and opens its final
// URL.
//
// Basic usage:
//
//	engine, err := adexit.New(configJSON, adexit.NavigatorFunc(openWindow))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	engine.ViewportChanged(true)
//	// ... later, on click:
//	err = engine.Exit("landing", &adexit.Click{X: 40, Y: 20})
//
// With options:
//
//	engine, err := adexit.New(configJSON, nav,
//	    adexit.WithViewport(300, 250),
//	    adexit.WithPingWorkers(4),
//	    adexit.WithMetrics(prometheus.DefaultRegisterer),
//	)
package adexit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/utils/clock"

	"github.com/hupe1980/adexit/internal/beacon"
	"github.com/hupe1980/adexit/internal/config"
	"github.com/hupe1980/adexit/internal/exit"
	"github.com/hupe1980/adexit/internal/exitconfig"
	"github.com/hupe1980/adexit/internal/filter"
	"github.com/hupe1980/adexit/internal/host"
	"github.com/hupe1980/adexit/internal/metrics"
)

// Re-exported types.
type (
	// Event is a user interaction.
	Event = filter.Event

	// Click is a ready-made Event.
	Click = filter.Click

	// Point is a position in CSS pixels.
	Point = filter.Point

	// Rect is an axis-aligned rectangle in CSS pixels.
	Rect = filter.Rect

	// Decision describes the outcome of one exit.
	Decision = exit.Decision

	// ValidationError reports an invalid exit config.
	ValidationError = exitconfig.ValidationError
)

// ErrTargetNotFound is returned by Exit for a target the config does not
// define.
var ErrTargetNotFound = exit.ErrTargetNotFound

// Navigator opens a URL in a browsing context such as "_blank".
type Navigator interface {
	Open(url, target string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url, target string)

// Open calls f.
func (f NavigatorFunc) Open(url, target string) { f(url, target) }

// Option configures an Engine.
// Use the With* functions to create Options.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	httpClient  *http.Client
	workers     int
	timeout     time.Duration
	imagePings  bool
	clock       clock.PassiveClock
	area        filter.AreaProvider
	registerer  prometheus.Registerer
	closeWindow time.Duration
}

// WithLogger sets the structured logger. Defaults to discarding all output.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithHTTPClient sets the client used for tracking pings.
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.httpClient = c } }

// WithPingWorkers bounds the number of concurrent tracking pings. Pings
// beyond it are dropped.
func WithPingWorkers(n int) Option { return func(o *options) { o.workers = n } }

// WithPingTimeout bounds each tracking ping.
func WithPingTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithImagePings sends pings as image-style GET requests instead of beacons.
func WithImagePings() Option { return func(o *options) { o.imagePings = true } }

// WithClock sets the clock used by the delay filters and TIMESTAMP.
func WithClock(c clock.PassiveClock) Option { return func(o *options) { o.clock = c } }

// WithViewport sets a fixed viewport of width x height at the origin.
func WithViewport(width, height float64) Option {
	return func(o *options) {
		r := filter.RectFromSize(width, height)
		o.area = host.NewDocument(r, r)
	}
}

// WithClickableArea computes the clickable area on every click.
func WithClickableArea(fn func() Rect) Option {
	return func(o *options) { o.area = filter.AreaFunc(fn) }
}

// WithMetrics registers the exit counters with reg.
func WithMetrics(reg prometheus.Registerer) Option { return func(o *options) { o.registerer = reg } }

// WithCloseTimeout bounds how long Close waits for in-flight pings.
func WithCloseTimeout(d time.Duration) Option { return func(o *options) { o.closeWindow = d } }

func (o *options) applyDefaults() {
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if o.workers <= 0 {
		o.workers = config.DefaultBeaconWorkers
	}

	if o.timeout <= 0 {
		o.timeout = config.DefaultBeaconTimeout
	}

	if o.clock == nil {
		o.clock = clock.RealClock{}
	}

	if o.area == nil {
		r := filter.RectFromSize(config.DefaultViewportWidth, config.DefaultViewportHeight)
		o.area = host.NewDocument(r, r)
	}

	if o.closeWindow <= 0 {
		o.closeWindow = o.timeout
	}
}

// Engine guards exits for one exit config.
type Engine struct {
	ctrl        *exit.Controller
	pings       *beacon.Dispatcher
	closeWindow time.Duration
}

// Validate checks an exit config without building an Engine.
func Validate(raw []byte) error {
	_, err := exitconfig.Validate(raw)
	return err
}

// New validates the raw exit config and builds an Engine that opens URLs through
// navigator. Unlike an inert host element, an invalid config is an error.
func New(raw []byte, navigator Navigator, opts ...Option) (*Engine, error) {
	if navigator == nil {
		return nil, errors.New("navigator must not be nil")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	o.applyDefaults()

	cfg, err := exitconfig.Validate(raw)
	if err != nil {
		return nil, err
	}

	m := metrics.New(o.registerer)

	beaconOpts := []beacon.Option{
		beacon.WithTimeout(o.timeout),
		beacon.WithBeaconSupport(!o.imagePings),
		beacon.WithLogger(o.logger),
		beacon.WithMetrics(m),
	}
	if o.httpClient != nil {
		beaconOpts = append(beaconOpts, beacon.WithHTTPClient(o.httpClient))
	}

	pings, err := beacon.New(o.workers, beaconOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating ping dispatcher: %w", err)
	}

	ctrl := exit.New(navigator, pings,
		exit.WithConfig(cfg),
		exit.WithClock(o.clock),
		exit.WithArea(o.area),
		exit.WithLogger(o.logger),
		exit.WithMetrics(m),
	)

	return &Engine{ctrl: ctrl, pings: pings, closeWindow: o.closeWindow}, nil
}

// Exit handles a click on targetName ("" selects "default"). A click that
// a filter rejects returns nil without navigating.
func (e *Engine) Exit(targetName string, event Event) error {
	return e.ctrl.Exit(targetName, event)
}

// Decide is Exit with the decision reported back.
func (e *Engine) Decide(targetName string, event Event) (*Decision, error) {
	return e.ctrl.Decide(targetName, event)
}

// ViewportChanged must be called when the ad enters or leaves the
// viewport. Entering restarts the minimum-delay window.
func (e *Engine) ViewportChanged(inViewport bool) {
	e.ctrl.ViewportChanged(inViewport)
}

// Targets returns the configured target names in sorted order.
func (e *Engine) Targets() []string {
	return e.ctrl.Config().TargetNames()
}

// Close waits for in-flight tracking pings and releases the ping pool.
func (e *Engine) Close() error {
	return e.pings.Close(e.closeWindow)
}
