// Package exit implements the exit controller: it decides whether a click
// is intentional enough to leave the ad, then fires the target's tracking
// pings and opens its landing page.
package exit

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/hupe1980/adexit/internal/config"
	"github.com/hupe1980/adexit/internal/exitconfig"
	"github.com/hupe1980/adexit/internal/filter"
	"github.com/hupe1980/adexit/internal/host"
	"github.com/hupe1980/adexit/internal/metrics"
	"github.com/hupe1980/adexit/internal/urlvars"
)

// Component is attached to every log record the controller emits.
const Component = "amp-ad-exit"

// NavigationTarget is the browsing context final URLs are opened in.
const NavigationTarget = "_blank"

// MinDelayFilter is the name of the implicit default filter.
const MinDelayFilter = "mindelay"

// MinDelay is the delay enforced by the implicit default filter.
const MinDelay = 1000 // milliseconds

// ErrTargetNotFound is returned by Exit for unknown target names.
var ErrTargetNotFound = errors.New("exit target not found")

// Expander expands URL templates with a target's variables.
type Expander interface {
	Expand(template string, vars map[string]any) (string, error)
}

// Navigator opens a URL in a browsing context.
type Navigator interface {
	Open(url, target string)
}

// Dispatcher fires a tracking ping without waiting for it.
type Dispatcher interface {
	Dispatch(url string)
}

// Controller runs the exit flow for one exit element.
type Controller struct {
	config *exitconfig.ExitConfig

	defaultNames []string
	defaultSpecs map[string]filter.Spec

	registry      *filter.Registry
	clickDelay    *filter.ClickDelay
	clickLocation *filter.ClickLocation

	clock      clock.PassiveClock
	area       filter.AreaProvider
	expander   Expander
	navigator  Navigator
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock of the click-delay filter.
func WithClock(clk clock.PassiveClock) Option {
	return func(c *Controller) {
		c.clock = clk
	}
}

// WithArea sets the geometry provider of the click-location filter.
func WithArea(area filter.AreaProvider) Option {
	return func(c *Controller) {
		c.area = area
	}
}

// WithExpander replaces the default URL expander.
func WithExpander(e Expander) Option {
	return func(c *Controller) {
		c.expander = e
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithConfig installs an already validated config, skipping Build.
func WithConfig(cfg *exitconfig.ExitConfig) Option {
	return func(c *Controller) {
		c.config = cfg
	}
}

// WithFilter registers an additional filter implementation.
func WithFilter(t filter.Type, f filter.Filter) Option {
	return func(c *Controller) {
		c.registry.Register(t, f)
	}
}

// New creates a controller with an empty config. Call Build to load the
// element's config. Without WithArea the clickable area is a viewport of
// config.DefaultViewportWidth x config.DefaultViewportHeight at the origin.
func New(navigator Navigator, dispatcher Dispatcher, opts ...Option) *Controller {
	c := &Controller{
		config:       exitconfig.Empty(),
		defaultNames: []string{MinDelayFilter},
		defaultSpecs: map[string]filter.Spec{
			MinDelayFilter: filter.NewDelaySpec(MinDelay),
		},
		registry:   filter.NewRegistry(),
		clock:      clock.RealClock{},
		area:       defaultArea(),
		navigator:  navigator,
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.expander == nil {
		c.expander = urlvars.New(urlvars.WithClock(c.clock))
	}

	c.logger = c.logger.With(slog.String("component", Component))

	c.clickDelay = filter.NewClickDelay(c.clock)
	c.clickLocation = filter.NewClickLocation(c.area)

	// Filters passed through WithFilter take precedence over the built-ins.
	if _, ok := c.registry.Lookup(filter.TypeClickDelay); !ok {
		c.registry.Register(filter.TypeClickDelay, c.clickDelay)
	}

	if _, ok := c.registry.Lookup(filter.TypeClickLocation); !ok {
		c.registry.Register(filter.TypeClickLocation, c.clickLocation)
	}

	return c
}

func defaultArea() filter.AreaProvider {
	viewport := filter.RectFromSize(config.DefaultViewportWidth, config.DefaultViewportHeight)
	return host.NewDocument(viewport, viewport)
}

// Build reads and validates the config carried by el. On any failure the
// error is logged and returned, and the controller keeps an empty config.
func (c *Controller) Build(el host.Element) error {
	raw, err := el.ConfigJSON()
	if err != nil {
		c.logger.Error("invalid exit element", slog.String("error", err.Error()))
		return err
	}

	cfg, err := exitconfig.Validate(raw)
	if err != nil {
		c.logger.Error("invalid JSON config", slog.String("error", err.Error()))
		return err
	}

	c.config = cfg

	return nil
}

// Config returns the active config.
func (c *Controller) Config() *exitconfig.ExitConfig {
	return c.config
}

// ViewportChanged is the visibility hook. Entering the viewport restarts
// the click-delay window.
func (c *Controller) ViewportChanged(inViewport bool) {
	if inViewport {
		c.clickDelay.ResetClock()
	}
}

// Exit handles an exit action for targetName (or "default" when empty)
// triggered by event. The event's default action is always prevented.
//
// A click that fails a filter is not an error: Exit returns nil without
// navigating. Unknown targets yield ErrTargetNotFound; URL expansion
// failures are returned as is.
func (c *Controller) Exit(targetName string, event filter.Event) error {
	_, err := c.exit(targetName, event)
	return err
}

// Decision describes the outcome of one exit call.
type Decision struct {
	Target       string   `json:"target" yaml:"target"`
	Allowed      bool     `json:"allowed" yaml:"allowed"`
	FailedFilter string   `json:"failedFilter,omitempty" yaml:"failedFilter,omitempty"`
	FinalURL     string   `json:"finalUrl,omitempty" yaml:"finalUrl,omitempty"`
	TrackingURLs []string `json:"trackingUrls,omitempty" yaml:"trackingUrls,omitempty"`
}

// Decide is Exit with the decision reported back to the caller.
func (c *Controller) Decide(targetName string, event filter.Event) (*Decision, error) {
	return c.exit(targetName, event)
}

func (c *Controller) exit(targetName string, event filter.Event) (*Decision, error) {
	event.PreventDefault()

	if targetName == "" {
		targetName = exitconfig.DefaultTargetName
	}

	logger := c.logger.With(
		slog.String("exitId", uuid.NewString()),
		slog.String("target", targetName),
	)
	decision := &Decision{Target: targetName}

	target, ok := c.config.Target(targetName)
	if !ok {
		logger.Error("exit target not found")
		c.metrics.ObserveExit(targetName, metrics.OutcomeTargetNotFound)

		return decision, fmt.Errorf("%w: %s", ErrTargetNotFound, targetName)
	}

	if failed, ok := c.filter(logger, c.defaultNames, c.defaultSpecs, event); !ok {
		return c.blocked(logger, decision, failed), nil
	}

	if failed, ok := c.filter(logger, target.Filters, c.config.Filters(), event); !ok {
		return c.blocked(logger, decision, failed), nil
	}

	finalURL, err := c.expander.Expand(target.FinalURL, target.Vars)
	if err != nil {
		c.metrics.ObserveExit(targetName, metrics.OutcomeExpandError)
		return decision, fmt.Errorf("expanding final_url: %w", err)
	}

	trackingURLs := make([]string, 0, len(target.TrackingURLs))

	for _, tmpl := range target.TrackingURLs {
		u, err := c.expander.Expand(tmpl, target.Vars)
		if err != nil {
			c.metrics.ObserveExit(targetName, metrics.OutcomeExpandError)
			return decision, fmt.Errorf("expanding tracking url: %w", err)
		}

		trackingURLs = append(trackingURLs, u)
	}

	for _, u := range trackingURLs {
		c.dispatcher.Dispatch(u)
	}

	c.navigator.Open(finalURL, NavigationTarget)
	c.metrics.ObserveExit(targetName, metrics.OutcomeNavigated)

	decision.Allowed = true
	decision.FinalURL = finalURL
	decision.TrackingURLs = trackingURLs

	return decision, nil
}

func (c *Controller) blocked(logger *slog.Logger, d *Decision, failed string) *Decision {
	logger.Info("click deemed unintentional", slog.String("filter", failed))
	c.metrics.ObserveExit(d.Target, metrics.OutcomeFiltered)

	d.FailedFilter = failed

	return d
}

// filter evaluates names in order against specs. Every filter must pass. A
// name without a spec, or a spec whose type has no registered filter,
// counts as a pass: a broken config should not silently break navigation.
// It returns the name of the first failing filter.
func (c *Controller) filter(logger *slog.Logger, names []string, specs map[string]filter.Spec, event filter.Event) (string, bool) {
	for _, name := range names {
		spec, ok := specs[name]
		if !ok {
			logger.Warn("filter not found", slog.String("filter", name))
			c.metrics.ObserveFilter(name, "skipped")

			continue
		}

		f, ok := c.registry.Lookup(spec.Type())
		if !ok {
			logger.Warn("invalid filter type",
				slog.String("filter", name),
				slog.String("type", string(spec.Type())),
			)
			c.metrics.ObserveFilter(name, "skipped")

			continue
		}

		result := f.Filter(spec, event)

		verdict := "fail"
		if result {
			verdict = "pass"
		}

		logger.Debug("filter evaluated", slog.String("filter", name), slog.String("verdict", verdict))
		c.metrics.ObserveFilter(name, verdict)

		if !result {
			return name, false
		}
	}

	return "", true
}
