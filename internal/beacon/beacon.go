// Package beacon fires tracking pings without waiting for them.
//
// A ping is sent as a beacon (POST with an empty text body) when the
// dispatcher supports beacons, and as an image-style GET otherwise. Pings
// run on a bounded, non-blocking goroutine pool; when the pool is full the
// ping is dropped. Responses are drained and discarded, and nothing is
// retried.
package beacon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/hupe1980/adexit/internal/metrics"
)

// Transport names, also used as metric labels.
const (
	TransportBeacon = "beacon"
	TransportImage  = "image"
)

// Defaults.
const (
	DefaultTimeout = 5 * time.Second
	DefaultWorkers = 16
)

// Dispatcher sends tracking pings.
type Dispatcher struct {
	client  *http.Client
	pool    *ants.Pool
	beacon  bool
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient sets the client used for pings.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) {
		d.client = c
	}
}

// WithBeaconSupport toggles beacon delivery. When disabled every ping uses
// the image fallback.
func WithBeaconSupport(enabled bool) Option {
	return func(d *Dispatcher) {
		d.beacon = enabled
	}
}

// WithTimeout bounds each ping.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// New creates a Dispatcher backed by a pool of workers goroutines.
func New(workers int, opts ...Option) (*Dispatcher, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("creating ping pool: %w", err)
	}

	d := &Dispatcher{
		client:  http.DefaultClient,
		pool:    pool,
		beacon:  true,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Dispatch queues a ping for url and returns immediately.
func (d *Dispatcher) Dispatch(url string) {
	transport := TransportImage
	if d.beacon {
		transport = TransportBeacon
	}

	d.logger.Debug("pinging", slog.String("url", url), slog.String("transport", transport))

	err := d.pool.Submit(func() {
		d.send(url, transport)
	})
	if err != nil {
		d.logger.Warn("tracking ping dropped", slog.String("url", url), slog.String("error", err.Error()))
		d.metrics.ObservePing(transport, metrics.PingDropped)
	}
}

// Close waits up to timeout for in-flight pings and releases the pool.
func (d *Dispatcher) Close(timeout time.Duration) error {
	return d.pool.ReleaseTimeout(timeout)
}

func (d *Dispatcher) send(url, transport string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	req, err := d.newRequest(ctx, url, transport)
	if err != nil {
		d.fail(url, transport, err)
		return
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.fail(url, transport, err)
		return
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	d.metrics.ObservePing(transport, metrics.PingSent)
}

func (d *Dispatcher) newRequest(ctx context.Context, url, transport string) (*http.Request, error) {
	if transport == TransportBeacon {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(""))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "text/plain;charset=UTF-8")

		return req, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "image/*")

	return req, nil
}

func (d *Dispatcher) fail(url, transport string, err error) {
	d.logger.Debug("tracking ping failed",
		slog.String("url", url),
		slog.String("transport", transport),
		slog.String("error", err.Error()),
	)
	d.metrics.ObservePing(transport, metrics.PingFailed)
}

// Recorder collects dispatched URLs instead of sending them.
type Recorder struct {
	URLs []string
}

// Dispatch records url.
func (r *Recorder) Dispatch(url string) {
	r.URLs = append(r.URLs, url)
}
