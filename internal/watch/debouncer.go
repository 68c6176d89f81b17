package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces rapid events into a single callback invocation.
// Only the last event within the configured interval triggers the callback.
type Debouncer struct {
	interval time.Duration
	callback func(trigger string)
	logger   *slog.Logger

	mu          sync.Mutex
	timer       *time.Timer
	lastTrigger string
}

// NewDebouncer creates a debouncer that waits for interval of quiet before
// firing callback with the last trigger seen.
func NewDebouncer(interval time.Duration, logger *slog.Logger, callback func(trigger string)) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Debouncer{
		interval: interval,
		callback: callback,
		logger:   logger,
	}
}

// Trigger records an event and restarts the quiet period.
func (d *Debouncer) Trigger(trigger string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastTrigger = trigger

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("debouncer callback panicked", slog.Any("error", r))
		}
	}()

	d.mu.Lock()
	trigger := d.lastTrigger
	d.mu.Unlock()

	d.callback(trigger)
}

// Stop cancels any pending debounced callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
