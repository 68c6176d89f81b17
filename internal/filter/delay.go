package filter

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DelaySpec configures a [ClickDelay] filter.
type DelaySpec struct {
	// Delay is the minimum time that must pass after the last clock reset
	// before a click is accepted.
	Delay time.Duration
}

// Type implements [Spec].
func (DelaySpec) Type() Type { return TypeClickDelay }

// NewDelaySpec returns a click-delay spec for a delay given in milliseconds.
func NewDelaySpec(ms float64) DelaySpec {
	return DelaySpec{Delay: time.Duration(ms * float64(time.Millisecond))}
}

// ClickDelay rejects clicks that arrive too soon after the creative became
// visible. The reference time is taken at construction and on every
// ResetClock call.
type ClickDelay struct {
	clock clock.PassiveClock

	mu        sync.RWMutex
	reference time.Time
}

// NewClickDelay creates a delay filter backed by clk. A nil clock selects
// the real wall clock.
func NewClickDelay(clk clock.PassiveClock) *ClickDelay {
	if clk == nil {
		clk = clock.RealClock{}
	}

	f := &ClickDelay{clock: clk}
	f.ResetClock()

	return f
}

// ResetClock restarts the delay window from now.
func (f *ClickDelay) ResetClock() {
	now := f.clock.Now()

	f.mu.Lock()
	f.reference = now
	f.mu.Unlock()
}

// Elapsed returns the time passed since the last reset.
func (f *ClickDelay) Elapsed() time.Duration {
	f.mu.RLock()
	ref := f.reference
	f.mu.RUnlock()

	return f.clock.Since(ref)
}

// Filter implements [Filter]. Specs of any other type pass.
func (f *ClickDelay) Filter(spec Spec, _ Event) bool {
	s, ok := spec.(DelaySpec)
	if !ok {
		return true
	}

	return f.Elapsed() >= s.Delay
}
