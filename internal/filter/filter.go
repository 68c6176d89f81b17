package filter

import (
	"sort"
	"sync"
)

// Type is the tag that selects a filter implementation.
type Type string

// Known filter types. The string values are the wire tags used in exit
// configs.
const (
	TypeClickDelay    Type = "clickDelay"
	TypeClickLocation Type = "clickLocation"
)

// KnownTypes returns every filter type the built-in filters handle.
func KnownTypes() []Type {
	return []Type{TypeClickDelay, TypeClickLocation}
}

// IsKnown reports whether t is one of the built-in filter types.
func IsKnown(t Type) bool {
	switch t {
	case TypeClickDelay, TypeClickLocation:
		return true
	default:
		return false
	}
}

// Spec is the stateless, configured half of a filter. Each concrete spec
// carries the tag of the filter that evaluates it.
type Spec interface {
	Type() Type
}

// Point is a pair of client coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Event is the read-only view of a user interaction that filters inspect.
type Event interface {
	// Client returns the event's own client coordinates.
	Client() Point
	// Touches returns the changed touch points, if any. Only the first one
	// is considered by the location filter.
	Touches() []Point
	// PreventDefault suppresses the host's default action for the event.
	PreventDefault()
}

// Click is a concrete [Event] for pointer and touch interactions.
type Click struct {
	X, Y        float64
	TouchPoints []Point
	prevented   bool
}

// Client implements [Event].
func (c *Click) Client() Point { return Point{X: c.X, Y: c.Y} }

// Touches implements [Event].
func (c *Click) Touches() []Point { return c.TouchPoints }

// PreventDefault implements [Event].
func (c *Click) PreventDefault() { c.prevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (c *Click) DefaultPrevented() bool { return c.prevented }

// Filter is implemented by every concrete click filter.
type Filter interface {
	// Filter reports whether event passes the check described by spec.
	Filter(spec Spec, event Event) bool
}

// Registry maps filter types to the single live instance responsible for
// each type.
type Registry struct {
	mu      sync.RWMutex
	filters map[Type]Filter
}

// NewRegistry creates an empty filter registry.
func NewRegistry() *Registry {
	return &Registry{
		filters: make(map[Type]Filter),
	}
}

// Register installs f as the filter for type t, replacing any previous one.
func (r *Registry) Register(t Type, f Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filters[t] = f
}

// Lookup returns the filter registered for t. The boolean is false when no
// filter handles t.
func (r *Registry) Lookup(t Type) (Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.filters[t]

	return f, ok
}

// Types returns the sorted list of registered filter types.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]Type, 0, len(r.filters))
	for t := range r.filters {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}
