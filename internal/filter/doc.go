// Package filter implements the click filters that gate exit navigation.
//
// A filter is a predicate over a configured [Spec] and an interaction
// [Event]. Concrete filters own their private state (the delay filter's
// reference clock, the location filter's geometry provider) and are
// selected at evaluation time through a [Registry] keyed by [Type].
package filter
