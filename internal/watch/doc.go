// Package watch re-runs a check whenever an exit config file changes on
// disk. Rapid bursts of file events (editor saves, atomic renames) are
// debounced into a single run.
package watch
