// Package output renders CLI reports in pluggable formats.
//
// Formats are looked up by name in a [Registry]. The built-in formats are
// "text" (human-readable, via [TextReporter]), "json" and "yaml".
package output
