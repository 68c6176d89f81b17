package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Built-in format names.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encoder writes v to w in one format.
type Encoder func(w io.Writer, v any) error

// TextReporter is implemented by reports with a human-readable rendering.
type TextReporter interface {
	WriteText(w io.Writer) error
}

// Registry maps format names to encoders.
type Registry struct {
	mu       sync.RWMutex
	encoders map[string]Encoder
}

// NewRegistry creates an empty encoder registry.
func NewRegistry() *Registry {
	return &Registry{
		encoders: make(map[string]Encoder),
	}
}

// Register adds an encoder under the given format name.
// Existing entries for the same name are overwritten.
func (r *Registry) Register(name string, enc Encoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.encoders[name] = enc
}

// Encoder returns the encoder for the given format, or an error if not found.
func (r *Registry) Encoder(name string) (Encoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enc, ok := r.encoders[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, r.availableLocked())
	}

	return enc, nil
}

// Formats returns the sorted list of registered format names.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.formatsLocked()
}

func (r *Registry) formatsLocked() []string {
	names := make([]string, 0, len(r.encoders))
	for name := range r.encoders {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *Registry) availableLocked() string {
	formats := r.formatsLocked()
	if len(formats) == 0 {
		return "none"
	}

	return strings.Join(formats, ", ")
}

// Write encodes v in format to w.
func (r *Registry) Write(w io.Writer, format string, v any) error {
	enc, err := r.Encoder(format)
	if err != nil {
		return err
	}

	return enc(w, v)
}

// DefaultRegistry returns a registry with the text, json and yaml formats.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(FormatText, encodeText)
	r.Register(FormatJSON, encodeJSON)
	r.Register(FormatYAML, encodeYAML)

	return r
}

func encodeText(w io.Writer, v any) error {
	if tr, ok := v.(TextReporter); ok {
		return tr.WriteText(w)
	}

	_, err := fmt.Fprintln(w, v)

	return err
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}

	return enc.Close()
}
