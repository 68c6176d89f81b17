package exitconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/hupe1980/adexit/internal/filter"
	"github.com/hupe1980/adexit/internal/maputil"
)

// DefaultTargetName is used when an exit is invoked without a target.
const DefaultTargetName = "default"

// Target is a named navigation destination.
type Target struct {
	FinalURL     string         `json:"final_url" yaml:"final_url"`
	TrackingURLs []string       `json:"tracking_urls,omitempty" yaml:"tracking_urls,omitempty"`
	Vars         map[string]any `json:"vars,omitempty" yaml:"vars,omitempty"`
	Filters      []string       `json:"filters,omitempty" yaml:"filters,omitempty"`
}

func (t Target) clone() Target {
	return Target{
		FinalURL:     t.FinalURL,
		TrackingURLs: slices.Clone(t.TrackingURLs),
		Vars:         maputil.CloneMap(t.Vars),
		Filters:      slices.Clone(t.Filters),
	}
}

// ExitConfig is a validated exit configuration. It is never modified after
// Validate returns it; accessors hand out copies.
type ExitConfig struct {
	targets map[string]Target
	filters map[string]filter.Spec
	raw     []byte
}

// Empty returns a config with no targets and no filters. Every exit against
// it fails target resolution.
func Empty() *ExitConfig {
	return &ExitConfig{
		targets: map[string]Target{},
		filters: map[string]filter.Spec{},
		raw:     []byte(`{"targets":{},"filters":{}}`),
	}
}

// Target returns the target registered under name.
func (c *ExitConfig) Target(name string) (Target, bool) {
	t, ok := c.targets[name]
	if !ok {
		return Target{}, false
	}

	return t.clone(), true
}

// Filter returns the filter spec registered under name.
func (c *ExitConfig) Filter(name string) (filter.Spec, bool) {
	s, ok := c.filters[name]
	return s, ok
}

// Filters returns a copy of the named filter specs.
func (c *ExitConfig) Filters() map[string]filter.Spec {
	return maps.Clone(c.filters)
}

// TargetNames returns the sorted target names.
func (c *ExitConfig) TargetNames() []string {
	return sortedKeys(c.targets)
}

// FilterNames returns the sorted filter names.
func (c *ExitConfig) FilterNames() []string {
	return sortedKeys(c.filters)
}

// Raw returns a copy of the validated document, including fields the
// validator does not interpret. A missing "filters" member is present as an
// empty object.
func (c *ExitConfig) Raw() []byte {
	return bytes.Clone(c.raw)
}

// MarshalJSON returns the validated document.
func (c *ExitConfig) MarshalJSON() ([]byte, error) {
	return c.Raw(), nil
}

// Canonical renders the document as indented JSON with sorted keys.
func (c *ExitConfig) Canonical() (string, error) {
	var doc any
	if err := json.Unmarshal(c.raw, &doc); err != nil {
		return "", fmt.Errorf("decoding exit config: %w", err)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding exit config: %w", err)
	}

	return string(out) + "\n", nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
