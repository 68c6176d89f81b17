// Package host models the page-side collaborators of the exit controller:
// the element markup that carries the config, the document geometry that
// defines the clickable area, and the navigation primitive.
package host

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/adexit/internal/filter"
)

// Markup errors.
var (
	ErrChildCount    = errors.New("the tag should contain exactly one <script> child")
	ErrNotJSONScript = errors.New(`the exit config should be put in a <script> tag with type="application/json"`)
)

// Node is a child node of the exit element.
type Node struct {
	Tag  string
	Type string
	Text string
}

// IsJSONScript reports whether n is a <script type="application/json">.
func (n Node) IsJSONScript() bool {
	return strings.EqualFold(n.Tag, "script") &&
		strings.EqualFold(strings.TrimSpace(n.Type), "application/json")
}

// Element is the exit element with its children.
type Element struct {
	Children []Node
}

// ConfigJSON returns the text of the element's only child, which must be a
// JSON script tag.
func (e Element) ConfigJSON() ([]byte, error) {
	if len(e.Children) != 1 {
		return nil, fmt.Errorf("%w (found %d)", ErrChildCount, len(e.Children))
	}

	child := e.Children[0]
	if !child.IsJSONScript() {
		return nil, ErrNotJSONScript
	}

	return []byte(child.Text), nil
}

// JSONElement wraps raw config JSON in a well-formed element.
func JSONElement(config []byte) Element {
	return Element{Children: []Node{{Tag: "script", Type: "application/json", Text: string(config)}}}
}

// Document holds the viewport and body layout rectangles.
type Document struct {
	mu       sync.RWMutex
	viewport filter.Rect
	body     filter.Rect
}

// NewDocument creates a document geometry.
func NewDocument(viewport, body filter.Rect) *Document {
	return &Document{viewport: viewport, body: body}
}

// SetViewport updates the viewport rectangle, e.g. after a scroll.
func (d *Document) SetViewport(r filter.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.viewport = r
}

// SetBody updates the body layout rectangle.
func (d *Document) SetBody(r filter.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.body = r
}

// ClickableArea implements filter.AreaProvider.
func (d *Document) ClickableArea() filter.Rect {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.viewport.Intersect(d.body)
}

// Navigation is one recorded window open.
type Navigation struct {
	URL    string `json:"url" yaml:"url"`
	Target string `json:"target" yaml:"target"`
}

// RecordingNavigator remembers every Open call.
type RecordingNavigator struct {
	Opened []Navigation
}

// Open records the navigation.
func (n *RecordingNavigator) Open(url, target string) {
	n.Opened = append(n.Opened, Navigation{URL: url, Target: target})
}
