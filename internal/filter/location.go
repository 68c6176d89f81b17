package filter

// LocationSpec configures a [ClickLocation] filter. Each bound insets the
// clickable area on that side; zero means no inset.
type LocationSpec struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64

	// Selector names the element whose box should be used as the clickable
	// area. It is carried through from the config but not evaluated.
	Selector string
}

// Type implements [Spec].
func (LocationSpec) Type() Type { return TypeClickLocation }

// AreaProvider supplies the clickable area: the intersection of the
// current viewport and the document body's layout box.
type AreaProvider interface {
	ClickableArea() Rect
}

// AreaFunc adapts a plain function to [AreaProvider].
type AreaFunc func() Rect

// ClickableArea implements [AreaProvider].
func (f AreaFunc) ClickableArea() Rect { return f() }

// ClickLocation rejects clicks that land outside an inset of the clickable
// area, such as taps on the very edge of the creative.
type ClickLocation struct {
	area AreaProvider
}

// NewClickLocation creates a location filter reading geometry from area.
func NewClickLocation(area AreaProvider) *ClickLocation {
	return &ClickLocation{area: area}
}

// Filter implements [Filter]. Specs of any other type pass.
func (f *ClickLocation) Filter(spec Spec, event Event) bool {
	s, ok := spec.(LocationSpec)
	if !ok {
		return true
	}

	area := f.area.ClickableArea()
	bounds := area.Inset(s.Top, s.Right, s.Bottom, s.Left)

	return bounds.Contains(ClickPosition(area, event))
}

// Bounds returns the accepted rectangle for spec under the current
// geometry.
func (f *ClickLocation) Bounds(spec LocationSpec) Rect {
	return f.area.ClickableArea().Inset(spec.Top, spec.Right, spec.Bottom, spec.Left)
}

// ClickPosition returns the interaction point of event in the coordinate
// space of area. Touch points are relative to the clickable area and get
// its top/left offset added; direct pointer coordinates are used as is.
func ClickPosition(area Rect, event Event) Point {
	if touches := event.Touches(); len(touches) > 0 {
		t := touches[0]

		return Point{X: t.X + area.Left, Y: t.Y + area.Top}
	}

	return event.Client()
}
