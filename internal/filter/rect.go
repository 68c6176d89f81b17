package filter

import "math"

// Rect is an axis-aligned rectangle in client coordinates.
type Rect struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// RectFromSize returns the rectangle anchored at the origin with the given
// width and height.
func RectFromSize(width, height float64) Rect {
	return Rect{Right: width, Bottom: height}
}

// Width returns the horizontal extent of r, or zero for an empty rect.
func (r Rect) Width() float64 { return math.Max(0, r.Right-r.Left) }

// Height returns the vertical extent of r, or zero for an empty rect.
func (r Rect) Height() float64 { return math.Max(0, r.Bottom-r.Top) }

// Empty reports whether r encloses no area.
func (r Rect) Empty() bool { return r.Width() == 0 || r.Height() == 0 }

// Intersect returns the overlap of r and o. Disjoint rectangles yield the
// zero Rect.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Top:    math.Max(r.Top, o.Top),
		Right:  math.Min(r.Right, o.Right),
		Bottom: math.Min(r.Bottom, o.Bottom),
		Left:   math.Max(r.Left, o.Left),
	}

	if out.Empty() {
		return Rect{}
	}

	return out
}

// Inset shrinks r by the given amount on each side.
func (r Rect) Inset(top, right, bottom, left float64) Rect {
	return Rect{
		Top:    r.Top + top,
		Right:  r.Right - right,
		Bottom: r.Bottom - bottom,
		Left:   r.Left + left,
	}
}

// Contains reports whether p lies inside r. The left and top edges are
// inclusive, the right and bottom edges exclusive.
func (r Rect) Contains(p Point) bool {
	return p.Y >= r.Top &&
		p.X < r.Right &&
		p.Y < r.Bottom &&
		p.X >= r.Left
}
