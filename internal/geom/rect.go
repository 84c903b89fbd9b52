package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Rectangle is an axis-aligned extent. Min holds the lowest X and Y, Max the
// highest; Z and M on the corners carry the file-level Z/M ranges when the
// rectangle comes from a shapefile header.
type Rectangle struct {
	Min Point
	Max Point
}

// NewRectangle builds the rectangle spanned by two corners in any order.
func NewRectangle(a, b Point) Rectangle {
	return Rectangle{
		Min: XY(math.Min(a.X, b.X), math.Min(a.Y, b.Y)),
		Max: XY(math.Max(a.X, b.X), math.Max(a.Y, b.Y)),
	}
}

// RectangleFromBound converts an orb.Bound.
func RectangleFromBound(b orb.Bound) Rectangle {
	return NewRectangle(XY(b.Min[0], b.Min[1]), XY(b.Max[0], b.Max[1]))
}

func (r Rectangle) Width() float64  { return r.Max.X - r.Min.X }
func (r Rectangle) Height() float64 { return r.Max.Y - r.Min.Y }

func (r Rectangle) Center() Point {
	return XY((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

func (r Rectangle) Clone() Rectangle { return r }

func (r Rectangle) IsEmpty() bool {
	return r.Width() <= 0 && r.Height() <= 0
}

// Bound converts the rectangle to an orb.Bound.
func (r Rectangle) Bound() orb.Bound {
	return orb.Bound{Min: r.Min.Orb(), Max: r.Max.Orb()}
}

// Contains reports whether p lies inside r, boundary included.
func (r Rectangle) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersects reports whether the rectangles overlap or touch.
func (r Rectangle) Intersects(o Rectangle) bool {
	return !(o.Max.X < r.Min.X || o.Min.X > r.Max.X || o.Max.Y < r.Min.Y || o.Min.Y > r.Max.Y)
}

// Union returns the smallest rectangle covering both.
func (r Rectangle) Union(o Rectangle) Rectangle {
	return Rectangle{
		Min: XY(math.Min(r.Min.X, o.Min.X), math.Min(r.Min.Y, o.Min.Y)),
		Max: XY(math.Max(r.Max.X, o.Max.X), math.Max(r.Max.Y, o.Max.Y)),
	}
}

// AspectRatio returns width / height, or 0 for a flat rectangle.
func (r Rectangle) AspectRatio() float64 {
	if r.Height() == 0 {
		return 0
	}
	return r.Width() / r.Height()
}

// WithAspectRatio returns a copy whose width/height equals ratio. The axis
// that is too narrow is widened around its own center; the other axis keeps
// its span so the content is not distorted.
func (r Rectangle) WithAspectRatio(ratio float64) Rectangle {
	if ratio <= 0 || math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return r
	}
	out := r
	w, h := r.Width(), r.Height()
	c := r.Center()
	switch {
	case h == 0 && w == 0:
		return r
	case h == 0 || w/h > ratio:
		// too short: grow Y
		nh := w / ratio
		out.Min.Y = c.Y - nh/2
		out.Max.Y = c.Y + nh/2
	case w/h < ratio:
		// too narrow: grow X
		nw := h * ratio
		out.Min.X = c.X - nw/2
		out.Max.X = c.X + nw/2
	}
	return out
}

// Scale returns a copy scaled around its center; factors above 1 zoom out.
func (r Rectangle) Scale(f float64) Rectangle {
	c := r.Center()
	hw, hh := r.Width()*f/2, r.Height()*f/2
	return Rectangle{Min: XY(c.X-hw, c.Y-hh), Max: XY(c.X+hw, c.Y+hh)}
}

// Translate returns a copy moved by dx, dy.
func (r Rectangle) Translate(dx, dy float64) Rectangle {
	out := r
	out.Min.X += dx
	out.Max.X += dx
	out.Min.Y += dy
	out.Max.Y += dy
	return out
}
