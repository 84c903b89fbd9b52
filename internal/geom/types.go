// Package geom holds the vector geometry model shared by the decoder, the
// feature sources and the renderer.
package geom

import "github.com/paulmach/orb"

// Point is a decoded coordinate. ID is the record number of the shape the
// point was read from. Z and M are zero for 2D records.
type Point struct {
	ID uint32
	X  float64
	Y  float64
	Z  float64
	M  float64
}

// XY returns a 2D point without record identity.
func XY(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Orb() orb.Point { return orb.Point{p.X, p.Y} }

// Part is one connected component of a polyline.
type Part []Point

func (p Part) Orb() orb.LineString {
	ls := make(orb.LineString, len(p))
	for i, pt := range p {
		ls[i] = pt.Orb()
	}
	return ls
}

// Ring is one closed component of a polygon.
type Ring []Point

func (r Ring) Orb() orb.Ring {
	or := make(orb.Ring, len(r))
	for i, pt := range r {
		or[i] = pt.Orb()
	}
	return or
}

// IsClockwise reports whether the ring winds clockwise in a y-up plane.
// Shapefiles store exterior rings clockwise and holes counter-clockwise.
// Degenerate rings (no area) are not clockwise.
func (r Ring) IsClockwise() bool {
	if len(r) < 3 {
		return false
	}
	return r.Orb().Orientation() == orb.CW
}

// Polyline is an ordered set of parts decoded from one record.
type Polyline struct {
	ID    uint32
	Parts []Part
}

// NumPoints returns the number of points across all parts.
func (l *Polyline) NumPoints() int {
	n := 0
	for _, p := range l.Parts {
		n += len(p)
	}
	return n
}

// Polygon is an ordered set of rings decoded from one record.
type Polygon struct {
	ID    uint32
	Rings []Ring
}

// NumPoints returns the number of points across all rings.
func (p *Polygon) NumPoints() int {
	n := 0
	for _, r := range p.Rings {
		n += len(r)
	}
	return n
}

// Groups splits the rings into physical polygons: every clockwise ring
// starts a new group and every counter-clockwise ring is treated as a hole
// of the group opened by the preceding exterior ring. A leading hole with no
// exterior opens its own group.
func (p *Polygon) Groups() [][]Ring {
	var groups [][]Ring
	for _, r := range p.Rings {
		if r.IsClockwise() || len(groups) == 0 {
			groups = append(groups, []Ring{r})
			continue
		}
		last := len(groups) - 1
		groups[last] = append(groups[last], r)
	}
	return groups
}

// Orb converts the polygon into an orb.MultiPolygon using Groups. Exterior
// rings are flipped to counter-clockwise and holes to clockwise, which is
// the orientation GeoJSON expects.
func (p *Polygon) Orb() orb.MultiPolygon {
	groups := p.Groups()
	mp := make(orb.MultiPolygon, 0, len(groups))
	for _, g := range groups {
		poly := make(orb.Polygon, 0, len(g))
		for i, r := range g {
			or := r.Orb()
			if len(or) >= 3 && (i == 0) == (or.Orientation() == orb.CW) {
				or.Reverse()
			}
			poly = append(poly, or)
		}
		mp = append(mp, poly)
	}
	return mp
}

// Kind is the geometry kind of a feature or of a whole feature source.
type Kind int

const (
	KindNull Kind = iota
	KindPoint
	KindPolyline
	KindPolygon
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindPolyline:
		return "Polyline"
	case KindPolygon:
		return "Polygon"
	default:
		return "Null"
	}
}
