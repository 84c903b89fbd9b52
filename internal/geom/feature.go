package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Feature is a tagged union over the three geometry kinds. Exactly one
// payload is set and Kind says which one; construct it with the New*
// functions.
type Feature struct {
	Kind     Kind
	Point    Point
	Polyline *Polyline
	Polygon  *Polygon
}

func NewPointFeature(p Point) Feature {
	return Feature{Kind: KindPoint, Point: p}
}

func NewPolylineFeature(l *Polyline) Feature {
	return Feature{Kind: KindPolyline, Polyline: l}
}

func NewPolygonFeature(p *Polygon) Feature {
	return Feature{Kind: KindPolygon, Polygon: p}
}

// ID returns the record identifier of the feature.
func (f Feature) ID() uint32 {
	switch f.Kind {
	case KindPoint:
		return f.Point.ID
	case KindPolyline:
		return f.Polyline.ID
	case KindPolygon:
		return f.Polygon.ID
	}
	return 0
}

// Points calls fn for every coordinate of the feature in storage order.
func (f Feature) Points(fn func(Point)) {
	switch f.Kind {
	case KindPoint:
		fn(f.Point)
	case KindPolyline:
		for _, part := range f.Polyline.Parts {
			for _, p := range part {
				fn(p)
			}
		}
	case KindPolygon:
		for _, ring := range f.Polygon.Rings {
			for _, p := range ring {
				fn(p)
			}
		}
	}
}

// Bounds returns the bounding rectangle of the feature and false when the
// feature has no coordinates.
func (f Feature) Bounds() (Rectangle, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	n := 0
	f.Points(func(p Point) {
		n++
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	})
	if n == 0 {
		return Rectangle{}, false
	}
	return Rectangle{Min: XY(minX, minY), Max: XY(maxX, maxY)}, true
}

// Orb converts the feature into the equivalent orb geometry: Point,
// MultiLineString or MultiPolygon. Null features return nil.
func (f Feature) Orb() orb.Geometry {
	switch f.Kind {
	case KindPoint:
		return f.Point.Orb()
	case KindPolyline:
		mls := make(orb.MultiLineString, 0, len(f.Polyline.Parts))
		for _, part := range f.Polyline.Parts {
			mls = append(mls, part.Orb())
		}
		return mls
	case KindPolygon:
		return f.Polygon.Orb()
	}
	return nil
}
