package source

import (
	"github.com/paulmach/orb"

	"geomap/internal/geom"
)

// fromOrb turns an orb geometry into features tagged with id. Multi-point
// geometries and collections yield several features sharing the id, so the
// attributes of the originating record stay reachable. Polygon rings are
// rewound to the shapefile convention: exteriors clockwise, holes
// counter-clockwise.
func fromOrb(id uint32, g orb.Geometry) []geom.Feature {
	switch v := g.(type) {
	case orb.Point:
		return []geom.Feature{geom.NewPointFeature(point(id, v))}
	case orb.MultiPoint:
		out := make([]geom.Feature, 0, len(v))
		for _, p := range v {
			out = append(out, geom.NewPointFeature(point(id, p)))
		}
		return out
	case orb.LineString:
		return []geom.Feature{geom.NewPolylineFeature(&geom.Polyline{ID: id, Parts: []geom.Part{part(id, v)}})}
	case orb.MultiLineString:
		pl := &geom.Polyline{ID: id}
		for _, ls := range v {
			pl.Parts = append(pl.Parts, part(id, ls))
		}
		return []geom.Feature{geom.NewPolylineFeature(pl)}
	case orb.Ring:
		return fromOrb(id, orb.Polygon{v})
	case orb.Polygon:
		return []geom.Feature{geom.NewPolygonFeature(&geom.Polygon{ID: id, Rings: rings(id, v)})}
	case orb.MultiPolygon:
		pg := &geom.Polygon{ID: id}
		for _, poly := range v {
			pg.Rings = append(pg.Rings, rings(id, poly)...)
		}
		return []geom.Feature{geom.NewPolygonFeature(pg)}
	case orb.Bound:
		return fromOrb(id, v.ToPolygon())
	case orb.Collection:
		var out []geom.Feature
		for _, c := range v {
			out = append(out, fromOrb(id, c)...)
		}
		return out
	}
	return nil
}

func point(id uint32, p orb.Point) geom.Point {
	return geom.Point{ID: id, X: p[0], Y: p[1]}
}

func part(id uint32, ls []orb.Point) geom.Part {
	out := make(geom.Part, len(ls))
	for i, p := range ls {
		out[i] = point(id, p)
	}
	return out
}

func rings(id uint32, poly orb.Polygon) []geom.Ring {
	out := make([]geom.Ring, 0, len(poly))
	for i, r := range poly {
		ring := geom.Ring(part(id, r))
		if len(ring) >= 3 && (i == 0) != ring.IsClockwise() {
			for a, b := 0, len(ring)-1; a < b; a, b = a+1, b-1 {
				ring[a], ring[b] = ring[b], ring[a]
			}
		}
		out = append(out, ring)
	}
	return out
}

// collector groups features by kind while a file is read and hands out
// record IDs starting at 1.
type collector struct {
	byKind map[geom.Kind][]geom.Feature
	props  *Properties
	next   uint32
}

func newCollector() *collector {
	return &collector{byKind: make(map[geom.Kind][]geom.Feature), props: NewProperties()}
}

// add stores g under a fresh ID and returns the ID.
func (c *collector) add(g orb.Geometry) uint32 {
	c.next++
	for _, f := range fromOrb(c.next, g) {
		c.byKind[f.Kind] = append(c.byKind[f.Kind], f)
	}
	return c.next
}

func (c *collector) count() int {
	n := 0
	for _, fs := range c.byKind {
		n += len(fs)
	}
	return n
}

// sources builds one Memory per kind present, polygons first so points end
// up drawn on top.
func (c *collector) sources() ([]*Memory, error) {
	var out []*Memory
	for _, k := range []geom.Kind{geom.KindPolygon, geom.KindPolyline, geom.KindPoint} {
		if len(c.byKind[k]) == 0 {
			continue
		}
		m, err := NewMemory(k, c.byKind[k])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
