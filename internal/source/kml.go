package source

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

type kmlCoords struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlCoords   `xml:"outerBoundaryIs>LinearRing"`
	Inner []kmlCoords `xml:"innerBoundaryIs>LinearRing"`
}

type kmlGeometry struct {
	Points   []kmlCoords  `xml:"Point"`
	Lines    []kmlCoords  `xml:"LineString"`
	Polygons []kmlPolygon `xml:"Polygon"`
}

type kmlPlacemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	kmlGeometry
	Multi *kmlGeometry `xml:"MultiGeometry"`
}

// LoadKML extracts Placemarks at any depth of the document. Points,
// LineStrings and Polygons are read, also inside a MultiGeometry. KML
// coordinates are "lon,lat[,alt]"; altitude is ignored. The placemark name
// and description become attributes.
func LoadKML(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := newCollector()
	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}
		var pm kmlPlacemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return nil, err
		}
		g := pm.geometry()
		if g == nil {
			continue
		}
		id := c.add(g)
		if pm.Name != "" {
			c.props.Set(id, "name", strings.TrimSpace(pm.Name))
		}
		if pm.Description != "" {
			c.props.Set(id, "description", strings.TrimSpace(pm.Description))
		}
	}
	if c.count() == 0 {
		return nil, errors.New("kml: no geometries found")
	}
	d, err := newDataset(path, "kml", c)
	if err != nil {
		return nil, err
	}
	d.Projection = WGS84
	return d, nil
}

func (pm kmlPlacemark) geometry() orb.Geometry {
	var coll orb.Collection
	add := func(g kmlGeometry) {
		for _, p := range g.Points {
			if pts := parseKMLCoords(p.Coordinates); len(pts) > 0 {
				coll = append(coll, pts[0])
			}
		}
		for _, l := range g.Lines {
			if pts := parseKMLCoords(l.Coordinates); len(pts) > 0 {
				coll = append(coll, orb.LineString(pts))
			}
		}
		for _, pg := range g.Polygons {
			outer := parseKMLCoords(pg.Outer.Coordinates)
			if len(outer) == 0 {
				continue
			}
			poly := orb.Polygon{orb.Ring(outer)}
			for _, in := range pg.Inner {
				poly = append(poly, orb.Ring(parseKMLCoords(in.Coordinates)))
			}
			coll = append(coll, poly)
		}
	}
	add(pm.kmlGeometry)
	if pm.Multi != nil {
		add(*pm.Multi)
	}
	switch len(coll) {
	case 0:
		return nil
	case 1:
		return coll[0]
	}
	return coll
}

// parseKMLCoords reads whitespace separated "lon,lat[,alt]" tuples.
func parseKMLCoords(s string) []orb.Point {
	var pts []orb.Point
	for _, tuple := range strings.Fields(s) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts
}
