package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"
)

var ErrNoIndex = errors.New("flatgeobuf: file has no spatial index")

// OpenFlatGeobuf loads every feature of an indexed FlatGeobuf file.
// Feature properties become attributes; an EPSG CRS becomes the dataset
// projection.
func OpenFlatGeobuf(path string) (*Dataset, error) {
	fgb, err := flatgeobuf.New(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d, err := readFlatGeobuf(fgb, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ReadFlatGeobuf loads a FlatGeobuf file held in memory.
func ReadFlatGeobuf(data []byte) (*Dataset, error) {
	fgb, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return readFlatGeobuf(fgb, "flatgeobuf")
}

func readFlatGeobuf(fgb *flatgeobuf.FlatGeoBuf, path string) (*Dataset, error) {
	h := fgb.Header()
	if h == nil {
		return nil, errors.New("flatgeobuf: missing header")
	}
	c := newCollector()
	if h.FeaturesCount() > 0 {
		if h.IndexNodeSize() == 0 || h.EnvelopeLength() < 4 {
			return nil, ErrNoIndex
		}
		features, err := fgb.Search(h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3))
		if err != nil {
			return nil, err
		}
		cols := fgbColumns(h)
		for _, f := range features {
			if f == nil {
				continue
			}
			var gobj flattypes.Geometry
			g := f.Geometry(&gobj)
			if g == nil {
				continue
			}
			og := fgbGeometry(g, h.GeometryType())
			if og == nil {
				continue
			}
			id := c.add(og)
			props := make([]byte, f.PropertiesLength())
			for i := range props {
				props[i] = byte(f.Properties(i))
			}
			decodeFGBProperties(props, cols, func(name, value string) {
				c.props.Set(id, name, value)
			})
		}
	}

	d, err := newDataset(path, "flatgeobuf", c)
	if err != nil {
		return nil, err
	}
	var crs flattypes.Crs
	if h.Crs(&crs) != nil && crs.Code() > 0 {
		org := string(crs.Org())
		if org == "" {
			org = "EPSG"
		}
		d.Projection = org + ":" + strconv.Itoa(int(crs.Code()))
	}
	return d, nil
}

type fgbColumn struct {
	name string
	typ  flattypes.ColumnType
}

func fgbColumns(h *flattypes.Header) []fgbColumn {
	cols := make([]fgbColumn, 0, h.ColumnsLength())
	for i := 0; i < h.ColumnsLength(); i++ {
		var col flattypes.Column
		if h.Columns(&col, i) {
			cols = append(cols, fgbColumn{name: string(col.Name()), typ: col.Type()})
		}
	}
	return cols
}

// decodeFGBProperties walks the property buffer: a little-endian uint16
// column index followed by the value in the column's encoding. Strings,
// JSON, dates and binaries carry a uint32 length prefix.
func decodeFGBProperties(data []byte, cols []fgbColumn, set func(name, value string)) {
	le := binary.LittleEndian
	for off := 0; off+2 <= len(data); {
		ci := int(le.Uint16(data[off:]))
		off += 2
		if ci >= len(cols) {
			return
		}
		col := cols[ci]
		rest := data[off:]
		var v string
		n := 0
		switch col.typ {
		case flattypes.ColumnTypeBool:
			n = 1
			if len(rest) >= n {
				v = strconv.FormatBool(rest[0] != 0)
			}
		case flattypes.ColumnTypeByte:
			n = 1
			if len(rest) >= n {
				v = strconv.Itoa(int(int8(rest[0])))
			}
		case flattypes.ColumnTypeUByte:
			n = 1
			if len(rest) >= n {
				v = strconv.Itoa(int(rest[0]))
			}
		case flattypes.ColumnTypeShort:
			n = 2
			if len(rest) >= n {
				v = strconv.Itoa(int(int16(le.Uint16(rest))))
			}
		case flattypes.ColumnTypeUShort:
			n = 2
			if len(rest) >= n {
				v = strconv.Itoa(int(le.Uint16(rest)))
			}
		case flattypes.ColumnTypeInt:
			n = 4
			if len(rest) >= n {
				v = strconv.Itoa(int(int32(le.Uint32(rest))))
			}
		case flattypes.ColumnTypeUInt:
			n = 4
			if len(rest) >= n {
				v = strconv.FormatUint(uint64(le.Uint32(rest)), 10)
			}
		case flattypes.ColumnTypeLong:
			n = 8
			if len(rest) >= n {
				v = strconv.FormatInt(int64(le.Uint64(rest)), 10)
			}
		case flattypes.ColumnTypeULong:
			n = 8
			if len(rest) >= n {
				v = strconv.FormatUint(le.Uint64(rest), 10)
			}
		case flattypes.ColumnTypeFloat:
			n = 4
			if len(rest) >= n {
				v = strconv.FormatFloat(float64(math.Float32frombits(le.Uint32(rest))), 'f', -1, 32)
			}
		case flattypes.ColumnTypeDouble:
			n = 8
			if len(rest) >= n {
				v = strconv.FormatFloat(math.Float64frombits(le.Uint64(rest)), 'f', -1, 64)
			}
		default:
			if len(rest) < 4 {
				return
			}
			l := int(le.Uint32(rest))
			if len(rest) < 4+l {
				return
			}
			n = 4 + l
			v = string(rest[4:n])
		}
		if len(rest) < n {
			return
		}
		set(col.name, v)
		off += n
	}
}

// fgbGeometry converts a geometry table into orb. Geometries written under
// a typed header leave their own type unset, so the header type is the
// fallback.
func fgbGeometry(g *flattypes.Geometry, headerType flattypes.GeometryType) orb.Geometry {
	typ := g.Type()
	if typ == flattypes.GeometryTypeUnknown {
		typ = headerType
	}
	xy := func() []orb.Point {
		pts := make([]orb.Point, 0, g.XyLength()/2)
		for i := 0; i+1 < g.XyLength(); i += 2 {
			pts = append(pts, orb.Point{g.Xy(i), g.Xy(i + 1)})
		}
		return pts
	}
	split := func() [][]orb.Point {
		pts := xy()
		if g.EndsLength() == 0 {
			return [][]orb.Point{pts}
		}
		out := make([][]orb.Point, 0, g.EndsLength())
		start := 0
		for i := 0; i < g.EndsLength(); i++ {
			end := int(g.Ends(i))
			if end > len(pts) || end < start {
				break
			}
			out = append(out, pts[start:end])
			start = end
		}
		return out
	}

	switch typ {
	case flattypes.GeometryTypePoint:
		pts := xy()
		if len(pts) == 0 {
			return nil
		}
		return pts[0]
	case flattypes.GeometryTypeMultiPoint:
		return orb.MultiPoint(xy())
	case flattypes.GeometryTypeLineString:
		return orb.LineString(xy())
	case flattypes.GeometryTypeMultiLineString:
		var mls orb.MultiLineString
		for _, p := range split() {
			mls = append(mls, orb.LineString(p))
		}
		return mls
	case flattypes.GeometryTypePolygon:
		return polygon(split())
	case flattypes.GeometryTypeMultiPolygon, flattypes.GeometryTypeGeometryCollection:
		if g.PartsLength() == 0 && typ == flattypes.GeometryTypeMultiPolygon {
			return orb.MultiPolygon{polygon(split())}
		}
		partType := flattypes.GeometryTypeUnknown
		if typ == flattypes.GeometryTypeMultiPolygon {
			partType = flattypes.GeometryTypePolygon
		}
		var coll orb.Collection
		var mp orb.MultiPolygon
		for i := 0; i < g.PartsLength(); i++ {
			var part flattypes.Geometry
			if !g.Parts(&part, i) {
				continue
			}
			pg := fgbGeometry(&part, partType)
			if pg == nil {
				continue
			}
			if p, ok := pg.(orb.Polygon); ok && typ == flattypes.GeometryTypeMultiPolygon {
				mp = append(mp, p)
				continue
			}
			coll = append(coll, pg)
		}
		if typ == flattypes.GeometryTypeMultiPolygon {
			return mp
		}
		return coll
	}
	return nil
}

func polygon(rings [][]orb.Point) orb.Polygon {
	poly := make(orb.Polygon, 0, len(rings))
	for _, r := range rings {
		poly = append(poly, orb.Ring(r))
	}
	return poly
}
