package source

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"geomap/internal/carto"
	"geomap/internal/dbf"
	"geomap/internal/geom"
	"geomap/internal/shapefile"
)

var ErrEmpty = errors.New("nothing to export")

// WriteGeoJSON writes features as a FeatureCollection. Each feature gets
// its ID as the GeoJSON id and the listed fields as properties.
func WriteGeoJSON(w io.Writer, features []geom.Feature, attrs carto.AttributeSource, fields []string) error {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		g := f.Orb()
		if g == nil {
			continue
		}
		gf := geojson.NewFeature(g)
		gf.ID = f.ID()
		if attrs != nil {
			for _, name := range fields {
				if v, ok := attrs.Value(f.ID(), name); ok {
					gf.Properties[name] = v
				}
			}
		}
		fc.Append(gf)
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// WriteFlatGeobuf writes features with a packed Hilbert R-tree index so
// OpenFlatGeobuf can read them back. Attributes are stored as string
// columns. An "EPSG:<code>" projection is recorded as the CRS.
func WriteFlatGeobuf(w io.Writer, name string, features []geom.Feature, attrs carto.AttributeSource, fields []string, projection string) error {
	if len(features) == 0 {
		return ErrEmpty
	}
	builder := flatbuffers.NewBuilder(4096)
	header := writer.NewHeader(builder)
	header.SetGeometryType(fgbHeaderType(features))
	if name != "" {
		header.SetName(name)
	}
	var cols []*writer.Column
	if attrs != nil {
		for _, f := range fields {
			col := writer.NewColumn(builder)
			col.SetName(f)
			col.SetType(flattypes.ColumnTypeString)
			col.SetNullable(true)
			cols = append(cols, col)
		}
		if len(cols) > 0 {
			header.SetColumns(cols)
		}
	}
	if code, ok := epsgCode(projection); ok {
		crs := writer.NewCrs(builder)
		crs.SetOrg("EPSG")
		crs.SetCode(int32(code))
		header.SetCrs(crs)
	}

	gen := &featureGenerator{features: features, attrs: attrs}
	if len(cols) > 0 {
		gen.fields = fields
	}
	_, err := writer.NewWriter(header, true, gen, nil).Write(w)
	return err
}

// fgbHeaderType returns the geometry type shared by all features, or
// Unknown for a mixed set.
func fgbHeaderType(features []geom.Feature) flattypes.GeometryType {
	kind := features[0].Kind
	for _, f := range features[1:] {
		if f.Kind != kind {
			return flattypes.GeometryTypeUnknown
		}
	}
	switch kind {
	case geom.KindPoint:
		return flattypes.GeometryTypePoint
	case geom.KindPolyline:
		return flattypes.GeometryTypeMultiLineString
	case geom.KindPolygon:
		return flattypes.GeometryTypeMultiPolygon
	}
	return flattypes.GeometryTypeUnknown
}

func epsgCode(projection string) (int, bool) {
	up := strings.ToUpper(strings.TrimSpace(projection))
	if !strings.HasPrefix(up, "EPSG:") {
		return 0, false
	}
	code, err := strconv.Atoi(up[len("EPSG:"):])
	return code, err == nil && code > 0
}

type featureGenerator struct {
	features []geom.Feature
	attrs    carto.AttributeSource
	fields   []string
	index    int
}

func (g *featureGenerator) Generate() *writer.Feature {
	for g.index < len(g.features) {
		f := g.features[g.index]
		g.index++

		builder := flatbuffers.NewBuilder(1024)
		geometry := fgbFromOrb(f.Orb(), builder)
		if geometry == nil {
			continue
		}
		feature := writer.NewFeature(builder)
		feature.SetGeometry(geometry)
		if props := g.properties(f.ID()); len(props) > 0 {
			feature.SetProperties(props)
		}
		return feature
	}
	return nil
}

func (g *featureGenerator) properties(id uint32) []byte {
	if g.attrs == nil {
		return nil
	}
	var buf bytes.Buffer
	var n [4]byte
	for i, name := range g.fields {
		v, ok := g.attrs.Value(id, name)
		if !ok {
			continue
		}
		binary.LittleEndian.PutUint16(n[:2], uint16(i))
		buf.Write(n[:2])
		binary.LittleEndian.PutUint32(n[:], uint32(len(v)))
		buf.Write(n[:])
		buf.WriteString(v)
	}
	return buf.Bytes()
}

func fgbFromOrb(g orb.Geometry, builder *flatbuffers.Builder) *writer.Geometry {
	out := writer.NewGeometry(builder)
	switch v := g.(type) {
	case orb.Point:
		out.SetType(flattypes.GeometryTypePoint)
		out.SetXY([]float64{v[0], v[1]})
	case orb.MultiLineString:
		out.SetType(flattypes.GeometryTypeMultiLineString)
		xy, ends := flatten(len(v), func(i int) []orb.Point { return v[i] })
		out.SetXY(xy)
		out.SetEnds(ends)
	case orb.MultiPolygon:
		out.SetType(flattypes.GeometryTypeMultiPolygon)
		parts := make([]writer.Geometry, 0, len(v))
		for _, poly := range v {
			pg := writer.NewGeometry(builder)
			pg.SetType(flattypes.GeometryTypePolygon)
			xy, ends := flatten(len(poly), func(i int) []orb.Point { return poly[i] })
			pg.SetXY(xy)
			pg.SetEnds(ends)
			parts = append(parts, *pg)
		}
		out.SetParts(parts)
	default:
		return nil
	}
	return out
}

func flatten(n int, at func(int) []orb.Point) ([]float64, []uint32) {
	var xy []float64
	ends := make([]uint32, 0, n)
	total := uint32(0)
	for i := 0; i < n; i++ {
		for _, p := range at(i) {
			xy = append(xy, p[0], p[1])
		}
		total += uint32(len(at(i)))
		ends = append(ends, total)
	}
	return xy, ends
}

// WriteShapefile writes features of one kind to stem.shp with the
// attributes in stem.dbf and, when projection is set, stem.prj.
func WriteShapefile(stem string, kind geom.Kind, features []geom.Feature, attrs carto.AttributeSource, fields []string, projection string) error {
	var st shapefile.ShapeType
	switch kind {
	case geom.KindPoint:
		st = shapefile.TypePoint
	case geom.KindPolyline:
		st = shapefile.TypePolyLine
	case geom.KindPolygon:
		st = shapefile.TypePolygon
	default:
		return fmt.Errorf("shapefile: cannot write %s features", kind)
	}

	if err := writeFile(stem+".shp", func(w io.Writer) error {
		return shapefile.Encode(w, st, features)
	}); err != nil {
		return err
	}

	if attrs != nil && len(fields) > 0 {
		rows := make([][]string, len(features))
		for i, f := range features {
			row := make([]string, len(fields))
			for j, name := range fields {
				row[j], _ = attrs.Value(f.ID(), name)
			}
			rows[i] = row
		}
		if err := writeFile(stem+".dbf", func(w io.Writer) error {
			return dbf.Write(w, fields, rows)
		}); err != nil {
			return err
		}
		if err := os.WriteFile(stem+".cpg", []byte("UTF-8"), 0o644); err != nil {
			return err
		}
	}
	if projection != "" {
		return os.WriteFile(stem+".prj", []byte(projection), 0o644)
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
