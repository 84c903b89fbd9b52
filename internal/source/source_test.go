package source

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geomap/internal/carto"
	"geomap/internal/geom"
)

func pt(id uint32, x, y float64) geom.Feature {
	return geom.NewPointFeature(geom.Point{ID: id, X: x, Y: y})
}

func ids(fs []geom.Feature) []uint32 {
	out := make([]uint32, len(fs))
	for i, f := range fs {
		out[i] = f.ID()
	}
	return out
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestMemoryGetFeatures(t *testing.T) {
	m, err := NewMemory(geom.KindPoint, []geom.Feature{
		pt(1, 0, 0),
		pt(2, 10, 10),
		pt(3, 5, 5),
		{},
		pt(4, 100, 100),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())
	assert.Equal(t, geom.KindPoint, m.Kind())

	ext, ok := m.Extents()
	require.True(t, ok)
	assert.Equal(t, geom.NewRectangle(geom.XY(0, 0), geom.XY(100, 100)), ext)

	tests := []struct {
		name string
		rect geom.Rectangle
		want []uint32
	}{
		{"everything", ext, []uint32{1, 2, 3, 4}},
		{"touching corner", geom.NewRectangle(geom.XY(10, 10), geom.XY(20, 20)), []uint32{2}},
		{"inside", geom.NewRectangle(geom.XY(1, 1), geom.XY(11, 11)), []uint32{2, 3}},
		{"empty area", geom.NewRectangle(geom.XY(20, 20), geom.XY(30, 30)), []uint32{}},
		{"degenerate query", geom.NewRectangle(geom.XY(5, 5), geom.XY(5, 5)), []uint32{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.GetFeatures(tt.rect)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestMemoryPolylineBounds(t *testing.T) {
	line := geom.NewPolylineFeature(&geom.Polyline{ID: 7, Parts: []geom.Part{{geom.XY(0, 0), geom.XY(10, 0)}}})
	m, err := NewMemory(geom.KindPolyline, []geom.Feature{line})
	require.NoError(t, err)

	got, err := m.GetFeatures(geom.NewRectangle(geom.XY(5, -1), geom.XY(6, 0)))
	require.NoError(t, err)
	assert.Equal(t, []uint32{7}, ids(got))

	got, err = m.GetFeatures(geom.NewRectangle(geom.XY(5, 0.5), geom.XY(6, 1)))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryKindMismatch(t *testing.T) {
	_, err := NewMemory(geom.KindPolygon, []geom.Feature{pt(1, 0, 0)})
	assert.Error(t, err)
}

func TestMemoryEmpty(t *testing.T) {
	m, err := NewMemory(geom.KindPoint, nil)
	require.NoError(t, err)
	got, err := m.GetFeatures(geom.NewRectangle(geom.XY(0, 0), geom.XY(1, 1)))
	require.NoError(t, err)
	assert.Empty(t, got)
	_, ok := m.Extents()
	assert.False(t, ok)
	_, ok = m.Nearest(geom.XY(0, 0))
	assert.False(t, ok)
}

func TestMemoryNearest(t *testing.T) {
	m, err := NewMemory(geom.KindPoint, []geom.Feature{pt(1, 0, 0), pt(2, 10, 10), pt(3, -20, 4)})
	require.NoError(t, err)
	f, ok := m.Nearest(geom.XY(9, 8))
	require.True(t, ok)
	assert.Equal(t, uint32(2), f.ID())
}

func TestReadGeoJSON(t *testing.T) {
	data := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"name":"a","pop":12},"geometry":{"type":"Point","coordinates":[1,2]}},
		{"type":"Feature","properties":{"name":"b"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}},
		{"type":"Feature","properties":{"name":"c"},"geometry":{"type":"MultiPoint","coordinates":[[5,5],[6,6]]}}
	]}`
	d, err := ReadGeoJSON([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, WGS84, d.Projection)
	require.Len(t, d.Sources, 2)
	assert.Equal(t, geom.KindPolygon, d.Sources[0].Kind())
	assert.Equal(t, geom.KindPoint, d.Sources[1].Kind())
	assert.Equal(t, 4, d.Count())
	assert.Equal(t, []string{"name", "pop"}, d.Fields)

	v, ok := d.Attributes.Value(1, "pop")
	require.True(t, ok)
	assert.Equal(t, "12", v)

	// both points of the multipoint share the record
	points := d.Source(geom.KindPoint).Features()
	assert.Equal(t, []uint32{1, 3, 3}, ids(points))

	poly := d.Source(geom.KindPolygon).Features()[0].Polygon
	assert.True(t, poly.Rings[0].IsClockwise())

	assert.Equal(t, []string{"b", ""}, d.Row(2))
}

func TestReadGeoJSONVariants(t *testing.T) {
	d, err := ReadGeoJSON([]byte(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`))
	require.NoError(t, err)
	require.NotNil(t, d.Source(geom.KindPolyline))
	assert.Nil(t, d.Attributes)

	d, err = ReadGeoJSON([]byte(`{"type":"Feature","properties":{"k":true},"geometry":{"type":"Point","coordinates":[3,4]}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"true"}, d.Row(1))

	_, err = ReadGeoJSON([]byte(`{"features":[]}`))
	assert.Error(t, err)
	_, err = ReadGeoJSON([]byte(`{"type":"FeatureCollection","features":[]}`))
	assert.Error(t, err)
	_, err = ReadGeoJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseWKT(t *testing.T) {
	d, err := ParseWKT("# comment\nPOINT (1 2)\n\nLINESTRING (0 0, 1 1)\n")
	require.NoError(t, err)
	require.Len(t, d.Sources, 2)
	assert.Equal(t, []uint32{2}, ids(d.Source(geom.KindPolyline).Features()))
	assert.Equal(t, []uint32{1}, ids(d.Source(geom.KindPoint).Features()))

	t.Run("spread over lines", func(t *testing.T) {
		d, err := ParseWKT("POLYGON ((0 0,\n 0 1, 1 1,\n 0 0))")
		require.NoError(t, err)
		src := d.Source(geom.KindPolygon)
		require.NotNil(t, src)
		assert.Len(t, src.Features()[0].Polygon.Rings[0], 4)
	})

	for _, in := range []string{"", "   ", "POINT (1 2)\nNOT WKT"} {
		_, err := ParseWKT(in)
		assert.Error(t, err, in)
	}
}

func TestLoadCSV(t *testing.T) {
	p := writeTemp(t, "places.csv", "name,Latitude,lng\nA,10,20\nB,bad,1\nC,-5,7.5\n")
	d, err := Open(p)
	require.NoError(t, err)
	assert.Equal(t, "places", d.Name)
	assert.Equal(t, "csv", d.Format)
	assert.Equal(t, WGS84, d.Projection)

	fs := d.Features()
	require.Len(t, fs, 2)
	assert.Equal(t, 20.0, fs[0].Point.X)
	assert.Equal(t, 10.0, fs[0].Point.Y)
	assert.Equal(t, []string{"name"}, d.Fields)
	assert.Equal(t, []string{"C"}, d.Row(fs[1].ID()))

	_, err = LoadCSV(writeTemp(t, "nocoords.csv", "a,b\n1,2\n"))
	assert.Error(t, err)
}

func TestLoadKML(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document><Folder>
  <Placemark><name>Spot</name><Point><coordinates>1,2,0</coordinates></Point></Placemark>
  <Placemark><name>Field</name>
    <Polygon>
      <outerBoundaryIs><LinearRing><coordinates>0,0 0,4 4,4 4,0 0,0</coordinates></LinearRing></outerBoundaryIs>
      <innerBoundaryIs><LinearRing><coordinates>1,1 2,1 2,2 1,1</coordinates></LinearRing></innerBoundaryIs>
    </Polygon>
  </Placemark>
  <Placemark><name>Empty</name></Placemark>
</Folder></Document></kml>`
	d, err := Open(writeTemp(t, "doc.kml", doc))
	require.NoError(t, err)
	require.Len(t, d.Sources, 2)

	pts := d.Source(geom.KindPoint).Features()
	require.Len(t, pts, 1)
	assert.Equal(t, geom.Point{ID: 1, X: 1, Y: 2}, pts[0].Point)

	poly := d.Source(geom.KindPolygon).Features()[0].Polygon
	require.Len(t, poly.Rings, 2)
	assert.True(t, poly.Rings[0].IsClockwise())
	assert.False(t, poly.Rings[1].IsClockwise())

	v, ok := d.Attributes.Value(2, "name")
	require.True(t, ok)
	assert.Equal(t, "Field", v)
}

func TestShapefileExportAndOpen(t *testing.T) {
	props := NewProperties()
	props.Set(1, "NAME", "north")
	props.Set(1, "POP", "100")
	props.Set(2, "NAME", "south")
	props.Set(2, "POP", "7")

	square := func(id uint32, x, y float64) geom.Feature {
		return geom.NewPolygonFeature(&geom.Polygon{ID: id, Rings: []geom.Ring{{
			{ID: id, X: x, Y: y}, {ID: id, X: x, Y: y + 1}, {ID: id, X: x + 1, Y: y + 1}, {ID: id, X: x + 1, Y: y}, {ID: id, X: x, Y: y},
		}}})
	}
	features := []geom.Feature{square(1, 0, 10), square(2, 0, -10)}

	stem := filepath.Join(t.TempDir(), "regions")
	require.NoError(t, WriteShapefile(stem, geom.KindPolygon, features, props, props.Fields, WGS84))

	d, err := Open(stem + ".shp")
	require.NoError(t, err)
	assert.Equal(t, "regions", d.Name)
	assert.Equal(t, WGS84, d.Projection)
	require.NotNil(t, d.Header)
	assert.Equal(t, 0.0, d.Header.Extents.Min.X)
	assert.Equal(t, -10.0, d.Header.Extents.Min.Y)
	assert.Equal(t, 11.0, d.Header.Extents.Max.Y)
	assert.Equal(t, []string{"NAME", "POP"}, d.Fields)
	assert.Equal(t, []string{"south", "7"}, d.Row(2))

	src := d.Source(geom.KindPolygon)
	require.NotNil(t, src)
	assert.Equal(t, []uint32{1, 2}, ids(src.Features()))

	layers := d.Layers(carto.DefaultSymbol)
	require.Len(t, layers, 1)
	assert.Equal(t, "regions", layers[0].ID)
	assert.Equal(t, WGS84, layers[0].Projection)

	assert.Error(t, WriteShapefile(stem, geom.KindNull, nil, nil, nil, ""))
}

func TestOpenShapefileWithoutAttributes(t *testing.T) {
	stem := filepath.Join(t.TempDir(), "bare")
	require.NoError(t, WriteShapefile(stem, geom.KindPoint, []geom.Feature{pt(1, 3, 4)}, nil, nil, ""))

	d, err := OpenShapefile(stem + ".shp")
	require.NoError(t, err)
	assert.Nil(t, d.Attributes)
	assert.Empty(t, d.Projection)
	assert.Equal(t, 1, d.Count())
}

func TestFlatGeobufRoundTrip(t *testing.T) {
	props := NewProperties()
	props.Set(1, "name", "river")
	props.Set(2, "name", "road")
	lines := []geom.Feature{
		geom.NewPolylineFeature(&geom.Polyline{ID: 1, Parts: []geom.Part{{geom.XY(0, 0), geom.XY(5, 5)}}}),
		geom.NewPolylineFeature(&geom.Polyline{ID: 2, Parts: []geom.Part{{geom.XY(10, 0), geom.XY(12, 3)}, {geom.XY(20, 20), geom.XY(21, 21)}}}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFlatGeobuf(&buf, "ways", lines, props, props.Fields, "EPSG:3857"))

	d, err := ReadFlatGeobuf(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "EPSG:3857", d.Projection)
	assert.Equal(t, []string{"name"}, d.Fields)

	src := d.Source(geom.KindPolyline)
	require.NotNil(t, src)
	require.Equal(t, 2, src.Len())

	var names []string
	parts := map[string]int{}
	for _, f := range src.Features() {
		v, ok := d.Attributes.Value(f.ID(), "name")
		require.True(t, ok)
		names = append(names, v)
		parts[v] = len(f.Polyline.Parts)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"river", "road"}, names)
	assert.Equal(t, 2, parts["road"])

	assert.ErrorIs(t, WriteFlatGeobuf(&buf, "", nil, nil, nil, ""), ErrEmpty)
}

func TestWriteGeoJSON(t *testing.T) {
	props := NewProperties()
	props.Set(4, "name", "spot")

	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, []geom.Feature{pt(4, 1, 2), {}}, props, props.Fields))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "spot", fc.Features[0].Properties["name"])
	assert.EqualValues(t, 4, fc.Features[0].ID)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("map.txt")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.True(t, Supported("x.GeoJSON"))
	assert.False(t, Supported("x.gpx"))
}

func TestDatasetLayerIDs(t *testing.T) {
	d, err := ParseWKT("POINT (1 2)\nLINESTRING (0 0, 1 1)")
	require.NoError(t, err)
	d.Name = "mixed"
	var got []string
	for _, l := range d.Layers(carto.DefaultSymbol) {
		got = append(got, l.ID)
	}
	assert.Equal(t, []string{"mixed:polyline", "mixed:point"}, got)

	ext, ok := d.Extents()
	require.True(t, ok)
	assert.Equal(t, geom.NewRectangle(geom.XY(0, 0), geom.XY(1, 2)), ext)
}
