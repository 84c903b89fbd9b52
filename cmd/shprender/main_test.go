package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geomap/internal/geom"
	"geomap/internal/source"
)

func writeParcels(t *testing.T) string {
	t.Helper()
	props := source.NewProperties()
	props.Set(1, "OWNER", "Ada")
	props.Set(2, "OWNER", "Grace")
	ring := func(x float64) geom.Ring {
		return geom.Ring{geom.XY(x, 0), geom.XY(x, 10), geom.XY(x+10, 10), geom.XY(x+10, 0), geom.XY(x, 0)}
	}
	features := []geom.Feature{
		geom.NewPolygonFeature(&geom.Polygon{ID: 1, Rings: []geom.Ring{ring(0)}}),
		geom.NewPolygonFeature(&geom.Polygon{ID: 2, Rings: []geom.Ring{ring(20)}}),
	}
	stem := filepath.Join(t.TempDir(), "parcels")
	require.NoError(t, source.WriteShapefile(stem, geom.KindPolygon, features, props, props.Fields, ""))
	return stem + ".shp"
}

func TestInfo(t *testing.T) {
	shp := writeParcels(t)
	var out bytes.Buffer
	require.NoError(t, run([]string{"info", shp}, &out))
	s := out.String()
	assert.Contains(t, s, "Polygon")
	assert.Contains(t, s, "polygon features  2")
	assert.Contains(t, s, "extents           0 0 30 10")
	assert.Contains(t, s, "OWNER")
}

func TestRenderFile(t *testing.T) {
	shp := writeParcels(t)
	out := filepath.Join(t.TempDir(), "parcels.tiff")
	require.NoError(t, run([]string{"render", "-shp", shp, "-o", out, "-w", "64", "-h", "32", "-smoothing", "none"}, os.Stdout))
	st, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, st.Size())
}

func TestExport(t *testing.T) {
	shp := writeParcels(t)
	dir := t.TempDir()

	gj := filepath.Join(dir, "parcels.geojson")
	require.NoError(t, run([]string{"export", "-to", "geojson", shp, gj}, os.Stdout))
	ds, err := source.Open(gj)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Count())
	assert.Equal(t, []string{"Grace"}, ds.Row(2))

	back := filepath.Join(dir, "again.shp")
	require.NoError(t, run([]string{"export", "-to", "shp", gj, back}, os.Stdout))
	ds, err = source.Open(back)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada"}, ds.Row(1))
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
	assert.Error(t, run([]string{"draw"}, &out))
	assert.Error(t, run([]string{"render"}, &out))
	assert.Error(t, run([]string{"export", "-to", "kml", "a.shp", "b.kml"}, &out))
	assert.Error(t, run([]string{"info"}, &out))
}
