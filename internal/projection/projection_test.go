package projection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geomap/internal/geom"
)

func TestResolveAndTransform(t *testing.T) {
	reg := NewRegistry()
	src, err := reg.Resolve("EPSG:4326")
	require.NoError(t, err)
	dst, err := reg.Resolve("EPSG:3857")
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Open())

	p, err := src.Transform(dst, geom.Point{ID: 7, X: 90, Y: 0, Z: 3})
	require.NoError(t, err)
	assert.InDelta(t, 10018754.17, p.X, 0.01)
	assert.InDelta(t, 0, p.Y, 1e-6)
	assert.Equal(t, uint32(7), p.ID)
	assert.Equal(t, 3.0, p.Z)

	back, err := dst.Transform(src, p)
	require.NoError(t, err)
	assert.InDelta(t, 90, back.X, 1e-6)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	assert.Equal(t, 1, reg.Open())

	_, err = dst.Transform(src, p)
	assert.ErrorIs(t, err, ErrClosed)
	require.NoError(t, dst.Close())
	assert.Equal(t, 0, reg.Open())
}

func TestSameProjectionIsIdentity(t *testing.T) {
	reg := NewRegistry()
	a, err := reg.Resolve(wgs84)
	require.NoError(t, err)
	defer a.Close()
	b, err := reg.Resolve(wgs84)
	require.NoError(t, err)
	defer b.Close()

	p := geom.XY(12.5, 41.9)
	got, err := a.Transform(b, p)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestResolveErrors(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"EPSG:999999", "not a projection", ""} {
		h, err := reg.Resolve(id)
		require.Error(t, err, id)
		assert.Nil(t, h)
		var pe *ProjectionError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, id, pe.ID)
		assert.Equal(t, "resolve", pe.Op)
	}
	assert.Equal(t, 0, reg.Open())
}

func TestForeignHandle(t *testing.T) {
	a, err := NewRegistry().Resolve("EPSG:4326")
	require.NoError(t, err)
	b, err := NewRegistry().Resolve("EPSG:3857")
	require.NoError(t, err)
	_, err = a.Transform(b, geom.XY(0, 0))
	assert.ErrorIs(t, err, ErrForeign)
}

func TestRegister(t *testing.T) {
	reg := NewRegistry()
	reg.Register("utm33", "+proj=utm +zone=33 +datum=WGS84 +units=m +no_defs")
	h, err := reg.Resolve("UTM33")
	require.NoError(t, err)
	assert.NoError(t, h.Close())
}

func TestReprojectRect(t *testing.T) {
	reg := NewRegistry()
	r, err := Reproject(reg, "EPSG:4326", "EPSG:3857", geom.NewRectangle(geom.XY(-90, 0), geom.XY(90, 40)))
	require.NoError(t, err)
	assert.InDelta(t, -10018754.17, r.Min.X, 0.01)
	assert.InDelta(t, 10018754.17, r.Max.X, 0.01)
	assert.InDelta(t, 0, r.Min.Y, 1e-6)
	assert.InDelta(t, 4865942.28, r.Max.Y, 0.01)
	assert.Equal(t, 0, reg.Open())

	_, err = Reproject(reg, "EPSG:4326", "nope", r)
	assert.ErrorIs(t, err, ErrUnknown)
	assert.Equal(t, 0, reg.Open())
}
