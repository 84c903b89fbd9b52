package geom

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, size float64, clockwise bool) Ring {
	r := Ring{XY(x0, y0), XY(x0, y0+size), XY(x0+size, y0+size), XY(x0+size, y0), XY(x0, y0)}
	if !clockwise {
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
	}
	return r
}

func TestRingIsClockwise(t *testing.T) {
	assert.True(t, square(0, 0, 10, true).IsClockwise())
	assert.False(t, square(0, 0, 10, false).IsClockwise())
	assert.False(t, Ring{XY(0, 0), XY(1, 1), XY(0, 0)}.IsClockwise())
	assert.False(t, Ring{}.IsClockwise())
}

func TestPolygonGroups(t *testing.T) {
	p := &Polygon{Rings: []Ring{
		square(0, 0, 10, true),
		square(2, 2, 2, false),
		square(5, 5, 2, false),
		square(20, 20, 5, true),
	}}
	groups := p.Groups()
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 3)
	assert.Len(t, groups[1], 1)

	t.Run("leading hole opens a group", func(t *testing.T) {
		p := &Polygon{Rings: []Ring{square(2, 2, 2, false), square(0, 0, 10, true)}}
		assert.Len(t, p.Groups(), 2)
	})
}

func TestPolygonOrbOrientation(t *testing.T) {
	p := &Polygon{Rings: []Ring{square(0, 0, 10, true), square(2, 2, 2, false)}}
	mp := p.Orb()
	require.Len(t, mp, 1)
	require.Len(t, mp[0], 2)
	assert.Equal(t, orb.CCW, mp[0][0].Orientation())
	assert.Equal(t, orb.CW, mp[0][1].Orientation())
	// source rings are untouched
	assert.True(t, p.Rings[0].IsClockwise())
}

func TestFeatureBoundsAndID(t *testing.T) {
	tests := []struct {
		name string
		f    Feature
		id   uint32
		rect Rectangle
	}{
		{"point", NewPointFeature(Point{ID: 3, X: 1, Y: 2}), 3, Rectangle{Min: XY(1, 2), Max: XY(1, 2)}},
		{"polyline", NewPolylineFeature(&Polyline{ID: 4, Parts: []Part{{XY(0, 0), XY(5, 1)}, {XY(-1, 3)}}}), 4, Rectangle{Min: XY(-1, 0), Max: XY(5, 3)}},
		{"polygon", NewPolygonFeature(&Polygon{ID: 5, Rings: []Ring{square(1, 1, 2, true)}}), 5, Rectangle{Min: XY(1, 1), Max: XY(3, 3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, tt.f.ID())
			b, ok := tt.f.Bounds()
			require.True(t, ok)
			assert.Equal(t, tt.rect, b)
		})
	}

	_, ok := NewPolylineFeature(&Polyline{}).Bounds()
	assert.False(t, ok)
}

func TestFeatureOrb(t *testing.T) {
	assert.Equal(t, orb.Point{1, 2}, NewPointFeature(XY(1, 2)).Orb())
	mls, ok := NewPolylineFeature(&Polyline{Parts: []Part{{XY(0, 0), XY(1, 1)}}}).Orb().(orb.MultiLineString)
	require.True(t, ok)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}}, mls[0])
	assert.Nil(t, Feature{}.Orb())
}

func TestRectangleWithAspectRatio(t *testing.T) {
	tests := []struct {
		name  string
		in    Rectangle
		ratio float64
		want  Rectangle
	}{
		{"widen x", NewRectangle(XY(0, 0), XY(10, 10)), 2, NewRectangle(XY(-5, 0), XY(15, 10))},
		{"grow y", NewRectangle(XY(0, 0), XY(10, 10)), 0.5, NewRectangle(XY(0, -5), XY(10, 15))},
		{"unchanged", NewRectangle(XY(0, 0), XY(20, 10)), 2, NewRectangle(XY(0, 0), XY(20, 10))},
		{"flat", NewRectangle(XY(0, 5), XY(10, 5)), 1, NewRectangle(XY(0, 0), XY(10, 10))},
		{"invalid ratio", NewRectangle(XY(0, 0), XY(1, 2)), 0, NewRectangle(XY(0, 0), XY(1, 2))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.WithAspectRatio(tt.ratio)
			assert.InDelta(t, tt.want.Min.X, got.Min.X, 1e-9)
			assert.InDelta(t, tt.want.Min.Y, got.Min.Y, 1e-9)
			assert.InDelta(t, tt.want.Max.X, got.Max.X, 1e-9)
			assert.InDelta(t, tt.want.Max.Y, got.Max.Y, 1e-9)
			if tt.ratio > 0 {
				assert.InDelta(t, tt.ratio, got.AspectRatio(), 1e-9)
			}
		})
	}
}

func TestRectangleOps(t *testing.T) {
	r := NewRectangle(XY(10, 10), XY(0, 0))
	assert.Equal(t, XY(0, 0), r.Min)
	assert.Equal(t, 10.0, r.Width())
	assert.True(t, r.Contains(XY(10, 0)))
	assert.False(t, r.Contains(XY(10.1, 0)))
	assert.True(t, r.Intersects(NewRectangle(XY(10, 10), XY(20, 20))))
	assert.False(t, r.Intersects(NewRectangle(XY(11, 11), XY(20, 20))))
	assert.Equal(t, NewRectangle(XY(0, 0), XY(20, 20)), r.Union(NewRectangle(XY(15, 15), XY(20, 20))))
	assert.Equal(t, NewRectangle(XY(-5, -5), XY(15, 15)), r.Scale(2))
	assert.Equal(t, NewRectangle(XY(1, -1), XY(11, 9)), r.Translate(1, -1))
	assert.Equal(t, r, RectangleFromBound(r.Bound()))
}
