package render

import (
	"image"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
)

// clipBox is an axis-aligned clip region in pixel space.
type clipBox struct {
	minX, minY, maxX, maxY float64
}

// noClip lets every segment through.
var noClip = clipBox{math.Inf(-1), math.Inf(-1), math.Inf(1), math.Inf(1)}

// strokeBox grows image bounds by a pen width plus one pixel, so caps and
// stamps that reach into the image from outside are kept.
func strokeBox(b image.Rectangle, width float64) clipBox {
	m := math.Max(width, 1) + 1
	return clipBox{
		minX: float64(b.Min.X) - m,
		minY: float64(b.Min.Y) - m,
		maxX: float64(b.Max.X) + m,
		maxY: float64(b.Max.Y) + m,
	}
}

// clip returns the parameter range [t0, t1] of segment a->b that lies
// inside the box (Liang-Barsky). ok is false when nothing of it does.
func (c clipBox) clip(a, b Vec) (t0, t1 float64, ok bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	t0, t1 = 0, 1
	for _, e := range [4][2]float64{
		{-dx, a.X - c.minX},
		{dx, c.maxX - a.X},
		{-dy, a.Y - c.minY},
		{dy, c.maxY - a.Y},
	} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	if t0 >= t1 && (dx != 0 || dy != 0) {
		return 0, 0, false
	}
	return t0, t1, true
}

// clipRing clips a ring to the box. The result may run along the box edges,
// which is harmless for filling since the box lies outside the image.
func (c clipBox) clipRing(ring []Vec) []Vec {
	ring = closeRing(ring)
	r := make(orb.Ring, len(ring))
	for i, v := range ring {
		r[i] = orb.Point{v.X, v.Y}
	}
	r = clip.Ring(orb.Bound{Min: orb.Point{c.minX, c.minY}, Max: orb.Point{c.maxX, c.maxY}}, r)
	if len(r) == 0 {
		return nil
	}
	out := make([]Vec, len(r))
	for i, p := range r {
		out[i] = Vec{p[0], p[1]}
	}
	return out
}
