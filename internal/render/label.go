package render

import (
	"image"
	"image/color"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var labelFace = basicfont.Face7x13

// drawText draws text centered horizontally on at, with at as the vertical
// middle of the glyph box.
func drawText(img *image.RGBA, at Vec, text string, col color.RGBA) {
	if text == "" {
		return
	}
	width := font.MeasureString(labelFace, text).Ceil()
	m := labelFace.Metrics()
	x := int(math.Round(at.X)) - width/2
	y := int(math.Round(at.Y)) + (m.Ascent.Ceil()-m.Descent.Ceil())/2
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: labelFace,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// lineAnchor returns the middle vertex of a polyline part.
func lineAnchor(pts []Vec) (Vec, bool) {
	if len(pts) == 0 {
		return Vec{}, false
	}
	if len(pts)%2 == 0 {
		a, b := pts[len(pts)/2-1], pts[len(pts)/2]
		return Vec{(a.X + b.X) / 2, (a.Y + b.Y) / 2}, true
	}
	return pts[len(pts)/2], true
}

// ringAnchor returns the area centroid of a ring in pixel space, falling back
// to its first vertex when the ring has no area.
func ringAnchor(ring []Vec) (Vec, bool) {
	if len(ring) == 0 {
		return Vec{}, false
	}
	r := make(orb.Ring, len(ring))
	for i, p := range ring {
		r[i] = orb.Point{p.X, p.Y}
	}
	if len(r) < 3 {
		return ring[0], true
	}
	c, area := planar.CentroidArea(orb.Polygon{r})
	if area == 0 || math.IsNaN(c[0]) {
		return ring[0], true
	}
	return Vec{c[0], c[1]}, true
}
