package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"
)

// vectorCanvas paints antialiased shapes with golang.org/x/image/vector.
// Every shape is accumulated into the rasterizer and composited in one go,
// so overlapping stroke segments do not darken each other.
type vectorCanvas struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

func newVectorCanvas(w, h int) *vectorCanvas {
	return &vectorCanvas{
		img: image.NewRGBA(image.Rect(0, 0, w, h)),
		z:   vector.NewRasterizer(w, h),
	}
}

func (c *vectorCanvas) Image() *image.RGBA { return c.img }

func (c *vectorCanvas) FillRect(r image.Rectangle, col color.RGBA) {
	fillRect(c.img, r, col)
}

func (c *vectorCanvas) paint(col color.RGBA) {
	b := c.img.Bounds()
	c.z.Draw(c.img, b, image.NewUniform(col), image.Point{})
	c.z.Reset(b.Dx(), b.Dy())
}

func (c *vectorCanvas) FillPolygon(ring []Vec, col color.RGBA) {
	ring = strokeBox(c.img.Bounds(), 1).clipRing(ring)
	if len(ring) < 3 {
		return
	}
	c.z.MoveTo(float32(ring[0].X), float32(ring[0].Y))
	for _, p := range ring[1:] {
		c.z.LineTo(float32(p.X), float32(p.Y))
	}
	c.z.ClosePath()
	c.paint(col)
}

func (c *vectorCanvas) StrokePolyline(pts []Vec, pen Pen) {
	runs := splitDashes(pts, pen.Dash, strokeBox(c.img.Bounds(), pen.Width))
	if len(runs) == 0 {
		return
	}
	half := math.Max(pen.Width, 1) / 2
	for _, run := range runs {
		for i := 1; i < len(run); i++ {
			c.segment(run[i-1], run[i], half)
		}
	}
	c.paint(pen.Color)
}

func (c *vectorCanvas) StrokePolygon(ring []Vec, pen Pen) {
	c.StrokePolyline(closeRing(ring), pen)
}

// segment adds the outline of a segment of half-width h with square caps.
// All quads wind the same way so the rasterizer's accumulated coverage
// never cancels out.
func (c *vectorCanvas) segment(a, b Vec, h float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		dx, dy, l = 1, 0, 1
	}
	ux, uy := dx/l*h, dy/l*h
	nx, ny := -uy, ux
	ax, ay := a.X-ux, a.Y-uy
	bx, by := b.X+ux, b.Y+uy
	c.z.MoveTo(float32(ax+nx), float32(ay+ny))
	c.z.LineTo(float32(bx+nx), float32(by+ny))
	c.z.LineTo(float32(bx-nx), float32(by-ny))
	c.z.LineTo(float32(ax-nx), float32(ay-ny))
	c.z.ClosePath()
}

func (c *vectorCanvas) DrawText(at Vec, text string, col color.RGBA) {
	drawText(c.img, at, text, col)
}
