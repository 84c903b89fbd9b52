package render

import (
	"image"
	"image/color"
	"image/draw"
)

// Vec is a position in pixel space, y pointing down.
type Vec struct {
	X, Y float64
}

// Pen describes a stroke. Dash alternates on and off lengths in pixels; nil
// draws a solid line.
type Pen struct {
	Color color.RGBA
	Width float64
	Dash  []float64
}

// Canvas is the drawing surface the renderer paints on. Rings passed to
// FillPolygon and StrokePolygon are closed implicitly.
type Canvas interface {
	FillRect(r image.Rectangle, c color.RGBA)
	FillPolygon(ring []Vec, c color.RGBA)
	StrokePolyline(pts []Vec, pen Pen)
	StrokePolygon(ring []Vec, pen Pen)
	DrawText(at Vec, text string, c color.RGBA)
	Image() *image.RGBA
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	op := draw.Over
	if c.A == 0xff {
		op = draw.Src
	}
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, op)
}

// closeRing returns ring with its first point repeated at the end, unless it
// is already closed.
func closeRing(ring []Vec) []Vec {
	if len(ring) < 2 || ring[0] == ring[len(ring)-1] {
		return ring
	}
	out := make([]Vec, len(ring)+1)
	copy(out, ring)
	out[len(ring)] = ring[0]
	return out
}
