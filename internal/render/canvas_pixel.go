package render

import (
	"image"
	"image/color"
	"math"
	"sort"
)

// pixelCanvas paints hard-edged shapes: scanline fills and Bresenham lines
// stamped with a square brush. It is the rendering used for the terminal,
// where every pixel becomes one braille dot.
type pixelCanvas struct {
	img *image.RGBA
}

func newPixelCanvas(w, h int) *pixelCanvas {
	return &pixelCanvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (c *pixelCanvas) Image() *image.RGBA { return c.img }

func (c *pixelCanvas) FillRect(r image.Rectangle, col color.RGBA) {
	fillRect(c.img, r, col)
}

func (c *pixelCanvas) setPixel(x, y int, col color.RGBA) {
	if !(image.Point{x, y}.In(c.img.Bounds())) {
		return
	}
	if col.A == 0xff {
		c.img.SetRGBA(x, y, col)
		return
	}
	dst := c.img.RGBAAt(x, y)
	a := uint32(col.A)
	blend := func(s, d uint8) uint8 {
		return uint8((uint32(s)*255 + uint32(d)*(255-a)) / 255)
	}
	c.img.SetRGBA(x, y, color.RGBA{
		R: blend(col.R, dst.R),
		G: blend(col.G, dst.G),
		B: blend(col.B, dst.B),
		A: uint8(a + uint32(dst.A)*(255-a)/255),
	})
}

// FillPolygon fills with the even-odd rule, sampling each row at its
// vertical center.
func (c *pixelCanvas) FillPolygon(ring []Vec, col color.RGBA) {
	if len(ring) < 3 {
		return
	}
	minY, maxY := ring[0].Y, ring[0].Y
	for _, p := range ring[1:] {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	b := c.img.Bounds()
	y0 := max(int(math.Floor(minY)), b.Min.Y)
	y1 := min(int(math.Ceil(maxY)), b.Max.Y-1)
	xs := make([]float64, 0, len(ring))
	for y := y0; y <= y1; y++ {
		fy := float64(y) + 0.5
		xs = xs[:0]
		for i := range ring {
			a, e := ring[i], ring[(i+1)%len(ring)]
			if a.Y == e.Y {
				continue
			}
			if (fy >= a.Y && fy < e.Y) || (fy >= e.Y && fy < a.Y) {
				t := (fy - a.Y) / (e.Y - a.Y)
				xs = append(xs, a.X+t*(e.X-a.X))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			xstart := int(math.Ceil(xs[i] - 0.5))
			xend := int(math.Floor(xs[i+1] - 0.5))
			if xstart > xend {
				continue
			}
			fillRect(c.img, image.Rect(xstart, y, xend+1, y+1), col)
		}
	}
}

func (c *pixelCanvas) StrokePolyline(pts []Vec, pen Pen) {
	w := max(int(math.Round(pen.Width)), 1)
	for _, run := range splitDashes(pts, pen.Dash, strokeBox(c.img.Bounds(), pen.Width)) {
		for i := 1; i < len(run); i++ {
			a, b := run[i-1], run[i]
			c.line(int(math.Round(a.X)), int(math.Round(a.Y)), int(math.Round(b.X)), int(math.Round(b.Y)), w, pen.Color)
		}
	}
}

func (c *pixelCanvas) StrokePolygon(ring []Vec, pen Pen) {
	c.StrokePolyline(closeRing(ring), pen)
}

// line draws with Bresenham, stamping a w x w square at every step.
func (c *pixelCanvas) line(x0, y0, x1, y1, w int, col color.RGBA) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	off := (w - 1) / 2
	for {
		if w == 1 {
			c.setPixel(x0, y0, col)
		} else {
			for j := 0; j < w; j++ {
				for i := 0; i < w; i++ {
					c.setPixel(x0-off+i, y0-off+j, col)
				}
			}
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *pixelCanvas) DrawText(at Vec, text string, col color.RGBA) {
	drawText(c.img, at, text, col)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
