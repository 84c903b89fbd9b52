package render

import (
	"image"

	"geomap/internal/carto"
	"geomap/internal/geom"
	"geomap/internal/projection"
)

// painter draws the features of one layer.
type painter struct {
	canvas Canvas
	view   Viewport
	layer  *carto.Layer
	src    projection.Handle
	dst    projection.Handle
	labels []label
}

type label struct {
	at   Vec
	text string
}

// flushLabels draws the collected labels above the layer's geometry.
func (p *painter) flushLabels() {
	for _, l := range p.labels {
		p.canvas.DrawText(l.at, l.text, p.layer.LineColor)
	}
	p.labels = nil
}

func (p *painter) toPixel(pt geom.Point) (Vec, error) {
	if p.src != nil {
		var err error
		pt, err = p.src.Transform(p.dst, pt)
		if err != nil {
			return Vec{}, err
		}
	}
	return p.view.Pixel(pt), nil
}

func (p *painter) toPixels(pts []geom.Point) ([]Vec, error) {
	out := make([]Vec, len(pts))
	for i, pt := range pts {
		v, err := p.toPixel(pt)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func pen(s carto.Symbol) Pen {
	return Pen{Color: s.LineColor, Width: s.LineWidth, Dash: dashPattern(s.LineStyle, s.LineWidth)}
}

func (p *painter) points(features []geom.Feature) error {
	for _, f := range features {
		sym, ok := p.layer.SymbolFor(f.ID())
		if !ok {
			continue
		}
		v, err := p.toPixel(f.Point)
		if err != nil {
			return err
		}
		size := max(sym.PointSize, 1)
		x0 := int(v.X) - size/2
		y0 := int(v.Y) - size/2
		p.canvas.FillRect(image.Rect(x0, y0, x0+size, y0+size), sym.FillColor)
		if text, ok := p.layer.Label(f.ID()); ok {
			p.labels = append(p.labels, label{Vec{v.X, v.Y - float64(size) - 6}, text})
		}
	}
	p.flushLabels()
	return nil
}

func (p *painter) polylines(features []geom.Feature) error {
	for _, f := range features {
		sym, ok := p.layer.SymbolFor(f.ID())
		if !ok || sym.LineStyle == carto.LineNone {
			continue
		}
		var anchor []Vec
		for _, part := range f.Polyline.Parts {
			pts, err := p.toPixels(part)
			if err != nil {
				return err
			}
			p.canvas.StrokePolyline(pts, pen(sym))
			if len(pts) > len(anchor) {
				anchor = pts
			}
		}
		if text, ok := p.layer.Label(f.ID()); ok {
			if at, ok := lineAnchor(anchor); ok {
				p.labels = append(p.labels, label{at, text})
			}
		}
	}
	p.flushLabels()
	return nil
}

// polygons fills every ring on its own, holes included, then strokes it.
func (p *painter) polygons(features []geom.Feature) error {
	for _, f := range features {
		sym, ok := p.layer.SymbolFor(f.ID())
		if !ok {
			continue
		}
		var first []Vec
		for i, ring := range f.Polygon.Rings {
			pts, err := p.toPixels(ring)
			if err != nil {
				return err
			}
			if i == 0 {
				first = pts
			}
			p.canvas.FillPolygon(pts, sym.FillColor)
			if sym.LineStyle != carto.LineNone {
				p.canvas.StrokePolygon(pts, pen(sym))
			}
		}
		if text, ok := p.layer.Label(f.ID()); ok {
			if at, ok := ringAnchor(first); ok {
				p.labels = append(p.labels, label{at, text})
			}
		}
	}
	p.flushLabels()
	return nil
}
