package tui

import (
	"context"
	"math"
	"strings"

	"geomap/internal/carto"
	"geomap/internal/geom"
	"geomap/internal/projection"
	"geomap/internal/render"
)

// mapFor describes the current view for a w x h cell area.
func (m Model) mapFor(w, h int) *carto.Map {
	return &carto.Map{
		Layers:     m.visibleLayers(),
		Width:      w * 2,
		Height:     h * 4,
		Extents:    m.extents,
		Projection: m.projection,
	}
}

func blankLines(w, h int) []string {
	lines := make([]string, h)
	for y := range lines {
		lines[y] = strings.Repeat(" ", w)
	}
	return lines
}

func (m Model) renderAsciiMap(w, h int) string {
	if m.dataset == nil {
		return strings.Join(blankLines(w, h), "\n")
	}
	img, err := m.renderer.Draw(context.Background(), m.mapFor(w, h))
	if err != nil {
		m.logger.WithError(err).Warn("map render failed")
		return errStyle.Render("render error: " + err.Error())
	}
	lines := brailleFromImage(img).toLines()

	// Hover highlight: draw an orange circle at the hovered vertex cell
	if m.hovering {
		cx := m.hoverMicX / 2
		cy := m.hoverMicY / 4
		if cy >= 0 && cy < len(lines) {
			r := []rune(lines[cy])
			if cx >= 0 && cx < len(r) {
				lines[cy] = string(r[:cx]) + hoverMark + string(r[cx+1:])
			}
		}
	}
	return strings.Join(lines, "\n")
}

// cellToWorld converts a map cell to display coordinates at the cell center.
func (m Model) cellToWorld(cx, cy, w, h int) (geom.Point, bool) {
	if m.dataset == nil {
		return geom.Point{}, false
	}
	vp, err := render.NewViewport(m.mapFor(w, h))
	if err != nil {
		return geom.Point{}, false
	}
	return vp.World(float64(cx*2)+1, float64(cy*4)+2), true
}

// handles resolves a from -> to pair. Both are nil when no reprojection
// applies: a layer projection only counts when a display projection is set.
func (m Model) handles(from, to string) (src, dst projection.Handle, err error) {
	if from == "" || to == "" || from == to {
		return nil, nil, nil
	}
	src, err = m.projections.Resolve(from)
	if err != nil {
		return nil, nil, err
	}
	dst, err = m.projections.Resolve(to)
	if err != nil {
		src.Close()
		return nil, nil, err
	}
	return src, dst, nil
}

func release(hs ...projection.Handle) {
	for _, h := range hs {
		if h != nil {
			h.Close()
		}
	}
}

func project(src, dst projection.Handle, p geom.Point) (geom.Point, error) {
	if src == nil {
		return p, nil
	}
	return src.Transform(dst, p)
}

// nearestVertex finds the drawn vertex closest to the micro-pixel mx, my.
func (m Model) nearestVertex(mx, my, w, h int) (int, int, bool) {
	if m.dataset == nil {
		return 0, 0, false
	}
	vp, err := render.NewViewport(m.mapFor(w, h))
	if err != nil {
		return 0, 0, false
	}
	best := math.MaxInt
	var bx, by int
	for _, l := range m.visibleLayers() {
		viewH, dataH, err := m.handles(m.projection, l.Projection)
		if err != nil {
			continue
		}
		query := vp.Envelope
		if viewH != nil {
			query, err = projection.TransformRect(viewH, dataH, query)
		}
		var features []geom.Feature
		if err == nil {
			features, err = l.Data.GetFeatures(query)
		}
		if err != nil {
			release(viewH, dataH)
			continue
		}
		for _, f := range features {
			f.Points(func(p geom.Point) {
				q, err := project(dataH, viewH, p)
				if err != nil {
					return
				}
				px := vp.Pixel(q)
				dx, dy := int(px.X)-mx, int(px.Y)-my
				if d := dx*dx + dy*dy; d < best {
					best = d
					bx, by = int(px.X), int(px.Y)
				}
			})
		}
		release(viewH, dataH)
	}
	return bx, by, best != math.MaxInt
}

type nearestFinder interface {
	Nearest(p geom.Point) (geom.Feature, bool)
}

// inspectNearest finds the feature closest to the viewport center.
func (m Model) inspectNearest() (*carto.Layer, geom.Feature, bool) {
	if m.dataset == nil {
		return nil, geom.Feature{}, false
	}
	center := m.extents.Center()
	var (
		bestLayer *carto.Layer
		bestF     geom.Feature
		bestD     = math.Inf(1)
	)
	for _, l := range m.visibleLayers() {
		nf, ok := l.Data.(nearestFinder)
		if !ok {
			continue
		}
		src, dst, err := m.handles(m.projection, l.Projection)
		if err != nil {
			continue
		}
		p, err := project(src, dst, center)
		release(src, dst)
		if err != nil {
			continue
		}
		f, ok := nf.Nearest(p)
		if !ok {
			continue
		}
		b, _ := f.Bounds()
		if d := boundsDistance(b, p); d < bestD {
			bestD, bestLayer, bestF = d, l, f
		}
	}
	return bestLayer, bestF, bestLayer != nil
}

func boundsDistance(r geom.Rectangle, p geom.Point) float64 {
	dx := math.Max(0, math.Max(r.Min.X-p.X, p.X-r.Max.X))
	dy := math.Max(0, math.Max(r.Min.Y-p.Y, p.Y-r.Max.Y))
	return math.Hypot(dx, dy)
}

// isGeographic reports whether coordinates of id read as lon/lat.
func isGeographic(id string) bool {
	u := strings.ToUpper(strings.TrimSpace(id))
	switch u {
	case "EPSG:4326", "CRS84", "WGS84":
		return true
	}
	return strings.HasPrefix(u, "GEOGCS[") || strings.Contains(u, "+PROJ=LONGLAT")
}
