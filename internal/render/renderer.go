// Package render draws a carto.Map into a raster image. Layers are queried
// for the visible area, reprojected into the map projection when both sides
// name one, mapped to pixels and painted bottom layer first.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	log "github.com/sirupsen/logrus"

	"geomap/internal/carto"
	"geomap/internal/geom"
	"geomap/internal/projection"
)

var (
	ErrSize    = errors.New("render: image size must be positive")
	ErrExtents = errors.New("render: map extents are empty")
)

// SmoothingMode selects the canvas used by Draw.
type SmoothingMode int

const (
	SmoothingHighQuality SmoothingMode = iota
	SmoothingNone
)

func (s SmoothingMode) String() string {
	if s == SmoothingNone {
		return "none"
	}
	return "high"
}

// ParseSmoothing accepts "high", "antialias", "none" and "aliased".
func ParseSmoothing(s string) (SmoothingMode, error) {
	switch s {
	case "", "high", "antialias":
		return SmoothingHighQuality, nil
	case "none", "aliased":
		return SmoothingNone, nil
	}
	return 0, fmt.Errorf("unknown smoothing mode %q", s)
}

type Options struct {
	Smoothing SmoothingMode
	Logger    log.FieldLogger
	// NewCanvas overrides the canvas picked by Smoothing.
	NewCanvas func(w, h int) Canvas
}

// Renderer draws maps. It holds no per-draw state, so one Renderer may
// serve concurrent Draw calls as long as the projection service allows it.
type Renderer struct {
	projections projection.Service
	opts        Options
}

// New returns a renderer resolving projections through svc. A nil svc gets
// a fresh projection.Registry.
func New(svc projection.Service, opts Options) *Renderer {
	if svc == nil {
		svc = projection.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	if opts.NewCanvas == nil {
		switch opts.Smoothing {
		case SmoothingNone:
			opts.NewCanvas = func(w, h int) Canvas { return newPixelCanvas(w, h) }
		default:
			opts.NewCanvas = func(w, h int) Canvas { return newVectorCanvas(w, h) }
		}
	}
	return &Renderer{projections: svc, opts: opts}
}

// Viewport maps map coordinates of the aspect-corrected envelope to pixels.
// Scale is map units per pixel on both axes.
type Viewport struct {
	Envelope geom.Rectangle
	Scale    float64
}

// NewViewport returns the viewport Draw uses for m.
func NewViewport(m *carto.Map) (Viewport, error) {
	if m.Width <= 0 || m.Height <= 0 {
		return Viewport{}, fmt.Errorf("%w: %dx%d", ErrSize, m.Width, m.Height)
	}
	env := m.Extents.WithAspectRatio(float64(m.Width) / float64(m.Height))
	if env.Width() <= 0 || env.Height() <= 0 {
		return Viewport{}, ErrExtents
	}
	return Viewport{Envelope: env, Scale: env.Width() / float64(m.Width)}, nil
}

// Pixel rounds half to even.
func (v Viewport) Pixel(p geom.Point) Vec {
	return Vec{
		X: math.RoundToEven((p.X - v.Envelope.Min.X) / v.Scale),
		Y: math.RoundToEven((v.Envelope.Max.Y - p.Y) / v.Scale),
	}
}

// World is the inverse of Pixel without rounding.
func (v Viewport) World(x, y float64) geom.Point {
	return geom.XY(v.Envelope.Min.X+x*v.Scale, v.Envelope.Max.Y-y*v.Scale)
}

// Draw renders m. On any error no image is returned.
func (r *Renderer) Draw(ctx context.Context, m *carto.Map) (*image.RGBA, error) {
	v, err := NewViewport(m)
	if err != nil {
		return nil, err
	}

	var dst projection.Handle
	if m.Projection != "" {
		dst, err = r.projections.Resolve(m.Projection)
		if err != nil {
			return nil, err
		}
		defer r.release(dst)
	}

	c := r.opts.NewCanvas(m.Width, m.Height)
	if m.Background.A != 0 {
		c.FillRect(c.Image().Bounds(), m.Background)
	}
	for _, l := range m.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if l == nil {
			continue
		}
		if err := r.drawLayer(c, v, l, dst); err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.ID, err)
		}
	}
	return c.Image(), nil
}

func (r *Renderer) release(h projection.Handle) {
	if err := h.Close(); err != nil {
		r.opts.Logger.WithField("projection", h.ID()).WithError(err).Warn("release projection")
	}
}

func (r *Renderer) drawLayer(c Canvas, v Viewport, l *carto.Layer, dst projection.Handle) error {
	if l.Data == nil {
		return nil
	}
	var src projection.Handle
	if dst != nil && l.Projection != "" {
		h, err := r.projections.Resolve(l.Projection)
		if err != nil {
			return err
		}
		defer r.release(h)
		src = h
	}

	query := v.Envelope
	if src != nil {
		q, err := projection.TransformRect(dst, src, v.Envelope)
		if err != nil {
			return err
		}
		query = q
	}
	features, err := l.Data.GetFeatures(query)
	if err != nil {
		return err
	}
	logger := r.opts.Logger.WithFields(log.Fields{"layer": l.ID, "features": len(features)})
	if len(features) == 0 {
		logger.Debug("layer empty in view")
		return nil
	}

	p := &painter{canvas: c, view: v, layer: l, src: src, dst: dst}
	switch l.Data.Kind() {
	case geom.KindPoint:
		err = p.points(features)
	case geom.KindPolyline:
		if l.LineStyle == carto.LineNone {
			logger.Debug("polyline layer has no line style")
			return nil
		}
		err = p.polylines(features)
	case geom.KindPolygon:
		err = p.polygons(features)
	default:
		logger.WithField("kind", l.Data.Kind()).Debug("layer kind not drawable")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Debug("layer drawn")
	return nil
}
