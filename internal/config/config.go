// Package config reads map documents: JSON files that list the layers of a
// map, where their data lives and how to style them.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"geomap/internal/attrdb"
	"geomap/internal/carto"
	"geomap/internal/geom"
	"geomap/internal/projection"
	"geomap/internal/render"
	"geomap/internal/source"
)

// Document is a map description.
//
//	{
//	  "width": 800, "height": 600,
//	  "extents": [minx, miny, maxx, maxy],
//	  "projection": "EPSG:3857",
//	  "background": "#ffffff",
//	  "smoothing": "high",
//	  "layers": [{"path": "countries.shp", "fill": "#e0e0e0", ...}]
//	}
type Document struct {
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Extents    []float64  `json:"extents,omitempty"`
	Projection string     `json:"projection,omitempty"`
	Background *Color     `json:"background,omitempty"`
	Smoothing  string     `json:"smoothing,omitempty"`
	Layers     []LayerDoc `json:"layers"`

	dir string
}

// LayerDoc describes one data file. Files holding several geometry kinds
// produce one layer per kind unless Kind picks one.
type LayerDoc struct {
	ID         string     `json:"id,omitempty"`
	Path       string     `json:"path"`
	Kind       string     `json:"kind,omitempty"`
	Projection string     `json:"projection,omitempty"`
	Theme      string     `json:"theme,omitempty"`
	ThemeField string     `json:"themeField,omitempty"`
	LabelField string     `json:"labelField,omitempty"`
	Fill       *Color     `json:"fill,omitempty"`
	Line       *Color     `json:"line,omitempty"`
	LineWidth  *float64   `json:"lineWidth,omitempty"`
	LineStyle  string     `json:"lineStyle,omitempty"`
	PointSize  int        `json:"pointSize,omitempty"`
	Styles     []StyleDoc `json:"styles,omitempty"`
	// Attributes reads the layer's attributes from an attrdb database
	// instead of the data file.
	Attributes *AttrDoc `json:"attributes,omitempty"`
}

type AttrDoc struct {
	DB    string `json:"db"`
	Layer string `json:"layer"`
}

// StyleDoc is one theme rule. Unset symbol fields inherit from the layer.
type StyleDoc struct {
	Name      string   `json:"name,omitempty"`
	Min       float64  `json:"min,omitempty"`
	Max       float64  `json:"max,omitempty"`
	Value     string   `json:"value,omitempty"`
	Fill      *Color   `json:"fill,omitempty"`
	Line      *Color   `json:"line,omitempty"`
	LineWidth *float64 `json:"lineWidth,omitempty"`
	LineStyle string   `json:"lineStyle,omitempty"`
	PointSize int      `json:"pointSize,omitempty"`
}

var ErrNoLayers = errors.New("config: map has no layers")

// Load reads a document. Relative layer paths are taken from the document's
// directory.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.dir = filepath.Dir(path)
	return d, nil
}

func Parse(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if d.Width <= 0 || d.Height <= 0 {
		return nil, fmt.Errorf("config: invalid size %dx%d", d.Width, d.Height)
	}
	if len(d.Extents) != 0 && len(d.Extents) != 4 {
		return nil, fmt.Errorf("config: extents need 4 numbers, got %d", len(d.Extents))
	}
	if len(d.Layers) == 0 {
		return nil, ErrNoLayers
	}
	return &d, nil
}

// RenderOptions returns the renderer options the document asks for.
func (d *Document) RenderOptions(logger log.FieldLogger) (render.Options, error) {
	s, err := render.ParseSmoothing(d.Smoothing)
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{Smoothing: s, Logger: logger}, nil
}

func (d *Document) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || d.dir == "" {
		return p
	}
	return filepath.Join(d.dir, p)
}

// Build opens every layer's data and assembles the map. svc reprojects
// layer extents when the document gives none; it may be nil when no
// projections are involved. The returned func closes the attribute
// databases the layers hold.
func (d *Document) Build(svc projection.Service) (*carto.Map, func() error, error) {
	m := &carto.Map{Width: d.Width, Height: d.Height, Projection: d.Projection}
	if d.Background != nil {
		m.Background = d.Background.Value()
	}

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	var ext geom.Rectangle
	haveExt := false
	for i, ld := range d.Layers {
		layers, e, ok, err := d.buildLayer(ld, svc, &closers)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("layer %d (%s): %w", i, ld.Path, err)
		}
		for _, l := range layers {
			m.AddLayer(l)
		}
		if ok {
			if !haveExt {
				ext, haveExt = e, true
			} else {
				ext = ext.Union(e)
			}
		}
	}

	if len(d.Extents) == 4 {
		m.Extents = geom.NewRectangle(geom.XY(d.Extents[0], d.Extents[1]), geom.XY(d.Extents[2], d.Extents[3]))
	} else if haveExt {
		m.Extents = ext
	} else {
		closeAll()
		return nil, nil, errors.New("config: no extents given and no layer has data")
	}
	return m, closeAll, nil
}

func (d *Document) buildLayer(ld LayerDoc, svc projection.Service, closers *[]func() error) ([]*carto.Layer, geom.Rectangle, bool, error) {
	ds, err := source.Open(d.resolve(ld.Path))
	if err != nil {
		return nil, geom.Rectangle{}, false, err
	}
	proj := ds.Projection
	if ld.Projection != "" {
		proj = ld.Projection
	}

	sym, err := ld.symbol(carto.DefaultSymbol)
	if err != nil {
		return nil, geom.Rectangle{}, false, err
	}
	theme, err := carto.ParseThemeType(ld.Theme)
	if err != nil {
		return nil, geom.Rectangle{}, false, err
	}
	styles := make([]carto.Style, 0, len(ld.Styles))
	for _, sd := range ld.Styles {
		s, err := sd.style(sym)
		if err != nil {
			return nil, geom.Rectangle{}, false, err
		}
		styles = append(styles, s)
	}

	attrs := ds.Attributes
	if ld.Attributes != nil {
		store, err := attrdb.Open(d.resolve(ld.Attributes.DB))
		if err != nil {
			return nil, geom.Rectangle{}, false, err
		}
		*closers = append(*closers, store.Close)
		name := ld.Attributes.Layer
		if name == "" {
			name = ds.Name
		}
		src, err := store.Source(name)
		if err != nil {
			return nil, geom.Rectangle{}, false, err
		}
		*closers = append(*closers, src.Close)
		attrs = src
	}

	var out []*carto.Layer
	for _, l := range ds.Layers(sym) {
		if ld.Kind != "" && !strings.EqualFold(ld.Kind, l.Data.Kind().String()) {
			continue
		}
		if ld.ID != "" {
			l.ID = strings.Replace(l.ID, ds.Name, ld.ID, 1)
		}
		l.Projection = proj
		l.Theme = theme
		l.ThemeField = ld.ThemeField
		l.LabelField = ld.LabelField
		l.Styles = styles
		l.Attributes = attrs
		out = append(out, l)
	}
	if len(out) == 0 {
		return nil, geom.Rectangle{}, false, fmt.Errorf("no %s features", ld.Kind)
	}

	ext, ok := ds.Extents()
	if ok && d.Projection != "" && proj != "" && proj != d.Projection {
		ext, err = reproject(svc, proj, d.Projection, ext)
		if err != nil {
			return nil, geom.Rectangle{}, false, err
		}
	}
	return out, ext, ok, nil
}

func reproject(svc projection.Service, from, to string, r geom.Rectangle) (geom.Rectangle, error) {
	if svc == nil {
		svc = projection.NewRegistry()
	}
	return projection.Reproject(svc, from, to, r)
}

func (ld LayerDoc) symbol(base carto.Symbol) (carto.Symbol, error) {
	return override(base, ld.Fill, ld.Line, ld.LineWidth, ld.LineStyle, ld.PointSize)
}

func (sd StyleDoc) style(base carto.Symbol) (carto.Style, error) {
	sym, err := override(base, sd.Fill, sd.Line, sd.LineWidth, sd.LineStyle, sd.PointSize)
	if err != nil {
		return carto.Style{}, err
	}
	return carto.Style{Name: sd.Name, MinRange: sd.Min, MaxRange: sd.Max, UniqueValue: sd.Value, Symbol: sym}, nil
}

func override(s carto.Symbol, fill, line *Color, width *float64, style string, size int) (carto.Symbol, error) {
	if fill != nil {
		s.FillColor = fill.Value()
	}
	if line != nil {
		s.LineColor = line.Value()
	}
	if width != nil {
		s.LineWidth = *width
	}
	if style != "" {
		ls, err := carto.ParseLineStyle(style)
		if err != nil {
			return s, err
		}
		s.LineStyle = ls
	}
	if size > 0 {
		s.PointSize = size
	}
	return s, nil
}
