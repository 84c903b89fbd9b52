package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"geomap/internal/carto"
	"geomap/internal/geom"
	"geomap/internal/shapefile"
)

var ErrUnsupported = errors.New("unsupported file type")

// WGS84 is the projection of formats that are defined in lon/lat.
const WGS84 = "EPSG:4326"

// Dataset is a loaded file: one source per geometry kind found, plus the
// attribute table keyed by feature ID.
type Dataset struct {
	Name       string
	Path       string
	Format     string
	Projection string
	Header     *shapefile.Header
	Sources    []*Memory
	Attributes carto.AttributeSource
	Fields     []string
}

// Extensions lists the file extensions Open understands.
var Extensions = []string{".shp", ".fgb", ".geojson", ".json", ".csv", ".kml", ".wkt"}

// Supported reports whether Open can load path.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Open loads path according to its extension.
func Open(path string) (*Dataset, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".shp":
		return OpenShapefile(path)
	case ".fgb":
		return OpenFlatGeobuf(path)
	case ".geojson", ".json":
		return LoadGeoJSON(path)
	case ".csv":
		return LoadCSV(path)
	case ".kml":
		return LoadKML(path)
	case ".wkt":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		d, err := ParseWKT(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		d.Name, d.Path = baseName(path), path
		return d, nil
	}
	return nil, fmt.Errorf("%s: %w", ext, ErrUnsupported)
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func newDataset(path, format string, c *collector) (*Dataset, error) {
	sources, err := c.sources()
	if err != nil {
		return nil, err
	}
	d := &Dataset{Name: baseName(path), Path: path, Format: format, Sources: sources}
	if len(c.props.Fields) > 0 {
		d.Attributes = c.props
		d.Fields = c.props.Fields
	}
	return d, nil
}

// Count returns the number of features across all sources.
func (d *Dataset) Count() int {
	n := 0
	for _, s := range d.Sources {
		n += s.Len()
	}
	return n
}

// Source returns the source of kind k, or nil.
func (d *Dataset) Source(k geom.Kind) *Memory {
	for _, s := range d.Sources {
		if s.Kind() == k {
			return s
		}
	}
	return nil
}

// Extents returns the union of the source extents.
func (d *Dataset) Extents() (geom.Rectangle, bool) {
	var ext geom.Rectangle
	found := false
	for _, s := range d.Sources {
		e, ok := s.Extents()
		if !ok {
			continue
		}
		if !found {
			ext, found = e, true
		} else {
			ext = ext.Union(e)
		}
	}
	return ext, found
}

// Features returns every feature ordered by ID.
func (d *Dataset) Features() []geom.Feature {
	var all []geom.Feature
	for _, s := range d.Sources {
		all = append(all, s.Features()...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID() < all[j].ID() })
	return all
}

// Row returns the attribute values of feature id in Fields order.
func (d *Dataset) Row(id uint32) []string {
	row := make([]string, len(d.Fields))
	if d.Attributes == nil {
		return row
	}
	for i, f := range d.Fields {
		row[i], _ = d.Attributes.Value(id, f)
	}
	return row
}

// Layers returns one layer per source, styled with base.
func (d *Dataset) Layers(base carto.Symbol) []*carto.Layer {
	layers := make([]*carto.Layer, 0, len(d.Sources))
	for _, s := range d.Sources {
		id := d.Name
		if len(d.Sources) > 1 {
			id = d.Name + ":" + strings.ToLower(s.Kind().String())
		}
		l := carto.NewLayer(id, s)
		l.Symbol = base
		l.Projection = d.Projection
		l.Attributes = d.Attributes
		layers = append(layers, l)
	}
	return layers
}
