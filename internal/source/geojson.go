package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/paulmach/orb/geojson"
)

// LoadGeoJSON reads a FeatureCollection, a single Feature or a bare
// geometry. Feature properties become attributes.
func LoadGeoJSON(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := ReadGeoJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Name, d.Path = baseName(path), path
	return d, nil
}

// ReadGeoJSON decodes GeoJSON bytes. The data is taken to be WGS84 as the
// format requires.
func ReadGeoJSON(data []byte) (*Dataset, error) {
	var peek struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return nil, err
	}

	c := newCollector()
	addFeature := func(f *geojson.Feature) {
		if f == nil || f.Geometry == nil {
			return
		}
		id := c.add(f.Geometry)
		keys := make([]string, 0, len(f.Properties))
		for k := range f.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c.props.Set(id, k, propString(f.Properties[k]))
		}
	}

	switch peek.Type {
	case "":
		return nil, errors.New("invalid geojson: missing type")
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, err
		}
		for _, f := range fc.Features {
			addFeature(f)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		addFeature(f)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		c.add(g.Geometry())
	}
	if c.count() == 0 {
		return nil, errors.New("no geometries found")
	}
	d, err := newDataset("geojson", "geojson", c)
	if err != nil {
		return nil, err
	}
	d.Projection = WGS84
	return d, nil
}

func propString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
