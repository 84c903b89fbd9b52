// Package carto describes what to draw: layers bound to feature sources,
// their styling rules and the map that orders them.
package carto

import (
	"image/color"
	"strconv"
	"strings"

	"geomap/internal/geom"
)

// FeatureSource is anything that can be queried for features. GetFeatures
// returns, in source order, the features whose bounds intersect r, boundary
// included. Kind is fixed for the life of the source.
type FeatureSource interface {
	GetFeatures(r geom.Rectangle) ([]geom.Feature, error)
	Kind() geom.Kind
}

// AttributeSource looks up attribute values by feature ID.
type AttributeSource interface {
	Value(id uint32, field string) (string, bool)
}

// Layer binds a source to styling rules. A layer without Data draws
// nothing. Projection is the source's projection identifier; empty means
// the data is already in the map's projection.
//
// A layer with no Styles draws every feature with its own Symbol. Once it
// has Styles, they decide: ThemeNone applies the first style to every
// feature, while ThemeUnique and ThemeNumericRange match the feature's
// ThemeField value from Attributes. A feature without a value (no field,
// no attributes, or no entry) is matched as the empty string, so a
// numeric theme skips it and a unique theme only draws it through a style
// whose UniqueValue is empty.
type Layer struct {
	ID         string
	Data       FeatureSource
	Projection string
	Theme      ThemeType
	ThemeField string
	LabelField string
	Attributes AttributeSource
	Styles     []Style
	Symbol
}

func NewLayer(id string, data FeatureSource) *Layer {
	return &Layer{ID: id, Data: data, Symbol: DefaultSymbol}
}

// GetRangeStyleForFeature returns the first style whose range holds value,
// or nil when value is not a plain decimal number.
func (l *Layer) GetRangeStyleForFeature(value string) *Style {
	v, ok := parseDecimal(value)
	if !ok {
		return nil
	}
	for i := range l.Styles {
		s := &l.Styles[i]
		if v >= s.MinRange && v <= s.MaxRange {
			return s
		}
	}
	return nil
}

// GetUniqueStyleForFeature returns the first style whose unique value equals
// value exactly.
func (l *Layer) GetUniqueStyleForFeature(value string) *Style {
	for i := range l.Styles {
		if l.Styles[i].UniqueValue == value {
			return &l.Styles[i]
		}
	}
	return nil
}

// GetStyleForFeature picks the style for a feature whose theme field holds
// value. A nil result means the feature is not drawn.
func (l *Layer) GetStyleForFeature(value string) *Style {
	if len(l.Styles) == 0 {
		return nil
	}
	switch l.Theme {
	case ThemeNumericRange:
		return l.GetRangeStyleForFeature(value)
	case ThemeUnique:
		return l.GetUniqueStyleForFeature(value)
	default:
		return &l.Styles[0]
	}
}

// parseDecimal reads a finite number written with digits, sign, point and
// exponent only. Hex floats, inf and nan are not numbers here.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.IndexFunc(s, func(r rune) bool {
		return !strings.ContainsRune("0123456789+-.eE", r)
	}) >= 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// Themed reports whether features need a per-feature style lookup.
func (l *Layer) Themed() bool {
	return len(l.Styles) > 0
}

// SymbolFor resolves the symbol of one feature. Layers without styles
// always use their own symbol; otherwise the matching style wins and false
// means no style matches.
func (l *Layer) SymbolFor(id uint32) (Symbol, bool) {
	if !l.Themed() {
		return l.Symbol, true
	}
	var v string
	if l.Theme != ThemeNone && l.ThemeField != "" && l.Attributes != nil {
		v, _ = l.Attributes.Value(id, l.ThemeField)
	}
	s := l.GetStyleForFeature(v)
	if s == nil {
		return Symbol{}, false
	}
	return s.Symbol, true
}

// Label returns the label text of a feature, if any.
func (l *Layer) Label(id uint32) (string, bool) {
	if l.LabelField == "" || l.Attributes == nil {
		return "", false
	}
	v, ok := l.Attributes.Value(id, l.LabelField)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Map is an ordered stack of layers drawn into a Width x Height image.
// Layers[0] is drawn first. Projection is the output projection; empty
// means no reprojection at all.
type Map struct {
	Layers     []*Layer
	Width      int
	Height     int
	Extents    geom.Rectangle
	Projection string
	Background color.RGBA
}

// AddLayer appends l on top of the stack.
func (m *Map) AddLayer(l *Layer) {
	m.Layers = append(m.Layers, l)
}

// Layer finds a layer by ID.
func (m *Map) Layer(id string) *Layer {
	for _, l := range m.Layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}
