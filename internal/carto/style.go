package carto

import (
	"fmt"
	"image/color"
	"strings"
)

// LineStyle selects how outlines are stroked. LineNone disables stroking.
type LineStyle int

const (
	LineNone LineStyle = iota
	LineSolid
	LineDashed
	LineDotted
)

var lineStyleNames = []string{"none", "solid", "dashed", "dotted"}

func (s LineStyle) String() string {
	if s < 0 || int(s) >= len(lineStyleNames) {
		return fmt.Sprintf("LineStyle(%d)", int(s))
	}
	return lineStyleNames[s]
}

// ParseLineStyle accepts the names printed by String, in any case.
func ParseLineStyle(s string) (LineStyle, error) {
	for i, n := range lineStyleNames {
		if strings.EqualFold(s, n) {
			return LineStyle(i), nil
		}
	}
	return LineNone, fmt.Errorf("unknown line style %q", s)
}

// ThemeType selects how a layer maps attribute values to styles.
type ThemeType int

const (
	ThemeNone ThemeType = iota
	ThemeUnique
	ThemeNumericRange
)

func (t ThemeType) String() string {
	switch t {
	case ThemeNone:
		return "none"
	case ThemeUnique:
		return "unique"
	case ThemeNumericRange:
		return "range"
	}
	return fmt.Sprintf("ThemeType(%d)", int(t))
}

func ParseThemeType(s string) (ThemeType, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return ThemeNone, nil
	case "unique":
		return ThemeUnique, nil
	case "range", "numericrange":
		return ThemeNumericRange, nil
	}
	return ThemeNone, fmt.Errorf("unknown theme %q", s)
}

// Symbol holds the drawing parameters shared by layers and styles.
type Symbol struct {
	FillColor color.RGBA
	LineColor color.RGBA
	LineWidth float64
	LineStyle LineStyle
	PointSize int
}

// DefaultSymbol is what NewLayer starts from.
var DefaultSymbol = Symbol{
	FillColor: color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff},
	LineColor: color.RGBA{A: 0xff},
	LineWidth: 1,
	LineStyle: LineSolid,
	PointSize: 4,
}

// Style is one theming rule. MinRange and MaxRange bound numeric themes
// inclusively; UniqueValue matches unique themes exactly.
type Style struct {
	Name        string
	MinRange    float64
	MaxRange    float64
	UniqueValue string
	Symbol
}
