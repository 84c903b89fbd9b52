package shapefile

import (
	"fmt"

	"geomap/internal/geom"
)

// ShapeType is the geometry code stored in the file header and at the start
// of every record.
type ShapeType int32

const (
	TypeNull        ShapeType = 0
	TypePoint       ShapeType = 1
	TypePolyLine    ShapeType = 3
	TypePolygon     ShapeType = 5
	TypeMultiPoint  ShapeType = 8
	TypePointZ      ShapeType = 11
	TypePolyLineZ   ShapeType = 13
	TypePolygonZ    ShapeType = 15
	TypeMultiPointZ ShapeType = 18
	TypePointM      ShapeType = 21
	TypePolyLineM   ShapeType = 23
	TypePolygonM    ShapeType = 25
	TypeMultiPointM ShapeType = 28
	TypeMultiPatch  ShapeType = 31
)

var shapeTypeNames = map[ShapeType]string{
	TypeNull:        "Null",
	TypePoint:       "Point",
	TypePolyLine:    "PolyLine",
	TypePolygon:     "Polygon",
	TypeMultiPoint:  "MultiPoint",
	TypePointZ:      "PointZ",
	TypePolyLineZ:   "PolyLineZ",
	TypePolygonZ:    "PolygonZ",
	TypeMultiPointZ: "MultiPointZ",
	TypePointM:      "PointM",
	TypePolyLineM:   "PolyLineM",
	TypePolygonM:    "PolygonM",
	TypeMultiPointM: "MultiPointM",
	TypeMultiPatch:  "MultiPatch",
}

func (t ShapeType) String() string {
	if s, ok := shapeTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ShapeType(%d)", int32(t))
}

// Kind maps the decodable codes onto geometry kinds. Every other code,
// including the Z, M and MultiPatch variants, is KindNull because the decoder
// skips those records.
func (t ShapeType) Kind() geom.Kind {
	switch t {
	case TypePoint:
		return geom.KindPoint
	case TypePolyLine:
		return geom.KindPolyline
	case TypePolygon:
		return geom.KindPolygon
	}
	return geom.KindNull
}

// Supported reports whether records of this type are decoded.
func (t ShapeType) Supported() bool {
	return t.Kind() != geom.KindNull
}
