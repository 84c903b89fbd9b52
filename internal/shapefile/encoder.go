package shapefile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"geomap/internal/geom"
)

// Encode writes features as a .shp stream of type t. Records are numbered
// from 1 in slice order; features of the wrong kind are an error. The header
// extents are the union of the feature bounds.
func Encode(w io.Writer, t ShapeType, features []geom.Feature) error {
	if !t.Supported() {
		return fmt.Errorf("shapefile: cannot encode %s", t)
	}
	records := make([][]byte, len(features))
	var ext geom.Rectangle
	haveExt := false
	length := int64(headerWords)
	for i, f := range features {
		if f.Kind != geom.KindNull && f.Kind != t.Kind() {
			return fmt.Errorf("shapefile: feature %d is %s, want %s", i, f.Kind, t.Kind())
		}
		if b, ok := f.Bounds(); ok {
			if !haveExt {
				ext, haveExt = b, true
			} else {
				ext = ext.Union(b)
			}
		}
		records[i] = encodeRecord(f)
		length += recordWords + int64(len(records[i])/2)
	}
	if length > math.MaxInt32 {
		return fmt.Errorf("shapefile: %d words exceed the format limit", length)
	}

	bw := bufio.NewWriter(w)
	var hb [headerSize]byte
	binary.BigEndian.PutUint32(hb[0:4], fileCode)
	binary.BigEndian.PutUint32(hb[24:28], uint32(length))
	binary.LittleEndian.PutUint32(hb[28:32], 1000)
	binary.LittleEndian.PutUint32(hb[32:36], uint32(t))
	for i, v := range []float64{ext.Min.X, ext.Min.Y, ext.Max.X, ext.Max.Y} {
		binary.LittleEndian.PutUint64(hb[36+8*i:], math.Float64bits(v))
	}
	if _, err := bw.Write(hb[:]); err != nil {
		return err
	}
	var rh [8]byte
	for i, rec := range records {
		binary.BigEndian.PutUint32(rh[0:4], uint32(i+1))
		binary.BigEndian.PutUint32(rh[4:8], uint32(len(rec)/2))
		if _, err := bw.Write(rh[:]); err != nil {
			return err
		}
		if _, err := bw.Write(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encodeRecord(f geom.Feature) []byte {
	le := binary.LittleEndian
	putF := func(b []byte, v float64) { le.PutUint64(b, math.Float64bits(v)) }

	switch f.Kind {
	case geom.KindPoint:
		b := make([]byte, 20)
		le.PutUint32(b, uint32(TypePoint))
		putF(b[4:], f.Point.X)
		putF(b[12:], f.Point.Y)
		return b
	case geom.KindPolyline, geom.KindPolygon:
		var parts [][]geom.Point
		code := TypePolyLine
		if f.Kind == geom.KindPolyline {
			for _, p := range f.Polyline.Parts {
				parts = append(parts, p)
			}
		} else {
			code = TypePolygon
			for _, r := range f.Polygon.Rings {
				parts = append(parts, r)
			}
		}
		n := 0
		for _, p := range parts {
			n += len(p)
		}
		b := make([]byte, 44+4*len(parts)+16*n)
		le.PutUint32(b, uint32(code))
		bounds, _ := f.Bounds()
		putF(b[4:], bounds.Min.X)
		putF(b[12:], bounds.Min.Y)
		putF(b[20:], bounds.Max.X)
		putF(b[28:], bounds.Max.Y)
		le.PutUint32(b[36:], uint32(len(parts)))
		le.PutUint32(b[40:], uint32(n))
		at, start := 44+4*len(parts), 0
		for i, p := range parts {
			le.PutUint32(b[44+4*i:], uint32(start))
			start += len(p)
			for _, pt := range p {
				putF(b[at:], pt.X)
				putF(b[at+8:], pt.Y)
				at += 16
			}
		}
		return b
	}
	b := make([]byte, 4)
	le.PutUint32(b, uint32(TypeNull))
	return b
}
