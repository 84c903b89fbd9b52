// Package shapefile decodes the main file (.shp) of an ESRI shapefile into
// geom features.
package shapefile

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	log "github.com/sirupsen/logrus"

	"geomap/internal/geom"
)

const (
	fileCode    = 9994
	headerSize  = 100
	headerWords = headerSize / 2
	recordWords = 4 // record header, in 16-bit words
)

// Header is the fixed 100 byte file header. FileLength counts 16-bit words
// and includes the header itself. Extents carries the Z and M ranges on its
// Min and Max points.
type Header struct {
	FileCode   int32
	FileLength int32
	Version    int32
	ShapeType  ShapeType
	Extents    geom.Rectangle
}

// Decoder holds the decoding options. The zero value is ready to use.
type Decoder struct {
	Logger log.FieldLogger
}

// Decode reads a whole .shp stream with a default Decoder.
func Decode(r io.Reader) (*Header, []geom.Feature, error) {
	return (&Decoder{}).Decode(r)
}

// DecodeBytes decodes an in-memory .shp file.
func DecodeBytes(b []byte) (*Header, []geom.Feature, error) {
	return Decode(bytes.NewReader(b))
}

// Decode reads the header and then every record up to the declared file
// length. Features come back in record order. Null records and records with
// unsupported shape codes produce no feature. Any inconsistency is reported
// as a *FormatError and no features are returned.
func (d *Decoder) Decode(r io.Reader) (*Header, []geom.Feature, error) {
	logger := d.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	var hb [headerSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return nil, nil, &FormatError{Offset: 0, Reason: "truncated header", Err: err}
	}
	h, err := parseHeader(hb[:])
	if err != nil {
		return nil, nil, err
	}

	var (
		features []geom.Feature
		rh       [8]byte
		buf      []byte
		skipped  int
	)
	length := int64(h.FileLength)
	pos := int64(headerWords)
	for pos < length {
		off := pos * 2
		if pos+recordWords > length {
			return nil, nil, formatErr(off, "record header overruns file length of %d words", length)
		}
		if _, err := io.ReadFull(r, rh[:]); err != nil {
			return nil, nil, &FormatError{Offset: off, Reason: "truncated record header", Err: err}
		}
		recNum := binary.BigEndian.Uint32(rh[0:4])
		contentLen := int64(int32(binary.BigEndian.Uint32(rh[4:8])))
		if contentLen < 2 {
			return nil, nil, formatErr(off, "record %d content length %d words is too short", recNum, contentLen)
		}
		if pos+recordWords+contentLen > length {
			return nil, nil, formatErr(off, "record %d overruns file length of %d words", recNum, length)
		}

		n := int(contentLen * 2)
		if cap(buf) < n {
			buf = make([]byte, n)
		}
		buf = buf[:n]
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, nil, &FormatError{Offset: off + 8, Reason: "truncated record", Err: err}
		}

		code := ShapeType(int32(binary.LittleEndian.Uint32(buf[0:4])))
		switch {
		case code == TypeNull:
		case !code.Supported():
			skipped++
			logger.WithFields(log.Fields{"record": recNum, "type": code}).Debug("skipping unsupported shape record")
		case code != h.ShapeType:
			return nil, nil, formatErr(off+8, "record %d is %s in a %s file", recNum, code, h.ShapeType)
		default:
			f, err := decodeRecord(code, recNum, buf[4:], off+12)
			if err != nil {
				return nil, nil, err
			}
			features = append(features, f)
		}
		pos += contentLen + recordWords
	}

	if skipped > 0 {
		logger.WithField("records", skipped).Info("unsupported shape records skipped")
	}
	return h, features, nil
}

func parseHeader(b []byte) (*Header, error) {
	code := int32(binary.BigEndian.Uint32(b[0:4]))
	if code != fileCode {
		return nil, formatErr(0, "bad file code %#08x", uint32(code))
	}
	h := &Header{
		FileCode:   code,
		FileLength: int32(binary.BigEndian.Uint32(b[24:28])),
		Version:    int32(binary.LittleEndian.Uint32(b[28:32])),
		ShapeType:  ShapeType(int32(binary.LittleEndian.Uint32(b[32:36]))),
	}
	if h.FileLength < headerWords {
		return nil, formatErr(24, "file length %d words is shorter than the header", h.FileLength)
	}
	f := func(i int) float64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(b[36+8*i:]))
	}
	h.Extents = geom.Rectangle{
		Min: geom.Point{X: f(0), Y: f(1), Z: f(4), M: f(6)},
		Max: geom.Point{X: f(2), Y: f(3), Z: f(5), M: f(7)},
	}
	return h, nil
}

// decodeRecord parses the payload that follows the shape code. off is the
// stream offset of b, used for error reporting.
func decodeRecord(code ShapeType, id uint32, b []byte, off int64) (geom.Feature, error) {
	le := binary.LittleEndian
	point := func(at int) geom.Point {
		return geom.Point{
			ID: id,
			X:  math.Float64frombits(le.Uint64(b[at:])),
			Y:  math.Float64frombits(le.Uint64(b[at+8:])),
		}
	}

	if code == TypePoint {
		if len(b) < 16 {
			return geom.Feature{}, formatErr(off, "point record %d payload is %d bytes", id, len(b))
		}
		return geom.NewPointFeature(point(0)), nil
	}

	// PolyLine and Polygon: bbox, numParts, numPoints, starts, points
	if len(b) < 40 {
		return geom.Feature{}, formatErr(off, "%s record %d payload is %d bytes", code, id, len(b))
	}
	numParts := le.Uint32(b[32:36])
	numPoints := le.Uint32(b[36:40])
	need := 40 + 4*int64(numParts) + 16*int64(numPoints)
	if need > int64(len(b)) {
		return geom.Feature{}, formatErr(off, "%s record %d needs %d bytes for %d parts and %d points, has %d",
			code, id, need, numParts, numPoints, len(b))
	}
	starts := make([]uint32, numParts)
	for i := range starts {
		starts[i] = le.Uint32(b[40+4*i:])
	}
	ranges, err := SplitParts(int(numPoints), starts)
	if err != nil {
		return geom.Feature{}, &FormatError{Offset: off, Reason: "bad part index in record", Err: err}
	}
	pts := 40 + 4*int(numParts)

	if code == TypePolyLine {
		line := &geom.Polyline{ID: id, Parts: make([]geom.Part, len(ranges))}
		for i, rg := range ranges {
			part := make(geom.Part, rg.Len())
			for j := range part {
				part[j] = point(pts + 16*(rg.Start+j))
			}
			line.Parts[i] = part
		}
		return geom.NewPolylineFeature(line), nil
	}

	poly := &geom.Polygon{ID: id, Rings: make([]geom.Ring, len(ranges))}
	for i, rg := range ranges {
		ring := make(geom.Ring, rg.Len())
		for j := range ring {
			ring[j] = point(pts + 16*(rg.Start+j))
		}
		poly.Rings[i] = ring
	}
	return geom.NewPolygonFeature(poly), nil
}
