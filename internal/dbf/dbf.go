// Package dbf reads and writes dBase III attribute tables, the .dbf
// companion of a shapefile.
package dbf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
)

var (
	ErrHeader    = errors.New("dbf: invalid header")
	ErrTruncated = errors.New("dbf: truncated table")
)

const (
	headerSize     = 32
	descriptorSize = 32
	terminator     = 0x0D
	eof            = 0x1A
)

// Field describes one column.
type Field struct {
	Name     string
	Type     byte // C, N, F, L, D
	Length   int
	Decimals int
}

// Table is a fully loaded attribute table. Row i holds the attributes of
// shapefile record i+1.
type Table struct {
	Version  byte
	Fields   []Field
	rows     [][]string
	deleted  []bool
	index    map[string]int
	CodePage string
}

// Open reads path and decodes its text with the code page named by the
// sibling .cpg file, or failing that the language driver byte.
func Open(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cpg := strings.TrimSuffix(path, ".dbf") + ".cpg"
	if strings.HasSuffix(path, ".DBF") {
		cpg = strings.TrimSuffix(path, ".DBF") + ".CPG"
	}
	var dec *encoding.Decoder
	name := ""
	if b, err := os.ReadFile(cpg); err == nil {
		name = strings.TrimSpace(string(b))
		dec, err = DecoderForName(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cpg, err)
		}
	}
	t, err := parse(data, dec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if name != "" {
		t.CodePage = name
	}
	return t, nil
}

// Read decodes a table from r. A nil decoder picks one from the language
// driver byte.
func Read(r io.Reader, dec *encoding.Decoder) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parse(data, dec)
}

func parse(data []byte, dec *encoding.Decoder) (*Table, error) {
	if len(data) < headerSize+1 {
		return nil, ErrTruncated
	}
	le := binary.LittleEndian
	numRecords := int(le.Uint32(data[4:8]))
	headerLen := int(le.Uint16(data[8:10]))
	recordLen := int(le.Uint16(data[10:12]))
	if headerLen < headerSize+1 || headerLen > len(data) || recordLen < 1 {
		return nil, fmt.Errorf("%w: header length %d, record length %d", ErrHeader, headerLen, recordLen)
	}

	t := &Table{Version: data[0], index: make(map[string]int)}
	if dec == nil {
		var cp string
		dec, cp = decoderForDriver(data[29])
		t.CodePage = cp
	}

	width := 1
	for off := headerSize; off+descriptorSize <= headerLen && data[off] != terminator; off += descriptorSize {
		d := data[off : off+descriptorSize]
		name := string(bytes.TrimRight(d[:11], "\x00 "))
		f := Field{Name: name, Type: d[11], Length: int(d[16]), Decimals: int(d[17])}
		t.index[strings.ToUpper(name)] = len(t.Fields)
		t.Fields = append(t.Fields, f)
		width += f.Length
	}
	if width > recordLen {
		return nil, fmt.Errorf("%w: fields span %d bytes, records are %d", ErrHeader, width, recordLen)
	}

	if headerLen+numRecords*recordLen > len(data) {
		return nil, fmt.Errorf("%w: %d records of %d bytes", ErrTruncated, numRecords, recordLen)
	}
	t.rows = make([][]string, numRecords)
	t.deleted = make([]bool, numRecords)
	for i := 0; i < numRecords; i++ {
		rec := data[headerLen+i*recordLen : headerLen+(i+1)*recordLen]
		t.deleted[i] = rec[0] == '*'
		row := make([]string, len(t.Fields))
		at := 1
		for j, f := range t.Fields {
			raw := rec[at : at+f.Length]
			at += f.Length
			v, err := decodeValue(raw, dec)
			if err != nil {
				return nil, fmt.Errorf("record %d field %s: %w", i+1, f.Name, err)
			}
			row[j] = v
		}
		t.rows[i] = row
	}
	return t, nil
}

func decodeValue(raw []byte, dec *encoding.Decoder) (string, error) {
	raw = bytes.TrimRight(raw, "\x00 ")
	raw = bytes.TrimLeft(raw, " ")
	if dec == nil {
		return string(raw), nil
	}
	b, err := dec.Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Len returns the number of records, deleted ones included.
func (t *Table) Len() int { return len(t.rows) }

// FieldIndex finds a column by name, ignoring case.
func (t *Table) FieldIndex(name string) (int, bool) {
	i, ok := t.index[strings.ToUpper(name)]
	return i, ok
}

// Row returns the values of row i and whether the row is live.
func (t *Table) Row(i int) ([]string, bool) {
	if i < 0 || i >= len(t.rows) {
		return nil, false
	}
	return t.rows[i], !t.deleted[i]
}

// Value looks up field for shapefile record id (1-based). Deleted rows and
// unknown fields report false.
func (t *Table) Value(id uint32, field string) (string, bool) {
	j, ok := t.FieldIndex(field)
	if !ok {
		return "", false
	}
	row, live := t.Row(int(id) - 1)
	if !live {
		return "", false
	}
	return row[j], true
}

// Names returns the column names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}
