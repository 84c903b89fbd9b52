package dbf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"
	"unicode/utf8"
)

// Write stores rows as a dBase III table of character fields sized to the
// widest value, capped at 254 bytes. Names longer than 10 bytes are cut.
// Values are written as UTF-8.
func Write(w io.Writer, names []string, rows [][]string) error {
	fields := make([]Field, len(names))
	for i, n := range names {
		if len(n) > 10 {
			n = n[:10]
		}
		fields[i] = Field{Name: n, Type: 'C', Length: 1}
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return fmt.Errorf("dbf: row %d has %d values for %d fields", r, len(row), len(names))
		}
		for i, v := range row {
			if l := min(len(v), 254); l > fields[i].Length {
				fields[i].Length = l
			}
		}
	}

	recordLen := 1
	for _, f := range fields {
		recordLen += f.Length
	}
	headerLen := headerSize + descriptorSize*len(fields) + 1

	bw := bufio.NewWriter(w)
	hdr := make([]byte, headerSize)
	now := time.Now()
	hdr[0] = 0x03
	hdr[1], hdr[2], hdr[3] = byte(now.Year()-1900), byte(now.Month()), byte(now.Day())
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(rows)))
	binary.LittleEndian.PutUint16(hdr[8:], uint16(headerLen))
	binary.LittleEndian.PutUint16(hdr[10:], uint16(recordLen))
	bw.Write(hdr)
	for _, f := range fields {
		d := make([]byte, descriptorSize)
		copy(d[:10], f.Name)
		d[11] = f.Type
		d[16] = byte(f.Length)
		bw.Write(d)
	}
	bw.WriteByte(terminator)

	rec := make([]byte, recordLen)
	for _, row := range rows {
		for i := range rec {
			rec[i] = ' '
		}
		at := 1
		for i, f := range fields {
			copy(rec[at:at+f.Length], truncateUTF8(row[i], f.Length))
			at += f.Length
		}
		bw.Write(rec)
	}
	bw.WriteByte(eof)
	return bw.Flush()
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
