package shapefile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tysonmote/gommap"

	"geomap/internal/geom"
)

// File is a decoded .shp file.
type File struct {
	Name     string
	Header   *Header
	Features []geom.Feature
}

// Open memory-maps path read-only, decodes it and unmaps it again. The
// returned features do not reference the mapping.
func Open(path string) (*File, error) {
	return (&Decoder{}).Open(path)
}

func (d *Decoder) Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size() < headerSize {
		return nil, &FormatError{Offset: st.Size(), Reason: "file " + path + " is shorter than the header"}
	}

	mm, err := gommap.Map(f.Fd(), gommap.PROT_READ, gommap.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	defer mm.UnsafeUnmap()

	h, features, err := d.Decode(bytes.NewReader(mm))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &File{Name: name, Header: h, Features: features}, nil
}
