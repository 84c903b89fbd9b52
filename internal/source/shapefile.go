package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"geomap/internal/dbf"
	"geomap/internal/geom"
	"geomap/internal/shapefile"
)

// OpenShapefile decodes path and picks up the sibling .dbf, .cpg and .prj
// files when they exist. A missing .dbf only means no attributes.
func OpenShapefile(path string) (*Dataset, error) {
	f, err := shapefile.Open(path)
	if err != nil {
		return nil, err
	}
	d := &Dataset{Name: f.Name, Path: path, Format: "shapefile", Header: f.Header}

	if k := f.Header.ShapeType.Kind(); k != geom.KindNull {
		src, err := NewMemory(k, f.Features)
		if err != nil {
			return nil, err
		}
		d.Sources = []*Memory{src}
	} else {
		log.WithFields(log.Fields{"file": path, "type": f.Header.ShapeType}).Warn("shape type is not drawable")
	}

	stem := strings.TrimSuffix(path, filepath.Ext(path))
	tbl, err := dbf.Open(sibling(stem, ".dbf"))
	switch {
	case err == nil:
		d.Attributes = tbl
		d.Fields = tbl.Names()
		if tbl.Len() != len(f.Features) {
			log.WithFields(log.Fields{"file": path, "records": tbl.Len(), "shapes": len(f.Features)}).
				Debug("attribute and shape counts differ")
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("attributes: %w", err)
	}

	if prj, err := os.ReadFile(sibling(stem, ".prj")); err == nil {
		d.Projection = strings.TrimSpace(string(prj))
	}
	return d, nil
}

// sibling returns stem+ext, trying the upper case extension when the lower
// case file does not exist.
func sibling(stem, ext string) string {
	p := stem + ext
	if _, err := os.Stat(p); err != nil {
		if up := stem + strings.ToUpper(ext); fileExists(up) {
			return up
		}
	}
	return p
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
