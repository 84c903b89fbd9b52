package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	log "github.com/sirupsen/logrus"

	"geomap/internal/geom"
	"geomap/internal/projection"
	"geomap/internal/source"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !source.Supported(name) {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		items = append(items, fileItem{title: name, desc: ext, path: filepath.Join(m.cwd, name)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no supported files in current directory"
	}
}

// loadPath opens any format the source package knows.
func (m *Model) loadPath(p string) {
	ds, err := source.Open(p)
	if err != nil {
		m.logger.WithError(err).WithField("path", p).Warn("load failed")
		m.status = "load error: " + err.Error()
		return
	}
	if err := m.setDataset(ds); err != nil {
		m.status = "load error: " + err.Error()
		return
	}
	m.selPath = p
	m.status = "loaded: " + filepath.Base(p) + "  counts: " + counts(ds)
	m.logger.WithFields(log.Fields{"path": p, "format": ds.Format, "features": ds.Count()}).Info("dataset loaded")

	// If attributes are currently shown, verify availability for the new dataset
	if m.showAttrs {
		m.refreshAttrsFromCurrent()
	}
}

var errNoFeatures = errors.New("no features")

// setDataset replaces the data and resets the view to its extents.
func (m *Model) setDataset(ds *source.Dataset) error {
	ext, ok := ds.Extents()
	if !ok {
		return errNoFeatures
	}
	if m.projection != "" && ds.Projection != "" && ds.Projection != m.projection {
		r, err := projection.Reproject(m.projections, ds.Projection, m.projection, ext)
		if err != nil {
			return err
		}
		ext = r
	}
	m.dataset = ds
	m.layers = ds.Layers(terminalSymbol)
	m.hidden = map[geom.Kind]bool{}
	m.home = homeExtents(ext)
	m.extents = m.home
	m.inspectPopup = ""
	m.hovering = false
	return nil
}

// homeExtents pads the data extents so edge features stay on screen. A
// single point gets a unit square.
func homeExtents(r geom.Rectangle) geom.Rectangle {
	if r.Width() == 0 && r.Height() == 0 {
		return r.Translate(-0.5, -0.5).Union(r.Translate(0.5, 0.5))
	}
	return r.Scale(1.05)
}

func counts(ds *source.Dataset) string {
	n := func(k geom.Kind) int {
		if s := ds.Source(k); s != nil {
			return s.Len()
		}
		return 0
	}
	return fmt.Sprintf("pts=%d ls=%d poly=%d", n(geom.KindPoint), n(geom.KindPolyline), n(geom.KindPolygon))
}
