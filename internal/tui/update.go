package tui

import (
	"fmt"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"geomap/internal/geom"
	"geomap/internal/source"
)

const (
	zoomStep = 1.2
	panStep  = 0.05
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showSidebar {
			_, _, _, h := m.layout()
			m.l.SetSize(28-2, h-2)
		}
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.pasteMode {
			return m.updatePaste(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "1":
			m.toggleKind(geom.KindPoint, "points")
		case "2":
			m.toggleKind(geom.KindPolyline, "lines")
		case "3":
			m.toggleKind(geom.KindPolygon, "polys")
		case "l":
			all := !m.hidden[geom.KindPoint] && !m.hidden[geom.KindPolyline] && !m.hidden[geom.KindPolygon]
			for _, k := range []geom.Kind{geom.KindPoint, geom.KindPolyline, geom.KindPolygon} {
				m.hidden[k] = all
			}
			m.status = fmt.Sprintf("layers: pts=%v ls=%v poly=%v", !all, !all, !all)
		case "+", "=":
			if m.dataset != nil && m.zoom() < 64 {
				m.extents = m.extents.Scale(1 / zoomStep)
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom())
			}
		case "-", "_":
			if m.dataset != nil && m.zoom() > 0.05 {
				m.extents = m.extents.Scale(zoomStep)
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom())
			}
		case "r", "0":
			m.extents = m.home
			m.status = "view reset"
		case "tab":
			m.showSidebar = !m.showSidebar
			if m.showSidebar {
				m.refreshDir()
				_, _, _, h := m.layout()
				m.l.SetSize(28-2, h-2)
			}
		case "p":
			m.pasteMode = true
			m.ta.SetValue("")
			m.status = "paste mode"
			m.ta.Focus()
		case "h":
			m.helpVisible = !m.helpVisible
		case "a":
			m.showAttrs = !m.showAttrs
			if m.showAttrs {
				m.refreshAttrsFromCurrent()
			}
		case "i":
			m.inspect()
		case "esc":
			m.inspectPopup = ""
		case "enter":
			if m.showSidebar {
				if it, ok := m.l.SelectedItem().(fileItem); ok {
					m.loadPath(it.path)
				}
			}
		case "up":
			m.extents = m.extents.Translate(0, m.extents.Height()*panStep)
		case "down":
			m.extents = m.extents.Translate(0, -m.extents.Height()*panStep)
		case "left":
			m.extents = m.extents.Translate(-m.extents.Width()*panStep, 0)
		case "right":
			m.extents = m.extents.Translate(m.extents.Width()*panStep, 0)
		}
	case tea.MouseMsg:
		m.hover(msg.X, msg.Y)
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updatePaste(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pasteMode = false
		m.status = "view mode"
		m.ta.Blur()
		return m, nil
	case "enter":
		w := strings.TrimSpace(m.ta.Value())
		if w == "" {
			m.status = "paste: empty"
			return m, nil
		}
		ds, err := source.ParseWKT(w)
		if err == nil {
			ds.Projection = m.projection
			err = m.setDataset(ds)
		}
		if err != nil {
			m.status = "wkt error: " + err.Error()
			return m, nil
		}
		m.selPath = ""
		m.status = "rendered WKT  counts: " + counts(ds)
		m.pasteMode = false
		m.ta.Blur()
		if m.showAttrs {
			m.refreshAttrsFromCurrent()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

func (m *Model) toggleKind(k geom.Kind, name string) {
	m.hidden[k] = !m.hidden[k]
	m.status = fmt.Sprintf("%s: %v", name, !m.hidden[k])
}

func (m *Model) inspect() {
	l, f, ok := m.inspectNearest()
	if !ok {
		m.inspectPopup = "no feature nearby"
		m.status = m.inspectPopup
		return
	}
	ds := m.dataset
	name := ds.Name
	if m.selPath == "" {
		name = "<unsaved>"
	}
	crs := ds.Projection
	if crs == "" {
		crs = "unknown"
	} else if len(crs) > 40 {
		crs = crs[:40] + "…"
	}
	b, _ := f.Bounds()
	meta := []string{
		fmt.Sprintf("name: %s", name),
		fmt.Sprintf("path: %s", m.selPath),
		fmt.Sprintf("format: %s", ds.Format),
		fmt.Sprintf("crs: %s", crs),
		fmt.Sprintf("counts: %s", counts(ds)),
		fmt.Sprintf("layer: %s", l.ID),
		fmt.Sprintf("nearest: #%d %s", f.ID(), strings.ToLower(f.Kind.String())),
		fmt.Sprintf("bounds: [%.5f, %.5f, %.5f, %.5f]", b.Min.X, b.Min.Y, b.Max.X, b.Max.Y),
	}
	row := ds.Row(f.ID())
	for i, field := range ds.Fields {
		if i == 10 {
			meta = append(meta, fmt.Sprintf("… %d more fields", len(ds.Fields)-i))
			break
		}
		meta = append(meta, fmt.Sprintf("  %s: %s", field, row[i]))
	}
	m.inspectPopup = strings.Join(meta, "\n")
	m.status = "inspect popup"
}

// hover tracks the mouse over the map area and snaps to the nearest vertex.
func (m *Model) hover(x, y int) {
	ox, oy, w, h := m.layout()
	if x < ox || x >= ox+w || y < oy || y >= oy+h {
		m.hovering = false
		m.hoverHasGeo = false
		return
	}
	m.hovering = true
	m.hoverCellX = x - ox
	m.hoverCellY = y - oy
	m.hoverAt, m.hoverHasGeo = m.cellToWorld(m.hoverCellX, m.hoverCellY, w, h)

	hx, hy := m.hoverCellX*2, m.hoverCellY*4
	m.hoverMicX, m.hoverMicY = hx, hy
	if bx, by, ok := m.nearestVertex(hx, hy, w, h); ok {
		m.hoverMicX, m.hoverMicY = bx, by
	}
}
