package tui

import (
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geomap/internal/geom"
	"geomap/internal/render"
)

const fixture = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"name":"a"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}},
{"type":"Feature","properties":{"name":"b"},"geometry":{"type":"Point","coordinates":[20,5]}}
]}`

func quiet() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func writeFixture(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "fixture.geojson")
	require.NoError(t, os.WriteFile(p, []byte(fixture), 0o644))
	return p
}

func loaded(t *testing.T, opts Options) Model {
	t.Helper()
	opts.Logger = quiet()
	m := NewWithOptions(writeFixture(t), opts)
	require.NotNil(t, m.dataset, m.status)
	return m
}

func press(m Model, k string) Model {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func resize(m Model, w, h int) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return next.(Model)
}

func hasBraille(s string) bool {
	for _, r := range s {
		if r > 0x2800 && r <= 0x28ff {
			return true
		}
	}
	return false
}

func TestBrailleFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 8))
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	img.SetRGBA(0, 0, white)
	img.SetRGBA(3, 7, white)
	img.SetRGBA(1, 2, white)

	lines := brailleFromImage(img).toLines()
	require.Len(t, lines, 2)
	assert.Equal(t, []rune{0x2800 + 0x01 + 0x20, ' '}, []rune(lines[0]))
	assert.Equal(t, []rune{' ', 0x2880}, []rune(lines[1]))
}

func TestLoadPath(t *testing.T) {
	m := loaded(t, Options{})
	require.Len(t, m.layers, 2)
	assert.Equal(t, "fixture:polygon", m.layers[0].ID)
	assert.Equal(t, "fixture:point", m.layers[1].ID)
	assert.Contains(t, m.status, "pts=1 ls=0 poly=1")

	assert.InDelta(t, -0.5, m.home.Min.X, 1e-9)
	assert.InDelta(t, 20.5, m.home.Max.X, 1e-9)
	assert.InDelta(t, -0.25, m.home.Min.Y, 1e-9)
	assert.Equal(t, m.home, m.extents)

	assert.True(t, hasBraille(m.renderAsciiMap(40, 10)))

	m.loadPath(filepath.Join(t.TempDir(), "notes.txt"))
	assert.True(t, strings.HasPrefix(m.status, "load error"), m.status)
	assert.NotNil(t, m.dataset)
}

func TestHomeExtentsSinglePoint(t *testing.T) {
	p := geom.XY(3, 4)
	r := homeExtents(geom.NewRectangle(p, p))
	assert.Equal(t, geom.NewRectangle(geom.XY(2.5, 3.5), geom.XY(3.5, 4.5)), r)
}

func TestZoomPanReset(t *testing.T) {
	m := loaded(t, Options{})
	home := m.home

	m = press(m, "+")
	assert.InDelta(t, home.Width()/zoomStep, m.extents.Width(), 1e-9)
	assert.Equal(t, "zoom: 1.20x", m.status)
	assert.InDelta(t, home.Center().X, m.extents.Center().X, 1e-9)
	assert.InDelta(t, home.Center().Y, m.extents.Center().Y, 1e-9)

	m = press(m, "right")
	assert.Greater(t, m.extents.Min.X, home.Min.X)
	m = press(m, "up")
	assert.Greater(t, m.extents.Center().Y, home.Center().Y)

	m = press(m, "-")
	m = press(m, "r")
	assert.Equal(t, home, m.extents)
}

func TestLayerToggles(t *testing.T) {
	m := loaded(t, Options{})
	m = press(m, "3")
	vis := m.visibleLayers()
	require.Len(t, vis, 1)
	assert.Equal(t, geom.KindPoint, vis[0].Data.Kind())
	assert.Equal(t, "polys: false", m.status)

	// not everything visible: l shows all
	m = press(m, "l")
	assert.Len(t, m.visibleLayers(), 2)
	m = press(m, "l")
	assert.Empty(t, m.visibleLayers())
	assert.False(t, hasBraille(m.renderAsciiMap(40, 10)))
}

func TestPasteWKT(t *testing.T) {
	m := NewWithOptions("", Options{Logger: quiet()})
	m = press(m, "p")
	require.True(t, m.pasteMode)

	m.ta.SetValue("LINESTRING (0 0")
	m = press(m, "enter")
	assert.True(t, m.pasteMode)
	assert.True(t, strings.HasPrefix(m.status, "wkt error"), m.status)

	m.ta.SetValue("LINESTRING (0 0, 10 10)\nPOINT (5 5)")
	m = press(m, "enter")
	assert.False(t, m.pasteMode)
	require.NotNil(t, m.dataset)
	assert.NotNil(t, m.dataset.Source(geom.KindPolyline))
	assert.Equal(t, "rendered WKT  counts: pts=1 ls=1 poly=0", m.status)
	assert.Empty(t, m.selPath)

	// pasted data has no attributes
	m = press(m, "a")
	assert.False(t, m.showAttrs)
	assert.Equal(t, "no attributes for current dataset", m.status)
}

func TestAttributesTable(t *testing.T) {
	m := loaded(t, Options{})
	cols, rows := m.buildAttributes()
	assert.Equal(t, []string{"#", "name"}, cols)
	assert.Equal(t, [][]string{{"1", "a"}, {"2", "b"}}, rows)

	m = press(m, "a")
	require.True(t, m.showAttrs)
	assert.Len(t, m.tbl.Rows(), 2)
	assert.Len(t, m.tbl.Columns(), 2)

	m = resize(m, 80, 24)
	assert.Contains(t, m.View(), "name")
}

func TestInspect(t *testing.T) {
	m := loaded(t, Options{})
	m = press(m, "i")
	assert.Contains(t, m.inspectPopup, "nearest: #1 polygon")
	assert.Contains(t, m.inspectPopup, "  name: a")
	assert.Contains(t, m.inspectPopup, "format: geojson")

	m = press(m, "1")
	m = press(m, "3")
	m = press(m, "i")
	assert.Equal(t, "no feature nearby", m.inspectPopup)
}

func TestHover(t *testing.T) {
	m := resize(loaded(t, Options{}), 80, 24)
	ox, oy, w, h := m.layout()
	assert.Equal(t, 0, ox)
	assert.Equal(t, 1, oy)
	assert.Equal(t, 79, w)
	assert.Equal(t, 21, h)

	next, _ := m.Update(tea.MouseMsg{X: 40, Y: 11})
	m = next.(Model)
	require.True(t, m.hovering)
	require.True(t, m.hoverHasGeo)

	vp, err := render.NewViewport(m.mapFor(w, h))
	require.NoError(t, err)
	assert.True(t, vp.Envelope.Contains(m.hoverAt))
	assert.True(t, strings.HasPrefix(m.coordLabel(), "lon="), m.coordLabel())

	// snapped to a vertex drawn by the renderer
	assert.NotEqual(t, [2]int{80, 40}, [2]int{m.hoverMicX, m.hoverMicY})

	next, _ = m.Update(tea.MouseMsg{X: 40, Y: 0})
	m = next.(Model)
	assert.False(t, m.hovering)
	assert.False(t, m.hoverHasGeo)
}

func TestDisplayProjection(t *testing.T) {
	m := loaded(t, Options{Projection: "EPSG:3857"})
	assert.Greater(t, m.home.Width(), 2e6)
	assert.True(t, hasBraille(m.renderAsciiMap(40, 10)))

	m = press(m, "i")
	assert.Contains(t, m.inspectPopup, "nearest: #1 polygon")

	m.hoverAt, m.hoverHasGeo = geom.XY(1, 2), true
	assert.Equal(t, "x=1.00 y=2.00", m.coordLabel())
	assert.Equal(t, 0, m.projections.Open())
}

func TestIsGeographic(t *testing.T) {
	assert.True(t, isGeographic("EPSG:4326"))
	assert.True(t, isGeographic(`GEOGCS["GCS_WGS_1984"]`))
	assert.True(t, isGeographic("+proj=longlat +datum=WGS84"))
	assert.False(t, isGeographic("EPSG:3857"))
	assert.False(t, isGeographic(""))
}
