// Package tui is an interactive terminal viewer for the datasets the source
// package opens. The map is drawn by the render package at two by four
// pixels per cell and shown as braille.
package tui

import (
	"image/color"
	"os"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"geomap/internal/carto"
	"geomap/internal/geom"
	"geomap/internal/projection"
	"geomap/internal/render"
	"geomap/internal/source"
)

// Options configure a Model.
type Options struct {
	// Projection is the display projection. Empty shows every dataset in
	// its own coordinates.
	Projection string
	Logger     log.FieldLogger
}

// terminalSymbol draws everything in one opaque color; the braille pass
// only looks at coverage.
var terminalSymbol = carto.Symbol{
	FillColor: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	LineColor: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	LineWidth: 1,
	LineStyle: carto.LineSolid,
	PointSize: 2,
}

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	status string

	// File explorer
	cwd     string
	l       list.Model
	items   []list.Item
	selPath string

	// Data
	dataset *source.Dataset
	layers  []*carto.Layer
	hidden  map[geom.Kind]bool
	home    geom.Rectangle
	extents geom.Rectangle

	projection  string
	projections *projection.Registry
	renderer    *render.Renderer
	logger      log.FieldLogger

	// paste mode
	pasteMode bool
	ta        textarea.Model

	// inspect popup
	inspectPopup string

	// hover state
	hovering    bool
	hoverCellX  int
	hoverCellY  int
	hoverMicX   int
	hoverMicY   int
	hoverHasGeo bool
	hoverAt     geom.Point

	// attributes table
	showAttrs bool
	tbl       table.Model
}

func New() Model {
	return NewWithOptions("", Options{})
}

// NewWithPath preloads a file's data at launch.
func NewWithPath(path string) Model {
	return NewWithOptions(path, Options{})
}

// NewWithOptions builds a model and loads path unless it is empty.
func NewWithOptions(path string, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	reg := projection.NewRegistry()
	m := Model{
		showSidebar: false,
		helpVisible: true,
		status:      "geomap ready",
		hidden:      map[geom.Kind]bool{},
		projection:  opts.Projection,
		projections: reg,
		logger:      opts.Logger,
		renderer:    render.New(reg, render.Options{Smoothing: render.SmoothingNone, Logger: opts.Logger}),
	}
	m.cwd, _ = os.Getwd()
	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Files"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste WKT here, one geometry per line. Press Enter to render; Esc to cancel."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()
	if path != "" {
		m.loadPath(path)
	}
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// layout returns the map area origin and size in cells. View and the mouse
// handler must agree on it.
func (m Model) layout() (originX, originY, w, h int) {
	sidebarWidth := 0
	if m.showSidebar {
		sidebarWidth = 28
	}
	headerHeight := 1
	footerHeight := 2
	h = max(4, m.height-headerHeight-footerHeight)
	w = max(10, max(10, m.width)-sidebarWidth-1)
	if m.showSidebar {
		originX = sidebarWidth + 1
	}
	return originX, headerHeight, w, h
}

// visibleLayers returns the layers whose kind is not hidden.
func (m Model) visibleLayers() []*carto.Layer {
	var out []*carto.Layer
	for _, l := range m.layers {
		if l.Data == nil || m.hidden[l.Data.Kind()] {
			continue
		}
		out = append(out, l)
	}
	return out
}

// zoom is the magnification relative to the whole dataset.
func (m Model) zoom() float64 {
	if m.extents.Width() <= 0 {
		return 1
	}
	return m.home.Width() / m.extents.Width()
}
