package tui

import (
	"fmt"
	"strconv"

	table "github.com/charmbracelet/bubbles/table"
)

// refreshAttrsFromCurrent rebuilds the table columns/rows from the current dataset
func (m *Model) refreshAttrsFromCurrent() {
	cols, rows := m.buildAttributes()
	// If there are no columns or rows, disable attributes view to avoid rendering panics
	if len(cols) == 0 || len(rows) == 0 {
		m.showAttrs = false
		m.status = "no attributes for current dataset"
		return
	}
	tcols := make([]table.Column, 0, len(cols))
	maxColW := 24
	for i, c := range cols {
		w := len(c) + 2
		for _, r := range rows {
			w = max(w, len(r[i])+2)
		}
		tcols = append(tcols, table.Column{Title: c, Width: min(w, maxColW)})
	}
	trows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		trows = append(trows, table.Row(r))
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
}

// buildAttributes returns the columns and rows of the table. The first
// column is the feature ID; features sharing an ID share a row. Datasets
// without attributes get a one-row summary.
func (m *Model) buildAttributes() ([]string, [][]string) {
	ds := m.dataset
	if ds == nil {
		return nil, nil
	}
	if len(ds.Fields) == 0 {
		if m.selPath == "" {
			// pasted WKT: nothing to show
			return nil, nil
		}
		ext, _ := ds.Extents()
		cols := []string{"name", "format", "extents", "counts"}
		vals := []string{
			ds.Name, ds.Format,
			fmt.Sprintf("[%.5f,%.5f,%.5f,%.5f]", ext.Min.X, ext.Min.Y, ext.Max.X, ext.Max.Y),
			counts(ds),
		}
		return cols, [][]string{vals}
	}

	cols := append([]string{"#"}, ds.Fields...)
	var rows [][]string
	seen := make(map[uint32]bool)
	for _, f := range ds.Features() {
		id := f.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, append([]string{strconv.FormatUint(uint64(id), 10)}, ds.Row(id)...))
	}
	return cols, rows
}
