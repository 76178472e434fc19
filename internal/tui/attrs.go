package tui

import (
	"fmt"
	"sort"

	table "github.com/charmbracelet/bubbles/table"

	"fieldmap/internal/geom"
)

// refreshAttrs rebuilds the table columns/rows from the aggregated features.
func (m *Model) refreshAttrs() {
	cols, rows := buildAttributes(m.collection)
	// If there are no rows, disable attributes view to avoid rendering panics
	if len(rows) == 0 {
		m.showAttrs = false
		m.status = "no features to list"
		return
	}
	tcols := make([]table.Column, 0, len(cols)+1)
	tcols = append(tcols, table.Column{Title: "#", Width: 4})
	maxColW := 24
	for _, c := range cols {
		tcols = append(tcols, table.Column{Title: c, Width: min(len(c)+2, maxColW)})
	}
	trows := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		row := make([]string, 0, len(r)+1)
		row = append(row, fmt.Sprintf("%d", i+1))
		row = append(row, r...)
		trows = append(trows, table.Row(row))
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
}

// buildAttributes lists id and type, then the union of property keys. Style
// keys are left out; they are the same for most rows.
func buildAttributes(fc geom.FeatureCollection) ([]string, [][]string) {
	skip := map[string]bool{
		geom.PropStrokeColor: true,
		geom.PropStrokeWidth: true,
		geom.PropFillColor:   true,
		geom.PropColor:       true,
	}
	seen := map[string]bool{}
	var keys []string
	for _, f := range fc.Features {
		for k := range f.Properties {
			if !skip[k] && !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	cols := append([]string{"id", "type"}, keys...)
	rows := make([][]string, 0, fc.Len())
	for _, f := range fc.Features {
		vals := make([]string, 0, len(cols))
		vals = append(vals, f.ID.Key(), string(f.Type()))
		for _, k := range keys {
			vals = append(vals, cellText(f.Properties[k]))
		}
		rows = append(rows, vals)
	}
	return cols, rows
}
