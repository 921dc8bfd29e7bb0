// Package grid renders the working set as a virtualized spreadsheet.
//
// Only rows inside the viewport are rendered. Each rendered cell is cached
// by its revision, its selection flags and its width, so scrolling or moving
// the cursor re-renders only the cells whose appearance changed.
package grid

import (
	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/selection"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/virtual"
)

const (
	// MinColumnWidth and MaxColumnWidth bound resizing and auto-fit.
	MinColumnWidth = 3
	MaxColumnWidth = 80

	// gutterWidth holds the checkbox and draft markers plus a space.
	gutterWidth = 3
	separator   = " "
)

// Model is the grid component. It shares the sheet and selection state with
// the root model and never mutates either except through scrolling helpers.
type Model struct {
	sheet *sheet.Sheet
	sel   *selection.State
	vp    *virtual.Viewport

	columns  []catalog.Column
	widths   []int
	firstCol int

	width     int
	height    int
	rowHeight int

	cache *renderCache
}

// New creates a grid over sh. widths overrides schema column widths by field.
func New(sh *sheet.Sheet, sel *selection.State, rowHeight, overscan int, widths map[string]int) *Model {
	cols := sh.Schema().Columns
	m := &Model{
		sheet:     sh,
		sel:       sel,
		vp:        virtual.New(rowHeight, overscan),
		columns:   cols,
		widths:    make([]int, len(cols)),
		rowHeight: max(1, rowHeight),
		cache:     newRenderCache(),
	}
	for i, col := range cols {
		w := col.Width
		if override, ok := widths[col.Field]; ok {
			w = override
		}
		if w <= 0 {
			w = 12
		}
		m.widths[i] = clampWidth(w)
	}
	m.Sync()
	return m
}

// Columns returns the displayed columns in order.
func (m *Model) Columns() []catalog.Column { return m.columns }

// Column returns the column at index i.
func (m *Model) Column(i int) (catalog.Column, bool) {
	if i < 0 || i >= len(m.columns) {
		return catalog.Column{}, false
	}
	return m.columns[i], true
}

// Viewport exposes the row window.
func (m *Model) Viewport() *virtual.Viewport { return m.vp }

// SetSize sets the space available to the grid, including its header line.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.vp.SetHeight(max(0, height-1))
	m.ensureColumnVisible(m.sel.Active().Col)
}

// Sync picks up row count changes from the sheet. Call it after any
// operation that adds or removes rows.
func (m *Model) Sync() {
	m.vp.SetTotal(m.sheet.Len())
	m.sel.SetBounds(m.sheet.Len(), len(m.columns))
}

// Follow scrolls so the active cell is visible.
func (m *Model) Follow() {
	active := m.sel.Active()
	m.vp.EnsureVisible(active.Row)
	m.ensureColumnVisible(active.Col)
}

// ScrollBy scrolls the rows without moving the selection.
func (m *Model) ScrollBy(delta int) { m.vp.ScrollBy(delta) }

// ScrollToRow makes the row with id visible and returns its index.
func (m *Model) ScrollToRow(id sheet.RowID) (int, bool) {
	i := m.sheet.IndexOf(id)
	if i < 0 {
		return 0, false
	}
	m.vp.EnsureVisible(i)
	return i, true
}

// Width returns the width of column i.
func (m *Model) Width(i int) int {
	if i < 0 || i >= len(m.widths) {
		return 0
	}
	return m.widths[i]
}

// Widths returns the current widths keyed by field.
func (m *Model) Widths() map[string]int {
	out := make(map[string]int, len(m.columns))
	for i, col := range m.columns {
		out[col.Field] = m.widths[i]
	}
	return out
}

// Resize changes the width of column i by delta and returns the new width.
func (m *Model) Resize(i, delta int) int {
	if i < 0 || i >= len(m.widths) {
		return 0
	}
	m.widths[i] = clampWidth(m.widths[i] + delta)
	m.ensureColumnVisible(i)
	return m.widths[i]
}

// AutoFit sizes column i to its header and the widest loaded value.
func (m *Model) AutoFit(i int) int {
	col, ok := m.Column(i)
	if !ok {
		return 0
	}
	w := displayWidth(col.Title)
	for r := 0; r < m.sheet.Len(); r++ {
		row, _ := m.sheet.RowAt(r)
		if c, ok := row.Cell(col.Field); ok {
			w = max(w, displayWidth(cellText(c)))
		}
	}
	m.widths[i] = clampWidth(w)
	return m.widths[i]
}

// visibleColumns returns the column indexes that fit from firstCol on.
func (m *Model) visibleColumns() []int {
	var out []int
	used := gutterWidth
	for i := m.firstCol; i < len(m.columns); i++ {
		need := m.widths[i]
		if len(out) > 0 {
			need += len(separator)
		}
		if len(out) > 0 && used+need > m.width {
			break
		}
		out = append(out, i)
		used += need
	}
	return out
}

func (m *Model) ensureColumnVisible(col int) {
	if col < 0 || col >= len(m.columns) {
		return
	}
	if col < m.firstCol {
		m.firstCol = col
		return
	}
	for m.firstCol < col {
		vis := m.visibleColumns()
		if len(vis) > 0 && vis[len(vis)-1] >= col {
			return
		}
		m.firstCol++
	}
}

func clampWidth(w int) int {
	return max(MinColumnWidth, min(w, MaxColumnWidth))
}
