package grid

import (
	"fmt"
	"strings"

	zone "github.com/lrstanley/bubblezone"

	"github.com/langarchive/catalog/internal/selection"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/ui/styles"
)

const emptyMessage = "No records. Press ctrl+n to add a draft row."

type cellFlags uint8

const (
	flagCursor cellFlags = 1 << iota
	flagRange
	flagEditing
)

type cacheKey struct {
	cell     sheet.CellKey
	row, col int
}

type cacheEntry struct {
	rev   uint64
	flags cellFlags
	width int
	out   string
}

// renderCache keeps the rendered cells of the last frame. Every View swaps
// in a fresh map holding only the cells of the current window, so entries
// for rows scrolled away are dropped.
type renderCache struct {
	entries map[cacheKey]cacheEntry
	next    map[cacheKey]cacheEntry
	hits    int
	misses  int
}

func newRenderCache() *renderCache {
	return &renderCache{entries: make(map[cacheKey]cacheEntry)}
}

func (c *renderCache) begin() {
	c.next = make(map[cacheKey]cacheEntry, len(c.entries))
}

func (c *renderCache) get(k cacheKey, rev uint64, f cellFlags, width int, render func() string) string {
	if e, ok := c.entries[k]; ok && e.rev == rev && e.flags == f && e.width == width {
		c.hits++
		c.next[k] = e
		return e.out
	}
	c.misses++
	e := cacheEntry{rev: rev, flags: f, width: width, out: render()}
	c.next[k] = e
	return e.out
}

func (c *renderCache) end() {
	c.entries = c.next
	c.next = nil
}

// Stats reports render cache hits and misses since the grid was created.
func (m *Model) Stats() (hits, misses int) {
	return m.cache.hits, m.cache.misses
}

// View renders the header and the visible rows, padded to the grid height.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	cols := m.visibleColumns()
	lines := make([]string, 0, m.height)
	lines = append(lines, m.renderHeader(cols))

	if m.sheet.Len() == 0 {
		lines = append(lines, styles.HintStyle.Render(styles.TruncateString(emptyMessage, m.width)))
		return strings.Join(padLines(lines, m.height), "\n")
	}

	rng := m.sel.Selection()
	editPos, editing := m.sel.Editing()
	visible := m.vp.VisibleRange()
	window := m.vp.Window()

	m.cache.begin()
	for r := window.Start; r < window.End; r++ {
		row, ok := m.sheet.RowAt(r)
		if !ok {
			break
		}
		var b strings.Builder
		if visible.Contains(r) {
			b.WriteString(m.renderGutter(r, row))
		}
		for j, c := range cols {
			col := m.columns[c]
			cell := row.Cells[col.Field]
			pos := selection.Position{Row: r, Col: c}

			var f cellFlags
			switch {
			case editing && pos == editPos:
				f = flagEditing
			case pos == m.sel.Active():
				f = flagCursor
			case m.sel.Mode() == selection.Ranging && rng.Contains(pos):
				f = flagRange
			}

			width := m.widths[c]
			k := cacheKey{cell: sheet.CellKey{Row: row.ID, Field: col.Field}, row: r, col: c}
			out := m.cache.get(k, cell.Rev, f, width, func() string {
				return zone.Mark(cellZoneID(r, c), renderCell(cell, f, width))
			})
			if !visible.Contains(r) {
				continue
			}
			if j > 0 {
				b.WriteString(separator)
			}
			b.WriteString(out)
		}
		if !visible.Contains(r) {
			continue
		}
		lines = append(lines, b.String())
		for extra := 1; extra < m.rowHeight; extra++ {
			lines = append(lines, "")
		}
	}
	m.cache.end()

	return strings.Join(padLines(lines, m.height), "\n")
}

func (m *Model) renderHeader(cols []int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gutterWidth))
	for j, c := range cols {
		if j > 0 {
			b.WriteString(separator)
		}
		title := styles.HeaderStyle.Render(styles.FitString(m.columns[c].Title, m.widths[c]))
		b.WriteString(zone.Mark(headerZoneID(c), title))
	}
	return b.String()
}

func (m *Model) renderGutter(r int, row *sheet.Row) string {
	check := " "
	if row.IsSelected {
		check = styles.CheckedMarkerStyle.Render("✓")
	}
	draft := " "
	if row.IsDraft {
		draft = styles.DraftMarkerStyle.Render("+")
	}
	return zone.Mark(checkZoneID(r), check+draft) + " "
}

// renderCell styles one cell. Selection styling wins over state styling.
func renderCell(c sheet.Cell, f cellFlags, width int) string {
	text := cellText(c)
	if c.Conflict {
		text = "! " + text
	}
	if c.Validation == sheet.Validating {
		text += " …"
	}
	text = styles.FitString(text, width)

	switch {
	case f&(flagCursor|flagEditing) != 0:
		return styles.CursorCellStyle.Render(text)
	case f&flagRange != 0:
		return styles.RangeCellStyle.Render(text)
	case c.Conflict:
		return styles.ConflictCellStyle.Render(text)
	case c.Validation == sheet.Invalid:
		return styles.InvalidCellStyle.Render(text)
	case c.Validation == sheet.Validating:
		return styles.ValidatingCellStyle.Render(text)
	case c.IsEdited:
		return styles.EditedCellStyle.Render(text)
	case c.ReadOnly:
		return styles.ReadOnlyCellStyle.Render(text)
	}
	return text
}

var flattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

func cellText(c sheet.Cell) string {
	return flattener.Replace(c.Text)
}

func displayWidth(s string) int { return styles.DisplayWidth(s) }

// CellOrigin returns the screen offset of a cell's top-left corner relative
// to the grid's own top-left corner. ok is false when the cell is scrolled out.
func (m *Model) CellOrigin(p selection.Position) (x, y int, ok bool) {
	if !m.vp.VisibleRange().Contains(p.Row) {
		return 0, 0, false
	}
	x = gutterWidth
	found := false
	for j, c := range m.visibleColumns() {
		if j > 0 {
			x += len(separator)
		}
		if c == p.Col {
			found = true
			break
		}
		x += m.widths[c]
	}
	if !found {
		return 0, 0, false
	}
	y = 1 + (p.Row-m.vp.Offset())*m.rowHeight
	return x, y, true
}

func padLines(lines []string, height int) []string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines[:height]
}

func cellZoneID(row, col int) string { return fmt.Sprintf("grid-cell-%d-%d", row, col) }

func headerZoneID(col int) string { return fmt.Sprintf("grid-header-%d", col) }

func checkZoneID(row int) string { return fmt.Sprintf("grid-check-%d", row) }
