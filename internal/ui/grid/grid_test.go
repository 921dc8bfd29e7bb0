package grid

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/selection"
	"github.com/langarchive/catalog/internal/sheet"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func records(n int) []catalog.Record {
	out := make([]catalog.Record, n)
	for i := range out {
		id := int64(i + 1)
		out[i] = catalog.Record{ID: id, Version: 1, Values: map[string]catalog.Value{
			"id":             catalog.Text(sheet.PersistedID(id)),
			"catalog_number": catalog.Text(fmt.Sprintf("AK-%03d", id)),
			"title":          catalog.Text(fmt.Sprintf("Recording %d", id)),
		}}
	}
	return out
}

func newGrid(t *testing.T, n, width, height int) (*Model, *sheet.Sheet, *selection.State) {
	t.Helper()
	schema, err := catalog.Lookup("items")
	require.NoError(t, err)
	sh := sheet.New(schema)
	sh.Reset(records(n), false)
	sel := selection.New(sh.Len(), len(schema.Columns))
	g := New(sh, sel, 1, 2, nil)
	g.SetSize(width, height)
	return g, sh, sel
}

func plain(s string) []string {
	return strings.Split(ansi.Strip(zone.Scan(s)), "\n")
}

func TestView_RendersOnlyVisibleRows(t *testing.T) {
	g, _, _ := newGrid(t, 10_000, 80, 11)

	lines := plain(g.View())
	require.Len(t, lines, 11)
	require.Contains(t, lines[0], "Catalog #")
	require.Contains(t, lines[1], "AK-001")
	require.Contains(t, lines[10], "AK-010")

	// Window of ten visible rows plus two overscan rows below.
	_, misses := g.Stats()
	visibleCols := len(g.visibleColumns())
	require.Equal(t, 12*visibleCols, misses)
}

func TestView_CacheReusesUnchangedCells(t *testing.T) {
	g, sh, sel := newGrid(t, 50, 80, 6)
	_ = g.View()
	_, before := g.Stats()

	// Re-rendering with nothing changed is all hits.
	_ = g.View()
	_, after := g.Stats()
	require.Equal(t, before, after)

	// Moving the cursor re-renders exactly the old and new cursor cells.
	sel.Move(0, 1)
	_ = g.View()
	_, moved := g.Stats()
	require.Equal(t, after+2, moved)

	// Editing a value re-renders only that cell.
	_, err := sh.SetValue("3", "title", sheet.Assign(catalog.Text("Changed"), ""), "edit")
	require.NoError(t, err)
	_ = g.View()
	_, edited := g.Stats()
	require.Equal(t, moved+1, edited)
}

func TestView_ScrollDropsOldEntries(t *testing.T) {
	g, _, _ := newGrid(t, 100, 80, 6)
	_ = g.View()
	g.ScrollBy(50)
	_ = g.View()

	for k := range g.cache.entries {
		require.GreaterOrEqual(t, k.row, 48, "entries outside the window are pruned")
	}
}

func TestView_EmptySheet(t *testing.T) {
	g, _, _ := newGrid(t, 0, 80, 4)
	lines := plain(g.View())
	require.Len(t, lines, 4)
	require.Contains(t, lines[1], "No records")
}

func TestView_Markers(t *testing.T) {
	g, sh, _ := newGrid(t, 2, 80, 5)
	sh.ToggleSelected("1")
	sh.AddDraftRow()
	g.Sync()

	lines := plain(g.View())
	require.True(t, strings.HasPrefix(lines[1], "✓"), lines[1])
	require.True(t, strings.HasPrefix(lines[3], " +"), lines[3])
}

func TestView_ConflictAndValidatingText(t *testing.T) {
	g, sh, sel := newGrid(t, 2, 120, 4)
	sel.Click(selection.Position{Row: 1, Col: 0})
	_, err := sh.UpdateCell("1", "title", sheet.Patch{}.WithConflict(true))
	require.NoError(t, err)
	_, err = sh.UpdateCell("1", "catalog_number", sheet.MarkState(sheet.Validating, ""))
	require.NoError(t, err)

	lines := plain(g.View())
	require.Contains(t, lines[1], "! Recording 1")
	require.Contains(t, lines[1], "AK-001 …")
}

func TestView_MultilineTextFlattened(t *testing.T) {
	g, sh, _ := newGrid(t, 1, 120, 3)
	_, err := sh.SetValue("1", "title", sheet.Assign(catalog.Text("two\nlines"), "two\nlines"), "edit")
	require.NoError(t, err)

	lines := plain(g.View())
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "two lines")
}

func TestFollow_ScrollsHorizontally(t *testing.T) {
	g, _, sel := newGrid(t, 5, 40, 6)
	require.Equal(t, 0, g.firstCol)

	sel.MoveTo(selection.Position{Row: 0, Col: 9})
	g.Follow()
	vis := g.visibleColumns()
	require.Equal(t, 9, vis[len(vis)-1])
	require.Greater(t, g.firstCol, 0)

	sel.MoveTo(selection.Position{Row: 0, Col: 0})
	g.Follow()
	require.Equal(t, 0, g.firstCol)
}

func TestScrollToRow(t *testing.T) {
	g, sh, _ := newGrid(t, 100, 80, 11)
	id := sh.AddDraftRow()
	g.Sync()

	i, ok := g.ScrollToRow(id)
	require.True(t, ok)
	require.Equal(t, 100, i)
	require.True(t, g.Viewport().VisibleRange().Contains(100))

	_, ok = g.ScrollToRow("missing")
	require.False(t, ok)
}

func TestResizeAndAutoFit(t *testing.T) {
	g, _, _ := newGrid(t, 3, 80, 5)
	title := 2

	require.Equal(t, 30, g.Resize(title, 2))
	require.Equal(t, MaxColumnWidth, g.Resize(title, 500))
	require.Equal(t, MinColumnWidth, g.Resize(title, -500))
	require.Equal(t, len("Recording 1"), g.AutoFit(title))
	require.Equal(t, len("Recording 1"), g.Widths()["title"])
}

func TestNew_WidthOverrides(t *testing.T) {
	schema, err := catalog.Lookup("items")
	require.NoError(t, err)
	sh := sheet.New(schema)
	g := New(sh, selection.New(0, len(schema.Columns)), 1, 0, map[string]int{"title": 50, "keywords": 1})

	require.Equal(t, 50, g.Width(2))
	require.Equal(t, MinColumnWidth, g.Widths()["keywords"])
}

func TestCellOrigin(t *testing.T) {
	g, _, _ := newGrid(t, 20, 80, 6)

	x, y, ok := g.CellOrigin(selection.Position{Row: 0, Col: 1})
	require.True(t, ok)
	require.Equal(t, gutterWidth+g.Width(0)+len(separator), x)
	require.Equal(t, 1, y)

	_, _, ok = g.CellOrigin(selection.Position{Row: 15, Col: 1})
	require.False(t, ok)
}

func TestRowHeight(t *testing.T) {
	schema, err := catalog.Lookup("items")
	require.NoError(t, err)
	sh := sheet.New(schema)
	sh.Reset(records(10), false)
	g := New(sh, selection.New(sh.Len(), len(schema.Columns)), 2, 0, nil)
	g.SetSize(80, 7)

	lines := plain(g.View())
	require.Len(t, lines, 7)
	require.Contains(t, lines[1], "AK-001")
	require.Contains(t, lines[3], "AK-002")
	require.Contains(t, lines[5], "AK-003")
}

func TestHitTest(t *testing.T) {
	g, _, _ := newGrid(t, 5, 80, 7)

	z := waitZone(t, g, cellZoneID(2, 1))
	hit := g.HitTest(tea.MouseMsg{X: z.StartX + 1, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	require.Equal(t, HitCell, hit.Kind)
	require.Equal(t, selection.Position{Row: 2, Col: 1}, hit.Pos)

	z = waitZone(t, g, checkZoneID(3))
	hit = g.HitTest(tea.MouseMsg{X: z.StartX, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	require.Equal(t, HitCheckbox, hit.Kind)
	require.Equal(t, 3, hit.Pos.Row)

	z = waitZone(t, g, headerZoneID(2))
	hit = g.HitTest(tea.MouseMsg{X: z.StartX, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	require.Equal(t, HitHeader, hit.Kind)
	require.Equal(t, 2, hit.Pos.Col)

	hit = g.HitTest(tea.MouseMsg{X: 500, Y: 500})
	require.Equal(t, HitNone, hit.Kind)
}

// waitZone renders until bubblezone's worker has registered id.
func waitZone(t *testing.T, g *Model, id string) *zone.ZoneInfo {
	t.Helper()
	var z *zone.ZoneInfo
	for retries := 0; retries < 50; retries++ {
		_ = zone.Scan(g.View())
		z = zone.Get(id)
		if z != nil && !z.IsZero() {
			return z
		}
		time.Sleep(time.Millisecond)
	}
	require.Failf(t, "zone not registered", "id %s", id)
	return nil
}
