package clipcodec

import (
	"github.com/langarchive/catalog/internal/selection"
	"github.com/langarchive/catalog/internal/sheet"
)

// PlanPaste turns clipboard text into cell updates. A single value pasted
// over a multi-cell selection fills every selected cell. Otherwise the grid
// is anchored at the selection's top-left cell and clipped at the sheet's
// edges. Read-only targets are skipped.
func PlanPaste(sh *sheet.Sheet, sel selection.Range, text string) []sheet.Update {
	grid := ParseGrid(text)
	if len(grid) == 0 {
		return nil
	}
	cols := sh.Schema().Columns
	top, left, _, _ := sel.Bounds()

	if len(grid) == 1 && len(grid[0]) == 1 {
		payload := Decode(grid[0][0])
		positions := sel.Positions()
		updates := make([]sheet.Update, 0, len(positions))
		for _, p := range positions {
			if u, ok := updateAt(sh, p, payload); ok {
				updates = append(updates, u)
			}
		}
		return updates
	}

	var updates []sheet.Update
	for i, cells := range grid {
		if top+i >= sh.Len() {
			break
		}
		for j, raw := range cells {
			if left+j >= len(cols) {
				break
			}
			if u, ok := updateAt(sh, selection.Position{Row: top + i, Col: left + j}, Decode(raw)); ok {
				updates = append(updates, u)
			}
		}
	}
	return updates
}

func updateAt(sh *sheet.Sheet, p selection.Position, payload Payload) (sheet.Update, bool) {
	row, ok := sh.RowAt(p.Row)
	cols := sh.Schema().Columns
	if !ok || p.Col < 0 || p.Col >= len(cols) {
		return sheet.Update{}, false
	}
	col := cols[p.Col]
	if c, ok := row.Cells[col.Field]; !ok || c.ReadOnly {
		return sheet.Update{}, false
	}
	v, text := payload.For(col)
	return sheet.Update{Row: row.ID, Field: col.Field, Patch: sheet.Assign(v, text)}, true
}
