package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/keys"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/reconcile"
	"github.com/langarchive/catalog/internal/selection"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/ui/toaster"
)

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	k := keys.Grid

	if m.showHelp {
		if key.Matches(msg, k.Help, k.Escape) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.logs.Visible() {
		m.logs = m.logs.Update(msg)
		return m, nil
	}

	if m.confirm != nil {
		c := m.confirm
		m.confirm = nil
		if key.Matches(msg, k.Confirm) {
			return c.action(m)
		}
		log.Debug(log.CatUI, "confirmation declined", "prompt", c.prompt)
		return m, nil
	}

	if m.editor != nil {
		return m.updateEditor(msg)
	}

	switch {
	case key.Matches(msg, k.Quit):
		return m.requestQuit()
	case key.Matches(msg, k.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, k.Logs):
		m.logs = m.logs.Toggle()
		return m, nil

	case key.Matches(msg, k.Up):
		return m.move(-1, 0)
	case key.Matches(msg, k.Down):
		return m.move(1, 0)
	case key.Matches(msg, k.Left):
		return m.move(0, -1)
	case key.Matches(msg, k.Right):
		return m.move(0, 1)
	case key.Matches(msg, k.PageUp):
		return m.move(-m.pageRows(), 0)
	case key.Matches(msg, k.PageDown):
		return m.move(m.pageRows(), 0)
	case key.Matches(msg, k.Home):
		m.sel.MoveTo(selection.Position{Row: 0, Col: m.sel.Active().Col})
		m.grid.Follow()
		return m, nil
	case key.Matches(msg, k.End):
		m.sel.MoveTo(selection.Position{Row: m.sheet.Len() - 1, Col: m.sel.Active().Col})
		m.grid.Follow()
		return m, nil

	case key.Matches(msg, k.ExtendUp):
		return m.extend(-1, 0)
	case key.Matches(msg, k.ExtendDown):
		return m.extend(1, 0)
	case key.Matches(msg, k.ExtendLeft):
		return m.extend(0, -1)
	case key.Matches(msg, k.ExtendRight):
		return m.extend(0, 1)
	case key.Matches(msg, k.Tab):
		m.sel.Tab(false)
		m.grid.Follow()
		return m, nil
	case key.Matches(msg, k.BackTab):
		m.sel.Tab(true)
		m.grid.Follow()
		return m, nil

	case key.Matches(msg, k.Edit):
		return m.beginEdit()
	case key.Matches(msg, k.Escape):
		if m.sel.Mode() == selection.Ranging {
			m.sel.MoveTo(m.sel.Active())
		}
		return m, nil
	case key.Matches(msg, k.Clear):
		return m.clearSelection("clear")
	case key.Matches(msg, k.Copy):
		return m.copySelection(false)
	case key.Matches(msg, k.Cut):
		return m.copySelection(true)
	case key.Matches(msg, k.Paste):
		return m.paste()
	case key.Matches(msg, k.Undo):
		return m.undo()
	case key.Matches(msg, k.Redo):
		return m.redo()

	case key.Matches(msg, k.ToggleRow):
		if row, ok := m.sheet.RowAt(m.sel.Active().Row); ok {
			m.sheet.ToggleSelected(row.ID)
		}
		return m, nil
	case key.Matches(msg, k.AddDraft):
		return m.addDraft()
	case key.Matches(msg, k.DeleteRow):
		return m.requestRemoveRows()

	case key.Matches(msg, k.Narrower):
		return m.resizeColumn(-1)
	case key.Matches(msg, k.Wider):
		return m.resizeColumn(1)

	case key.Matches(msg, k.Save):
		return m.requestSave()
	case key.Matches(msg, k.Refresh):
		return m.requestRefresh()
	case key.Matches(msg, k.KeepMine):
		return m.resolveConflict(true)
	case key.Matches(msg, k.TakeTheirs):
		return m.resolveConflict(false)
	}
	return m, nil
}

func (m Model) move(dRow, dCol int) (Model, tea.Cmd) {
	m.sel.Move(dRow, dCol)
	m.grid.Follow()
	return m, nil
}

func (m Model) extend(dRow, dCol int) (Model, tea.Cmd) {
	m.sel.Extend(dRow, dCol)
	m.grid.Follow()
	return m, nil
}

func (m Model) pageRows() int {
	return max(1, m.grid.Viewport().Visible()-1)
}

func (m Model) requestQuit() (Model, tea.Cmd) {
	if m.sheet.HasChanges() {
		m.confirm = &confirmation{
			prompt: "Quit and discard unsaved changes?",
			action: func(m Model) (Model, tea.Cmd) { return m, tea.Quit },
		}
		return m, nil
	}
	return m, tea.Quit
}

func (m Model) addDraft() (Model, tea.Cmd) {
	id := m.sheet.AddDraftRow()
	m.grid.Sync()
	if i, ok := m.grid.ScrollToRow(id); ok {
		m.sel.MoveTo(selection.Position{Row: i, Col: m.firstEditableColumn()})
		m.grid.Follow()
	}
	log.Debug(log.CatGrid, "draft row added", "row", string(id))
	return m, nil
}

func (m Model) firstEditableColumn() int {
	for i, col := range m.schema.Columns {
		if col.Type != catalog.TypeReadOnly {
			return i
		}
	}
	return 0
}

// requestRemoveRows drops the checked rows, or the active draft row when
// nothing is checked, from the working set. Nothing is deleted remotely.
func (m Model) requestRemoveRows() (Model, tea.Cmd) {
	var ids []sheet.RowID
	changed := 0
	for _, r := range m.sheet.SelectedRows() {
		ids = append(ids, r.ID)
		if r.HasChanges() {
			changed++
		}
	}
	if len(ids) == 0 {
		row, ok := m.sheet.RowAt(m.sel.Active().Row)
		if !ok || !row.IsDraft {
			return m.showToast("Check rows with space to remove them", toaster.StyleInfo)
		}
		ids = []sheet.RowID{row.ID}
		if row.HasChanges() {
			changed++
		}
	}
	remove := func(m Model) (Model, tea.Cmd) {
		n := m.sheet.DeleteRows(ids)
		m.grid.Sync()
		m.grid.Follow()
		return m.showToast(fmt.Sprintf("Removed %d %s from the sheet", n, plural(n, "row")), toaster.StyleSuccess)
	}
	if changed > 0 {
		m.confirm = &confirmation{
			prompt: fmt.Sprintf("Remove %d %s with unsaved changes?", changed, plural(changed, "row")),
			action: remove,
		}
		return m, nil
	}
	return remove(m)
}

func (m Model) resolveConflict(keepMine bool) (Model, tea.Cmd) {
	k, cell, ok := m.activeCell()
	if !ok || !cell.Conflict {
		return m.showToast("No conflict in this cell", toaster.StyleInfo)
	}
	var err error
	if keepMine {
		err = reconcile.KeepMine(m.sheet, k)
	} else {
		err = reconcile.TakeTheirs(m.sheet, k)
	}
	if err != nil {
		log.ErrorErr(log.CatSave, "resolving conflict failed", err, "cell", k.String())
		return m.showError("Resolving conflict failed", err)
	}
	log.Info(log.CatSave, "conflict resolved", "cell", k.String(), "keepMine", keepMine)
	return m, nil
}

func (m Model) activeCell() (sheet.CellKey, sheet.Cell, bool) {
	p := m.sel.Active()
	row, ok := m.sheet.RowAt(p.Row)
	if !ok {
		return sheet.CellKey{}, sheet.Cell{}, false
	}
	col, ok := m.grid.Column(p.Col)
	if !ok {
		return sheet.CellKey{}, sheet.Cell{}, false
	}
	c, ok := row.Cell(col.Field)
	return sheet.CellKey{Row: row.ID, Field: col.Field}, c, ok
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
