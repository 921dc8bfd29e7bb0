package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/clipcodec"
	"github.com/langarchive/catalog/internal/config"
	"github.com/langarchive/catalog/internal/editors"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/selection"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/ui/toaster"
)

// widthsSaveDelay batches column resizes into one config write.
const widthsSaveDelay = 500 * time.Millisecond

type saveWidthsMsg struct{ token int }

func (m Model) beginEdit() (Model, tea.Cmd) {
	k, cell, ok := m.activeCell()
	if !ok {
		return m, nil
	}
	col, _ := m.schema.Column(k.Field)
	if !m.sel.BeginEdit(cell.ReadOnly) {
		return m.showToast(col.Title+" is read-only", toaster.StyleInfo)
	}
	ed, ok := m.editors.Open(col, cell, k)
	if !ok {
		m.sel.CancelEdit()
		return m, nil
	}
	m.editor = ed
	m.grid.Follow()
	return m, ed.Init()
}

// updateEditor forwards msg to the open editor and applies its outcome
// before anything else is processed.
func (m Model) updateEditor(msg tea.Msg) (Model, tea.Cmd) {
	ed, res, cmd := m.editor.Update(msg)
	m.editor = ed
	m, done := m.finishEdit(res)
	return m, tea.Batch(cmd, done)
}

// blurEditor asks the editor to give up focus because the user clicked
// target. Editors with a grace period settle later; the click is replayed
// once they do.
func (m Model) blurEditor(target selection.Position) (Model, tea.Cmd) {
	ed, res, cmd := m.editor.Blur()
	m.editor = ed
	if res.Outcome == editors.Pending {
		m.blurTarget = &target
		return m, cmd
	}
	m, done := m.finishEdit(res)
	m.sel.Click(target)
	m.grid.Follow()
	return m, tea.Batch(cmd, done)
}

func (m Model) finishEdit(res editors.Result) (Model, tea.Cmd) {
	if res.Outcome == editors.Pending {
		return m, nil
	}
	k := m.editor.Key()
	m.editor = nil

	var cmd tea.Cmd
	switch res.Outcome {
	case editors.Commit:
		m, cmd = m.commitValue(k, res.Value, res.Text)
		switch res.Nav {
		case editors.NavDown:
			m.sel.CommitEdit(true)
		case editors.NavTab:
			m.sel.CommitEdit(false)
			m.sel.Tab(false)
		case editors.NavBackTab:
			m.sel.CommitEdit(false)
			m.sel.Tab(true)
		default:
			m.sel.CommitEdit(false)
		}
	case editors.Cancel:
		m.sel.CancelEdit()
		log.Debug(log.CatEditor, "edit cancelled", "cell", k.String())
	}

	if m.blurTarget != nil {
		m.sel.Click(*m.blurTarget)
		m.blurTarget = nil
	}
	m.grid.Follow()
	return m, cmd
}

// commitValue writes an editor result as one undoable edit and starts any
// remote validation it needs. Committing the current value is a no-op.
func (m Model) commitValue(k sheet.CellKey, v catalog.Value, text string) (Model, tea.Cmd) {
	cell, err := m.sheet.Cell(k.Row, k.Field)
	if err != nil {
		log.ErrorErr(log.CatEditor, "commit target vanished", err, "cell", k.String())
		return m, nil
	}
	col, _ := m.schema.Column(k.Field)
	if catalog.Equal(col.Type, cell.Value, v) {
		return m, nil
	}
	p := m.validator.Patch(col, cell, v, text)
	if _, err := m.sheet.SetValue(k.Row, k.Field, p, "edit "+col.Title); err != nil {
		return m.showError("Edit failed", err)
	}
	log.Debug(log.CatEditor, "edit committed", "cell", k.String())
	return m, m.validator.Pending(m.ctx, m.sheet, []sheet.CellKey{k})
}

// applyBatch validates every update's value, applies the batch as one
// command and starts remote checks.
func (m Model) applyBatch(description string, updates []sheet.Update) (Model, tea.Cmd, int) {
	keys := make([]sheet.CellKey, 0, len(updates))
	for i, u := range updates {
		if !u.Patch.HasValue() {
			continue
		}
		cell, err := m.sheet.Cell(u.Row, u.Field)
		if err != nil {
			continue
		}
		col, _ := m.schema.Column(u.Field)
		updates[i].Patch = m.validator.Patch(col, cell, u.Patch.Value(), u.Patch.Text())
		keys = append(keys, sheet.CellKey{Row: u.Row, Field: u.Field})
	}
	applied, err := m.sheet.BatchUpdateCells(description, updates)
	if err != nil {
		var toast tea.Cmd
		m, toast = m.showError(description+" failed", err)
		return m, toast, 0
	}
	return m, m.validator.Pending(m.ctx, m.sheet, keys), len(applied.Changes)
}

func (m Model) selectionKeys() []sheet.CellKey {
	positions := m.sel.Selection().Positions()
	keys := make([]sheet.CellKey, 0, len(positions))
	for _, p := range positions {
		row, ok := m.sheet.RowAt(p.Row)
		if !ok {
			continue
		}
		col, ok := m.grid.Column(p.Col)
		if !ok {
			continue
		}
		if c, ok := row.Cell(col.Field); ok && !c.ReadOnly {
			keys = append(keys, sheet.CellKey{Row: row.ID, Field: col.Field})
		}
	}
	return keys
}

func (m Model) clearSelection(description string) (Model, tea.Cmd) {
	keys := m.selectionKeys()
	if len(keys) == 0 {
		return m, nil
	}
	updates := make([]sheet.Update, 0, len(keys))
	for _, k := range keys {
		col, _ := m.schema.Column(k.Field)
		updates = append(updates, sheet.Update{Row: k.Row, Field: k.Field, Patch: sheet.Assign(catalog.Empty(col.Type), "")})
	}
	m, cmd, _ := m.applyBatch(description, updates)
	return m, cmd
}

func (m Model) copySelection(cut bool) (Model, tea.Cmd) {
	rng := m.sel.Selection()
	var text string
	if rows, cols := rng.Size(); rows == 1 && cols == 1 {
		_, cell, ok := m.activeCell()
		if !ok {
			return m, nil
		}
		text = clipcodec.EncodeCell(cell)
	} else {
		text = clipcodec.EncodeRange(m.sheet, rng)
	}
	if err := m.clip.Copy(text); err != nil {
		log.ErrorErr(log.CatClipboard, "copy failed", err)
		return m.showError("Copy failed", err)
	}
	rows, cols := rng.Size()
	n := rows * cols
	log.Debug(log.CatClipboard, "copied", "cells", n, "cut", cut)
	if !cut {
		return m.showToast(fmt.Sprintf("Copied %d %s", n, plural(n, "cell")), toaster.StyleSuccess)
	}
	m, cmd := m.clearSelection("cut")
	m, toast := m.showToast(fmt.Sprintf("Cut %d %s", n, plural(n, "cell")), toaster.StyleSuccess)
	return m, tea.Batch(cmd, toast)
}

func (m Model) paste() (Model, tea.Cmd) {
	text, err := m.clip.Paste()
	if err != nil {
		log.ErrorErr(log.CatClipboard, "paste failed", err)
		return m.showError("Paste failed", err)
	}
	updates := clipcodec.PlanPaste(m.sheet, m.sel.Selection(), text)
	if len(updates) == 0 {
		return m, nil
	}
	m, cmd, n := m.applyBatch("paste", updates)
	log.Debug(log.CatClipboard, "pasted", "cells", n)
	return m, cmd
}

func (m Model) undo() (Model, tea.Cmd) {
	c, keys, ok := m.history.Undo(m.sheet)
	if !ok {
		return m.showToast("Nothing to undo", toaster.StyleInfo)
	}
	log.Debug(log.CatHistory, "undo", "command", c.Description, "cells", len(keys))
	m.focusFirst(keys)
	return m, m.validator.Pending(m.ctx, m.sheet, keys)
}

func (m Model) redo() (Model, tea.Cmd) {
	c, keys, ok := m.history.Redo(m.sheet)
	if !ok {
		return m.showToast("Nothing to redo", toaster.StyleInfo)
	}
	log.Debug(log.CatHistory, "redo", "command", c.Description, "cells", len(keys))
	m.focusFirst(keys)
	return m, m.validator.Pending(m.ctx, m.sheet, keys)
}

// focusFirst scrolls to the first restored cell so the user sees what
// changed.
func (m Model) focusFirst(keys []sheet.CellKey) {
	if len(keys) == 0 {
		return
	}
	i, ok := m.grid.ScrollToRow(keys[0].Row)
	if !ok {
		return
	}
	m.sel.MoveTo(selection.Position{Row: i, Col: m.schema.Index(keys[0].Field)})
	m.grid.Follow()
}

func (m Model) resizeColumn(delta int) (Model, tea.Cmd) {
	col := m.sel.Active().Col
	w := m.grid.Resize(col, delta)
	if c, ok := m.grid.Column(col); ok {
		m.cfg.SetWidth(m.schema.Kind, c.Field, w)
	}
	m.widthsToken++
	token := m.widthsToken
	return m, tea.Tick(widthsSaveDelay, func(time.Time) tea.Msg { return saveWidthsMsg{token: token} })
}

func (m Model) handleSaveWidths(msg saveWidthsMsg) (Model, tea.Cmd) {
	if msg.token != m.widthsToken || m.configPath == "" {
		return m, nil
	}
	if err := config.SaveColumnWidths(m.configPath, m.schema.Kind, m.grid.Widths()); err != nil {
		return m.showError("Saving column widths failed", err)
	}
	return m, nil
}
