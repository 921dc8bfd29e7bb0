package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/langarchive/catalog/internal/editors"
	"github.com/langarchive/catalog/internal/selection"
	"github.com/langarchive/catalog/internal/ui/grid"
)

// wheelRows is how far one wheel notch scrolls.
const wheelRows = 3

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if m.showHelp || m.logs.Visible() || m.confirm != nil {
		return m, nil
	}
	if msg.Action == tea.MouseActionPress {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.grid.ScrollBy(-wheelRows)
			return m, nil
		case tea.MouseButtonWheelDown:
			m.grid.ScrollBy(wheelRows)
			return m, nil
		}
	}
	if m.editor != nil {
		return m.mouseWhileEditing(msg)
	}

	hit := m.grid.HitTest(msg)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		return m.press(msg, hit)
	case tea.MouseActionMotion:
		if m.sel.Dragging() && hit.Kind == grid.HitCell {
			m.sel.DragOver(hit.Pos)
			m.grid.Follow()
		}
	case tea.MouseActionRelease:
		m.sel.DragEnd()
	}
	return m, nil
}

func (m Model) press(msg tea.MouseMsg, hit grid.Hit) (Model, tea.Cmd) {
	switch hit.Kind {
	case grid.HitCheckbox:
		if row, ok := m.sheet.RowAt(hit.Pos.Row); ok {
			m.sheet.ToggleSelected(row.ID)
		}
	case grid.HitHeader:
		if m.sheet.Len() == 0 {
			return m, nil
		}
		m.sel.Click(selection.Position{Row: 0, Col: hit.Pos.Col})
		m.sel.ShiftClick(selection.Position{Row: m.sheet.Len() - 1, Col: hit.Pos.Col})
	case grid.HitCell:
		if msg.Shift {
			m.sel.ShiftClick(hit.Pos)
			return m, nil
		}
		now := m.now()
		if !m.lastClick.at.IsZero() && m.lastClick.pos == hit.Pos && now.Sub(m.lastClick.at) <= doubleClickWindow {
			m.lastClick = click{}
			m.sel.Click(hit.Pos)
			return m.beginEdit()
		}
		m.lastClick = click{pos: hit.Pos, at: now}
		m.sel.DragStart(hit.Pos)
	}
	return m, nil
}

// mouseWhileEditing lets the editor see the click first, so a click on one
// of its options commits it. A click on another cell blurs the editor.
func (m Model) mouseWhileEditing(msg tea.MouseMsg) (Model, tea.Cmd) {
	ed, res, cmd := m.editor.Update(msg)
	m.editor = ed
	if res.Outcome != editors.Pending {
		m, done := m.finishEdit(res)
		return m, tea.Batch(cmd, done)
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft || m.blurTarget != nil {
		return m, cmd
	}
	hit := m.grid.HitTest(msg)
	if hit.Kind != grid.HitCell {
		return m, cmd
	}
	if editing, _ := m.sel.Editing(); hit.Pos == editing {
		return m, cmd
	}
	m, blur := m.blurEditor(hit.Pos)
	return m, tea.Batch(cmd, blur)
}
