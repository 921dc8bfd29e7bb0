package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/flags"
	"github.com/langarchive/catalog/internal/keys"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/ui/conflictdiff"
	"github.com/langarchive/catalog/internal/ui/overlay"
	"github.com/langarchive/catalog/internal/ui/styles"
)

// minEditorWidth keeps narrow columns usable while editing.
const minEditorWidth = 32

// layout sizes the grid around the conflict panel and the status line.
func (m *Model) layout() {
	m.panel = m.conflictPanel()
	used := 0
	if m.panel != "" {
		used += lipgloss.Height(m.panel)
	}
	if m.statusVisible() {
		used++
	}
	m.grid.SetSize(m.width, max(0, m.height-used))
}

func (m Model) statusVisible() bool {
	return m.cfg.UI.ShowStatusBar || m.confirm != nil
}

func (m Model) conflictPanel() string {
	if m.editor != nil || m.width <= 0 {
		return ""
	}
	k, cell, ok := m.activeCell()
	if !ok || !cell.Conflict {
		return ""
	}
	col, _ := m.schema.Column(k.Field)
	return conflictdiff.Panel{
		Field:    col.Title,
		Mine:     catalog.Format(cell.Value),
		Theirs:   catalog.Format(cell.Original),
		Width:    m.width,
		WordDiff: m.flags.Enabled(flags.FlagWordDiff),
	}.View()
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	parts := []string{m.grid.View()}
	if m.panel != "" {
		parts = append(parts, m.panel)
	}
	if m.statusVisible() {
		parts = append(parts, m.statusLine())
	}
	view := strings.Join(parts, "\n")

	if m.editor != nil {
		view = m.overlayEditor(view)
	}
	view = m.toaster.Overlay(view)
	view = m.logs.Overlay(view)
	if m.showHelp {
		view = m.help.Overlay(view)
	}
	return zone.Scan(view)
}

func (m Model) overlayEditor(bg string) string {
	pos, _ := m.sel.Editing()
	x, y, ok := m.grid.CellOrigin(pos)
	if !ok {
		x, y = 0, 1
	}
	width := min(max(m.grid.Width(pos.Col)+2, minEditorWidth), m.width)
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Anchor,
		X:        x,
		Y:        y,
	}, m.editor.View(width), bg)
}

var (
	warnStyle  = lipgloss.NewStyle().Foreground(styles.StatusWarningColor).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
)

// statusLine shows the confirmation prompt when one is pending, otherwise
// counts, load progress and the active cell's error.
func (m Model) statusLine() string {
	if m.confirm != nil {
		return styles.StatusBarStyle.Render(warnStyle.Render(m.confirm.prompt + " (y/n)"))
	}

	var left []string
	left = append(left, m.schema.Kind)
	left = append(left, fmt.Sprintf("%d/%d rows", m.sheet.Len(), max(m.total, m.sheet.Len())))
	if n := len(m.sheet.ChangedRows()); n > 0 {
		left = append(left, fmt.Sprintf("%d changed", n))
	}
	if n := len(m.sheet.SelectedRows()); n > 0 {
		left = append(left, fmt.Sprintf("%d checked", n))
	}
	if p := m.progress; p.Loading && !p.Done {
		left = append(left, fmt.Sprintf("loading %d%%", int(p.Fraction()*100)))
	}
	if m.busy != notBusy {
		left = append(left, m.busy.String()+"…")
	}
	if m.remoteChanged {
		left = append(left, warnStyle.Render("changed elsewhere"))
	}
	status := strings.Join(left, " · ")

	right := m.cellMessage()
	if right == "" {
		var hints []string
		for _, b := range keys.Grid.ShortHelp() {
			hints = append(hints, b.Help().Key+" "+b.Help().Desc)
		}
		right = styles.HintStyle.Render(strings.Join(hints, "  "))
	}

	inner := max(m.width-2, 0)
	gap := inner - styles.DisplayWidth(status) - styles.DisplayWidth(right)
	if gap < 2 {
		return styles.StatusBarStyle.Render(styles.TruncateString(status, inner))
	}
	return styles.StatusBarStyle.Render(status + strings.Repeat(" ", gap) + right)
}

func (m Model) cellMessage() string {
	_, cell, ok := m.activeCell()
	if !ok {
		return ""
	}
	switch {
	case cell.Validation == sheet.Invalid && cell.Error != "":
		return errorStyle.Render(cell.Error)
	case cell.Validation == sheet.Validating:
		return styles.HintStyle.Render("checking…")
	}
	return ""
}
