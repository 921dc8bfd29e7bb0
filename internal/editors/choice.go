package editors

import (
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/ui/styles"
)

const noneLabel = "(none)"

// listEditor picks one entry from a fixed list. Entry 0 clears the cell.
type listEditor struct {
	key     sheet.CellKey
	labels  []string
	values  []catalog.Value
	cursor  int
	hotkeys map[rune]int
}

func newChoiceEditor(key sheet.CellKey, col catalog.Column, cell sheet.Cell) listEditor {
	e := listEditor{key: key, labels: []string{noneLabel}, values: []catalog.Value{catalog.Text("")}}
	for _, opt := range col.Options {
		e.labels = append(e.labels, opt)
		e.values = append(e.values, catalog.Text(opt))
	}
	e.cursor = e.indexOf(col.Type, cell.Value)
	return e
}

func newBoolEditor(key sheet.CellKey, cell sheet.Cell) listEditor {
	e := listEditor{
		key:     key,
		labels:  []string{noneLabel, "Yes", "No"},
		values:  []catalog.Value{nil, catalog.Bool(true), catalog.Bool(false)},
		hotkeys: map[rune]int{'u': 0, 'y': 1, 'n': 2},
	}
	e.cursor = e.indexOf(catalog.TypeBoolean, cell.Value)
	return e
}

func (e listEditor) indexOf(t catalog.CellType, v catalog.Value) int {
	for i, candidate := range e.values {
		if catalog.Equal(t, candidate, v) {
			return i
		}
	}
	return 0
}

func (e listEditor) Key() sheet.CellKey { return e.key }

func (e listEditor) Init() tea.Cmd { return nil }

func (e listEditor) Policy() BlurPolicy { return BlurCancel }

func (e listEditor) Update(msg tea.Msg) (Editor, Result, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return e, pending(), nil
	}
	switch key.Type {
	case tea.KeyUp:
		e.cursor = max(e.cursor-1, 0)
	case tea.KeyDown:
		e.cursor = min(e.cursor+1, len(e.values)-1)
	case tea.KeyHome:
		e.cursor = 0
	case tea.KeyEnd:
		e.cursor = len(e.values) - 1
	case tea.KeyEnter:
		return e, commit(catalog.Clone(e.values[e.cursor]), NavDown), nil
	case tea.KeyTab:
		return e, commit(catalog.Clone(e.values[e.cursor]), NavTab), nil
	case tea.KeyShiftTab:
		return e, commit(catalog.Clone(e.values[e.cursor]), NavBackTab), nil
	case tea.KeyEsc:
		return e, cancel(), nil
	case tea.KeyRunes:
		if len(key.Runes) != 1 {
			break
		}
		r := unicode.ToLower(key.Runes[0])
		if i, ok := e.hotkeys[r]; ok {
			e.cursor = i
			return e, commit(catalog.Clone(e.values[i]), NavNone), nil
		}
		e.cursor = e.jump(r)
	}
	return e, pending(), nil
}

// jump moves to the next option starting with r, wrapping around.
func (e listEditor) jump(r rune) int {
	n := len(e.labels)
	for step := 1; step <= n; step++ {
		i := (e.cursor + step) % n
		if i == 0 {
			continue
		}
		if first := []rune(strings.ToLower(e.labels[i])); len(first) > 0 && first[0] == r {
			return i
		}
	}
	return e.cursor
}

func (e listEditor) Blur() (Editor, Result, tea.Cmd) { return e, cancel(), nil }

func (e listEditor) View(width int) string {
	inner := max(width-2, 1)
	lines := make([]string, len(e.labels))
	for i, label := range e.labels {
		text := styles.TruncateString(label, max(inner-2, 1))
		if i == e.cursor {
			lines[i] = styles.SelectionIndicatorStyle.Render("> ") + styles.EditorHighlightStyle.Render(text)
			continue
		}
		lines[i] = "  " + text
	}
	return styles.EditorBoxStyle.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
