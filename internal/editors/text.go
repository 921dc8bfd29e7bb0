package editors

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/ui/styles"
)

const numericRunes = "0123456789.-"

// newInput returns a focused input with a steady cursor. A blinking cursor
// would keep a tick running for every open editor.
func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.Focus()
	return ti
}

// textEditor edits text and numeric cells in a single-line input.
type textEditor struct {
	key     sheet.CellKey
	col     catalog.Column
	input   textinput.Model
	numeric bool
}

func newTextEditor(key sheet.CellKey, cell sheet.Cell, numeric bool) textEditor {
	ti := newInput("")
	ti.Prompt = ""
	ti.SetValue(cell.Text)
	ti.CursorEnd()
	col := catalog.Column{Field: key.Field, Type: catalog.TypeText}
	if numeric {
		col.Type = catalog.TypeNumeric
	}
	return textEditor{key: key, col: col, input: ti, numeric: numeric}
}

func (e textEditor) Key() sheet.CellKey { return e.key }

func (e textEditor) Init() tea.Cmd { return nil }

func (e textEditor) Policy() BlurPolicy { return BlurCommit }

func (e textEditor) value() catalog.Value {
	return catalog.Parse(e.col, e.input.Value())
}

func (e textEditor) Update(msg tea.Msg) (Editor, Result, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			return e, commit(e.value(), NavDown), nil
		case tea.KeyTab:
			return e, commit(e.value(), NavTab), nil
		case tea.KeyShiftTab:
			return e, commit(e.value(), NavBackTab), nil
		case tea.KeyEsc:
			return e, cancel(), nil
		case tea.KeyRunes, tea.KeySpace:
			if e.numeric && !allNumeric(msg.Runes) {
				return e, pending(), nil
			}
		}
	}
	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	return e, pending(), cmd
}

func allNumeric(rs []rune) bool {
	for _, r := range rs {
		if !strings.ContainsRune(numericRunes, r) {
			return false
		}
	}
	return len(rs) > 0
}

func (e textEditor) Blur() (Editor, Result, tea.Cmd) {
	return e, commit(e.value(), NavNone), nil
}

func (e textEditor) View(width int) string {
	e.input.Width = max(width-2, 1)
	return styles.EditorBoxStyle.Width(max(width-2, 1)).Render(e.input.View())
}
