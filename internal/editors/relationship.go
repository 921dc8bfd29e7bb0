package editors

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/ui/styles"
)

const clearLabel = "(clear)"

// graceMsg ends the window in which a blurred editor still accepts a click
// on one of its options.
type graceMsg struct {
	key   sheet.CellKey
	token uint64
}

// relationshipEditor picks a single referenced record by search.
type relationshipEditor struct {
	key    sheet.CellKey
	search search

	// blurred is the token of the pending grace period, zero when focused.
	blurred uint64
	initCmd tea.Cmd
}

func newRelationshipEditor(key sheet.CellKey, _ catalog.Column, cell sheet.Cell, s search) relationshipEditor {
	if ref, ok := cell.Value.(catalog.Ref); ok {
		s.preferred = ref.ID
	}
	s.pickOnEmpty = true
	s, cmd := s.query()
	return relationshipEditor{key: key, search: s, initCmd: cmd}
}

func (e relationshipEditor) Key() sheet.CellKey { return e.key }

func (e relationshipEditor) Policy() BlurPolicy { return BlurCancel }

func (e relationshipEditor) Init() tea.Cmd { return e.initCmd }

func (e relationshipEditor) chosen() catalog.Value {
	if ref, ok := e.search.highlighted(); ok {
		return ref
	}
	return nil
}

func (e relationshipEditor) Update(msg tea.Msg) (Editor, Result, tea.Cmd) {
	if s, cmd, ok := e.search.handle(msg); ok {
		e.search = s
		return e, pending(), cmd
	}
	switch msg := msg.(type) {
	case graceMsg:
		if msg.key == e.key && e.blurred != 0 && msg.token == e.blurred {
			return e, cancel(), nil
		}
		return e, pending(), nil
	case tea.MouseMsg:
		if i := e.search.clicked(msg); i >= -1 {
			e.search.highlight = i
			e.blurred = 0
			return e, commit(e.chosen(), NavNone), nil
		}
		return e, pending(), nil
	case tea.KeyMsg:
		if e.blurred != 0 {
			return e, pending(), nil
		}
		switch msg.Type {
		case tea.KeyUp:
			e.search = e.search.move(-1)
			return e, pending(), nil
		case tea.KeyDown:
			e.search = e.search.move(1)
			return e, pending(), nil
		case tea.KeyEnter, tea.KeyTab, tea.KeyShiftTab:
			if e.search.busy() {
				return e, pending(), nil
			}
			nav := NavDown
			switch msg.Type {
			case tea.KeyTab:
				nav = NavTab
			case tea.KeyShiftTab:
				nav = NavBackTab
			}
			return e, commit(e.chosen(), nav), nil
		case tea.KeyEsc:
			return e, cancel(), nil
		}
		var cmd tea.Cmd
		e.search, cmd = e.search.typed(msg)
		return e, pending(), cmd
	}
	return e, pending(), nil
}

// Blur opens a short grace period so a click that landed on an option
// still commits it.
func (e relationshipEditor) Blur() (Editor, Result, tea.Cmd) {
	if e.search.cfg.BlurGrace <= 0 {
		return e, cancel(), nil
	}
	e.blurred = searchSeq.Add(1)
	key, token := e.key, e.blurred
	return e, pending(), tea.Tick(e.search.cfg.BlurGrace, func(time.Time) tea.Msg {
		return graceMsg{key: key, token: token}
	})
}

func (e relationshipEditor) View(width int) string {
	inner := max(width-2, 1)
	lines := e.search.lines(inner, clearLabel)
	return styles.EditorBoxStyle.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
