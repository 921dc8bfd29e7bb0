package editors

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/ui/styles"
)

// chipEditor builds a list value one chip at a time: referenced records for
// multi-relationship cells, free strings for tag lists. Its state lives in
// Sessions until it commits or cancels.
type chipEditor struct {
	key       sheet.CellKey
	typ       catalog.CellType
	sessions  *Sessions
	search    search
	hasSearch bool
	tagInput  textinput.Model
	refs      catalog.RefList
	tags      catalog.Tags
	initCmd   tea.Cmd
}

func newChipEditor(key sheet.CellKey, col catalog.Column, cell sheet.Cell, sessions *Sessions, s search, withSearch bool) chipEditor {
	e := chipEditor{key: key, typ: col.Type, sessions: sessions, search: s, hasSearch: withSearch}
	chips, input := cell.Value, ""
	if sess, ok := sessions.Get(key); ok {
		log.Debug(log.CatEditor, "resuming chip session", "cell", key.String())
		chips, input = sess.Chips, sess.Input
	}
	switch v := catalog.Clone(chips).(type) {
	case catalog.RefList:
		e.refs = v
	case catalog.Tags:
		e.tags = v
	}
	if e.refs == nil {
		e.refs = catalog.RefList{}
	}
	if e.tags == nil {
		e.tags = catalog.Tags{}
	}
	if withSearch {
		e.search.input.SetValue(input)
		e.search.input.CursorEnd()
		e.search, e.initCmd = e.search.query()
	} else {
		e.tagInput = newInput("add tag…")
		e.tagInput.Prompt = "› "
		e.tagInput.SetValue(input)
		e.tagInput.CursorEnd()
	}
	e.save()
	return e
}

func (e chipEditor) Key() sheet.CellKey { return e.key }

func (e chipEditor) Policy() BlurPolicy { return BlurCommit }

func (e chipEditor) Init() tea.Cmd { return e.initCmd }

func (e chipEditor) value() catalog.Value {
	if e.typ == catalog.TypeTagList {
		return slices.Clone(e.tags)
	}
	return slices.Clone(e.refs)
}

func (e chipEditor) input() string {
	if e.hasSearch {
		return e.search.input.Value()
	}
	return e.tagInput.Value()
}

func (e *chipEditor) setInput(s string) {
	if e.hasSearch {
		e.search.input.SetValue(s)
		return
	}
	e.tagInput.SetValue(s)
}

func (e chipEditor) save() {
	e.sessions.Start(e.key, Session{Chips: e.value(), Input: e.input()})
}

func (e chipEditor) finish(r Result) (Editor, Result, tea.Cmd) {
	e.sessions.Discard(e.key)
	return e, r, nil
}

func (e *chipEditor) addRef(ref catalog.Ref) {
	if !slices.ContainsFunc(e.refs, func(r catalog.Ref) bool { return r.ID == ref.ID }) {
		e.refs = append(e.refs, ref)
	}
}

func (e *chipEditor) addTags(text string) {
	for _, t := range catalog.SplitTags(text) {
		if !slices.Contains(e.tags, t) {
			e.tags = append(e.tags, t)
		}
	}
}

func (e *chipEditor) removeLast() {
	if e.typ == catalog.TypeTagList {
		if n := len(e.tags); n > 0 {
			e.tags = e.tags[:n-1]
		}
		return
	}
	if n := len(e.refs); n > 0 {
		e.refs = e.refs[:n-1]
	}
}

// enter adds the highlighted or typed entry as a chip. It reports false
// when there was nothing to add.
func (e *chipEditor) enter() (bool, tea.Cmd) {
	typed := strings.TrimSpace(e.input())
	if !e.hasSearch {
		if typed == "" {
			return false, nil
		}
		e.addTags(typed)
		e.setInput("")
		return true, nil
	}
	ref, ok := e.search.highlighted()
	if !ok && typed != "" && len(e.search.results) > 0 {
		ref, ok = e.search.results[0], true
	}
	if !ok {
		return false, nil
	}
	e.addRef(ref)
	e.setInput("")
	e.search = e.search.reset()
	var cmd tea.Cmd
	e.search, cmd = e.search.debounce()
	return true, cmd
}

func (e chipEditor) Update(msg tea.Msg) (Editor, Result, tea.Cmd) {
	if e.hasSearch {
		if s, cmd, ok := e.search.handle(msg); ok {
			e.search = s
			return e, pending(), cmd
		}
	}
	switch msg := msg.(type) {
	case tea.MouseMsg:
		if !e.hasSearch {
			return e, pending(), nil
		}
		if i := e.search.clicked(msg); i >= 0 {
			e.addRef(e.search.results[i])
			e.save()
		}
		return e, pending(), nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return e.finish(cancel())
		case tea.KeyTab:
			return e.finish(commit(e.value(), NavTab))
		case tea.KeyShiftTab:
			return e.finish(commit(e.value(), NavBackTab))
		case tea.KeyEnter:
			if e.hasSearch && e.search.busy() {
				return e, pending(), nil
			}
			added, cmd := e.enter()
			if !added {
				return e.finish(commit(e.value(), NavDown))
			}
			e.save()
			return e, pending(), cmd
		case tea.KeyBackspace:
			if e.input() == "" {
				e.removeLast()
				e.save()
				return e, pending(), nil
			}
		case tea.KeyUp:
			if e.hasSearch {
				e.search = e.search.move(-1)
			}
			return e, pending(), nil
		case tea.KeyDown:
			if e.hasSearch {
				e.search = e.search.move(1)
			}
			return e, pending(), nil
		}
		var cmd tea.Cmd
		if e.hasSearch {
			e.search, cmd = e.search.typed(msg)
		} else {
			e.tagInput, cmd = e.tagInput.Update(msg)
		}
		e.save()
		return e, pending(), cmd
	}
	return e, pending(), nil
}

// Blur commits the chips; typed text that never became a chip is dropped.
func (e chipEditor) Blur() (Editor, Result, tea.Cmd) {
	return e.finish(commit(e.value(), NavNone))
}

func (e chipEditor) chipLine(width int) string {
	var labels []string
	if e.typ == catalog.TypeTagList {
		labels = e.tags
	} else {
		for _, r := range e.refs {
			labels = append(labels, catalog.Format(r))
		}
	}
	if len(labels) == 0 {
		return styles.HintStyle.Render("no entries")
	}
	chips := make([]string, len(labels))
	for i, l := range labels {
		chips[i] = styles.ChipStyle.Render(styles.TruncateString(l, max(width/2, 4)))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(chips, " "))
}

func (e chipEditor) View(width int) string {
	inner := max(width-2, 1)
	lines := []string{e.chipLine(inner)}
	if e.hasSearch {
		lines = append(lines, e.search.lines(inner, "")...)
	} else {
		e.tagInput.Width = max(inner-4, 4)
		lines = append(lines, e.tagInput.View())
	}
	lines = append(lines, styles.HintStyle.Render("enter add/done · bksp remove · esc cancel"))
	return styles.EditorBoxStyle.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
