// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the grid keybindings.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Range selection
	ExtendUp    key.Binding
	ExtendDown  key.Binding
	ExtendLeft  key.Binding
	ExtendRight key.Binding
	Tab         key.Binding
	BackTab     key.Binding

	// Editing
	Edit   key.Binding
	Escape key.Binding
	Clear  key.Binding
	Copy   key.Binding
	Cut    key.Binding
	Paste  key.Binding
	Undo   key.Binding
	Redo   key.Binding

	// Rows
	ToggleRow key.Binding
	AddDraft  key.Binding
	DeleteRow key.Binding

	// Columns
	Narrower key.Binding
	Wider    key.Binding

	// Batch
	Save       key.Binding
	Refresh    key.Binding
	KeepMine   key.Binding
	TakeTheirs key.Binding

	// General
	Help    key.Binding
	Logs    key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

// Grid is the default keymap for the batch grid.
var Grid = DefaultKeyMap()

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "move up")),
		Down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "move down")),
		Left:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "move left")),
		Right:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "move right")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Home:     key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first row")),
		End:      key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last row")),

		ExtendUp:    key.NewBinding(key.WithKeys("shift+up"), key.WithHelp("shift+↑", "extend up")),
		ExtendDown:  key.NewBinding(key.WithKeys("shift+down"), key.WithHelp("shift+↓", "extend down")),
		ExtendLeft:  key.NewBinding(key.WithKeys("shift+left"), key.WithHelp("shift+←", "extend left")),
		ExtendRight: key.NewBinding(key.WithKeys("shift+right"), key.WithHelp("shift+→", "extend right")),
		Tab:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next cell")),
		BackTab:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous cell")),

		Edit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit cell")),
		Escape: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel / collapse range")),
		Clear:  key.NewBinding(key.WithKeys("delete", "backspace"), key.WithHelp("del", "clear cells")),
		Copy:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "copy")),
		Cut:    key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "cut")),
		Paste:  key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "paste")),
		Undo:   key.NewBinding(key.WithKeys("ctrl+z"), key.WithHelp("ctrl+z", "undo")),
		Redo:   key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "redo")),

		ToggleRow: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "check row")),
		AddDraft:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "add draft row")),
		DeleteRow: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "remove checked rows")),

		Narrower: key.NewBinding(key.WithKeys("alt+left"), key.WithHelp("alt+←", "narrow column")),
		Wider:    key.NewBinding(key.WithKeys("alt+right"), key.WithHelp("alt+→", "widen column")),

		Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save changes")),
		Refresh:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		KeepMine:   key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "keep my value")),
		TakeTheirs: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "take server value")),

		Help:    key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "toggle help")),
		Logs:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "debug log")),
		Confirm: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("ctrl+q", "quit")),
	}
}

// ShortHelp returns keybindings for the status line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Save, k.Undo, k.Help, k.Quit}
}

// Group is a titled set of bindings for the help overlay.
type Group struct {
	Title    string
	Bindings []key.Binding
}

// FullHelp returns keybindings for the help overlay.
func (k KeyMap) FullHelp() []Group {
	return []Group{
		{"Navigation", []key.Binding{k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown, k.Home, k.End, k.Tab, k.BackTab}},
		{"Selection", []key.Binding{k.ExtendUp, k.ExtendDown, k.ExtendLeft, k.ExtendRight, k.ToggleRow}},
		{"Editing", []key.Binding{k.Edit, k.Escape, k.Clear, k.Copy, k.Cut, k.Paste, k.Undo, k.Redo}},
		{"Rows & columns", []key.Binding{k.AddDraft, k.DeleteRow, k.Narrower, k.Wider}},
		{"Saving", []key.Binding{k.Save, k.Refresh, k.KeepMine, k.TakeTheirs}},
		{"General", []key.Binding{k.Help, k.Logs, k.Quit}},
	}
}
