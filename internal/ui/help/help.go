// Package help renders the keybinding overlay.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/langarchive/catalog/internal/keys"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/ui/overlay"
	"github.com/langarchive/catalog/internal/ui/styles"
)

const (
	contentWidth = 64
	footer       = "Press f1 or esc to close"
)

// Model holds the help overlay state. The rendered box is cached until the
// size or style changes.
type Model struct {
	groups []keys.Group
	style  string
	width  int
	height int
	box    string
}

// New creates a help overlay for the grid keymap. style is a glamour style
// path ("dark", "light").
func New(style string) Model {
	return Model{groups: keys.Grid.FullHelp(), style: style}
}

// SetSize updates dimensions.
func (m Model) SetSize(width, height int) Model {
	if width != m.width || height != m.height {
		m.box = ""
	}
	m.width = width
	m.height = height
	return m
}

// Markdown returns the help document before rendering.
func (m Model) Markdown() string {
	return Markdown(m.groups)
}

// View renders the help box without a background.
func (m Model) View() string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.render())
}

// Overlay renders the help box centered on top of background.
func (m Model) Overlay(background string) string {
	if background == "" {
		return m.View()
	}
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.render(), background)
}

func (m *Model) render() string {
	if m.box != "" {
		return m.box
	}
	width := contentWidth
	if m.width > 0 {
		width = min(contentWidth, max(m.width-4, 20))
	}

	doc := m.Markdown()
	body := doc
	r, err := newRenderer(width, m.style)
	if err == nil {
		body, err = r.Render(doc)
	}
	if err != nil {
		log.ErrorErr(log.CatUI, "Help render failed", err)
		body = doc
	}
	body = strings.Trim(body, "\n")
	body += "\n\n" + styles.HintStyle.Render(footer)

	m.box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Padding(0, 1).
		Render(body)
	return m.box
}

// Markdown formats binding groups as one table per group.
func Markdown(groups []keys.Group) string {
	var b strings.Builder
	b.WriteString("# Keybindings\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "\n## %s\n\n", g.Title)
		b.WriteString("| Key | Action |\n|---|---|\n")
		for _, binding := range g.Bindings {
			if !binding.Enabled() {
				continue
			}
			b.WriteString(row(binding))
		}
	}
	return b.String()
}

var cellEscaper = strings.NewReplacer("|", "\\|", "`", "")

func row(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("| `%s` | %s |\n", cellEscaper.Replace(h.Key), cellEscaper.Replace(h.Desc))
}
