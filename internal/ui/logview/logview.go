// Package logview shows recent debug log entries over the sheet.
package logview

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/ui/overlay"
	"github.com/langarchive/catalog/internal/ui/styles"
)

const (
	maxEntries        = 500
	viewportMaxHeight = 25
	viewportMinHeight = 5
	boxMaxWidth       = 160
	boxMinWidth       = 40
	// chrome is the title, two dividers, the footer and the border.
	chrome = 6
)

// Model buffers entries received from the log broker and renders them in a
// scrollable box. Entries are kept while the box is hidden.
type Model struct {
	visible  bool
	logging  bool
	minLevel log.Level
	entries  []string
	width    int
	height   int
	viewport viewport.Model
}

// New creates a hidden viewer. logging reports whether debug logging is on;
// without it the viewer only explains how to enable it.
func New(logging bool) Model {
	return Model{logging: logging, minLevel: log.LevelDebug}
}

// Visible reports whether the viewer is shown.
func (m Model) Visible() bool { return m.visible }

// Toggle shows or hides the viewer, scrolled to the newest entry.
func (m Model) Toggle() Model {
	m.visible = !m.visible
	if m.visible {
		m.refresh()
		m.viewport.GotoBottom()
	}
	return m
}

// SetSize records the screen size.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.refresh()
	return m
}

// Append adds one entry, dropping the oldest beyond the buffer size.
func (m Model) Append(entry string) Model {
	entry = strings.TrimSuffix(entry, "\n")
	if len(m.entries) >= maxEntries {
		m.entries = append(m.entries[:0:0], m.entries[len(m.entries)-maxEntries+1:]...)
	}
	m.entries = append(m.entries, entry)
	if m.visible {
		atBottom := m.viewport.AtBottom()
		m.refresh()
		if atBottom {
			m.viewport.GotoBottom()
		}
	}
	return m
}

// Update handles keys while the viewer is shown.
func (m Model) Update(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "c":
		m.entries = nil
	case "d":
		m.minLevel = log.LevelDebug
	case "i":
		m.minLevel = log.LevelInfo
	case "w":
		m.minLevel = log.LevelWarn
	case "e":
		m.minLevel = log.LevelError
	case "j", "down":
		m.viewport.ScrollDown(1)
		return m
	case "k", "up":
		m.viewport.ScrollUp(1)
		return m
	case "g", "home":
		m.viewport.GotoTop()
		return m
	case "G", "end":
		m.viewport.GotoBottom()
		return m
	case "esc", "ctrl+l":
		m.visible = false
		return m
	default:
		return m
	}
	m.refresh()
	m.viewport.GotoBottom()
	return m
}

func (m Model) boxWidth() int {
	return max(min(m.width-4, boxMaxWidth), boxMinWidth)
}

func (m *Model) refresh() {
	if m.width == 0 || m.height == 0 {
		return
	}
	w := m.boxWidth() - 2
	h := max(min(viewportMaxHeight, m.height-chrome), viewportMinHeight)
	offset := m.viewport.YOffset
	m.viewport = viewport.New(w, h)
	m.viewport.SetContent(m.content(w))
	m.viewport.SetYOffset(offset)
}

func (m Model) content(width int) string {
	muted := lipgloss.NewStyle().Foreground(styles.TextMutedColor).Italic(true)
	if !m.logging {
		return muted.Render("Logging is off. Start with --debug to record entries.")
	}
	var lines []string
	for _, e := range m.entries {
		if entryLevel(e) >= m.minLevel {
			lines = append(lines, colorize(e, width))
		}
	}
	if len(lines) == 0 {
		return muted.Render("No entries at this level")
	}
	return strings.Join(lines, "\n")
}

// entryLevel reads the level tag written by the log package. Untagged
// entries always show.
func entryLevel(entry string) log.Level {
	for _, l := range []log.Level{log.LevelError, log.LevelWarn, log.LevelInfo, log.LevelDebug} {
		if strings.Contains(entry, "["+l.String()+"]") {
			return l
		}
	}
	return log.LevelError
}

func colorize(entry string, width int) string {
	if ansi.StringWidth(entry) > width {
		entry = ansi.Truncate(entry, width-1, "…")
	}
	var c lipgloss.TerminalColor
	switch entryLevel(entry) {
	case log.LevelError:
		c = styles.StatusErrorColor
	case log.LevelWarn:
		c = styles.StatusWarningColor
	case log.LevelInfo:
		c = styles.TextPrimaryColor
	default:
		c = styles.TextMutedColor
	}
	return lipgloss.NewStyle().Foreground(c).Render(entry)
}

// View renders the box, or nothing while hidden.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	w := m.boxWidth()
	title := lipgloss.NewStyle().Bold(true).Foreground(styles.OverlayTitleColor).PaddingLeft(1).Render("Debug log")
	divider := lipgloss.NewStyle().Foreground(styles.OverlayBorderColor).Render(strings.Repeat("─", w-2))

	body := strings.Join([]string{title, divider, m.viewport.View(), divider, m.footer()}, "\n")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Width(w - 2).
		Render(body)
}

func (m Model) footer() string {
	hint := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	active := lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true)
	parts := []string{hint.Render("[c] clear")}
	for _, f := range []struct {
		key   string
		level log.Level
	}{{"d", log.LevelDebug}, {"i", log.LevelInfo}, {"w", log.LevelWarn}, {"e", log.LevelError}} {
		label := "[" + f.key + "] " + strings.ToLower(f.level.String())
		if f.level == m.minLevel {
			parts = append(parts, active.Render(label))
		} else {
			parts = append(parts, hint.Render(label))
		}
	}
	parts = append(parts, hint.Render("esc close"))
	return strings.Join(parts, "  ")
}

// Overlay centers the box on bg.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), bg)
}
