// Package overlay renders floating content (editors, dialogs, toasts) on
// top of the grid without clearing the screen.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Position specifies where to place the overlay content.
type Position int

const (
	// Center places the overlay in the center of the viewport.
	Center Position = iota
	// Top places the overlay at the top center of the viewport.
	Top
	// Bottom places the overlay at the bottom center of the viewport.
	Bottom
	// Anchor places the overlay's top-left corner at (X, Y), shifted back
	// inside the viewport when it would overflow. Cell editors use it.
	Anchor
)

// Config controls overlay rendering behavior.
type Config struct {
	Width    int
	Height   int
	Position Position
	// PadY is the distance from the edge for Top and Bottom.
	PadY int
	// X and Y locate the Anchor position.
	X, Y int
}

// Place renders fg on top of bg. Both may carry ANSI styling; the cut
// points in bg are computed on display width.
func Place(cfg Config, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")

	for len(bgLines) < cfg.Height {
		bgLines = append(bgLines, strings.Repeat(" ", cfg.Width))
	}

	startX, startY := calculatePosition(cfg, lipgloss.Width(fg), len(fgLines))

	for i, fgLine := range fgLines {
		bgY := startY + i
		if bgY >= len(bgLines) {
			break
		}
		bgLine := bgLines[bgY]

		left := ansi.Truncate(bgLine, startX, "")
		if w := ansi.StringWidth(left); w < startX {
			left += strings.Repeat(" ", startX-w)
		}

		var right string
		endX := startX + ansi.StringWidth(fgLine)
		if endX < ansi.StringWidth(bgLine) {
			right = ansi.TruncateLeft(bgLine, endX, "")
		}
		bgLines[bgY] = left + fgLine + right
	}

	return strings.Join(bgLines, "\n")
}

func calculatePosition(cfg Config, fgWidth, fgHeight int) (x, y int) {
	switch cfg.Position {
	case Top:
		x = (cfg.Width - fgWidth) / 2
		y = cfg.PadY
	case Bottom:
		x = (cfg.Width - fgWidth) / 2
		y = cfg.Height - fgHeight - cfg.PadY
	case Anchor:
		x = min(cfg.X, cfg.Width-fgWidth)
		y = cfg.Y
		if y+fgHeight > cfg.Height {
			// Flip above the anchor row when there is no room below.
			y = cfg.Y - fgHeight - 1
		}
	default:
		x = (cfg.Width - fgWidth) / 2
		y = (cfg.Height - fgHeight) / 2
	}
	return max(x, 0), max(y, 0)
}
