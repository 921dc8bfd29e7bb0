package styles

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const ellipsis = "…"

// DisplayWidth returns the terminal cell width of plain text, measured per
// grapheme cluster.
func DisplayWidth(s string) int {
	width := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		width += clusterWidth(g.Str())
	}
	return width
}

func clusterWidth(cluster string) int {
	w := runewidth.StringWidth(cluster)
	if w > 2 {
		// Emoji sequences render as one double-width glyph.
		w = 2
	}
	return w
}

// TruncateString shortens plain text to fit maxWidth cells, ending in an
// ellipsis when anything was cut. Grapheme clusters are never split.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if DisplayWidth(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return ellipsis
	}

	var b strings.Builder
	width := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := clusterWidth(g.Str())
		if width+w > maxWidth-1 {
			break
		}
		b.WriteString(g.Str())
		width += w
	}
	return b.String() + ellipsis
}

// FitString truncates or right-pads plain text to exactly width cells.
func FitString(s string, width int) string {
	s = TruncateString(s, width)
	if pad := width - DisplayWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
