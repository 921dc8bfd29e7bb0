package help

import "github.com/charmbracelet/glamour"

// noMarginStyle removes glamour's document margins so the box border sits
// directly around the text.
const noMarginStyle = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// newRenderer builds a glamour renderer for a fixed style.
// WithAutoStyle is avoided because it queries the terminal background and the
// reply leaks into the input stream.
func newRenderer(width int, style string) (*glamour.TermRenderer, error) {
	if style == "" {
		style = "dark"
	}
	return glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithStylesFromJSONBytes([]byte(noMarginStyle)),
		glamour.WithWordWrap(width),
	)
}
