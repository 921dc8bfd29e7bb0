// Package conflictdiff renders the panel shown for a conflicted cell: the
// value the user is about to save next to the value another client saved,
// optionally as a word-level diff.
package conflictdiff

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/langarchive/catalog/internal/ui/styles"
)

// MaxDiffLength skips the word diff for values longer than this.
const MaxDiffLength = 500

// SegmentKind says how a segment differs.
type SegmentKind int

const (
	Unchanged SegmentKind = iota
	Added
	Removed
)

// Segment is a run of text with one diff status.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Diff compares the server value with the pending one token by token.
// The server side carries Removed segments, the pending side Added ones.
func Diff(server, mine string) (theirs, ours []Segment) {
	if server == "" && mine == "" {
		return nil, nil
	}
	if server == "" {
		return nil, []Segment{{Kind: Added, Text: mine}}
	}
	if mine == "" {
		return []Segment{{Kind: Removed, Text: server}}, nil
	}

	a, b, vocab := toRunes(tokenize(server), tokenize(mine))
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	for _, d := range diffs {
		var text strings.Builder
		for _, r := range d.Text {
			text.WriteString(vocab[r])
		}
		seg := text.String()
		if seg == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			theirs = append(theirs, Segment{Kind: Unchanged, Text: seg})
			ours = append(ours, Segment{Kind: Unchanged, Text: seg})
		case diffmatchpatch.DiffDelete:
			theirs = append(theirs, Segment{Kind: Removed, Text: seg})
		case diffmatchpatch.DiffInsert:
			ours = append(ours, Segment{Kind: Added, Text: seg})
		}
	}
	return theirs, ours
}

// tokenize splits text into words, single whitespace runes and single
// punctuation runes.
func tokenize(s string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			flush()
			tokens = append(tokens, string(r))
			continue
		}
		current.WriteRune(r)
	}
	flush()
	return tokens
}

// toRunes maps every distinct token to one rune so the diff runs on tokens.
func toRunes(a, b []string) ([]rune, []rune, map[rune]string) {
	ids := make(map[string]rune)
	vocab := make(map[rune]string)
	encode := func(tokens []string) []rune {
		out := make([]rune, len(tokens))
		for i, t := range tokens {
			r, ok := ids[t]
			if !ok {
				// Private use area keeps the runes valid UTF-8.
				r = rune(0xE000 + len(ids))
				ids[t] = r
				vocab[r] = t
			}
			out[i] = r
		}
		return out
	}
	return encode(a), encode(b), vocab
}

// Panel describes one conflicted cell.
type Panel struct {
	Field    string
	Mine     string
	Theirs   string
	Width    int
	WordDiff bool
}

// View renders the panel as a bordered section.
func (p Panel) View() string {
	inner := max(p.Width-2, 10)
	const labelWidth = 8

	mine, theirs := p.Mine, p.Theirs
	if p.WordDiff && len(p.Mine) <= MaxDiffLength && len(p.Theirs) <= MaxDiffLength {
		ts, ours := Diff(p.Theirs, p.Mine)
		theirs, mine = render(ts), render(ours)
	}

	var lines []string
	lines = append(lines, labelled("Yours", mine, labelWidth, inner)...)
	lines = append(lines, labelled("Server", theirs, labelWidth, inner)...)
	lines = append(lines, styles.HintStyle.Render(styles.TruncateString(strings.Repeat(" ", labelWidth)+"ctrl+k keep mine · ctrl+t take theirs", inner)))

	return styles.RenderSection(lines, "Conflict: "+p.Field, "saved elsewhere", p.Width, true)
}

func labelled(label, text string, labelWidth, width int) []string {
	if text == "" {
		text = styles.HintStyle.Render("(empty)")
	}
	wrapped := strings.Split(wordwrap.String(text, max(width-labelWidth, 1)), "\n")
	out := make([]string, len(wrapped))
	for i, line := range wrapped {
		prefix := strings.Repeat(" ", labelWidth)
		if i == 0 {
			prefix = styles.FitString(label+":", labelWidth)
		}
		out[i] = prefix + line
	}
	return out
}

func render(segments []Segment) string {
	added := lipgloss.NewStyle().Foreground(styles.StatusSuccessColor).Underline(true)
	removed := lipgloss.NewStyle().Foreground(styles.StatusErrorColor).Strikethrough(true)

	var b strings.Builder
	for _, s := range segments {
		switch s.Kind {
		case Added:
			b.WriteString(added.Render(s.Text))
		case Removed:
			b.WriteString(removed.Render(s.Text))
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}
