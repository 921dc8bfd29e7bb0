package clipcodec

import (
	"strings"

	"github.com/langarchive/catalog/internal/selection"
	"github.com/langarchive/catalog/internal/sheet"
)

// EncodeRange serializes the cells of r as tab separated rows. Column
// indexes refer to the sheet's schema order.
func EncodeRange(sh *sheet.Sheet, r selection.Range) string {
	top, left, bottom, right := r.Bounds()
	cols := sh.Schema().Columns
	var b strings.Builder
	for i := top; i <= bottom; i++ {
		row, ok := sh.RowAt(i)
		if !ok {
			break
		}
		if i > top {
			b.WriteByte('\n')
		}
		for j := left; j <= right && j < len(cols); j++ {
			if j > left {
				b.WriteByte('\t')
			}
			b.WriteString(EncodeCell(row.Cells[cols[j].Field]))
		}
	}
	return b.String()
}

// ParseGrid splits clipboard text into rows of cells. It understands the
// quoting spreadsheet tools apply to cells containing tabs, newlines or
// quotes. Unlike encoding/csv it keeps blank lines, which are empty cells in
// a single-column copy.
func ParseGrid(s string) [][]string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")

	var (
		rows  [][]string
		row   []string
		field strings.Builder
	)
	endField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	endRow := func() {
		endField()
		rows = append(rows, row)
		row = nil
	}

	atFieldStart := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if atFieldStart && c == '"' {
			if end, ok := quotedField(s, i, &field); ok {
				i = end
				atFieldStart = false
				continue
			}
		}
		atFieldStart = false
		switch c {
		case '\t':
			endField()
			atFieldStart = true
		case '\n':
			endRow()
			atFieldStart = true
		default:
			field.WriteByte(c)
		}
	}
	endRow()
	return rows
}

// quotedField reads a quoted field starting at s[start] into field. It only
// accepts the field when the closing quote is followed by a separator or the
// end of input; otherwise the quote is literal text.
func quotedField(s string, start int, field *strings.Builder) (int, bool) {
	var b strings.Builder
	for i := start + 1; i < len(s); i++ {
		if s[i] != '"' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '"' {
			b.WriteByte('"')
			i++
			continue
		}
		if i+1 == len(s) || s[i+1] == '\t' || s[i+1] == '\n' {
			field.WriteString(b.String())
			return i, true
		}
		return 0, false
	}
	return 0, false
}
