package app

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/flags"
	"github.com/langarchive/catalog/internal/importer"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/selection"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/ui/toaster"
)

type importedMsg struct {
	path   string
	result importer.Result
	err    error
}

func (m Model) loadImport(path string) tea.Cmd {
	ctx, st, schema := m.ctx, m.store, m.schema
	opts := importer.Options{XLSX: m.flags.Enabled(flags.FlagXLSXImport)}
	return func() tea.Msg {
		res, err := importer.Load(ctx, path, schema, st, opts)
		if err != nil {
			log.ErrorErr(log.CatImport, "import failed", err, "path", path)
		}
		return importedMsg{path: path, result: res, err: err}
	}
}

// handleImported merges a parsed file as one undoable command and scrolls
// to the first affected row.
func (m Model) handleImported(msg importedMsg) (Model, tea.Cmd) {
	name := filepath.Base(msg.path)
	if msg.err != nil {
		return m.showError("Import of "+name+" failed", msg.err)
	}
	part := importer.PartitionRows(msg.result, m.sheet)
	v := m.validator
	merged, err := importer.Merge(m.sheet, part, func(col catalog.Column, cell sheet.Cell, value catalog.Value) sheet.Patch {
		return v.Patch(col, cell, value, "")
	})
	if err != nil {
		return m.showError("Import of "+name+" failed", err)
	}
	m.grid.Sync()
	if merged.First != "" {
		if i, ok := m.grid.ScrollToRow(merged.First); ok {
			m.sel.MoveTo(selection.Position{Row: i, Col: m.sel.Active().Col})
			m.grid.Follow()
		}
	}

	summary := fmt.Sprintf("Imported %s: %d new, %d modified, %d unchanged",
		name, merged.Added, merged.Modified, len(part.UnchangedRows))
	style := toaster.StyleSuccess
	if n := len(part.Errors); n > 0 {
		summary += fmt.Sprintf(", %d %s skipped (%s)", n, plural(n, "row"), part.Errors[0].Error())
		style = toaster.StyleWarn
	}
	var toast tea.Cmd
	m, toast = m.showToast(summary, style)
	return m, tea.Batch(toast, m.validator.Pending(m.ctx, m.sheet, merged.Keys))
}
