package reconcile

import (
	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/store"
)

// Selection is the set of rows a save would submit.
type Selection struct {
	Rows []*sheet.Row
	// Scoped is set when the rows come from the checked subset.
	Scoped bool
	// Blocked counts changed rows left out because a cell is invalid or
	// still validating.
	Blocked int
}

// Candidates returns the rows eligible for saving: the checked rows with
// changes, or every changed row when none is checked.
func Candidates(sh *sheet.Sheet) Selection {
	var sel Selection
	pool := sh.ChangedRows()
	if checked := sh.SelectedRows(); len(checked) > 0 {
		sel.Scoped = true
		pool = pool[:0:0]
		for _, r := range checked {
			if r.HasChanges() {
				pool = append(pool, r)
			}
		}
	}
	for _, r := range pool {
		if r.HasErrors() || validating(r) {
			sel.Blocked++
			continue
		}
		sel.Rows = append(sel.Rows, r)
	}
	return sel
}

func validating(r *sheet.Row) bool {
	for _, c := range r.Cells {
		if c.Validation == sheet.Validating {
			return true
		}
	}
	return false
}

// Request is a batch save request.
type Request struct {
	Kind string
	Rows []store.SaveRow
}

// Len returns the number of rows in the request.
func (r Request) Len() int { return len(r.Rows) }

// BuildRequest converts rows into a save request. Persisted rows send only
// their edited fields with the remembered originals and version; drafts send
// every non-empty field.
func BuildRequest(sh *sheet.Sheet, rows []*sheet.Row) Request {
	schema := sh.Schema()
	req := Request{Kind: schema.Kind, Rows: make([]store.SaveRow, 0, len(rows))}
	for _, r := range rows {
		sr := store.SaveRow{RowID: string(r.ID), Fields: make(map[string]catalog.Value)}
		if id, ok := r.ID.RecordID(); ok && !r.IsDraft {
			sr.ID = id
			sr.Version = r.RemoteVersion
			sr.Originals = make(map[string]catalog.Value)
		}
		for _, col := range schema.Columns {
			c, ok := r.Cell(col.Field)
			if !ok || c.ReadOnly {
				continue
			}
			switch {
			case sr.IsDraft():
				if catalog.IsEmpty(c.Type, c.Value) {
					continue
				}
			case !c.IsEdited:
				continue
			default:
				sr.Originals[col.Field] = catalog.Clone(c.Original)
			}
			sr.Fields[col.Field] = catalog.Clone(c.Value)
		}
		req.Rows = append(req.Rows, sr)
	}
	return req
}
