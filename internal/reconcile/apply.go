package reconcile

import (
	"fmt"
	"slices"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/sheet"
	"github.com/langarchive/catalog/internal/store"
)

// History is the part of the undo stack a save touches.
type History interface {
	Clear()
	RemapRow(from, to sheet.RowID)
}

// Outcome summarizes an applied save response.
type Outcome struct {
	Saved      int
	Conflicted int
	Rejected   int
	// Promoted maps each saved draft to its persisted row id.
	Promoted map[sheet.RowID]sheet.RowID
	// Messages holds one line per rejected row.
	Messages []string
	// First is the first row that still needs attention, if any.
	First sheet.RowID
}

// FullSuccess reports whether every submitted row saved cleanly.
func (o Outcome) FullSuccess() bool {
	return o.Conflicted == 0 && o.Rejected == 0
}

func (o *Outcome) attention(id sheet.RowID) {
	if o.First == "" {
		o.First = id
	}
}

// Apply merges resp into the working set. Saved fields become the new
// baseline, conflicting fields keep the user's value against the server's
// current one, and untouched fields refresh from the server. History is
// cleared only when the whole batch succeeded.
func Apply(sh *sheet.Sheet, hist History, req Request, resp store.SaveResponse) Outcome {
	out := Outcome{Promoted: make(map[sheet.RowID]sheet.RowID)}

	byClient := make(map[string]catalog.Record)
	byID := make(map[int64]catalog.Record)
	for _, rec := range resp.Saved {
		if rec.ClientID != "" {
			byClient[rec.ClientID] = rec
		}
		byID[rec.ID] = rec
	}
	errs := make(map[string][]store.SaveError)
	for _, e := range resp.Errors {
		errs[e.RowID] = append(errs[e.RowID], e)
	}

	for _, row := range req.Rows {
		id := sheet.RowID(row.RowID)
		if rowErrs, ok := errs[row.RowID]; ok {
			applyErrors(sh, id, row, rowErrs, &out)
			continue
		}

		rec, ok := byClient[row.RowID]
		if !ok && !row.IsDraft() {
			rec, ok = byID[row.ID]
		}
		if !ok {
			out.Rejected++
			out.Messages = append(out.Messages, fmt.Sprintf("row %s: no result from store", row.RowID))
			out.attention(id)
			continue
		}

		if row.IsDraft() {
			newID, err := sh.PromoteDraft(id, rec)
			if err != nil {
				log.ErrorErr(log.CatSave, "promote draft failed", err, "row", row.RowID)
				continue
			}
			out.Promoted[id] = newID
			out.Saved++
			continue
		}
		mergeRow(sh, id, row, &rec, nil)
		out.Saved++
	}

	if out.FullSuccess() && resp.Success {
		hist.Clear()
	} else {
		for from, to := range out.Promoted {
			hist.RemapRow(from, to)
		}
	}
	log.Info(log.CatSave, "save applied",
		"saved", out.Saved, "conflicted", out.Conflicted, "rejected", out.Rejected)
	return out
}

func applyErrors(sh *sheet.Sheet, id sheet.RowID, row store.SaveRow, rowErrs []store.SaveError, out *Outcome) {
	out.attention(id)
	for _, e := range rowErrs {
		if e.Type == store.ErrorConflict {
			out.Conflicted++
			mergeRow(sh, id, row, e.CurrentData, e.ConflictingFields)
			return
		}
	}

	out.Rejected++
	for _, e := range rowErrs {
		out.Messages = append(out.Messages, fmt.Sprintf("row %s: %s", row.RowID, e.Message))
		if e.Field == "" {
			continue
		}
		if _, err := sh.UpdateCell(id, e.Field, sheet.MarkState(sheet.Invalid, e.Message)); err != nil {
			log.Debug(log.CatSave, "cannot mark rejected field", "row", row.RowID, "field", e.Field, "error", err.Error())
		}
	}
}

// mergeRow reconciles one persisted row against the server's record.
// conflicting lists the fields the store flagged; nil for a clean save. A nil
// server record leaves unsubmitted fields alone.
func mergeRow(sh *sheet.Sheet, id sheet.RowID, row store.SaveRow, server *catalog.Record, conflicting []string) {
	hasServer := server != nil
	var rec catalog.Record
	if hasServer {
		rec = *server
	}

	r, ok := sh.Row(id)
	if !ok {
		return
	}
	for _, col := range sh.Schema().Columns {
		cell, ok := r.Cell(col.Field)
		if !ok {
			continue
		}
		pending, submitted := row.Fields[col.Field]
		var current catalog.Value
		if hasServer {
			current = rec.Value(col)
		}
		d := MergeField(Field{
			Type:        col.Type,
			Submitted:   submitted,
			Conflicting: slices.Contains(conflicting, col.Field),
			Pending:     pending,
			Server:      current,
			HasServer:   hasServer,
		})
		if next, changed := merged(cell, d, pending, current, hasServer); changed {
			if err := sh.Reconcile(id, col.Field, next); err != nil {
				log.ErrorErr(log.CatSave, "reconcile cell failed", err, "row", string(id), "field", col.Field)
			}
		}
	}
	if hasServer {
		sh.SetRemoteVersion(id, rec.Version)
	}
}

// merged computes the reconciled cell. It reports false when the cell is
// left as it is.
func merged(c sheet.Cell, d Decision, pending, current catalog.Value, hasServer bool) (sheet.Cell, bool) {
	switch d {
	case AcceptUser:
		base := pending
		if hasServer && catalog.Equal(c.Type, pending, current) {
			// Server labels are fresher than the ones the user picked.
			base = current
		}
		if catalog.Equal(c.Type, c.Value, pending) {
			c.Value = catalog.Clone(base)
			c.Text = catalog.Format(c.Value)
		}
		c.Original = catalog.Clone(base)
		c.Conflict = false
	case AcceptServer:
		if !hasServer {
			return c, false
		}
		if !c.IsEdited {
			c.Value = catalog.Clone(current)
			c.Text = catalog.Format(c.Value)
		}
		c.Original = catalog.Clone(current)
	case FlagConflict:
		if hasServer {
			c.Original = catalog.Clone(current)
		}
		c.Conflict = true
	}
	return c, true
}

// KeepMine resolves a conflict in favor of the pending value. The cell stays
// edited and is sent again with the next save.
func KeepMine(sh *sheet.Sheet, key sheet.CellKey) error {
	c, err := sh.Cell(key.Row, key.Field)
	if err != nil {
		return err
	}
	if !c.Conflict {
		return nil
	}
	_, err = sh.UpdateCell(key.Row, key.Field, sheet.Patch{}.WithConflict(false))
	return err
}

// TakeTheirs resolves a conflict by adopting the server value. It is an
// undoable edit.
func TakeTheirs(sh *sheet.Sheet, key sheet.CellKey) error {
	c, err := sh.Cell(key.Row, key.Field)
	if err != nil {
		return err
	}
	if !c.Conflict {
		return nil
	}
	p := sheet.Assign(catalog.Clone(c.Original), "").WithState(sheet.Valid, "").WithConflict(false)
	_, err = sh.SetValue(key.Row, key.Field, p, "take server value")
	return err
}
