package importer

import (
	"fmt"
	"sort"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/sheet"
)

// Modification is an imported row that changes an existing row.
type Modification struct {
	Row    sheet.RowID
	Line   int
	Values map[string]catalog.Value
}

// Partition splits a parsed file against the working set.
type Partition struct {
	NewRows       []Row
	ModifiedRows  []Modification
	UnchangedRows []Row
	Errors        []*RowError
}

// PartitionRows matches each imported row to a sheet row by id or, failing
// that, by the schema's first unique column. Matched rows that differ in at
// least one imported field are modified; the rest are unchanged. Rows that
// match nothing are new.
func PartitionRows(res Result, sh *sheet.Sheet) Partition {
	p := Partition{Errors: res.Errors}
	schema := sh.Schema()

	var keyCol *catalog.Column
	for _, col := range schema.Columns {
		if col.Unique && col.Type != catalog.TypeReadOnly {
			keyCol = &col
			break
		}
	}
	byKey := make(map[string]sheet.RowID)
	if keyCol != nil {
		for i := range sh.Len() {
			row, _ := sh.RowAt(i)
			if c, ok := row.Cell(keyCol.Field); ok && !catalog.IsEmpty(c.Type, c.Original) {
				byKey[catalog.Format(c.Original)] = row.ID
			}
		}
	}
	claimed := make(map[sheet.RowID]int)

	for _, r := range res.Rows {
		id, found := match(sh, r, keyCol, byKey)
		if r.ID != 0 && !found {
			p.Errors = append(p.Errors, &RowError{Line: r.Line, Field: "id", Message: fmt.Sprintf("record #%d is not loaded", r.ID)})
			continue
		}
		if !found {
			p.NewRows = append(p.NewRows, r)
			continue
		}
		if first, dup := claimed[id]; dup {
			p.Errors = append(p.Errors, &RowError{Line: r.Line, Message: fmt.Sprintf("same record as line %d", first)})
			continue
		}
		claimed[id] = r.Line

		row, _ := sh.Row(id)
		diff := make(map[string]catalog.Value)
		for field, v := range r.Values {
			c, ok := row.Cell(field)
			if !ok || c.ReadOnly {
				continue
			}
			if !catalog.Equal(c.Type, c.Value, v) {
				diff[field] = v
			}
		}
		if len(diff) == 0 {
			p.UnchangedRows = append(p.UnchangedRows, r)
			continue
		}
		p.ModifiedRows = append(p.ModifiedRows, Modification{Row: id, Line: r.Line, Values: diff})
	}
	return p
}

func match(sh *sheet.Sheet, r Row, keyCol *catalog.Column, byKey map[string]sheet.RowID) (sheet.RowID, bool) {
	if r.ID != 0 {
		id := sheet.PersistedID(r.ID)
		_, ok := sh.Row(id)
		return id, ok
	}
	if keyCol == nil {
		return "", false
	}
	v, ok := r.Values[keyCol.Field]
	if !ok || catalog.IsEmpty(keyCol.Type, v) {
		return "", false
	}
	id, ok := byKey[catalog.Format(v)]
	return id, ok
}

// Patcher builds the patch that writes an imported value into a cell, so
// the caller can attach validation state.
type Patcher func(col catalog.Column, cell sheet.Cell, v catalog.Value) sheet.Patch

// PlainPatch assigns the value and marks it valid.
func PlainPatch(_ catalog.Column, _ sheet.Cell, v catalog.Value) sheet.Patch {
	return sheet.Assign(v, "").WithState(sheet.Valid, "")
}

// Merged reports what Merge did.
type Merged struct {
	Added    int
	Modified int
	// First is the row to scroll to.
	First sheet.RowID
	Keys  []sheet.CellKey
}

// Merge adds the new rows as drafts and applies every imported value as
// one undoable command. Undo clears the values; the added drafts remain
// empty and are never saved.
func Merge(sh *sheet.Sheet, p Partition, patch Patcher) (Merged, error) {
	if patch == nil {
		patch = PlainPatch
	}
	schema := sh.Schema()
	var m Merged
	var updates []sheet.Update

	add := func(id sheet.RowID, values map[string]catalog.Value, cellOf func(string) (sheet.Cell, bool)) {
		fields := make([]string, 0, len(values))
		for f := range values {
			fields = append(fields, f)
		}
		sort.Slice(fields, func(i, j int) bool { return schema.Index(fields[i]) < schema.Index(fields[j]) })
		for _, f := range fields {
			col, ok := schema.Column(f)
			if !ok {
				continue
			}
			c, ok := cellOf(f)
			if !ok || c.ReadOnly {
				continue
			}
			updates = append(updates, sheet.Update{Row: id, Field: f, Patch: patch(col, c, values[f])})
			m.Keys = append(m.Keys, sheet.CellKey{Row: id, Field: f})
		}
	}

	for _, mod := range p.ModifiedRows {
		row, ok := sh.Row(mod.Row)
		if !ok {
			continue
		}
		add(mod.Row, mod.Values, row.Cell)
		if m.First == "" {
			m.First = mod.Row
		}
		m.Modified++
	}

	drafts := make([]*sheet.Row, 0, len(p.NewRows))
	for _, r := range p.NewRows {
		d := sh.NewDraftRow()
		drafts = append(drafts, d)
		add(d.ID, r.Values, d.Cell)
	}
	if len(drafts) > 0 {
		sh.InsertRows(drafts)
		m.Added = len(drafts)
		m.First = drafts[0].ID
	}

	if len(updates) > 0 {
		if _, err := sh.BatchUpdateCells(fmt.Sprintf("import %d rows", m.Added+m.Modified), updates); err != nil {
			return Merged{}, fmt.Errorf("applying import: %w", err)
		}
	}
	log.Info(log.CatImport, "merged import", "added", m.Added, "modified", m.Modified, "cells", len(updates))
	return m, nil
}
