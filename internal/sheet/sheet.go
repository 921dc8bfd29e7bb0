package sheet

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/langarchive/catalog/internal/catalog"
)

var (
	ErrUnknownRow   = errors.New("unknown row")
	ErrUnknownField = errors.New("unknown field")
	ErrReadOnly     = errors.New("cell is read-only")
)

// Update targets one cell in a batch.
type Update struct {
	Row   RowID
	Field string
	Patch Patch
}

// Sheet is the working set: an ordered collection of rows sharing a schema.
// It is not safe for concurrent use; it is owned by the UI update loop.
type Sheet struct {
	schema   catalog.Schema
	rows     []*Row
	index    map[RowID]int
	rev      uint64
	touched  bool
	recorder Recorder
}

// New creates an empty sheet for schema.
func New(schema catalog.Schema) *Sheet {
	return &Sheet{
		schema: schema,
		index:  make(map[RowID]int),
	}
}

// SetRecorder installs the receiver of recorded commands.
func (s *Sheet) SetRecorder(r Recorder) { s.recorder = r }

// Schema returns the sheet's schema.
func (s *Sheet) Schema() catalog.Schema { return s.schema }

// Len returns the number of rows.
func (s *Sheet) Len() int { return len(s.rows) }

// RowAt returns the row at index i.
func (s *Sheet) RowAt(i int) (*Row, bool) {
	if i < 0 || i >= len(s.rows) {
		return nil, false
	}
	return s.rows[i], true
}

// Row returns the row with id.
func (s *Sheet) Row(id RowID) (*Row, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.rows[i], true
}

// IndexOf returns the position of id, or -1.
func (s *Sheet) IndexOf(id RowID) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// Cell returns a copy of one cell.
func (s *Sheet) Cell(id RowID, field string) (Cell, error) {
	row, ok := s.Row(id)
	if !ok {
		return Cell{}, fmt.Errorf("%w: %s", ErrUnknownRow, id)
	}
	c, ok := row.Cells[field]
	if !ok {
		return Cell{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return c, nil
}

// Touched reports whether the user has mutated the sheet since the last Reset.
func (s *Sheet) Touched() bool { return s.touched }

// UpdateCell merges p into one cell without recording an undo command. It is
// the entry point for validation results; interactive edits go through
// SetValue or BatchUpdateCells.
func (s *Sheet) UpdateCell(id RowID, field string, p Patch) (Change, error) {
	row, ok := s.Row(id)
	if !ok {
		return Change{}, fmt.Errorf("%w: %s", ErrUnknownRow, id)
	}
	prev, ok := row.Cells[field]
	if !ok {
		return Change{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if prev.ReadOnly && p.hasValue {
		return Change{}, fmt.Errorf("%w: %s", ErrReadOnly, field)
	}

	next := p.apply(prev)
	s.rev++
	next.Rev = s.rev
	row.Cells[field] = next
	row.recompute()
	return Change{Row: id, Field: field, Prev: prev, Next: next}, nil
}

// SetValue applies one interactive edit and records it as a single-change
// command.
func (s *Sheet) SetValue(id RowID, field string, p Patch, description string) (Change, error) {
	ch, err := s.UpdateCell(id, field, p)
	if err != nil {
		return Change{}, err
	}
	s.touched = true
	s.record(Command{Description: description, Changes: []Change{ch}})
	return ch, nil
}

// BatchUpdateCells applies many updates as one command. Read-only targets
// are skipped. An unknown row or field aborts the batch before anything is
// applied.
func (s *Sheet) BatchUpdateCells(description string, updates []Update) (Command, error) {
	for _, u := range updates {
		if _, err := s.Cell(u.Row, u.Field); err != nil {
			return Command{}, err
		}
	}

	cmd := Command{Description: description}
	for _, u := range updates {
		if c, _ := s.Cell(u.Row, u.Field); c.ReadOnly {
			continue
		}
		ch, err := s.UpdateCell(u.Row, u.Field, u.Patch)
		if err != nil {
			return Command{}, err
		}
		cmd.Changes = append(cmd.Changes, ch)
	}
	if len(cmd.Changes) > 0 {
		s.touched = true
		s.record(cmd)
	}
	return cmd, nil
}

// ClearCells sets every addressed cell to its type's empty value as one
// command.
func (s *Sheet) ClearCells(description string, keys []CellKey) (Command, error) {
	updates := make([]Update, 0, len(keys))
	for _, k := range keys {
		c, err := s.Cell(k.Row, k.Field)
		if err != nil {
			return Command{}, err
		}
		updates = append(updates, Update{Row: k.Row, Field: k.Field, Patch: Assign(catalog.Empty(c.Type), "").WithState(Valid, "")})
	}
	return s.BatchUpdateCells(description, updates)
}

// Restore writes back the Prev (forward=false) or Next (forward=true) side of
// each change. Rows that no longer exist are skipped. It returns the keys it
// restored.
func (s *Sheet) Restore(changes []Change, forward bool) []CellKey {
	restored := make([]CellKey, 0, len(changes))
	apply := func(ch Change) {
		row, ok := s.Row(ch.Row)
		if !ok {
			return
		}
		c := ch.Prev
		if forward {
			c = ch.Next
		}
		// The baseline may have moved since the change was recorded (a
		// partially successful save); it is not part of the undoable state.
		if cur, ok := row.Cells[ch.Field]; ok && !catalog.Equal(cur.Type, cur.Original, c.Original) {
			c.Original = cur.Original
			c.IsEdited = !catalog.Equal(c.Type, c.Value, c.Original)
		}
		s.rev++
		c.Rev = s.rev
		row.Cells[ch.Field] = c
		row.recompute()
		restored = append(restored, CellKey{Row: ch.Row, Field: ch.Field})
	}
	if forward {
		for _, ch := range changes {
			apply(ch)
		}
	} else {
		for i := len(changes) - 1; i >= 0; i-- {
			apply(changes[i])
		}
	}
	s.touched = true
	return restored
}

// Reconcile overwrites a cell with the outcome of save reconciliation. It is
// never recorded.
func (s *Sheet) Reconcile(id RowID, field string, c Cell) error {
	row, ok := s.Row(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRow, id)
	}
	if _, ok := row.Cells[field]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	c.IsEdited = !catalog.Equal(c.Type, c.Value, c.Original)
	s.rev++
	c.Rev = s.rev
	row.Cells[field] = c
	row.recompute()
	return nil
}

// AddDraftRow appends an empty draft row and returns its id.
func (s *Sheet) AddDraftRow() RowID {
	row := s.NewDraftRow()
	s.index[row.ID] = len(s.rows)
	s.rows = append(s.rows, row)
	s.touched = true
	return row.ID
}

// DeleteRows removes rows from the working set. Unknown ids are ignored.
func (s *Sheet) DeleteRows(ids []RowID) int {
	drop := make(map[RowID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.rows[:0]
	removed := 0
	for _, r := range s.rows {
		if drop[r.ID] {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	clear(s.rows[len(kept):])
	s.rows = kept
	s.reindex()
	if removed > 0 {
		s.touched = true
	}
	return removed
}

// Reset replaces the working set with records. Draft rows survive when
// preserveDrafts is set, and checkbox selection is carried over by id.
func (s *Sheet) Reset(records []catalog.Record, preserveDrafts bool) {
	selected := make(map[RowID]bool)
	var drafts []*Row
	for _, r := range s.rows {
		if r.IsSelected {
			selected[r.ID] = true
		}
		if preserveDrafts && r.IsDraft {
			drafts = append(drafts, r)
		}
	}

	s.rows = make([]*Row, 0, len(records)+len(drafts))
	for _, rec := range records {
		row := s.rowFromRecord(rec)
		row.IsSelected = selected[row.ID]
		s.rows = append(s.rows, row)
	}
	s.rows = append(s.rows, drafts...)
	s.reindex()
	s.touched = false
}

// Append adds records that are not already present, such as a further page.
func (s *Sheet) Append(records []catalog.Record) int {
	added := 0
	for _, rec := range records {
		id := PersistedID(rec.ID)
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = len(s.rows)
		s.rows = append(s.rows, s.rowFromRecord(rec))
		added++
	}
	return added
}

// InsertRows inserts fully formed rows (used by import) before any drafts.
func (s *Sheet) InsertRows(rows []*Row) {
	pos := slices.IndexFunc(s.rows, func(r *Row) bool { return r.IsDraft })
	if pos < 0 {
		pos = len(s.rows)
	}
	for _, r := range rows {
		r.recompute()
	}
	s.rows = slices.Insert(s.rows, pos, rows...)
	s.reindex()
	s.touched = true
}

// NewDraftRow builds a detached draft row for InsertRows.
func (s *Sheet) NewDraftRow() *Row {
	row := &Row{ID: RowID(draftPrefix + uuid.NewString()), IsDraft: true, Cells: make(map[string]Cell, len(s.schema.Columns))}
	for _, col := range s.schema.Columns {
		c := newCell(col, catalog.Empty(col.Type))
		s.rev++
		c.Rev = s.rev
		row.Cells[col.Field] = c
	}
	return row
}

// PromoteDraft turns a saved draft into a persisted row built from rec.
func (s *Sheet) PromoteDraft(draftID RowID, rec catalog.Record) (RowID, error) {
	i, ok := s.index[draftID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRow, draftID)
	}
	row := s.rowFromRecord(rec)
	row.IsSelected = s.rows[i].IsSelected
	s.rows[i] = row
	delete(s.index, draftID)
	s.index[row.ID] = i
	return row.ID, nil
}

// SetRemoteVersion records the store version a row was last seen at.
func (s *Sheet) SetRemoteVersion(id RowID, version int64) {
	if row, ok := s.Row(id); ok {
		row.RemoteVersion = version
	}
}

// ToggleSelected flips a row's checkbox.
func (s *Sheet) ToggleSelected(id RowID) bool {
	row, ok := s.Row(id)
	if !ok {
		return false
	}
	row.IsSelected = !row.IsSelected
	return row.IsSelected
}

// SelectedRows returns the checked rows in order.
func (s *Sheet) SelectedRows() []*Row {
	var out []*Row
	for _, r := range s.rows {
		if r.IsSelected {
			out = append(out, r)
		}
	}
	return out
}

// ChangedRows returns the rows with unsaved changes in order.
func (s *Sheet) ChangedRows() []*Row {
	var out []*Row
	for _, r := range s.rows {
		if r.hasChanges {
			out = append(out, r)
		}
	}
	return out
}

// HasChanges reports whether any row has unsaved changes.
func (s *Sheet) HasChanges() bool {
	return slices.ContainsFunc(s.rows, func(r *Row) bool { return r.hasChanges })
}

func (s *Sheet) rowFromRecord(rec catalog.Record) *Row {
	row := &Row{
		ID:            PersistedID(rec.ID),
		RemoteVersion: rec.Version,
		Cells:         make(map[string]Cell, len(s.schema.Columns)),
	}
	for _, col := range s.schema.Columns {
		c := newCell(col, rec.Value(col))
		s.rev++
		c.Rev = s.rev
		row.Cells[col.Field] = c
	}
	return row
}

func (s *Sheet) reindex() {
	s.index = make(map[RowID]int, len(s.rows))
	for i, r := range s.rows {
		s.index[r.ID] = i
	}
}

func (s *Sheet) record(cmd Command) {
	if s.recorder != nil {
		s.recorder.Record(cmd)
	}
}
