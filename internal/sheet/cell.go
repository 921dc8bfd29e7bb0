// Package sheet holds the working set edited by the batch grid: typed cells,
// rows with derived change/error flags, and the reversible changes recorded
// for undo.
package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/langarchive/catalog/internal/catalog"
)

// ValidationState is the validation status of a cell.
type ValidationState int

const (
	Valid ValidationState = iota
	Invalid
	Validating
)

func (s ValidationState) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Validating:
		return "validating"
	}
	return "unknown"
}

// Cell is one typed value in the working set. Cells are copied by value;
// the sheet owns the live copies and only mutates them through its methods.
type Cell struct {
	Value      catalog.Value
	Text       string
	Type       catalog.CellType
	IsEdited   bool
	Original   catalog.Value
	Validation ValidationState
	Error      string
	Conflict   bool
	ReadOnly   bool

	// Rev increases on every mutation. The grid keys its render cache on it.
	Rev uint64
}

// RowID identifies a row: a persisted record id or a draft token.
type RowID string

const draftPrefix = "draft-"

// PersistedID returns the RowID of a stored record.
func PersistedID(id int64) RowID {
	return RowID(strconv.FormatInt(id, 10))
}

// IsDraftID reports whether id is a locally generated draft token.
func (id RowID) IsDraftID() bool {
	return strings.HasPrefix(string(id), draftPrefix)
}

// RecordID returns the store id of a persisted row.
func (id RowID) RecordID() (int64, bool) {
	if id.IsDraftID() {
		return 0, false
	}
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

// CellKey identifies one cell independent of row ordering.
type CellKey struct {
	Row   RowID
	Field string
}

func (k CellKey) String() string {
	return fmt.Sprintf("%s/%s", k.Row, k.Field)
}

// Row is one record in the working set.
type Row struct {
	ID            RowID
	Cells         map[string]Cell
	IsDraft       bool
	IsSelected    bool
	RemoteVersion int64

	hasChanges bool
	hasErrors  bool
}

// HasChanges reports whether any cell differs from its original value.
func (r *Row) HasChanges() bool { return r.hasChanges }

// HasErrors reports whether any cell failed validation.
func (r *Row) HasErrors() bool { return r.hasErrors }

// Cell returns a copy of the cell for field.
func (r *Row) Cell(field string) (Cell, bool) {
	c, ok := r.Cells[field]
	return c, ok
}

func (r *Row) recompute() {
	r.hasChanges, r.hasErrors = false, false
	for _, c := range r.Cells {
		r.hasChanges = r.hasChanges || c.IsEdited
		r.hasErrors = r.hasErrors || c.Validation == Invalid
	}
}

// Change is one reversible cell mutation.
type Change struct {
	Row   RowID
	Field string
	Prev  Cell
	Next  Cell
}

// Command groups changes that undo and redo as a unit.
type Command struct {
	Description string
	Changes     []Change
}

// Recorder receives every recorded command.
type Recorder interface {
	Record(cmd Command)
}

// Patch is a partial cell update. Only the parts that are set are applied.
type Patch struct {
	value    catalog.Value
	text     string
	hasValue bool

	state    *ValidationState
	errMsg   string
	conflict *bool
}

// Assign returns a patch that sets the value. An empty text is derived from v.
func Assign(v catalog.Value, text string) Patch {
	return Patch{value: v, text: text, hasValue: true}
}

// MarkState returns a patch that only changes validation.
func MarkState(state ValidationState, msg string) Patch {
	return Patch{state: &state, errMsg: msg}
}

// WithState adds a validation update to p.
func (p Patch) WithState(state ValidationState, msg string) Patch {
	p.state = &state
	p.errMsg = msg
	return p
}

// WithConflict adds a conflict-flag update to p.
func (p Patch) WithConflict(conflict bool) Patch {
	p.conflict = &conflict
	return p
}

// HasValue reports whether p assigns a value.
func (p Patch) HasValue() bool { return p.hasValue }

// Value returns the value p assigns.
func (p Patch) Value() catalog.Value { return p.value }

// Text returns the display text p assigns, empty when derived from the value.
func (p Patch) Text() string { return p.text }

// apply merges p into c and recomputes IsEdited.
func (p Patch) apply(c Cell) Cell {
	if p.hasValue {
		c.Value = catalog.Clone(p.value)
		c.Text = p.text
		if c.Text == "" {
			c.Text = catalog.Format(c.Value)
		}
	}
	if p.state != nil {
		c.Validation = *p.state
		c.Error = p.errMsg
		if c.Validation != Invalid {
			c.Error = ""
		}
	}
	if p.conflict != nil {
		c.Conflict = *p.conflict
	}

	c.IsEdited = !catalog.Equal(c.Type, c.Value, c.Original)
	if p.hasValue && !c.IsEdited {
		// Back at the original: nothing to validate or resolve.
		c.Validation = Valid
		c.Error = ""
		c.Conflict = false
	}
	return c
}

func newCell(col catalog.Column, v catalog.Value) Cell {
	v = catalog.Clone(v)
	return Cell{
		Value:    v,
		Text:     catalog.Format(v),
		Type:     col.Type,
		Original: v,
		ReadOnly: col.Type == catalog.TypeReadOnly,
	}
}
