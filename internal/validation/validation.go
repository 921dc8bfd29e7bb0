// Package validation decides the validation state of edited cells. Shape
// checks run synchronously; uniqueness is checked against the store off the
// update loop, and only the newest check for a cell may apply its result.
package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/sequence"
	"github.com/langarchive/catalog/internal/sheet"
)

// DefaultTimeout bounds one remote uniqueness check.
const DefaultTimeout = 10 * time.Second

// UniqueChecker is the part of the store validation needs.
type UniqueChecker interface {
	CheckUnique(ctx context.Context, kind, field string, value catalog.Value, excludeID int64) (bool, error)
}

// ResultMsg carries the outcome of a remote uniqueness check.
type ResultMsg struct {
	Key    sheet.CellKey
	Seq    uint64
	Value  catalog.Value
	Unique bool
	Err    error
}

// Validator validates the cells of one record kind.
type Validator struct {
	schema  catalog.Schema
	checker UniqueChecker
	seq     *sequence.Sequencer
	timeout time.Duration
}

// New creates a validator. A nil checker treats every value as unique.
func New(schema catalog.Schema, checker UniqueChecker) *Validator {
	return &Validator{
		schema:  schema,
		checker: checker,
		seq:     sequence.New(),
		timeout: DefaultTimeout,
	}
}

// Assess returns the synchronous state of value in cell. Validating means a
// remote check must follow.
func (v *Validator) Assess(col catalog.Column, cell sheet.Cell, value catalog.Value) (sheet.ValidationState, string) {
	if catalog.Equal(col.Type, value, cell.Original) {
		return sheet.Valid, ""
	}
	if err := catalog.Check(col, value); err != nil {
		var ve *catalog.ValidationError
		if errors.As(err, &ve) {
			return sheet.Invalid, ve.Message
		}
		return sheet.Invalid, err.Error()
	}
	if col.Unique && v.checker != nil && !catalog.IsEmpty(col.Type, value) {
		return sheet.Validating, ""
	}
	return sheet.Valid, ""
}

// Patch builds the edit patch for value, including its synchronous state.
func (v *Validator) Patch(col catalog.Column, cell sheet.Cell, value catalog.Value, text string) sheet.Patch {
	state, msg := v.Assess(col, cell, value)
	return sheet.Assign(value, text).WithState(state, msg)
}

// Pending issues remote checks for every cell in keys that is waiting on
// one. It is used after edits, pastes, imports, undo and redo.
func (v *Validator) Pending(ctx context.Context, sh *sheet.Sheet, keys []sheet.CellKey) tea.Cmd {
	var cmds []tea.Cmd
	for _, k := range keys {
		c, err := sh.Cell(k.Row, k.Field)
		if err != nil || c.Validation != sheet.Validating {
			continue
		}
		if cmd := v.check(ctx, k, c.Value); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (v *Validator) check(ctx context.Context, key sheet.CellKey, value catalog.Value) tea.Cmd {
	col, ok := v.schema.Column(key.Field)
	if !ok || v.checker == nil {
		return nil
	}
	seq := v.seq.Next(key.String())
	excludeID, _ := key.Row.RecordID()
	value = catalog.Clone(value)
	checker, kind, timeout := v.checker, v.schema.Kind, v.timeout

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		unique, err := checker.CheckUnique(ctx, kind, col.Field, value, excludeID)
		if err != nil {
			log.ErrorErr(log.CatValidation, "uniqueness check failed", err, "cell", key.String())
		}
		return ResultMsg{Key: key, Seq: seq, Value: value, Unique: unique, Err: err}
	}
}

// Apply writes a check result to sh. Results superseded by a newer check,
// or whose cell no longer holds the checked value, are dropped.
func (v *Validator) Apply(sh *sheet.Sheet, msg ResultMsg) bool {
	if !v.seq.IsLatest(msg.Key.String(), msg.Seq) {
		log.Debug(log.CatValidation, "discarding superseded result", "cell", msg.Key.String(), "seq", msg.Seq)
		return false
	}
	v.seq.Forget(msg.Key.String())

	c, err := sh.Cell(msg.Key.Row, msg.Key.Field)
	if err != nil || c.Validation != sheet.Validating || !catalog.Equal(c.Type, c.Value, msg.Value) {
		return false
	}

	col, _ := v.schema.Column(msg.Key.Field)
	state, text := sheet.Valid, ""
	switch {
	case msg.Err != nil:
		state, text = sheet.Invalid, "could not check uniqueness; edit the cell to retry"
	case !msg.Unique:
		state, text = sheet.Invalid, fmt.Sprintf("%s %q is already in use", col.Title, catalog.Format(msg.Value))
	}
	if _, err := sh.UpdateCell(msg.Key.Row, msg.Key.Field, sheet.MarkState(state, text)); err != nil {
		return false
	}
	log.Debug(log.CatValidation, "applied result", "cell", msg.Key.String(), "state", state.String())
	return true
}

// Cancel drops any outstanding check for key.
func (v *Validator) Cancel(key sheet.CellKey) {
	v.seq.Forget(key.String())
}

// Reset drops every outstanding check, e.g. after a refresh.
func (v *Validator) Reset() {
	v.seq.Reset()
}
