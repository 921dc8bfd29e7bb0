// Package history implements the undo/redo command stacks for the working
// set.
package history

import (
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/sheet"
)

// Stack holds undo and redo commands. The zero value is unbounded.
type Stack struct {
	undo     []sheet.Command
	redo     []sheet.Command
	maxDepth int
}

// New creates a stack keeping at most maxDepth undo commands (0 = unbounded).
func New(maxDepth int) *Stack {
	return &Stack{maxDepth: maxDepth}
}

// Record pushes cmd onto the undo stack and clears redo.
func (s *Stack) Record(cmd sheet.Command) {
	if len(cmd.Changes) == 0 {
		return
	}
	s.undo = append(s.undo, cmd)
	if s.maxDepth > 0 && len(s.undo) > s.maxDepth {
		s.undo = s.undo[len(s.undo)-s.maxDepth:]
	}
	s.redo = s.redo[:0]
	log.Debug(log.CatHistory, "recorded", "description", cmd.Description, "changes", len(cmd.Changes), "depth", len(s.undo))
}

// Undo reverts the most recent command on sh.
func (s *Stack) Undo(sh *sheet.Sheet) (sheet.Command, []sheet.CellKey, bool) {
	if len(s.undo) == 0 {
		return sheet.Command{}, nil, false
	}
	cmd := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	keys := sh.Restore(cmd.Changes, false)
	s.redo = append(s.redo, cmd)
	log.Debug(log.CatHistory, "undo", "description", cmd.Description)
	return cmd, keys, true
}

// Redo replays the most recently undone command on sh.
func (s *Stack) Redo(sh *sheet.Sheet) (sheet.Command, []sheet.CellKey, bool) {
	if len(s.redo) == 0 {
		return sheet.Command{}, nil, false
	}
	cmd := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	keys := sh.Restore(cmd.Changes, true)
	s.undo = append(s.undo, cmd)
	log.Debug(log.CatHistory, "redo", "description", cmd.Description)
	return cmd, keys, true
}

// CanUndo reports whether Undo would do anything.
func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (s *Stack) Depth() (undo, redo int) { return len(s.undo), len(s.redo) }

// Peek returns the description of the next command to undo.
func (s *Stack) Peek() string {
	if len(s.undo) == 0 {
		return ""
	}
	return s.undo[len(s.undo)-1].Description
}

// Clear drops all history. Called after a successful save or a refresh.
func (s *Stack) Clear() {
	s.undo = nil
	s.redo = nil
	log.Debug(log.CatHistory, "cleared")
}

// RemapRow rewrites references to a promoted draft so its earlier edits stay
// undoable under the persisted id.
func (s *Stack) RemapRow(from, to sheet.RowID) {
	remap := func(cmds []sheet.Command) {
		for i := range cmds {
			for j := range cmds[i].Changes {
				if cmds[i].Changes[j].Row == from {
					cmds[i].Changes[j].Row = to
				}
			}
		}
	}
	remap(s.undo)
	remap(s.redo)
}
