// Package selection tracks the active cell, the range anchor and edit mode of
// the grid, and derives keyboard and mouse navigation.
package selection

// Mode is the navigation state.
type Mode int

const (
	Idle Mode = iota
	Ranging
	Editing
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Ranging:
		return "ranging"
	case Editing:
		return "editing"
	}
	return "unknown"
}

// Position addresses a cell by row index and column index. Positions are only
// meaningful against the row and column ordering they were taken from.
type Position struct {
	Row int
	Col int
}

// Range is an unordered pair of corners.
type Range struct {
	Start Position
	End   Position
}

// Bounds returns the normalized corners (top-left, bottom-right).
func (r Range) Bounds() (top, left, bottom, right int) {
	return min(r.Start.Row, r.End.Row), min(r.Start.Col, r.End.Col),
		max(r.Start.Row, r.End.Row), max(r.Start.Col, r.End.Col)
}

// Contains reports whether p lies inside the range.
func (r Range) Contains(p Position) bool {
	top, left, bottom, right := r.Bounds()
	return p.Row >= top && p.Row <= bottom && p.Col >= left && p.Col <= right
}

// Size returns the number of rows and columns covered.
func (r Range) Size() (rows, cols int) {
	top, left, bottom, right := r.Bounds()
	return bottom - top + 1, right - left + 1
}

// Positions lists every position row by row.
func (r Range) Positions() []Position {
	top, left, bottom, right := r.Bounds()
	out := make([]Position, 0, (bottom-top+1)*(right-left+1))
	for row := top; row <= bottom; row++ {
		for col := left; col <= right; col++ {
			out = append(out, Position{Row: row, Col: col})
		}
	}
	return out
}

// State is the selection state machine.
type State struct {
	mode      Mode
	active    Position
	anchor    Position
	anchorSet bool
	rng       Range
	preEdit   Position
	dragging  bool
	rows      int
	cols      int
}

// New creates a state for a grid of rows × cols with the first cell active.
func New(rows, cols int) *State {
	return &State{rows: rows, cols: cols, anchorSet: rows > 0 && cols > 0}
}

// Mode returns the current mode.
func (s *State) Mode() Mode { return s.mode }

// Active returns the active cell.
func (s *State) Active() Position { return s.active }

// Anchor returns the fixed end of the range.
func (s *State) Anchor() Position { return s.anchor }

// Range returns the selected range while Ranging. Only ShiftClick, Extend and
// DragOver change it; Tab moves the active cell inside it.
func (s *State) Range() (Range, bool) {
	if s.mode != Ranging {
		return Range{}, false
	}
	return s.rng, true
}

// Selection returns the range while Ranging, or the active cell as a 1×1
// range otherwise.
func (s *State) Selection() Range {
	if r, ok := s.Range(); ok {
		return r
	}
	return Range{Start: s.active, End: s.active}
}

// Editing returns the cell being edited.
func (s *State) Editing() (Position, bool) {
	return s.active, s.mode == Editing
}

// SetBounds updates the grid size, clamping positions into it. Called when
// rows are added, removed or reloaded.
func (s *State) SetBounds(rows, cols int) {
	s.rows, s.cols = rows, cols
	s.active = s.clamp(s.active)
	s.anchor = s.clamp(s.anchor)
	s.preEdit = s.clamp(s.preEdit)
	s.rng = Range{Start: s.clamp(s.rng.Start), End: s.clamp(s.rng.End)}
	if rows == 0 {
		s.mode = Idle
		s.anchorSet = false
	}
}

// Click makes p active and resets the anchor to it.
func (s *State) Click(p Position) {
	s.collapse(s.clamp(p))
}

// ShiftClick extends the range from the anchor to p.
func (s *State) ShiftClick(p Position) {
	p = s.clamp(p)
	if !s.anchorSet {
		s.anchor, s.anchorSet = p, true
	}
	s.active = p
	s.rng = Range{Start: s.anchor, End: p}
	s.mode = Ranging
}

// DragStart begins a mouse drag at p.
func (s *State) DragStart(p Position) {
	s.Click(p)
	s.dragging = true
}

// DragOver extends the range while the button is held.
func (s *State) DragOver(p Position) {
	if !s.dragging {
		return
	}
	if s.clamp(p) == s.anchor && s.mode != Ranging {
		return
	}
	s.ShiftClick(p)
}

// DragEnd releases the drag.
func (s *State) DragEnd() { s.dragging = false }

// Dragging reports whether a drag is in progress.
func (s *State) Dragging() bool { return s.dragging }

// Move moves the active cell and collapses any range.
func (s *State) Move(dRow, dCol int) {
	if s.mode == Editing {
		return
	}
	s.collapse(s.clamp(Position{Row: s.active.Row + dRow, Col: s.active.Col + dCol}))
}

// Extend moves the free end of the range, keeping the anchor fixed.
func (s *State) Extend(dRow, dCol int) {
	if s.mode == Editing {
		return
	}
	end := s.active
	if s.mode == Ranging {
		end = s.rng.End
	}
	s.ShiftClick(Position{Row: end.Row + dRow, Col: end.Col + dCol})
}

// MoveTo jumps to p, collapsing any range.
func (s *State) MoveTo(p Position) {
	if s.mode == Editing {
		return
	}
	s.collapse(s.clamp(p))
}

// Tab moves one column right (left when reverse), wrapping at row ends. With a
// range active the movement cycles inside the range and the range is kept.
func (s *State) Tab(reverse bool) {
	if s.mode == Editing || s.rows == 0 || s.cols == 0 {
		return
	}
	if r, ok := s.Range(); ok {
		top, left, bottom, right := r.Bounds()
		s.active = step(s.active, reverse, top, left, bottom, right, true)
		return
	}
	s.collapse(step(s.active, reverse, 0, 0, s.rows-1, s.cols-1, false))
}

func step(p Position, reverse bool, top, left, bottom, right int, cycle bool) Position {
	if !reverse {
		switch {
		case p.Col < right:
			p.Col++
		case p.Row < bottom:
			p.Row, p.Col = p.Row+1, left
		case cycle:
			p.Row, p.Col = top, left
		}
		return p
	}
	switch {
	case p.Col > left:
		p.Col--
	case p.Row > top:
		p.Row, p.Col = p.Row-1, right
	case cycle:
		p.Row, p.Col = bottom, right
	}
	return p
}

// BeginEdit enters Editing on the active cell. It returns false, leaving the
// state untouched, when the cell is read-only.
func (s *State) BeginEdit(readOnly bool) bool {
	if readOnly || s.rows == 0 || s.cols == 0 {
		return false
	}
	if s.mode == Ranging {
		s.anchor = s.active
	}
	s.preEdit = s.active
	s.mode = Editing
	return true
}

// CommitEdit leaves Editing. With advance set the active cell moves one row
// down unless it is on the last row.
func (s *State) CommitEdit(advance bool) {
	if s.mode != Editing {
		return
	}
	p := s.active
	if advance && p.Row < s.rows-1 {
		p.Row++
	}
	s.collapse(p)
}

// CancelEdit leaves Editing at the cell that was active before the edit.
func (s *State) CancelEdit() {
	if s.mode != Editing {
		return
	}
	s.collapse(s.preEdit)
}

func (s *State) collapse(p Position) {
	s.active = p
	s.anchor = p
	s.anchorSet = true
	s.mode = Idle
}

func (s *State) clamp(p Position) Position {
	p.Row = max(0, min(p.Row, s.rows-1))
	p.Col = max(0, min(p.Col, s.cols-1))
	return p
}
