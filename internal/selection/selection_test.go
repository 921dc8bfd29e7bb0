package selection

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestClick_ResetsAnchor(t *testing.T) {
	s := New(10, 5)
	s.Click(Position{Row: 3, Col: 2})
	require.Equal(t, Idle, s.Mode())
	require.Equal(t, Position{Row: 3, Col: 2}, s.Active())
	require.Equal(t, s.Active(), s.Anchor())
	_, ok := s.Range()
	require.False(t, ok)
}

func TestShiftArrowExtendsFromAnchor(t *testing.T) {
	s := New(10, 5)
	s.Click(Position{Row: 1, Col: 1})
	s.ShiftClick(Position{Row: 3, Col: 3})

	s.Extend(1, 0)

	r, ok := s.Range()
	require.True(t, ok)
	require.Equal(t, Range{Start: Position{Row: 1, Col: 1}, End: Position{Row: 4, Col: 3}}, r)
	require.Equal(t, Position{Row: 1, Col: 1}, s.Anchor())
}

func TestExtend_ClampsAtEdges(t *testing.T) {
	s := New(3, 3)
	s.Extend(-1, -1)
	r, ok := s.Range()
	require.True(t, ok)
	rows, cols := r.Size()
	require.Equal(t, 1, rows)
	require.Equal(t, 1, cols)
}

func TestMove_CollapsesRange(t *testing.T) {
	s := New(10, 5)
	s.ShiftClick(Position{Row: 2, Col: 2})
	s.Move(0, 1)
	require.Equal(t, Idle, s.Mode())
	require.Equal(t, Position{Row: 2, Col: 3}, s.Active())
	require.Equal(t, s.Active(), s.Anchor())
}

func TestTab_WrapsRowsAndStopsAtEnd(t *testing.T) {
	s := New(2, 3)
	s.Click(Position{Row: 0, Col: 2})
	s.Tab(false)
	require.Equal(t, Position{Row: 1, Col: 0}, s.Active())

	s.Tab(true)
	require.Equal(t, Position{Row: 0, Col: 2}, s.Active())

	s.Click(Position{Row: 1, Col: 2})
	s.Tab(false)
	require.Equal(t, Position{Row: 1, Col: 2}, s.Active(), "last cell stays put")
}

func TestTab_CyclesInsideRange(t *testing.T) {
	s := New(10, 10)
	s.Click(Position{Row: 2, Col: 2})
	s.ShiftClick(Position{Row: 3, Col: 3})

	// active starts at the range's far corner (3,3); tab wraps to top-left
	s.Tab(false)
	require.Equal(t, Position{Row: 2, Col: 2}, s.Active())
	s.Tab(false)
	require.Equal(t, Position{Row: 2, Col: 3}, s.Active())
	s.Tab(false)
	require.Equal(t, Position{Row: 3, Col: 2}, s.Active())

	r, ok := s.Range()
	require.True(t, ok, "range survives tab")
	top, left, bottom, right := r.Bounds()
	require.Equal(t, []int{2, 2, 3, 3}, []int{top, left, bottom, right})

	s.Click(Position{Row: 2, Col: 2})
	s.ShiftClick(Position{Row: 3, Col: 3})
	s.MoveTo(Position{Row: 2, Col: 2})
	require.Equal(t, Idle, s.Mode())
}

func TestTab_KeepsRangeAcrossFullCycle(t *testing.T) {
	s := New(10, 10)
	s.Click(Position{Row: 2, Col: 2})
	s.ShiftClick(Position{Row: 3, Col: 3})

	var visited []Position
	for range 4 {
		s.Tab(false)
		visited = append(visited, s.Active())
	}
	require.Equal(t, []Position{{2, 2}, {2, 3}, {3, 2}, {3, 3}}, visited)
	require.Equal(t, Range{Start: Position{Row: 2, Col: 2}, End: Position{Row: 3, Col: 3}}, s.Selection())

	s.Tab(true)
	require.Equal(t, Position{Row: 3, Col: 2}, s.Active())

	// Extending after Tab grows the range from its free end, not the active cell.
	s.Extend(1, 0)
	r, ok := s.Range()
	require.True(t, ok)
	top, left, bottom, right := r.Bounds()
	require.Equal(t, []int{2, 2, 4, 3}, []int{top, left, bottom, right})
	require.Equal(t, Position{Row: 4, Col: 3}, s.Active())
}

func TestEdit_CommitAdvancesAndCancelReturns(t *testing.T) {
	s := New(3, 2)
	s.Click(Position{Row: 1, Col: 1})

	require.False(t, s.BeginEdit(true), "read-only never edits")
	require.Equal(t, Idle, s.Mode())

	require.True(t, s.BeginEdit(false))
	p, editing := s.Editing()
	require.True(t, editing)
	require.Equal(t, Position{Row: 1, Col: 1}, p)

	s.Move(1, 0)
	require.Equal(t, Position{Row: 1, Col: 1}, s.Active(), "navigation is frozen while editing")

	s.CommitEdit(true)
	require.Equal(t, Idle, s.Mode())
	require.Equal(t, Position{Row: 2, Col: 1}, s.Active())

	require.True(t, s.BeginEdit(false))
	s.CommitEdit(true)
	require.Equal(t, Position{Row: 2, Col: 1}, s.Active(), "last row does not advance")

	require.True(t, s.BeginEdit(false))
	s.CancelEdit()
	require.Equal(t, Idle, s.Mode())
	require.Equal(t, Position{Row: 2, Col: 1}, s.Active())
}

func TestDrag_BehavesLikeShiftClick(t *testing.T) {
	s := New(10, 10)
	s.DragStart(Position{Row: 1, Col: 1})
	require.True(t, s.Dragging())
	s.DragOver(Position{Row: 1, Col: 1})
	require.Equal(t, Idle, s.Mode(), "no range until the pointer leaves the anchor")

	s.DragOver(Position{Row: 2, Col: 4})
	s.DragOver(Position{Row: 4, Col: 3})
	s.DragEnd()
	s.DragOver(Position{Row: 9, Col: 9})

	r, ok := s.Range()
	require.True(t, ok)
	require.Equal(t, Position{Row: 1, Col: 1}, r.Start)
	require.Equal(t, Position{Row: 4, Col: 3}, r.End)
}

func TestDrag_SetsAnchorWhenMissing(t *testing.T) {
	s := New(0, 4)
	s.SetBounds(5, 4)
	s.dragging = true
	s.DragOver(Position{Row: 2, Col: 2})
	require.Equal(t, Position{Row: 2, Col: 2}, s.Anchor())
}

func TestSetBounds_Clamps(t *testing.T) {
	s := New(10, 5)
	s.Click(Position{Row: 9, Col: 4})
	s.SetBounds(4, 3)
	require.Equal(t, Position{Row: 3, Col: 2}, s.Active())
}

func TestRange_Positions(t *testing.T) {
	r := Range{Start: Position{Row: 2, Col: 1}, End: Position{Row: 1, Col: 0}}
	require.Equal(t, []Position{{1, 0}, {1, 1}, {2, 0}, {2, 1}}, r.Positions())
	require.True(t, r.Contains(Position{Row: 2, Col: 0}))
	require.False(t, r.Contains(Position{Row: 3, Col: 0}))
}

func TestActiveStaysInBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := rapid.IntRange(1, 20).Draw(t, "rows")
		cols := rapid.IntRange(1, 8).Draw(t, "cols")
		s := New(rows, cols)
		for i := 0; i < 50; i++ {
			switch rapid.IntRange(0, 5).Draw(t, "op") {
			case 0:
				s.Move(rapid.IntRange(-3, 3).Draw(t, "dr"), rapid.IntRange(-3, 3).Draw(t, "dc"))
			case 1:
				s.Extend(rapid.IntRange(-3, 3).Draw(t, "dr"), rapid.IntRange(-3, 3).Draw(t, "dc"))
			case 2:
				s.Tab(rapid.Bool().Draw(t, "rev"))
			case 3:
				s.Click(Position{Row: rapid.IntRange(-2, rows+2).Draw(t, "r"), Col: rapid.IntRange(-2, cols+2).Draw(t, "c")})
			case 4:
				anchor := s.Anchor()
				s.Extend(1, 0)
				if s.Anchor() != anchor {
					t.Fatalf("extend moved the anchor")
				}
			case 5:
				if s.BeginEdit(false) {
					s.CancelEdit()
				}
			}
			a := s.Active()
			if a.Row < 0 || a.Row >= rows || a.Col < 0 || a.Col >= cols {
				t.Fatalf("active %v out of %dx%d", a, rows, cols)
			}
			if r, ok := s.Range(); ok && !r.Contains(a) {
				t.Fatalf("range %v does not contain active %v", r, a)
			}
		}
	})
}
