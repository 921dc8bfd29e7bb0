// Package virtual computes which rows of a large grid need to be
// materialized for the current scroll position.
package virtual

// DefaultOverscan is the number of extra rows kept on each side of the
// visible window.
const DefaultOverscan = 10

// Window is a half-open row index range [Start, End).
type Window struct {
	Start int
	End   int
}

// Len returns the number of rows in the window.
func (w Window) Len() int { return w.End - w.Start }

// Contains reports whether index i is materialized.
func (w Window) Contains(i int) bool { return i >= w.Start && i < w.End }

// Viewport tracks the scroll position of a fixed-row-height grid. Offset is
// the index of the first visible row.
type Viewport struct {
	rowHeight int
	overscan  int
	height    int
	offset    int
	total     int
}

// New creates a viewport. rowHeight is in terminal lines.
func New(rowHeight, overscan int) *Viewport {
	if rowHeight < 1 {
		rowHeight = 1
	}
	if overscan < 0 {
		overscan = 0
	}
	return &Viewport{rowHeight: rowHeight, overscan: overscan}
}

// SetHeight sets the viewport height in lines.
func (v *Viewport) SetHeight(lines int) {
	v.height = max(0, lines)
	v.clampOffset()
}

// SetTotal sets the number of rows in the grid.
func (v *Viewport) SetTotal(n int) {
	v.total = max(0, n)
	v.clampOffset()
}

// Total returns the row count.
func (v *Viewport) Total() int { return v.total }

// Offset returns the first visible row.
func (v *Viewport) Offset() int { return v.offset }

// Overscan returns the overscan margin in rows.
func (v *Viewport) Overscan() int { return v.overscan }

// Visible returns how many rows fit in the viewport.
func (v *Viewport) Visible() int {
	return v.height / v.rowHeight
}

// VisibleRange returns the rows actually on screen, without overscan.
func (v *Viewport) VisibleRange() Window {
	return Window{Start: v.offset, End: min(v.total, v.offset+v.Visible())}
}

// Window returns the rows to materialize: the visible rows padded by the
// overscan on each side and clipped to the grid. Its length never exceeds
// Visible()+2*overscan.
func (v *Viewport) Window() Window {
	start := max(0, v.offset-v.overscan)
	end := min(v.total, v.offset+v.Visible()+v.overscan)
	if end < start {
		end = start
	}
	return Window{Start: start, End: end}
}

// ScrollBy moves the offset by delta rows.
func (v *Viewport) ScrollBy(delta int) {
	v.offset += delta
	v.clampOffset()
}

// ScrollTo puts row i at the top of the viewport, as far as possible.
func (v *Viewport) ScrollTo(i int) {
	v.offset = i
	v.clampOffset()
}

// EnsureVisible scrolls the minimum amount needed to show row i.
func (v *Viewport) EnsureVisible(i int) {
	visible := v.Visible()
	if visible == 0 {
		return
	}
	switch {
	case i < v.offset:
		v.offset = i
	case i >= v.offset+visible:
		v.offset = i - visible + 1
	}
	v.clampOffset()
}

// RowAtLine maps a line inside the viewport to a row index.
func (v *Viewport) RowAtLine(line int) (int, bool) {
	if line < 0 || line >= v.height {
		return 0, false
	}
	i := v.offset + line/v.rowHeight
	if i >= v.total {
		return 0, false
	}
	return i, true
}

func (v *Viewport) maxOffset() int {
	return max(0, v.total-v.Visible())
}

func (v *Viewport) clampOffset() {
	v.offset = max(0, min(v.offset, v.maxOffset()))
}
