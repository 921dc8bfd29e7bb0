package grid

import (
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/langarchive/catalog/internal/selection"
)

// HitKind says which part of the grid a mouse event landed on.
type HitKind int

const (
	HitNone HitKind = iota
	HitCell
	HitHeader
	HitCheckbox
)

// Hit is the result of HitTest.
type Hit struct {
	Kind HitKind
	Pos  selection.Position
}

// HitTest resolves a mouse event against the zones marked by the last View.
// Call it only after the frame was scanned by zone.Scan.
func (m *Model) HitTest(msg tea.MouseMsg) Hit {
	visible := m.vp.VisibleRange()
	cols := m.visibleColumns()

	for _, c := range cols {
		if inZone(headerZoneID(c), msg) {
			return Hit{Kind: HitHeader, Pos: selection.Position{Row: -1, Col: c}}
		}
	}
	for r := visible.Start; r < visible.End; r++ {
		if inZone(checkZoneID(r), msg) {
			return Hit{Kind: HitCheckbox, Pos: selection.Position{Row: r}}
		}
		for _, c := range cols {
			if inZone(cellZoneID(r, c), msg) {
				return Hit{Kind: HitCell, Pos: selection.Position{Row: r, Col: c}}
			}
		}
	}
	return Hit{}
}

func inZone(id string, msg tea.MouseMsg) bool {
	z := zone.Get(id)
	return z != nil && z.InBounds(msg)
}
