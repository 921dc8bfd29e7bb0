package overlay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlace_Center(t *testing.T) {
	bg := "AAAAA\nAAAAA\nAAAAA"
	result := Place(Config{Width: 5, Height: 3, Position: Center}, "XX", bg)

	lines := strings.Split(result, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "AXXAA", lines[1])
	assert.Equal(t, "AAAAA", lines[0])
}

func TestPlace_LargeForegroundDoesNotPanic(t *testing.T) {
	result := Place(Config{Width: 3, Height: 3, Position: Center}, "XXXXX\nXXXXX", "AAA\nAAA\nAAA")
	lines := strings.Split(result, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "XXXXX", lines[0])
}

func TestPlace_TopAndBottom(t *testing.T) {
	bg := strings.Repeat("AAAAA\n", 4) + "AAAAA"

	top := strings.Split(Place(Config{Width: 5, Height: 5, Position: Top, PadY: 1}, "XX", bg), "\n")
	assert.Equal(t, "AXXAA", top[1])

	bottom := strings.Split(Place(Config{Width: 5, Height: 5, Position: Bottom, PadY: 1}, "XX", bg), "\n")
	assert.Equal(t, "AXXAA", bottom[3])
}

func TestPlace_EmptyBackgroundIsPadded(t *testing.T) {
	result := Place(Config{Width: 4, Height: 3, Position: Center}, "X", "")
	lines := strings.Split(result, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, " X  ", lines[1])
}

func TestPlace_PreservesANSI(t *testing.T) {
	bg := "\x1b[31mAAAAA\x1b[0m"
	result := Place(Config{Width: 5, Height: 1, Position: Center}, "X", bg)
	assert.Contains(t, result, "\x1b[31m")
	assert.Contains(t, result, "X")
}

func TestCalculatePosition_Anchor(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		fgW, fgH     int
		wantX, wantY int
	}{
		{"fits below", Config{Width: 40, Height: 20, Position: Anchor, X: 5, Y: 3}, 10, 4, 5, 3},
		{"shifted left at right edge", Config{Width: 40, Height: 20, Position: Anchor, X: 35, Y: 3}, 10, 4, 30, 3},
		{"flipped above at bottom", Config{Width: 40, Height: 20, Position: Anchor, X: 5, Y: 18}, 10, 4, 5, 13},
		{"clamped to origin", Config{Width: 8, Height: 3, Position: Anchor, X: 5, Y: 1}, 10, 4, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := calculatePosition(tt.cfg, tt.fgW, tt.fgH)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestCalculatePosition_NegativeClamping(t *testing.T) {
	x, y := calculatePosition(Config{Width: 2, Height: 2, Position: Bottom, PadY: 5}, 10, 10)
	assert.Zero(t, x)
	assert.Zero(t, y)
}
