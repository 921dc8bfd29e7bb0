package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
)

func TestApplyTheme_Default(t *testing.T) {
	require.NoError(t, ApplyTheme(ThemeConfig{}))
	require.Equal(t, DefaultPreset.Colors[TokenGridEdited], GridEditedColor.Dark)
}

func TestApplyTheme_PresetWithOverride(t *testing.T) {
	defer func() { _ = ApplyTheme(ThemeConfig{}) }()

	require.NoError(t, ApplyTheme(ThemeConfig{
		Preset: "nord",
		Colors: map[string]string{"grid.invalid": "#00FF00"},
	}))
	require.Equal(t, "#00FF00", GridInvalidColor.Dark)
	require.Equal(t, NordPreset.Colors[TokenGridConflict], GridConflictColor.Dark)
}

func TestApplyTheme_Rejects(t *testing.T) {
	require.ErrorContains(t, ApplyTheme(ThemeConfig{Preset: "sepia"}), "unknown theme preset")
	require.ErrorContains(t, ApplyTheme(ThemeConfig{Colors: map[string]string{"board.column": "#FFF"}}), "unknown color token")
	require.ErrorContains(t, ApplyTheme(ThemeConfig{Colors: map[string]string{"grid.edited": "yellow"}}), "invalid hex color")
	require.NoError(t, ValidateTheme(ThemeConfig{Preset: "high-contrast", Colors: map[string]string{"chip.bg": "#000"}}))
}

func TestPresetsCoverEveryToken(t *testing.T) {
	for name, p := range Presets {
		for _, token := range AllTokens() {
			_, ok := p.Colors[token]
			require.True(t, ok, "preset %s is missing %s", name, token)
		}
	}
	for _, token := range AllTokens() {
		require.NotEmpty(t, colorVars[token], "token %s drives no color", token)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Kamuy yukar", 20, "Kamuy yukar"},
		{"Kamuy yukar", 6, "Kamuy…"},
		{"Kamuy yukar", 1, "…"},
		{"Kamuy yukar", 0, ""},
		{"アイヌ語", 5, "アイ…"},
		{"été", 3, "été"},
	}
	for _, tt := range tests {
		got := TruncateString(tt.in, tt.width)
		require.Equal(t, tt.want, got, "TruncateString(%q, %d)", tt.in, tt.width)
		require.LessOrEqual(t, DisplayWidth(got), max(tt.width, 0))
	}
}

func TestFitString(t *testing.T) {
	require.Equal(t, "Ainu  ", FitString("Ainu", 6))
	require.Equal(t, "Hokk…", FitString("Hokkaido Ainu", 5))
	require.Equal(t, 5, DisplayWidth(FitString("アイヌ語", 5)))
}

func TestRenderSection(t *testing.T) {
	out := RenderSection([]string{"ainu", "japanese"}, "Languages", "enter to add", 30, true)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	for _, l := range lines {
		require.Equal(t, 30, lipgloss.Width(l))
	}
	require.Contains(t, lines[0], "Languages")
}
