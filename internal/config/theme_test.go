package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/langarchive/catalog/internal/ui/styles"
)

func TestThemeConfig_WithPreset(t *testing.T) {
	cfg := loadConfigFromYAML(t, `
theme:
  preset: nord
`)
	require.Equal(t, "nord", cfg.Theme.Preset)

	require.NoError(t, styles.ApplyTheme(cfg.Theme.Styles()))
	t.Cleanup(func() { _ = styles.ApplyTheme(styles.ThemeConfig{}) })

	require.Equal(t, styles.NordPreset.Colors[styles.TokenTextPrimary], styles.TextPrimaryColor.Dark)
}

func TestThemeConfig_FlattensNestedColors(t *testing.T) {
	cfg := loadConfigFromYAML(t, `
theme:
  colors:
    grid:
      cursor: "#FF0000"
    grid.conflict: "#00FF00"
`)

	colors := cfg.Theme.FlattenedColors()
	require.Equal(t, "#FF0000", colors["grid.cursor"])
	require.Equal(t, "#00FF00", colors["grid.conflict"])

	require.NoError(t, styles.ApplyTheme(cfg.Theme.Styles()))
	t.Cleanup(func() { _ = styles.ApplyTheme(styles.ThemeConfig{}) })
	require.Equal(t, "#FF0000", styles.GridCursorColor.Dark)
}

func TestThemeConfig_FlattenedColors_AnyKeys(t *testing.T) {
	theme := ThemeConfig{Colors: map[string]any{
		"grid": map[any]any{"edited": "#123456", 7: "#ignored"},
	}}
	require.Equal(t, map[string]string{"grid.edited": "#123456"}, theme.FlattenedColors())
}

func TestThemeConfig_InvalidColorToken(t *testing.T) {
	cfg := Defaults()
	cfg.Theme.Colors = map[string]any{"grid.nope": "#FFFFFF"}

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown color token")
}

func TestThemeConfig_InvalidHexColor(t *testing.T) {
	cfg := Defaults()
	cfg.Theme.Colors = map[string]any{"grid.cursor": "blue"}

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid hex color")
}

func TestThemeConfig_EmptyConfig(t *testing.T) {
	cfg := loadConfigFromYAML(t, "auto_refresh: true\n")

	require.Empty(t, cfg.Theme.Preset)
	require.Empty(t, cfg.Theme.FlattenedColors())
	require.NoError(t, styles.ApplyTheme(cfg.Theme.Styles()))
	require.Equal(t, styles.DefaultPreset.Colors[styles.TokenTextPrimary], styles.TextPrimaryColor.Dark)
}
