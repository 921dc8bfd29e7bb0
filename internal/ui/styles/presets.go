package styles

import "maps"

// Preset represents a complete color theme.
type Preset struct {
	Name        string
	Description string
	Colors      map[ColorToken]string
}

// Presets contains all built-in theme presets.
var Presets = map[string]Preset{
	"default":       DefaultPreset,
	"nord":          NordPreset,
	"high-contrast": HighContrastPreset,
}

// DefaultPreset matches the Dark values of the color variables.
var DefaultPreset = Preset{
	Name:        "default",
	Description: "Default catalog theme",
	Colors: map[ColorToken]string{
		TokenTextPrimary:        "#CCCCCC",
		TokenTextSecondary:      "#BBBBBB",
		TokenTextMuted:          "#696969",
		TokenBorderDefault:      "#696969",
		TokenBorderFocus:        "#54A0FF",
		TokenStatusSuccess:      "#73F59F",
		TokenStatusWarning:      "#FECA57",
		TokenStatusError:        "#FF8787",
		TokenSelectionIndicator: "#FFFFFF",
		TokenOverlayTitle:       "#C9C9C9",
		TokenOverlayBorder:      "#8C8C8C",
		TokenToastSuccess:       "#73F59F",
		TokenToastError:         "#FF8787",
		TokenToastInfo:          "#54A0FF",
		TokenToastWarn:          "#FECA57",
		TokenGridHeader:         "#89B4FA",
		TokenGridCursor:         "#3498DB",
		TokenGridRange:          "#1F3A56",
		TokenGridEdited:         "#F9E2AF",
		TokenGridInvalid:        "#FF8787",
		TokenGridValidating:     "#8C8C8C",
		TokenGridConflict:       "#FAB387",
		TokenGridReadOnly:       "#777777",
		TokenGridDraft:          "#94E2D5",
		TokenGridChecked:        "#CBA6F7",
		TokenChipBackground:     "#3A3A3A",
	},
}

// NordPreset is based on the Nord palette.
var NordPreset = Preset{
	Name:        "nord",
	Description: "Arctic, north-bluish palette",
	Colors: overlay(DefaultPreset.Colors, map[ColorToken]string{
		TokenTextPrimary:    "#ECEFF4",
		TokenTextSecondary:  "#D8DEE9",
		TokenTextMuted:      "#4C566A",
		TokenBorderDefault:  "#4C566A",
		TokenBorderFocus:    "#88C0D0",
		TokenStatusSuccess:  "#A3BE8C",
		TokenStatusWarning:  "#EBCB8B",
		TokenStatusError:    "#BF616A",
		TokenGridHeader:     "#81A1C1",
		TokenGridCursor:     "#88C0D0",
		TokenGridRange:      "#3B4252",
		TokenGridEdited:     "#EBCB8B",
		TokenGridInvalid:    "#BF616A",
		TokenGridConflict:   "#D08770",
		TokenGridDraft:      "#8FBCBB",
		TokenGridChecked:    "#B48EAD",
		TokenChipBackground: "#434C5E",
	}),
}

// HighContrastPreset trades subtlety for legibility.
var HighContrastPreset = Preset{
	Name:        "high-contrast",
	Description: "Maximum contrast for accessibility",
	Colors: overlay(DefaultPreset.Colors, map[ColorToken]string{
		TokenTextPrimary:    "#FFFFFF",
		TokenTextSecondary:  "#FFFFFF",
		TokenTextMuted:      "#BBBBBB",
		TokenBorderDefault:  "#FFFFFF",
		TokenBorderFocus:    "#FFFF00",
		TokenGridCursor:     "#FFFF00",
		TokenGridRange:      "#0000AA",
		TokenGridEdited:     "#FFFF00",
		TokenGridInvalid:    "#FF0000",
		TokenGridConflict:   "#FF8800",
		TokenChipBackground: "#000000",
	}),
}

func overlay(base, over map[ColorToken]string) map[ColorToken]string {
	out := maps.Clone(base)
	maps.Copy(out, over)
	return out
}
