package styles

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ThemeConfig mirrors config.ThemeConfig to avoid circular imports.
type ThemeConfig struct {
	Preset string
	Colors map[string]string
}

// colorVars maps each token to the variable it drives.
var colorVars = map[ColorToken][]*lipgloss.AdaptiveColor{
	TokenTextPrimary:        {&TextPrimaryColor},
	TokenTextSecondary:      {&TextSecondaryColor},
	TokenTextMuted:          {&TextMutedColor},
	TokenBorderDefault:      {&BorderDefaultColor},
	TokenBorderFocus:        {&BorderFocusColor},
	TokenStatusSuccess:      {&StatusSuccessColor},
	TokenStatusWarning:      {&StatusWarningColor},
	TokenStatusError:        {&StatusErrorColor},
	TokenSelectionIndicator: {&SelectionIndicatorColor},
	TokenOverlayTitle:       {&OverlayTitleColor},
	TokenOverlayBorder:      {&OverlayBorderColor},
	TokenToastSuccess:       {&ToastBorderSuccessColor},
	TokenToastError:         {&ToastBorderErrorColor},
	TokenToastInfo:          {&ToastBorderInfoColor},
	TokenToastWarn:          {&ToastBorderWarnColor},
	TokenGridHeader:         {&GridHeaderColor},
	TokenGridCursor:         {&GridCursorColor},
	TokenGridRange:          {&GridRangeColor},
	TokenGridEdited:         {&GridEditedColor},
	TokenGridInvalid:        {&GridInvalidColor},
	TokenGridValidating:     {&GridValidatingColor},
	TokenGridConflict:       {&GridConflictColor},
	TokenGridReadOnly:       {&GridReadOnlyColor},
	TokenGridDraft:          {&GridDraftColor},
	TokenGridChecked:        {&GridCheckedColor},
	TokenChipBackground:     {&ChipBackgroundColor},
}

// ApplyTheme applies a theme configuration.
// Order of application:
// 1. Start with default colors
// 2. Apply preset (if specified)
// 3. Apply individual color overrides
// 4. Rebuild all Style objects
func ApplyTheme(cfg ThemeConfig) error {
	colors := maps.Clone(DefaultPreset.Colors)

	if cfg.Preset != "" && cfg.Preset != "default" {
		preset, ok := Presets[cfg.Preset]
		if !ok {
			return fmt.Errorf("unknown theme preset: %s", cfg.Preset)
		}
		maps.Copy(colors, preset.Colors)
	}

	for key, value := range cfg.Colors {
		token := ColorToken(key)
		if !isValidToken(token) {
			return fmt.Errorf("unknown color token: %s", key)
		}
		if !isValidHexColor(value) {
			return fmt.Errorf("invalid hex color for %s: %s", key, value)
		}
		colors[token] = value
	}

	for token, hex := range colors {
		for _, v := range colorVars[token] {
			*v = lipgloss.AdaptiveColor{Light: hex, Dark: hex}
		}
	}
	rebuildStyles()
	return nil
}

// ValidateTheme checks a theme without applying it.
func ValidateTheme(cfg ThemeConfig) error {
	if cfg.Preset != "" {
		if _, ok := Presets[cfg.Preset]; !ok {
			return fmt.Errorf("unknown theme preset: %s", cfg.Preset)
		}
	}
	for key, value := range cfg.Colors {
		if !isValidToken(ColorToken(key)) {
			return fmt.Errorf("unknown color token: %s", key)
		}
		if !isValidHexColor(value) {
			return fmt.Errorf("invalid hex color for %s: %s", key, value)
		}
	}
	return nil
}

func isValidToken(token ColorToken) bool {
	return slices.Contains(AllTokens(), token)
}

func isValidHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	hex := s[1:]
	if len(hex) != 3 && len(hex) != 6 {
		return false
	}
	_, err := strconv.ParseUint(hex, 16, 64)
	return err == nil
}
