// Package styles contains Lip Gloss style definitions.
package styles

// ColorToken represents a named, themeable color.
// These are the keys users can override in their config.
type ColorToken string

const (
	// Text hierarchy
	TokenTextPrimary   ColorToken = "text.primary"
	TokenTextSecondary ColorToken = "text.secondary"
	TokenTextMuted     ColorToken = "text.muted"

	// Borders
	TokenBorderDefault ColorToken = "border.default"
	TokenBorderFocus   ColorToken = "border.focus"

	// Status indicators
	TokenStatusSuccess ColorToken = "status.success"
	TokenStatusWarning ColorToken = "status.warning"
	TokenStatusError   ColorToken = "status.error"

	TokenSelectionIndicator ColorToken = "selection.indicator"

	// Overlays
	TokenOverlayTitle  ColorToken = "overlay.title"
	TokenOverlayBorder ColorToken = "overlay.border"

	// Toast notifications
	TokenToastSuccess ColorToken = "toast.success"
	TokenToastError   ColorToken = "toast.error"
	TokenToastInfo    ColorToken = "toast.info"
	TokenToastWarn    ColorToken = "toast.warn"

	// Grid
	TokenGridHeader     ColorToken = "grid.header"
	TokenGridCursor     ColorToken = "grid.cursor"
	TokenGridRange      ColorToken = "grid.range"
	TokenGridEdited     ColorToken = "grid.edited"
	TokenGridInvalid    ColorToken = "grid.invalid"
	TokenGridValidating ColorToken = "grid.validating"
	TokenGridConflict   ColorToken = "grid.conflict"
	TokenGridReadOnly   ColorToken = "grid.readonly"
	TokenGridDraft      ColorToken = "grid.draft"
	TokenGridChecked    ColorToken = "grid.checked"

	// Editors
	TokenChipBackground ColorToken = "chip.bg"
)

// AllTokens returns all valid color tokens for validation.
func AllTokens() []ColorToken {
	return []ColorToken{
		TokenTextPrimary, TokenTextSecondary, TokenTextMuted,
		TokenBorderDefault, TokenBorderFocus,
		TokenStatusSuccess, TokenStatusWarning, TokenStatusError,
		TokenSelectionIndicator,
		TokenOverlayTitle, TokenOverlayBorder,
		TokenToastSuccess, TokenToastError, TokenToastInfo, TokenToastWarn,
		TokenGridHeader, TokenGridCursor, TokenGridRange, TokenGridEdited, TokenGridInvalid,
		TokenGridValidating, TokenGridConflict, TokenGridReadOnly, TokenGridDraft, TokenGridChecked,
		TokenChipBackground,
	}
}
