package styles

import "github.com/charmbracelet/lipgloss"

var (
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#696969"} // Hints, footers

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#D4A017", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}

	OverlayTitleColor  = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#C9C9C9"}
	OverlayBorderColor = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#8C8C8C"}

	ToastBorderSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	ToastBorderErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	ToastBorderInfoColor    = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	ToastBorderWarnColor    = lipgloss.AdaptiveColor{Light: "#D4A017", Dark: "#FECA57"}

	GridHeaderColor     = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#89B4FA"}
	GridCursorColor     = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#3498DB"}
	GridRangeColor      = lipgloss.AdaptiveColor{Light: "#D6EAF8", Dark: "#1F3A56"}
	GridEditedColor     = lipgloss.AdaptiveColor{Light: "#B7950B", Dark: "#F9E2AF"}
	GridInvalidColor    = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF8787"}
	GridValidatingColor = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#8C8C8C"}
	GridConflictColor   = lipgloss.AdaptiveColor{Light: "#D35400", Dark: "#FAB387"}
	GridReadOnlyColor   = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#777777"}
	GridDraftColor      = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#94E2D5"}
	GridCheckedColor    = lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"}

	ChipBackgroundColor = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#3A3A3A"}
)

// Styles built from the colors above. rebuildStyles recreates them after a
// theme is applied.
var (
	SelectionIndicatorStyle lipgloss.Style
	StatusBarStyle          lipgloss.Style
	ErrorStyle              lipgloss.Style
	HintStyle               lipgloss.Style

	HeaderStyle          lipgloss.Style
	CursorCellStyle      lipgloss.Style
	RangeCellStyle       lipgloss.Style
	EditedCellStyle      lipgloss.Style
	InvalidCellStyle     lipgloss.Style
	ValidatingCellStyle  lipgloss.Style
	ConflictCellStyle    lipgloss.Style
	ReadOnlyCellStyle    lipgloss.Style
	DraftMarkerStyle     lipgloss.Style
	CheckedMarkerStyle   lipgloss.Style
	ChipStyle            lipgloss.Style
	EditorBoxStyle       lipgloss.Style
	EditorHighlightStyle lipgloss.Style
)

func init() { rebuildStyles() }

func rebuildStyles() {
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)
	StatusBarStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor).Padding(0, 1)
	ErrorStyle = lipgloss.NewStyle().Foreground(StatusErrorColor).Bold(true).Padding(1, 2)
	HintStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(GridHeaderColor)
	CursorCellStyle = lipgloss.NewStyle().Reverse(true).Foreground(GridCursorColor)
	RangeCellStyle = lipgloss.NewStyle().Background(GridRangeColor)
	EditedCellStyle = lipgloss.NewStyle().Foreground(GridEditedColor)
	InvalidCellStyle = lipgloss.NewStyle().Foreground(GridInvalidColor).Underline(true)
	ValidatingCellStyle = lipgloss.NewStyle().Foreground(GridValidatingColor).Italic(true)
	ConflictCellStyle = lipgloss.NewStyle().Foreground(GridConflictColor).Bold(true)
	ReadOnlyCellStyle = lipgloss.NewStyle().Foreground(GridReadOnlyColor)
	DraftMarkerStyle = lipgloss.NewStyle().Foreground(GridDraftColor)
	CheckedMarkerStyle = lipgloss.NewStyle().Foreground(GridCheckedColor).Bold(true)
	ChipStyle = lipgloss.NewStyle().Background(ChipBackgroundColor).Padding(0, 1)
	EditorBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(BorderFocusColor)
	EditorHighlightStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)
}
