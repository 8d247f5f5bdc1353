package overlay

import "github.com/charmbracelet/lipgloss"

var (
	textPrimaryColor = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"}
	textMutedColor   = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"}
	borderColor      = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	highlightColor   = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#54A0FF"}
	dropZoneColor    = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warningColor     = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#FECA57"}
	errorColor       = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	uploadColor      = lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(textPrimaryColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(textMutedColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	statusBadgeStyle = lipgloss.NewStyle().
				Bold(true).
				Padding(0, 1).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#1A5276"))

	dragBadgeStyle = statusBadgeStyle.Background(lipgloss.Color("#922B21"))
)

// boxStyles colors page map boxes by kind.
var boxStyles = map[boxKind]lipgloss.Style{
	boxDropZone:    lipgloss.NewStyle().Foreground(dropZoneColor),
	boxActiveZone:  lipgloss.NewStyle().Foreground(dropZoneColor).Bold(true),
	boxInvalidZone: lipgloss.NewStyle().Foreground(errorColor).Bold(true),
	boxHighlighted: lipgloss.NewStyle().Foreground(highlightColor),
	boxWarning:     lipgloss.NewStyle().Foreground(warningColor),
	boxUpload:      lipgloss.NewStyle().Foreground(uploadColor),
	boxInsert:      lipgloss.NewStyle().Foreground(warningColor).Bold(true),
}
