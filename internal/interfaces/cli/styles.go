package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lite-lake/zonesync/internal/domain/valueobject"
)

const (
	ColorPrimary   = "#7C3AED"
	ColorSuccess   = "#10B981"
	ColorWarning   = "#F59E0B"
	ColorError     = "#EF4444"
	ColorSecondary = "#6B7280"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPrimary))

	ZoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSuccess)).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondary))

	KeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorPrimary))

	ChangeCreateStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorSuccess))

	ChangeUpdateStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorWarning))

	ChangeDeleteStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorError))

	ChangeNoopStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondary))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSuccess))
)

func FormatOperationKind(kind valueobject.OperationKind) (prefix string, style lipgloss.Style) {
	switch kind {
	case valueobject.OperationCreate:
		return "+", ChangeCreateStyle
	case valueobject.OperationPatch, valueobject.OperationZoneUpdate:
		return "~", ChangeUpdateStyle
	case valueobject.OperationDelete:
		return "-", ChangeDeleteStyle
	default:
		return " ", ChangeNoopStyle
	}
}
