package tui

import (
	"github.com/charmbracelet/lipgloss"

	"ragchat-client/internal/config"
)

// Styles are built once from the UI config at startup. The deployment
// recolors the client through config, never through code.
type Styles struct {
	Header        lipgloss.Style
	Description   lipgloss.Style
	UserLabel     lipgloss.Style
	AssistantName lipgloss.Style
	UserBubble    lipgloss.Style
	Assistant     lipgloss.Style
	ErrorText     lipgloss.Style
	Meta          lipgloss.Style
	Source        lipgloss.Style
	StatusBar     lipgloss.Style
	Help          lipgloss.Style
}

func NewStyles(ui config.UIConfig) Styles {
	primary := lipgloss.Color(ui.PrimaryColor)
	secondary := lipgloss.Color(ui.SecondaryColor)

	return Styles{
		Header:        lipgloss.NewStyle().Bold(true).Foreground(primary),
		Description:   lipgloss.NewStyle().Faint(true),
		UserLabel:     lipgloss.NewStyle().Bold(true).Foreground(secondary),
		AssistantName: lipgloss.NewStyle().Bold(true).Foreground(primary),
		UserBubble:    lipgloss.NewStyle().PaddingLeft(2),
		Assistant:     lipgloss.NewStyle().PaddingLeft(2),
		ErrorText:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Meta:          lipgloss.NewStyle().Faint(true),
		Source:        lipgloss.NewStyle().Foreground(secondary).Underline(true),
		StatusBar:     lipgloss.NewStyle().Faint(true),
		Help:          lipgloss.NewStyle().Faint(true),
	}
}
