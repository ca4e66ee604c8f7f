package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/docchat/pkg/chat"
)

const documentsWidth = 38

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	botStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("118"))
	timeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	loadingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)

	statusStyles = map[chat.Indicator]lipgloss.Style{
		chat.IndicatorConnected: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		chat.IndicatorError:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		chat.IndicatorUnknown:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}

	transcriptPane = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	documentsPane = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	focusedBorder = lipgloss.Color("205")

	cardTitleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5")).Bold(true)
	cardDescStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#AFAFAF"))
	selectedCardStyle = lipgloss.NewStyle().Background(lipgloss.Color("62"))

	iconStyles = map[chat.Icon]lipgloss.Style{
		chat.IconPDF:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		chat.IconExcel: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		chat.IconWord:  lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true),
		chat.IconFile:  lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true),
	}

	modalStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("170")).
			Padding(1, 3)

	modalTitleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1).
			Bold(true)

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 2)

	linkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// iconLabel is the terminal stand-in for a card icon.
func iconLabel(icon chat.Icon) string {
	label := "FILE"
	switch icon {
	case chat.IconPDF:
		label = "PDF"
	case chat.IconExcel:
		label = "XLS"
	case chat.IconWord:
		label = "DOC"
	}
	return iconStyles[icon].Render("[" + label + "]")
}

func statusLine(status chat.HealthStatus) string {
	dot := "●"
	if status.Indicator == chat.IndicatorUnknown {
		dot = "○"
	}
	style, ok := statusStyles[status.Indicator]
	if !ok {
		style = statusStyles[chat.IndicatorUnknown]
	}
	return style.Render(dot + " " + status.Text)
}
