package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/taskline-app/taskline/internal/view"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	helpStyle   = lipgloss.NewStyle().Faint(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	doneStyle   = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	cursorStyle = lipgloss.NewStyle().Bold(true)

	urgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	soonStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	plentyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// tierStyle maps an urgency tier to its countdown style.
func tierStyle(tier view.Tier) lipgloss.Style {
	switch tier {
	case view.TierUrgent:
		return urgentStyle
	case view.TierSoon:
		return soonStyle
	default:
		return plentyStyle
	}
}
