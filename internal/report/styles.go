package report

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	Base     = lipgloss.Color("#1e1e2e")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Surface0 = lipgloss.Color("#313244")

	Pink     = lipgloss.Color("#f5c2e7")
	Mauve    = lipgloss.Color("#cba6f7")
	Red      = lipgloss.Color("#f38ba8")
	Peach    = lipgloss.Color("#fab387")
	Green    = lipgloss.Color("#a6e3a1")
	Teal     = lipgloss.Color("#94e2d5")
	Lavender = lipgloss.Color("#b4befe")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(Base).
			Background(Lavender).
			Bold(true).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(Mauve).
			Bold(true).
			Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Foreground(Text).
			Padding(0, 1)

	DigestStyle = lipgloss.NewStyle().
			Foreground(Subtext0).
			Padding(0, 1)

	BorderStyle = lipgloss.NewStyle().Foreground(Surface0)

	BarEmptyStyle = lipgloss.NewStyle().Foreground(Surface0)

	OutcomeRepeatable = lipgloss.NewStyle().Foreground(Green).Bold(true)
	OutcomeMismatch   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	OutcomeFailed     = lipgloss.NewStyle().Foreground(Red).Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(Subtext0).
			Padding(0, 1)
)
