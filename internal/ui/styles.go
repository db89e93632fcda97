package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	xStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	oStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF")).Bold(true)
	gridStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().MarginTop(1)
	winStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	docStyle    = lipgloss.NewStyle().Margin(1, 2)
)
