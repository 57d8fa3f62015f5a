package ui

import "github.com/charmbracelet/lipgloss"

// Theme colors use ANSI 256 codes.
type Theme struct {
	NormalText         lipgloss.Color
	FaintText          lipgloss.Color
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color
	HeaderForeground   lipgloss.Color
	ActiveTab          lipgloss.Color
	ErrorText          lipgloss.Color
	BorderColor        lipgloss.Color
	HelpText           lipgloss.Color
}

var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("255"),
	HeaderForeground:   lipgloss.Color("39"),
	ActiveTab:          lipgloss.Color("214"),
	ErrorText:          lipgloss.Color("196"),
	BorderColor:        lipgloss.Color("240"),
	HelpText:           lipgloss.Color("241"),
}

type styles struct {
	normal   lipgloss.Style
	faint    lipgloss.Style
	selected lipgloss.Style
	header   lipgloss.Style
	tab      lipgloss.Style
	active   lipgloss.Style
	err      lipgloss.Style
	dialog   lipgloss.Style
	help     lipgloss.Style
}

func newStyles(theme Theme) styles {
	return styles{
		normal:   lipgloss.NewStyle().Foreground(theme.NormalText),
		faint:    lipgloss.NewStyle().Foreground(theme.FaintText),
		selected: lipgloss.NewStyle().Foreground(theme.SelectedForeground).Background(theme.SelectedBackground).Bold(true),
		header:   lipgloss.NewStyle().Foreground(theme.HeaderForeground).Bold(true),
		tab:      lipgloss.NewStyle().Foreground(theme.FaintText).Padding(0, 1),
		active:   lipgloss.NewStyle().Foreground(theme.ActiveTab).Bold(true).Underline(true).Padding(0, 1),
		err:      lipgloss.NewStyle().Foreground(theme.ErrorText),
		dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.BorderColor).
			Padding(0, 1),
		help: lipgloss.NewStyle().Foreground(theme.HelpText),
	}
}
