// Package ui is the terminal front end: one tab per entity panel, each with
// its own list state and create dialog.
package ui

import (
	"strings"

	"comptes-client/internal/domain"
	"comptes-client/internal/screens"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type tab interface {
	Title() string
	Init() tea.Cmd
	Update(tea.Msg) tea.Cmd
	View() string
	Capturing() bool
	Submitting() bool
	help() []key.Binding
}

type Gateway interface {
	screens.CompteGateway
	screens.TransactionGateway
}

// App is the root model. Panels are pointers, so copies of App share them.
type App struct {
	Comptes      *PanelModel[domain.Compte]
	Transactions *PanelModel[domain.Transaction]

	tabs   []tab
	active int
	width  int
	height int
	keys   KeyMap
	help   help.Model
	styles styles
}

func NewApp(gw Gateway, opts PanelOptions) App {
	comptes := NewPanelModel(screens.Comptes(gw), opts)
	transactions := NewPanelModel(screens.Transactions(gw), opts)
	return App{
		Comptes:      comptes,
		Transactions: transactions,
		tabs:         []tab{comptes, transactions},
		keys:         DefaultKeyMap,
		help:         help.New(),
		styles:       newStyles(opts.Theme),
	}
}

func (a App) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(a.tabs))
	for _, t := range a.tabs {
		cmds = append(cmds, t.Init())
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width

	case tea.KeyMsg:
		current := a.tabs[a.active]
		if current.Submitting() && key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}
		if current.Capturing() {
			return a, current.Update(msg)
		}
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.NextTab):
			a.active = (a.active + 1) % len(a.tabs)
			return a, nil
		case key.Matches(msg, a.keys.Tab1):
			a.active = 0
			return a, nil
		case key.Matches(msg, a.keys.Tab2):
			a.active = 1
			return a, nil
		}
		return a, current.Update(msg)
	}

	// Results, window sizes and form ticks go to every panel; each checks
	// whether the message is its own.
	cmds := make([]tea.Cmd, 0, len(a.tabs))
	for _, t := range a.tabs {
		cmds = append(cmds, t.Update(msg))
	}
	return a, tea.Batch(cmds...)
}

func (a App) View() string {
	var b strings.Builder

	titles := make([]string, 0, len(a.tabs))
	for i, t := range a.tabs {
		if i == a.active {
			titles = append(titles, a.styles.active.Render(t.Title()))
		} else {
			titles = append(titles, a.styles.tab.Render(t.Title()))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, titles...))
	b.WriteString("\n\n")

	current := a.tabs[a.active]
	b.WriteString(current.View())
	b.WriteString("\n")

	bindings := current.help()
	if !current.Capturing() {
		bindings = append(bindings, a.keys.NextTab, a.keys.Quit)
	}
	b.WriteString(a.styles.help.Render(a.help.ShortHelpView(bindings)))
	return b.String()
}

// Active is the title of the selected tab.
func (a App) Active() string {
	return a.tabs[a.active].Title()
}
