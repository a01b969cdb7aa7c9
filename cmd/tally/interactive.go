package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/tally/internal/metric"
	"github.com/unbound-force/tally/internal/query"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	tuiBorderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	suppressedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
)

// readModel is the Bubble Tea model for browsing query violations.
type readModel struct {
	result   *query.Result
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	ready    bool
	content  string
}

func newReadModel(res *query.Result) readModel {
	return readModel{
		result:  res,
		help:    help.New(),
		keys:    defaultKeyMap,
		content: renderReadContent(res),
	}
}

func renderReadContent(res *query.Result) string {
	var sb strings.Builder

	errors, warnings := 0, 0
	for _, v := range res.Violations {
		switch v.Status {
		case metric.StatusError:
			errors++
		case metric.StatusWarning:
			warnings++
		}
	}

	sb.WriteString(titleStyle.Render(fmt.Sprintf(
		"Threshold violations: %d error(s), %d warning(s)", errors, warnings)))
	sb.WriteString("\n\n")

	rows := make([][]string, 0, len(res.Violations))
	for _, v := range res.Violations {
		value := "-"
		if v.Value != nil {
			value = v.Value.String()
		}
		status := string(v.Status)
		if v.Suppressed {
			status += " (suppressed)"
		}
		rows = append(rows, []string{
			string(v.Status),
			v.FullyQualifiedName,
			string(v.Metric),
			value,
			status,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tuiBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tuiHeaderStyle
			}
			if col == 4 && row >= 0 && row < len(rows) {
				switch {
				case strings.Contains(rows[row][4], "suppressed"):
					return suppressedStyle
				case rows[row][0] == string(metric.StatusError):
					return errorStyle
				case rows[row][0] == string(metric.StatusWarning):
					return warningStyle
				}
			}
			return lipgloss.NewStyle()
		}).
		Headers("", "SYMBOL", "METRIC", "VALUE", "STATUS").
		Rows(rows...)

	sb.WriteString(t.String())
	sb.WriteString("\n\n")

	// Per-violation detail blocks.
	for _, v := range res.Violations {
		sb.WriteString(tuiHeaderStyle.Render(fmt.Sprintf("=== %s ===", v.FullyQualifiedName)))
		sb.WriteString("\n")
		if v.Location != nil && v.Location.FilePath != "" {
			sb.WriteString(statusBarStyle.Render(fmt.Sprintf(
				"    %s:%d", v.Location.FilePath, v.Location.StartLine)))
			sb.WriteString("\n")
		}
		if v.Delta != nil {
			sb.WriteString(statusBarStyle.Render(fmt.Sprintf(
				"    delta vs baseline: %s", v.Delta)))
			sb.WriteString("\n")
		}
		if v.Suppressed {
			sb.WriteString(suppressedStyle.Render(fmt.Sprintf(
				"    suppressed: %s", v.Justification)))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m readModel) Init() tea.Cmd {
	return nil
}

func (m readModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 0
		footerHeight := 2
		verticalMargin := headerHeight + footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-verticalMargin)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - verticalMargin
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m readModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusBarStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveRead launches the Bubble Tea TUI for browsing
// violations.
func runInteractiveRead(res *query.Result) error {
	model := newReadModel(res)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
