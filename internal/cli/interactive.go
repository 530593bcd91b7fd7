package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm2map/position"
)

// chrome is the number of screen lines used by everything but the table.
const chrome = 7

type browserModel struct {
	filename   string
	points     []position.CodePoint
	shown      int
	codeOffset uint64

	table  table.Model
	filter textinput.Model
}

func newBrowserModel(filename string, codeOffset uint64, points []position.CodePoint, filter string) *browserModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Address", Width: 10},
			{Title: "Line", Width: 7},
			{Title: "Col", Width: 5},
			{Title: "Source", Width: 60},
		}),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4"))
	t.SetStyles(styles)

	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter by source path"
	ti.Width = 40
	ti.SetValue(filter)

	m := &browserModel{
		filename:   filename,
		points:     points,
		codeOffset: codeOffset,
		table:      t,
		filter:     ti,
	}
	m.applyFilter()
	return m
}

func (m *browserModel) applyFilter() {
	needle := m.filter.Value()
	rows := make([]table.Row, 0, len(m.points))
	for _, p := range m.points {
		if needle != "" && !strings.Contains(p.Path, needle) {
			continue
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("0x%08x", p.Address),
			strconv.Itoa(int(p.Line)),
			strconv.Itoa(int(p.Column)),
			p.Path,
		})
	}
	m.shown = len(rows)
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - chrome; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		if m.filter.Focused() {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "enter", "esc":
				m.filter.Blur()
				m.table.Focus()
				return m, nil
			}
			var cmd tea.Cmd
			before := m.filter.Value()
			m.filter, cmd = m.filter.Update(msg)
			if m.filter.Value() != before {
				m.applyFilter()
			}
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "/":
			m.table.Blur()
			return m, m.filter.Focus()
		case "esc":
			if m.filter.Value() != "" {
				m.filter.SetValue("")
				m.applyFilter()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("wasm2map"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString(helpStyle.Render(fmt.Sprintf("  code offset 0x%08x", m.codeOffset)))
	b.WriteString("\n\n")

	if len(m.points) == 0 {
		b.WriteString(errorStyle.Render("No positions: the binary's line tables are empty."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q quit"))
		return b.String()
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString(helpStyle.Render(fmt.Sprintf("  %d of %d", m.shown, len(m.points))))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("↑/↓ move • / filter • esc clear • q quit"))
	return b.String()
}

func runInteractive(filename string, codeOffset uint64, points []position.CodePoint, filter string) error {
	p := tea.NewProgram(newBrowserModel(filename, codeOffset, points, filter), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
