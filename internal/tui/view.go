package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gyeh/drgref/internal/notice"
	"github.com/gyeh/drgref/internal/projection"
	"github.com/gyeh/drgref/internal/screen"
)

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTabStyle = tabStyle.Foreground(lipgloss.Color("231")).Background(lipgloss.Color("25")).Bold(true)
	titleStyle     = lipgloss.NewStyle().Bold(true)
	focusedStyle   = titleStyle.Foreground(lipgloss.Color("39"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle  = cellStyle.Reverse(true)
	highStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	lowStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	statusStyles = map[notice.Kind]lipgloss.Style{
		notice.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		notice.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		notice.Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
)

const defaultPaneRows = 10

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if len(m.tabs) == 0 {
		return "no screens\n"
	}
	t := m.tabs[m.active]

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.mode != modeNone {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	rows := m.paneRows(len(t.screen.Panes()))
	for _, p := range t.screen.Panes() {
		b.WriteString(renderPane(p, t.cursor[p.ID], p.ID == t.focused(), rows))
		b.WriteString("\n")
	}

	if m.hasStatus {
		b.WriteString(statusStyles[m.status.Kind].Render(m.status.String()))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(m.renderHelp()))
	return b.String()
}

func (m *Model) renderTabs() string {
	parts := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		label := fmt.Sprintf("F%d %s", i+1, t.screen.Title())
		if i == m.active {
			parts[i] = activeTabStyle.Render(label)
		} else {
			parts[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHelp() string {
	var bindings []string
	for _, b := range []key.Binding{
		m.keys.Focus, m.keys.Up, m.keys.Down, m.keys.Filter, m.keys.Submit, m.keys.Clear, m.keys.Quit,
	} {
		h := b.Help()
		bindings = append(bindings, h.Key+" "+h.Desc)
	}
	return strings.Join(bindings, " • ")
}

// paneRows splits the terminal height between n panes.
func (m *Model) paneRows(n int) int {
	if m.height == 0 || n == 0 {
		return defaultPaneRows
	}
	rows := (m.height-8)/n - 5
	if rows < 3 {
		rows = 3
	}
	return rows
}

func renderPane(p *screen.Pane, cursor int, focused bool, maxRows int) string {
	title := fmt.Sprintf("%s (%d/%d)", p.Title, p.Projection.VisibleCount(), p.Projection.TotalRows())
	if pattern, _, _ := p.Projection.Filter(); pattern != "" {
		title += "  过滤: " + pattern
	}
	if focused {
		title = focusedStyle.Render("▶ " + title)
	} else {
		title = titleStyle.Render("  " + title)
	}

	visible := p.Projection.Visible()
	if len(visible) == 0 {
		placeholder := p.Projection.Placeholder()
		if placeholder == "" {
			placeholder = "-"
		}
		return title + "\n  " + dimStyle.Render(placeholder) + "\n"
	}

	start, end := window(cursor, len(visible), maxRows)
	data := make([][]string, 0, end-start)
	for _, r := range visible[start:end] {
		data = append(data, r.Texts())
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(p.Projection.Columns()...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			style := cellStyle
			if start+row == cursor {
				style = selectedStyle
			}
			if col < len(visible[start+row]) {
				style = emphasize(style, visible[start+row][col].Emphasis)
			}
			return style
		})
	return title + "\n" + tbl.Render() + "\n"
}

func emphasize(s lipgloss.Style, e projection.Emphasis) lipgloss.Style {
	switch e {
	case projection.EmphasisHigh:
		return s.Inherit(highStyle)
	case projection.EmphasisLow:
		return s.Inherit(lowStyle)
	default:
		return s
	}
}

// window returns the [start, end) slice of n rows to show so the cursor
// stays in view.
func window(cursor, n, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := 0
	if cursor >= size {
		start = cursor - size + 1
	}
	return start, start + size
}
