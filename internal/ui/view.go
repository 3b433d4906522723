package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the dashboard.
func (m Model) View() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	b.WriteString(m.renderSection("Projects", m.projects.View(), m.focus == focusProjects))
	b.WriteByte('\n')

	title := "Pipelines"
	if view, ok := m.selectedProject(); ok {
		title += " · " + view.Project.Name
	}
	b.WriteString(m.renderSection(title, m.pipelines.View(), m.focus == focusPipelines))
	b.WriteByte('\n')

	if m.message != "" {
		style := styles.AccentText
		if m.messageErr {
			style = styles.DangerText
		}
		b.WriteString(styles.Footer.Render(style.Render(truncate(m.message, max(m.width-2, 20)))))
		b.WriteByte('\n')
	}

	if len(m.logs) > 0 {
		var lines []string
		for _, line := range m.logs {
			lines = append(lines, styles.FaintText.Render(truncate(line, max(m.width-2, 40))))
		}
		b.WriteString(styles.Footer.Render(strings.Join(lines, "\n")))
		b.WriteByte('\n')
	}

	b.WriteString(styles.Footer.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderSection(title, body string, focused bool) string {
	styles := m.theme.Styles()
	section := styles.Section
	titleStyle := styles.MutedText
	if focused {
		section = section.BorderForeground(lipgloss.Color(m.theme.Accent))
		titleStyle = styles.AccentText.Bold(true)
	}
	return section.Render(titleStyle.Render(title) + "\n" + body)
}
