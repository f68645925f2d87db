package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/albator-sec/albator/internal/operation"
	"github.com/albator-sec/albator/internal/report"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// View renders the current state of the run.
func (m Model) View() string {
	var sections []string

	title := fmt.Sprintf("Albator • %s", m.scriptName)
	if m.dryRun {
		title += " (dry-run)"
	}
	sections = append(sections, titleStyle.Render(title))

	sections = append(sections, sectionStyle.Render(fmt.Sprintf("Operations %d/%d", m.completed, m.total)))

	var lines []string
	for _, id := range m.order {
		res := m.results[id]
		icon := report.OutcomeIcon(res.Outcome)
		if res.Outcome == operation.OutcomePending {
			icon = m.spin.View()
		}
		line := fmt.Sprintf(" %s %s", icon, id)
		if strings.TrimSpace(res.Message) != "" {
			line = fmt.Sprintf("%s — %s", line, res.Message)
		}
		if res.Duration > 0 {
			line = fmt.Sprintf("%s (%s)", line, res.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	sections = append(sections, strings.Join(lines, "\n"))

	if m.cancelled {
		sections = append(sections, dimStyle.Render("interrupted — applied changes keep their backups"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
