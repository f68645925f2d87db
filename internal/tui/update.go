package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case OperationCompleteMsg:
		id := msg.Result.OperationID
		if id == "" {
			return m, nil
		}
		if _, known := m.results[id]; !known {
			m.order = append(m.order, id)
			m.total++
		}
		m.results[id] = msg.Result
		m.completed++
		if m.total > 0 && m.completed >= m.total {
			m.finished = true
		}
		return m, nil
	case RunDoneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}
