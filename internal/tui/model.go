package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/albator-sec/albator/internal/operation"
)

// OperationCompleteMsg reports that one operation has finished.
type OperationCompleteMsg struct {
	Result operation.Result
}

// RunDoneMsg signals that the engine finished the whole catalog.
type RunDoneMsg struct{}

// Model contains the Bubbletea state for a hardening run.
type Model struct {
	scriptName string
	dryRun     bool
	order      []string
	results    map[string]operation.Result
	spin       spinner.Model
	total      int
	completed  int
	finished   bool
	cancelled  bool
}

// NewModel constructs a TUI model for the given catalog.
func NewModel(scriptName string, ops []operation.Operation, dryRun bool) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := Model{
		scriptName: scriptName,
		dryRun:     dryRun,
		results:    make(map[string]operation.Result, len(ops)),
		spin:       spin,
	}

	for _, op := range ops {
		m.results[op.ID] = operation.Result{
			OperationID: op.ID,
			Description: op.Description,
			Outcome:     operation.OutcomePending,
		}
		m.order = append(m.order, op.ID)
		m.total++
	}

	return m
}

// Init starts the spinner tick loop.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// IsFinished reports whether the run has completed.
func (m Model) IsFinished() bool {
	return m.finished
}

// Cancelled reports whether the user interrupted the run.
func (m Model) Cancelled() bool {
	return m.cancelled
}
