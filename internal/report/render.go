package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/albator-sec/albator/internal/operation"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	noopStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	plannedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	flaggedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	summaryStyle = lipgloss.NewStyle().MarginTop(1)
)

// OutcomeIcon returns the glyph representing an operation outcome.
func OutcomeIcon(outcome string) string {
	switch outcome {
	case operation.OutcomeChanged:
		return changedStyle.Render("✓")
	case operation.OutcomeNoop:
		return noopStyle.Render("=")
	case operation.OutcomePlanned:
		return plannedStyle.Render("↻")
	case operation.OutcomeFailed:
		return failedStyle.Render("✗")
	default:
		return noopStyle.Render("…")
	}
}

// Render produces the human-readable run report.
func Render(s *RunSummary) string {
	var lines []string

	title := fmt.Sprintf("Albator • %s", s.ScriptName)
	if s.DryRun {
		title += " (dry-run)"
	}
	lines = append(lines, titleStyle.Render(title))

	for _, res := range s.Results {
		line := fmt.Sprintf(" %s %s — %s", OutcomeIcon(res.Outcome), res.OperationID, res.Message)
		if res.Flagged {
			line += flaggedStyle.Render(" [needs review]")
		}
		if res.Duration > 0 {
			line += fmt.Sprintf(" (%s)", res.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}

	totals := fmt.Sprintf("unchanged: %d, changed: %d, errors: %d", s.NoopCount, s.ChangeCount, s.ErrorCount)
	if s.DryRun {
		totals = fmt.Sprintf("planned: %d, %s", s.PlannedCount, totals)
	}
	if s.FlaggedCount > 0 {
		totals += fmt.Sprintf(", flagged: %d", s.FlaggedCount)
	}
	lines = append(lines, summaryStyle.Render(fmt.Sprintf("%s — %s", statusLabel(s.Status), totals)))

	if s.LedgerPath != "" {
		lines = append(lines, noopStyle.Render("ledger: "+s.LedgerPath))
	} else if !s.DryRun {
		lines = append(lines, flaggedStyle.Render("no ledger finalized: rollback unavailable for this run"))
	}

	return strings.Join(lines, "\n")
}

func statusLabel(status Status) string {
	switch status {
	case StatusAllCompliant:
		return changedStyle.Render("all compliant")
	case StatusChangesApplied:
		return changedStyle.Render("changes applied")
	case StatusCompletedWithErrors:
		return failedStyle.Render("completed with errors")
	default:
		return string(status)
	}
}
