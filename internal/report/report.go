package report

import (
	"time"

	"github.com/albator-sec/albator/internal/operation"
)

// Status classifies a completed hardening run.
type Status string

const (
	// StatusAllCompliant means every operation probed compliant; nothing changed.
	StatusAllCompliant Status = "all_compliant"
	// StatusChangesApplied means at least one change was applied and verified.
	StatusChangesApplied Status = "changes_applied"
	// StatusCompletedWithErrors means one or more operations failed.
	StatusCompletedWithErrors Status = "completed_with_errors"
)

// Exit codes for the harden command. ExitNoop is distinct from ExitOK so
// automation can detect runs that changed nothing.
const (
	ExitOK    = 0
	ExitError = 1
	ExitNoop  = 10
)

// RunSummary aggregates per-operation outcomes for one invocation.
type RunSummary struct {
	ScriptName   string
	StartedAt    time.Time
	FinishedAt   time.Time
	DryRun       bool
	NoopCount    int
	ChangeCount  int
	PlannedCount int
	ErrorCount   int
	FlaggedCount int
	Status       Status
	Results      []operation.Result
	// LedgerPath is empty for dry runs and for runs interrupted before
	// finalize; such runs have no rollback artifact.
	LedgerPath string
}

// Record folds one operation result into the summary.
func (s *RunSummary) Record(res operation.Result) {
	s.Results = append(s.Results, res)
	if res.Flagged {
		s.FlaggedCount++
	}
	switch res.Outcome {
	case operation.OutcomeNoop:
		s.NoopCount++
	case operation.OutcomeChanged:
		s.ChangeCount++
	case operation.OutcomePlanned:
		s.PlannedCount++
	case operation.OutcomeFailed:
		s.ErrorCount++
	}
}

// Finish stamps the end time and derives the run status.
func (s *RunSummary) Finish() {
	s.FinishedAt = time.Now()
	switch {
	case s.ErrorCount > 0:
		s.Status = StatusCompletedWithErrors
	case s.ChangeCount > 0:
		s.Status = StatusChangesApplied
	default:
		s.Status = StatusAllCompliant
	}
}

// ExitCode maps the run status onto the process exit code. The no-op code
// is run-level: a run with zero changes and zero errors exits 10 even when
// individual operations were planned in dry-run mode.
func (s *RunSummary) ExitCode() int {
	switch {
	case s.ErrorCount > 0:
		return ExitError
	case s.ChangeCount > 0:
		return ExitOK
	default:
		return ExitNoop
	}
}
