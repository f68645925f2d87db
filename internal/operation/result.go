package operation

import (
	"time"
)

const (
	// OutcomeNoop indicates the operation was already compliant at probe time.
	OutcomeNoop = "noop"
	// OutcomeChanged marks a successful apply confirmed by verification.
	OutcomeChanged = "changed"
	// OutcomePlanned indicates dry-run mode produced a PlannedAction.
	OutcomePlanned = "planned"
	// OutcomeFailed marks a backup, apply, or verification failure.
	OutcomeFailed = "failed"
	// OutcomePending indicates the operation has not run yet.
	OutcomePending = "pending"
)

// Result captures the outcome of running a single operation.
type Result struct {
	OperationID string
	Description string
	Outcome     string
	Message     string
	State       ComplianceState
	// Flagged marks operations whose probe returned Unknown; they proceed
	// as non-compliant but need human review.
	Flagged   bool
	Planned   *PlannedAction
	Err       error
	Duration  time.Duration
	Timestamp time.Time
}
