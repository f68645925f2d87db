package operation

import (
	"context"
	"strings"
	"time"
)

// ValueNotSet is the sentinel recorded when a setting has no current value.
// Restore must map it to "remove/unset", never to an empty string write.
const ValueNotSet = "NOT_SET"

// ComplianceState classifies a probed setting against its target.
type ComplianceState string

const (
	// StateCompliant means the current value already matches the target.
	StateCompliant ComplianceState = "compliant"
	// StateNonCompliant means the setting is readable but holds the wrong value.
	StateNonCompliant ComplianceState = "non_compliant"
	// StateUnknown means the current value could not be read at all. It is
	// never collapsed into either of the other two states.
	StateUnknown ComplianceState = "unknown"
)

// ProbeResult is the outcome of a read-only state check.
type ProbeResult struct {
	State    ComplianceState
	RawValue string
}

// Handler is the capability set a provider supplies for one operation.
//
// Probe MUST be strictly read-only. Apply mutates the system toward the
// operation's target. Restore re-applies a previously recorded raw value,
// treating ValueNotSet as "unset". Plan describes the mutation Apply would
// perform, for dry-run output.
type Handler interface {
	Probe(ctx context.Context) (ProbeResult, error)
	Apply(ctx context.Context) error
	Restore(ctx context.Context, priorRawValue string) error
	Plan() string
}

// Operation is an immutable descriptor for one reversible configuration
// change. Catalogs are provider-owned and built once per run.
type Operation struct {
	ID          string
	Description string
	Domain      string
	// Target is the expected probe raw value after a successful apply.
	Target string
	// TargetSubstring opts into substring matching, for tools whose status
	// output embeds the value instead of printing it alone. Exact matching
	// is the default; a target like "0" must never match a raw "10".
	TargetSubstring bool
	Handler         Handler
}

// TargetMatches reports whether a probed raw value satisfies the target
// signature. Both sides are compared after trimming.
func (o Operation) TargetMatches(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	target := strings.TrimSpace(o.Target)
	if trimmed == target {
		return true
	}
	return o.TargetSubstring && target != "" && strings.Contains(trimmed, target)
}

// BackupRecord persists the pre-change value of a setting. It is written
// before any mutation; a write failure aborts that operation.
type BackupRecord struct {
	OperationID   string    `json:"operation_id"`
	Timestamp     time.Time `json:"timestamp"`
	PriorRawValue string    `json:"prior_raw_value"`
}

// ChangeRecord documents one verified change. It is created only after
// verification confirms the new state and is immutable once written.
type ChangeRecord struct {
	OperationID   string    `json:"operation_id"`
	Description   string    `json:"description"`
	Domain        string    `json:"domain"`
	AppliedAt     time.Time `json:"applied_at"`
	PriorRawValue string    `json:"prior_raw_value"`
	NewRawValue   string    `json:"new_raw_value"`
}

// PlannedAction is produced instead of a ChangeRecord in dry-run mode.
type PlannedAction struct {
	OperationID  string `json:"operation_id"`
	Description  string `json:"description"`
	WouldExecute string `json:"would_execute"`
}
