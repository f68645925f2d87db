// Package rollback re-applies the prior values recorded in a finalized
// ledger. Entries are processed in reverse application order so that
// changes with hidden dependencies unwind safely.
package rollback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/albator-sec/albator/internal/ledger"
	"github.com/albator-sec/albator/internal/logger"
	"github.com/albator-sec/albator/internal/operation"
	"github.com/albator-sec/albator/internal/provider"
	albatorerrors "github.com/albator-sec/albator/pkg/errors"
)

// Entry statuses. Each ledger entry walks
// Init -> RestorePriorValue -> ReVerify -> {Restored | RestoreFailed};
// dry-run short-circuits to Planned.
const (
	EntryRestored = "restored"
	EntryFailed   = "restore_failed"
	EntryPlanned  = "planned"
)

// EntryResult records the outcome for one ledger entry.
type EntryResult struct {
	OperationID   string
	Domain        string
	PriorRawValue string
	Status        string
	Message       string
	Err           error
}

// Summary aggregates a rollback invocation. Failures never stop the
// remaining entries; they are enumerated here for follow-up.
type Summary struct {
	ScriptName string
	LedgerPath string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Restored   int
	Planned    int
	Failed     int
	Entries    []EntryResult
}

// ExitCode maps the rollback outcome onto the process exit code.
func (s *Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// Render produces the human-readable rollback report.
func (s *Summary) Render() string {
	var lines []string
	title := fmt.Sprintf("Albator rollback • %s", s.ScriptName)
	if s.DryRun {
		title += " (dry-run)"
	}
	lines = append(lines, title)
	for _, entry := range s.Entries {
		lines = append(lines, fmt.Sprintf(" [%s] %s — %s", entry.Status, entry.OperationID, entry.Message))
	}
	lines = append(lines, fmt.Sprintf("restored: %d, planned: %d, failed: %d (of %d)", s.Restored, s.Planned, s.Failed, s.Total))
	return strings.Join(lines, "\n")
}

// Executor restores prior values using the same provider capabilities the
// original run applied with.
type Executor struct {
	registry *provider.Registry
	logger   *logger.Logger
	timeout  time.Duration
}

// NewExecutor creates a rollback executor.
func NewExecutor(registry *provider.Registry, log *logger.Logger, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{registry: registry, logger: log, timeout: timeout}
}

// Execute loads a finalized ledger and unwinds its entries LIFO. A non-nil
// error is returned only when the ledger itself cannot be read; per-entry
// failures are recorded in the summary and execution continues.
func (e *Executor) Execute(ctx context.Context, ledgerPath string, dryRun bool) (*Summary, error) {
	file, err := ledger.Load(ledgerPath)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ScriptName: file.ScriptName,
		LedgerPath: ledgerPath,
		DryRun:     dryRun,
		StartedAt:  time.Now(),
		Total:      len(file.Changes),
	}

	log := e.logger.WithFields(map[string]any{"ledger": ledgerPath, "script": file.ScriptName})
	log.Info("starting rollback")

	for i := len(file.Changes) - 1; i >= 0; i-- {
		entry := e.rollbackEntry(ctx, file.Changes[i], dryRun)
		summary.Entries = append(summary.Entries, entry)
		switch entry.Status {
		case EntryRestored:
			summary.Restored++
		case EntryPlanned:
			summary.Planned++
		case EntryFailed:
			summary.Failed++
			log.Error(entry.Err, "entry restore failed; continuing with remaining entries")
		}
	}

	summary.FinishedAt = time.Now()
	log.WithFields(map[string]any{
		"restored": summary.Restored,
		"failed":   summary.Failed,
	}).Info("rollback complete")

	return summary, nil
}

func (e *Executor) rollbackEntry(ctx context.Context, change operation.ChangeRecord, dryRun bool) EntryResult {
	entry := EntryResult{
		OperationID:   change.OperationID,
		Domain:        change.Domain,
		PriorRawValue: change.PriorRawValue,
	}

	// Minimal ledgers carry only operation ids; entries without a domain
	// resolve by scanning every registered catalog.
	var op operation.Operation
	var err error
	if change.Domain != "" {
		op, err = e.registry.FindOperation(change.Domain, change.OperationID)
	} else {
		op, err = e.registry.Locate(change.OperationID)
	}
	if err != nil {
		entry.Status = EntryFailed
		entry.Err = albatorerrors.NewRollbackError(change.OperationID, err)
		entry.Message = fmt.Sprintf("no provider capability available: %v", err)
		return entry
	}

	if dryRun {
		entry.Status = EntryPlanned
		if change.PriorRawValue == operation.ValueNotSet {
			entry.Message = "dry-run: would unset"
		} else {
			entry.Message = fmt.Sprintf("dry-run: would restore %q", change.PriorRawValue)
		}
		return entry
	}

	restoreCtx, cancel := context.WithTimeout(ctx, e.timeout)
	err = op.Handler.Restore(restoreCtx, change.PriorRawValue)
	cancel()
	if err != nil {
		entry.Status = EntryFailed
		entry.Err = albatorerrors.NewRollbackError(change.OperationID, err)
		entry.Message = fmt.Sprintf("restore failed: %v", err)
		return entry
	}

	verifyCtx, cancel := context.WithTimeout(ctx, e.timeout)
	probe, err := op.Handler.Probe(verifyCtx)
	cancel()
	if err != nil {
		entry.Status = EntryFailed
		entry.Err = albatorerrors.NewRollbackError(change.OperationID, err)
		entry.Message = fmt.Sprintf("restored value unreadable: %v", err)
		return entry
	}

	if strings.TrimSpace(probe.RawValue) != strings.TrimSpace(change.PriorRawValue) {
		entry.Status = EntryFailed
		entry.Err = albatorerrors.NewRollbackError(change.OperationID,
			fmt.Errorf("re-verify mismatch: expected %q, got %q", change.PriorRawValue, probe.RawValue))
		entry.Message = fmt.Sprintf("re-verify mismatch: expected %q, got %q", change.PriorRawValue, probe.RawValue)
		return entry
	}

	entry.Status = EntryRestored
	entry.Message = fmt.Sprintf("restored %q", change.PriorRawValue)
	return entry
}
