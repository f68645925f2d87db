// Package engine implements the hardening operation lifecycle: probe,
// backup, apply, verify, record. Operations run strictly sequentially in
// catalog order; several of the underlying tools share daemons that are not
// safe under concurrent invocation.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/albator-sec/albator/internal/backup"
	"github.com/albator-sec/albator/internal/ledger"
	"github.com/albator-sec/albator/internal/operation"
	"github.com/albator-sec/albator/internal/report"
	albatorerrors "github.com/albator-sec/albator/pkg/errors"
)

// RunDirFormat is the timestamp layout used to namespace run directories.
const RunDirFormat = "20060102_150405"

// Run executes the full catalog of the context's provider and returns the
// run summary. Failures are local to one operation and never abort the
// remaining catalog; only run-level artifacts (state dir, ledger finalize)
// produce a non-nil error.
func Run(ctx context.Context, rc *RunContext) (*report.RunSummary, error) {
	startedAt := time.Now()
	scriptName := rc.Provider.Name()

	summary := &report.RunSummary{
		ScriptName: scriptName,
		StartedAt:  startedAt,
		DryRun:     rc.DryRun,
	}

	log := rc.Logger.WithFields(map[string]any{"script": scriptName, "dry_run": rc.DryRun})

	var store *backup.Store
	var led *ledger.Ledger
	var runDir string

	if !rc.DryRun {
		runDir = filepath.Join(rc.StateRoot, fmt.Sprintf("%s_%s", scriptName, startedAt.Format(RunDirFormat)))
		var err error
		store, err = backup.NewStore(filepath.Join(runDir, "backups"))
		if err != nil {
			return summary, err
		}
		led = ledger.New(scriptName, startedAt)
	}

	for _, op := range rc.Provider.Operations() {
		if ctx.Err() != nil {
			// Interrupted mid-run: applied changes each carry their own
			// backup already, and the next run's probe will classify
			// whatever partial state resulted. No unwind is attempted.
			log.Warn("run interrupted; remaining operations skipped")
			break
		}

		res := runOperation(ctx, rc, store, led, op)
		summary.Record(res)
		rc.emit(res)
	}

	summary.Finish()

	if led != nil && ctx.Err() == nil {
		path, err := led.Finalize(runDir)
		if err != nil {
			log.Error(err, "ledger finalize failed; rollback unavailable for this run")
			summary.ErrorCount++
			summary.Status = report.StatusCompletedWithErrors
			return summary, err
		}
		summary.LedgerPath = path
	}

	log.WithFields(map[string]any{
		"noop":    summary.NoopCount,
		"changed": summary.ChangeCount,
		"planned": summary.PlannedCount,
		"errors":  summary.ErrorCount,
		"status":  string(summary.Status),
	}).Info("run complete")

	return summary, nil
}

// runOperation drives one operation through the protocol. The order is
// fixed: backup always precedes apply, and a change record is appended only
// after verification confirms the new state.
func runOperation(ctx context.Context, rc *RunContext, store *backup.Store, led *ledger.Ledger, op operation.Operation) operation.Result {
	start := time.Now()
	res := operation.Result{
		OperationID: op.ID,
		Description: op.Description,
		Timestamp:   start,
	}
	log := rc.Logger.WithFields(map[string]any{"operation": op.ID})

	probe, err := probeOperation(ctx, rc, op)
	res.State = probe.State

	if err != nil {
		// Unreadable state is not the same as a wrong value. The apply is
		// still attempted, but the operation is flagged for human review.
		res.Flagged = true
		log.Error(err, "probe failed; treating as non-compliant with warning")
	}

	if probe.State == operation.StateCompliant {
		res.Outcome = operation.OutcomeNoop
		res.Message = fmt.Sprintf("already compliant (%s)", probe.RawValue)
		res.Duration = time.Since(start)
		return res
	}

	if rc.DryRun {
		planned := operation.PlannedAction{
			OperationID:  op.ID,
			Description:  op.Description,
			WouldExecute: op.Handler.Plan(),
		}
		res.Outcome = operation.OutcomePlanned
		res.Planned = &planned
		res.Message = fmt.Sprintf("dry-run: would execute %s", planned.WouldExecute)
		res.Duration = time.Since(start)
		return res
	}

	prior := probe.RawValue
	if prior == "" {
		prior = operation.ValueNotSet
	}

	rec := operation.BackupRecord{
		OperationID:   op.ID,
		Timestamp:     time.Now(),
		PriorRawValue: prior,
	}
	if _, err := store.Write(rec); err != nil {
		backupErr := albatorerrors.NewBackupError(op.ID, err)
		res.Outcome = operation.OutcomeFailed
		res.Err = backupErr
		res.Message = fmt.Sprintf("backup failed, apply skipped: %v", err)
		res.Duration = time.Since(start)
		log.Error(backupErr, "backup failed")
		return res
	}

	if err := applyOperation(ctx, rc, op); err != nil {
		res.Outcome = operation.OutcomeFailed
		res.Err = err
		res.Message = err.Error()
		res.Duration = time.Since(start)
		log.Error(err, "apply failed")
		return res
	}

	// Command success and effective-state success are independent facts;
	// several of the underlying tools report success while the setting
	// silently fails to take effect.
	verified, err := verifyOperation(ctx, rc, op)
	if err != nil {
		res.Outcome = operation.OutcomeFailed
		res.Err = err
		res.Message = err.Error()
		res.Duration = time.Since(start)
		log.Error(err, "verification failed; applied state left in place")
		return res
	}

	led.Append(operation.ChangeRecord{
		OperationID:   op.ID,
		Description:   op.Description,
		Domain:        op.Domain,
		AppliedAt:     time.Now(),
		PriorRawValue: prior,
		NewRawValue:   verified.RawValue,
	})

	res.Outcome = operation.OutcomeChanged
	res.State = operation.StateCompliant
	res.Message = fmt.Sprintf("changed %q -> %q", prior, verified.RawValue)
	res.Duration = time.Since(start)
	log.Info("change applied and verified")
	return res
}

// probeOperation classifies the current state. A failed read yields Unknown
// plus the error; Unknown is never collapsed into compliant or
// non-compliant.
func probeOperation(ctx context.Context, rc *RunContext, op operation.Operation) (operation.ProbeResult, error) {
	probeCtx, cancel := context.WithTimeout(ctx, rc.timeout())
	defer cancel()

	result, err := op.Handler.Probe(probeCtx)
	if err != nil {
		return operation.ProbeResult{State: operation.StateUnknown, RawValue: result.RawValue},
			albatorerrors.NewProbeError(op.ID, err)
	}
	return result, nil
}

func applyOperation(ctx context.Context, rc *RunContext, op operation.Operation) error {
	applyCtx, cancel := context.WithTimeout(ctx, rc.timeout())
	defer cancel()

	if err := op.Handler.Apply(applyCtx); err != nil {
		timeout := applyCtx.Err() == context.DeadlineExceeded
		return albatorerrors.NewApplyError(op.ID, timeout, err)
	}
	return nil
}

// verifyOperation re-probes after an apply and compares the observed raw
// value against the operation's target signature.
func verifyOperation(ctx context.Context, rc *RunContext, op operation.Operation) (operation.ProbeResult, error) {
	verifyCtx, cancel := context.WithTimeout(ctx, rc.timeout())
	defer cancel()

	result, err := op.Handler.Probe(verifyCtx)
	if err != nil {
		return result, albatorerrors.NewVerificationMismatchError(op.ID, op.Target, "unreadable: "+err.Error())
	}
	if !op.TargetMatches(result.RawValue) {
		return result, albatorerrors.NewVerificationMismatchError(op.ID, op.Target, result.RawValue)
	}
	return result, nil
}

// RunDirExists reports whether the state root already holds any runs; used
// by history and cleanup.
func RunDirExists(stateRoot string) bool {
	info, err := os.Stat(stateRoot)
	return err == nil && info.IsDir()
}
