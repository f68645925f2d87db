package errors

import (
	"fmt"
)

// ProbeError indicates that an operation's current state could not be read.
// The engine classifies the probe as Unknown and flags the operation for
// review; it is never fatal to the run.
type ProbeError struct {
	OperationID string
	Err         error
}

// NewProbeError constructs a ProbeError.
func NewProbeError(operationID string, err error) error {
	return &ProbeError{OperationID: operationID, Err: err}
}

func (e *ProbeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("probe error [%s]: %v", e.OperationID, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ProbeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BackupError indicates the prior value of a setting could not be durably
// persisted. The operation is skipped: no mutation may happen without a
// backup on disk.
type BackupError struct {
	OperationID string
	Err         error
}

// NewBackupError constructs a BackupError.
func NewBackupError(operationID string, err error) error {
	return &BackupError{OperationID: operationID, Err: err}
}

func (e *BackupError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("backup error [%s]: %v", e.OperationID, e.Err)
}

// Unwrap exposes the underlying error.
func (e *BackupError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ApplyError indicates the mutation command failed or timed out.
type ApplyError struct {
	OperationID string
	Timeout     bool
	Err         error
}

// NewApplyError constructs an ApplyError.
func NewApplyError(operationID string, timeout bool, err error) error {
	return &ApplyError{OperationID: operationID, Timeout: timeout, Err: err}
}

func (e *ApplyError) Error() string {
	if e == nil {
		return ""
	}
	if e.Timeout {
		return fmt.Sprintf("apply error [%s]: timeout: %v", e.OperationID, e.Err)
	}
	return fmt.Sprintf("apply error [%s]: %v", e.OperationID, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ApplyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// VerificationMismatchError indicates the mutation command reported success
// but the re-probed state does not match the operation's target. The applied
// state is left in place for the operator or a later rollback.
type VerificationMismatchError struct {
	OperationID string
	Expected    string
	Actual      string
}

// NewVerificationMismatchError constructs a VerificationMismatchError.
func NewVerificationMismatchError(operationID, expected, actual string) error {
	return &VerificationMismatchError{OperationID: operationID, Expected: expected, Actual: actual}
}

func (e *VerificationMismatchError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("verification mismatch [%s]: expected %q, got %q", e.OperationID, e.Expected, e.Actual)
}

// RollbackError indicates one ledger entry could not be restored. The
// executor records it and continues with the remaining entries.
type RollbackError struct {
	OperationID string
	Err         error
}

// NewRollbackError constructs a RollbackError.
func NewRollbackError(operationID string, err error) error {
	return &RollbackError{OperationID: operationID, Err: err}
}

func (e *RollbackError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("rollback error [%s]: %v", e.OperationID, e.Err)
}

// Unwrap exposes the underlying error.
func (e *RollbackError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProviderError indicates issues within provider registration or catalog
// validation.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

// NewProviderError constructs a ProviderError for the given provider name.
func NewProviderError(provider string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ProviderError{Provider: provider, Message: message, Err: err}
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Provider != "" {
		return fmt.Sprintf("provider error [%s]: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PreconditionError indicates a preflight requirement (privilege, required
// tool) is not met. It is fatal to the whole run before any operation
// executes.
type PreconditionError struct {
	Message string
}

// NewPreconditionError constructs a PreconditionError.
func NewPreconditionError(message string) error {
	return &PreconditionError{Message: message}
}

func (e *PreconditionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("precondition failed: %s", e.Message)
}
