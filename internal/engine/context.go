package engine

import (
	"time"

	"github.com/albator-sec/albator/internal/logger"
	"github.com/albator-sec/albator/internal/operation"
	"github.com/albator-sec/albator/internal/provider"
)

// RunContext carries everything one hardening run needs. It is an explicit
// value threaded through the engine; there is no process-wide state.
type RunContext struct {
	Provider provider.Provider
	// StateRoot is the directory under which this run's namespaced
	// directory (script name + timestamp) is created.
	StateRoot string
	DryRun    bool
	// OperationTimeout bounds each provider call (probe, apply, verify).
	OperationTimeout time.Duration
	Logger           *logger.Logger
	// OnResult, when set, receives each operation result as it completes.
	// The TUI subscribes here.
	OnResult func(operation.Result)
}

func (rc *RunContext) timeout() time.Duration {
	if rc.OperationTimeout > 0 {
		return rc.OperationTimeout
	}
	return 30 * time.Second
}

func (rc *RunContext) emit(res operation.Result) {
	if rc.OnResult != nil {
		rc.OnResult(res)
	}
}
