// Package cmdexec runs external tools as argument vectors. Commands are
// never composed into a single interpolated shell string, and arguments
// containing shell metacharacters are rejected outright.
package cmdexec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single tool invocation when the caller does not
// supply one. Operations that hang are killed, not left to block the run.
const DefaultTimeout = 30 * time.Second

// shell metacharacters that must never appear in an argument vector; the
// original scripts rejected these in fix commands and the discipline carries
// over here.
const forbiddenChars = ";&|<>`$\n"

// Result holds the outcome of a completed process. A non-zero ExitCode is
// not an error at this layer; callers decide what it means.
type Result struct {
	Output   string
	ExitCode int
}

// ErrForbiddenArgument is wrapped by errors returned for rejected arguments.
var ErrForbiddenArgument = errors.New("argument contains shell metacharacters")

// Run executes name with args under a bounded timeout. It returns an error
// only when the process could not run to completion (missing binary,
// timeout, cancellation); command failures surface through Result.ExitCode.
func Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error) {
	if err := validateArgs(name, args); err != nil {
		return Result{}, err
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	output, err := cmd.CombinedOutput()
	trimmed := strings.TrimSpace(string(output))

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && runCtx.Err() == nil {
			return Result{Output: trimmed, ExitCode: exitErr.ExitCode()}, nil
		}
		if runCtx.Err() != nil {
			// A cancelled parent context is an operator interrupt, not a
			// hung tool; only the per-invocation deadline reads as timeout.
			if errors.Is(ctx.Err(), context.Canceled) {
				return Result{Output: trimmed}, fmt.Errorf("%s interrupted: %w", name, context.Canceled)
			}
			return Result{Output: trimmed}, fmt.Errorf("%s timed out after %s: %w", name, timeout, context.DeadlineExceeded)
		}
		return Result{Output: trimmed}, fmt.Errorf("run %s: %w", name, err)
	}

	return Result{Output: trimmed, ExitCode: 0}, nil
}

func validateArgs(name string, args []string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("command name is empty")
	}
	for _, arg := range append([]string{name}, args...) {
		if strings.ContainsAny(arg, forbiddenChars) {
			return fmt.Errorf("%w: %q", ErrForbiddenArgument, arg)
		}
	}
	return nil
}

// IsTimeout reports whether err resulted from the per-invocation deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
