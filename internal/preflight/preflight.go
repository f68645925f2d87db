// Package preflight validates run preconditions: target OS version,
// privilege, and the external tools a provider's handlers invoke. A failed
// required check refuses the whole run before any operation executes.
package preflight

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/albator-sec/albator/internal/cmdexec"
	albatorerrors "github.com/albator-sec/albator/pkg/errors"
)

// Check statuses.
const (
	StatusPass = "PASS"
	StatusWarn = "WARN"
	StatusFail = "FAIL"
)

// Check is one named precondition result.
type Check struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Required bool   `json:"required"`
}

// Summary is the structured preflight outcome handed to the engine's caller.
type Summary struct {
	MacOSVersion   string  `json:"macos_version"`
	HasPrivilege   bool    `json:"has_privilege"`
	Checks         []Check `json:"checks"`
	Passed         bool    `json:"passed"`
	FailedRequired int     `json:"failed_required_count"`
	Warnings       int     `json:"warning_count"`
}

// Options control which preconditions are required.
type Options struct {
	RequiredTools []string
	RequireRoot   bool
}

// Run executes all preflight checks.
func Run(ctx context.Context, opts Options) *Summary {
	summary := &Summary{}

	osCheck, version := checkOSTarget(ctx)
	summary.MacOSVersion = version
	summary.Checks = append(summary.Checks, osCheck)

	privCheck, privileged := checkPrivilege(ctx, opts.RequireRoot)
	summary.HasPrivilege = privileged
	summary.Checks = append(summary.Checks, privCheck)

	for _, tool := range opts.RequiredTools {
		summary.Checks = append(summary.Checks, checkTool(tool))
	}

	for _, check := range summary.Checks {
		switch {
		case check.Status == StatusFail && check.Required:
			summary.FailedRequired++
		case check.Status == StatusWarn:
			summary.Warnings++
		}
	}
	summary.Passed = summary.FailedRequired == 0

	return summary
}

// Err converts a failed summary into the fatal precondition error the
// engine's caller surfaces.
func (s *Summary) Err() error {
	if s.Passed {
		return nil
	}
	failed := make([]string, 0, s.FailedRequired)
	for _, check := range s.Checks {
		if check.Status == StatusFail && check.Required {
			failed = append(failed, fmt.Sprintf("%s (%s)", check.Name, check.Message))
		}
	}
	return albatorerrors.NewPreconditionError(strings.Join(failed, "; "))
}

// Format renders a readable preflight report.
func (s *Summary) Format() string {
	lines := []string{"Albator preflight report"}
	for _, check := range s.Checks {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", check.Status, check.Name, check.Message))
	}
	result := "PASS"
	if !s.Passed {
		result = "FAIL"
	}
	lines = append(lines, fmt.Sprintf("Result: %s (required failures: %d, warnings: %d)", result, s.FailedRequired, s.Warnings))
	return strings.Join(lines, "\n")
}

// JSON renders the summary as indented JSON.
func (s *Summary) JSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func checkOSTarget(ctx context.Context) (Check, string) {
	if runtime.GOOS != "darwin" {
		return Check{
			Name:     "os_target",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("non-macOS environment detected (%s)", runtime.GOOS),
			Required: false,
		}, ""
	}

	result, err := cmdexec.Run(ctx, 5*time.Second, "sw_vers", "-productVersion")
	if err != nil || result.ExitCode != 0 {
		return Check{
			Name:     "os_target",
			Status:   StatusWarn,
			Message:  "macOS detected but version unreadable",
			Required: false,
		}, ""
	}

	version := strings.TrimSpace(result.Output)
	return Check{
		Name:     "os_target",
		Status:   StatusPass,
		Message:  fmt.Sprintf("macOS %s", version),
		Required: true,
	}, version
}

func checkPrivilege(ctx context.Context, required bool) (Check, bool) {
	if os.Geteuid() == 0 {
		return Check{Name: "privilege", Status: StatusPass, Message: "running as root", Required: required}, true
	}

	// Non-interactive sudo probe; a password prompt would hang an
	// unattended run.
	result, err := cmdexec.Run(ctx, 5*time.Second, "sudo", "-n", "true")
	if err == nil && result.ExitCode == 0 {
		return Check{Name: "privilege", Status: StatusPass, Message: "sudo available without prompt", Required: required}, true
	}

	if !required {
		return Check{Name: "privilege", Status: StatusWarn, Message: "no root privileges; some probes may fail", Required: false}, false
	}
	return Check{
		Name:     "privilege",
		Status:   StatusFail,
		Message:  "no root privileges and non-interactive sudo unavailable",
		Required: true,
	}, false
}

func checkTool(tool string) Check {
	path, err := exec.LookPath(tool)
	if err != nil {
		return Check{
			Name:     "tool_" + tool,
			Status:   StatusFail,
			Message:  fmt.Sprintf("%s not found in PATH", tool),
			Required: true,
		}
	}
	return Check{
		Name:     "tool_" + tool,
		Status:   StatusPass,
		Message:  fmt.Sprintf("%s found at %s", tool, path),
		Required: true,
	}
}
