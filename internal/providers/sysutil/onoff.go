package sysutil

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/albator-sec/albator/internal/cmdexec"
	"github.com/albator-sec/albator/internal/operation"
)

// On/off raw values shared by command-backed settings.
const (
	ValueOn  = "on"
	ValueOff = "off"
)

// OnOffCommand manages a binary setting exposed through a status command
// and an enable/disable command pair (socketfilterfw, spctl, systemsetup,
// fdesetup all follow this shape). It implements operation.Handler.
type OnOffCommand struct {
	// ProbeCmd is the full argument vector of the read-only status command.
	ProbeCmd []string
	// OnCmd and OffCmd are the argument vectors that switch the setting.
	OnCmd  []string
	OffCmd []string
	// Desired is ValueOn or ValueOff.
	Desired string
	// Sudo routes every command through non-interactive sudo when not root.
	Sudo bool
}

var _ operation.Handler = (*OnOffCommand)(nil)

// NormalizeOnOff collapses a status command's output into "on"/"off". The
// raw output is returned untouched when neither signal is present, so a
// verification mismatch shows the operator what the tool actually said.
func NormalizeOnOff(output string) string {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "enabled"), strings.Contains(lower, ": on"),
		strings.HasSuffix(lower, " on"), strings.Contains(lower, "is on"):
		return ValueOn
	case strings.Contains(lower, "disabled"), strings.Contains(lower, ": off"),
		strings.HasSuffix(lower, " off"), strings.Contains(lower, "is off"):
		return ValueOff
	default:
		return strings.TrimSpace(output)
	}
}

// Probe runs the status command and classifies the normalized output.
func (c *OnOffCommand) Probe(ctx context.Context) (operation.ProbeResult, error) {
	name, args := c.vector(c.ProbeCmd)
	result, err := cmdexec.Run(ctx, 0, name, args...)
	if err != nil {
		return operation.ProbeResult{State: operation.StateUnknown}, err
	}
	if result.ExitCode != 0 {
		// Status tools that refuse to answer (permissions, managed
		// preferences) leave the state unreadable, not wrong.
		return operation.ProbeResult{State: operation.StateUnknown, RawValue: result.Output},
			fmt.Errorf("status command failed (exit %d): %s", result.ExitCode, result.Output)
	}

	raw := NormalizeOnOff(result.Output)
	state := operation.StateNonCompliant
	if raw == c.Desired {
		state = operation.StateCompliant
	}
	return operation.ProbeResult{State: state, RawValue: raw}, nil
}

// Apply switches the setting to the desired position.
func (c *OnOffCommand) Apply(ctx context.Context) error {
	return c.switchTo(ctx, c.Desired)
}

// Restore switches the setting back to the recorded prior position. A
// command-backed setting always has a concrete prior state; the NOT_SET
// sentinel here means the original probe never saw one, and restoring
// blindly would be a guess.
func (c *OnOffCommand) Restore(ctx context.Context, priorRawValue string) error {
	switch priorRawValue {
	case ValueOn, ValueOff:
		return c.switchTo(ctx, priorRawValue)
	case operation.ValueNotSet:
		return fmt.Errorf("prior state was never readable; refusing to guess")
	default:
		return fmt.Errorf("unrecognized prior value %q", priorRawValue)
	}
}

// Plan describes the mutation Apply would perform.
func (c *OnOffCommand) Plan() string {
	cmd := c.OnCmd
	if c.Desired == ValueOff {
		cmd = c.OffCmd
	}
	name, args := c.vector(cmd)
	return name + " " + strings.Join(args, " ")
}

func (c *OnOffCommand) switchTo(ctx context.Context, position string) error {
	cmd := c.OnCmd
	if position == ValueOff {
		cmd = c.OffCmd
	}

	name, args := c.vector(cmd)
	result, err := cmdexec.Run(ctx, 0, name, args...)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("%s failed (exit %d): %s", name, result.ExitCode, result.Output)
	}
	return nil
}

func (c *OnOffCommand) vector(cmd []string) (string, []string) {
	if c.Sudo && os.Geteuid() != 0 {
		return "sudo", append([]string{"-n"}, cmd...)
	}
	return cmd[0], cmd[1:]
}
