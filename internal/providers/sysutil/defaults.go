// Package sysutil holds the handler building blocks shared by the macOS
// operation providers: preference-domain settings driven by defaults(1) and
// on/off settings driven by a status/enable/disable tool triple.
package sysutil

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/albator-sec/albator/internal/cmdexec"
	"github.com/albator-sec/albator/internal/operation"
)

// DefaultsSetting manages one key in a preference domain via defaults(1).
// It implements operation.Handler.
type DefaultsSetting struct {
	// Domain and Key address the preference, e.g.
	// com.apple.AdLib / allowApplePersonalizedAdvertising.
	Domain string
	Key    string
	// DesiredRaw is the probe output that counts as compliant; defaults
	// prints booleans as "1"/"0".
	DesiredRaw string
	// WriteFlag and WriteValue are passed to defaults write, e.g.
	// "-bool" "false".
	WriteFlag  string
	WriteValue string
	// Sudo routes the command through non-interactive sudo when the
	// process is not already root; system domains need it.
	Sudo bool
}

var _ operation.Handler = (*DefaultsSetting)(nil)

// Probe reads the current value. A missing key is NonCompliant with the
// NOT_SET sentinel, not Unknown: the tool worked, the value is absent.
func (d *DefaultsSetting) Probe(ctx context.Context) (operation.ProbeResult, error) {
	name, args := d.command("read", d.Domain, d.Key)
	result, err := cmdexec.Run(ctx, 0, name, args...)
	if err != nil {
		return operation.ProbeResult{State: operation.StateUnknown}, err
	}

	if result.ExitCode != 0 {
		return operation.ProbeResult{State: operation.StateNonCompliant, RawValue: operation.ValueNotSet}, nil
	}

	raw := strings.TrimSpace(result.Output)
	state := operation.StateNonCompliant
	if raw == d.DesiredRaw {
		state = operation.StateCompliant
	}
	return operation.ProbeResult{State: state, RawValue: raw}, nil
}

// Apply writes the desired value.
func (d *DefaultsSetting) Apply(ctx context.Context) error {
	name, args := d.command("write", d.Domain, d.Key, d.WriteFlag, d.WriteValue)
	result, err := cmdexec.Run(ctx, 0, name, args...)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("defaults write %s %s failed (exit %d): %s", d.Domain, d.Key, result.ExitCode, result.Output)
	}
	return nil
}

// Restore re-applies a prior raw value. The NOT_SET sentinel deletes the
// key so that "absence" is restored as a real state, not an empty string.
func (d *DefaultsSetting) Restore(ctx context.Context, priorRawValue string) error {
	if priorRawValue == operation.ValueNotSet {
		name, args := d.command("delete", d.Domain, d.Key)
		result, err := cmdexec.Run(ctx, 0, name, args...)
		if err != nil {
			return err
		}
		// A failed delete usually means the key is already gone, which is
		// the state being restored.
		if result.ExitCode != 0 && !strings.Contains(result.Output, "does not exist") {
			return fmt.Errorf("defaults delete %s %s failed (exit %d): %s", d.Domain, d.Key, result.ExitCode, result.Output)
		}
		return nil
	}

	name, args := d.command("write", d.Domain, d.Key, priorRawValue)
	result, err := cmdexec.Run(ctx, 0, name, args...)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("defaults write %s %s failed (exit %d): %s", d.Domain, d.Key, result.ExitCode, result.Output)
	}
	return nil
}

// Plan describes the mutation Apply would perform.
func (d *DefaultsSetting) Plan() string {
	name, args := d.command("write", d.Domain, d.Key, d.WriteFlag, d.WriteValue)
	return name + " " + strings.Join(args, " ")
}

func (d *DefaultsSetting) command(verb string, rest ...string) (string, []string) {
	args := append([]string{verb}, rest...)
	if d.Sudo && os.Geteuid() != 0 {
		return "sudo", append([]string{"-n", "defaults"}, args...)
	}
	return "defaults", args
}
