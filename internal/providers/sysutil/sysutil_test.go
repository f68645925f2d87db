package sysutil

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albator-sec/albator/internal/operation"
)

func TestNormalizeOnOff(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"Firewall is enabled. (State = 1)", ValueOn},
		{"Firewall is disabled. (State = 0)", ValueOff},
		{"Stealth mode enabled", ValueOn},
		{"Stealth mode disabled", ValueOff},
		{"Remote Login: On", ValueOn},
		{"Remote Login: Off", ValueOff},
		{"FileVault is On", ValueOn},
		{"FileVault is Off", ValueOff},
		{"assessments enabled", ValueOn},
		{"Log mode is on", ValueOn},
		{"Deferred enablement appears to be active", "Deferred enablement appears to be active"},
		{"  something else entirely \n", "something else entirely"},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeOnOff(tt.output))
		})
	}
}

func TestOnOffCommandPlanPicksDesiredVector(t *testing.T) {
	cmd := &OnOffCommand{
		ProbeCmd: []string{"systemsetup", "-getremotelogin"},
		OnCmd:    []string{"systemsetup", "-setremotelogin", "on"},
		OffCmd:   []string{"systemsetup", "-setremotelogin", "off"},
		Desired:  ValueOff,
	}
	assert.Equal(t, "systemsetup -setremotelogin off", cmd.Plan())

	cmd.Desired = ValueOn
	assert.Equal(t, "systemsetup -setremotelogin on", cmd.Plan())
}

func TestOnOffCommandRestoreRejectsNotSet(t *testing.T) {
	cmd := &OnOffCommand{
		OnCmd:   []string{"true"},
		OffCmd:  []string{"true"},
		Desired: ValueOff,
	}
	err := cmd.Restore(context.Background(), operation.ValueNotSet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to guess")
}

func TestOnOffCommandRestoreRejectsUnrecognizedValue(t *testing.T) {
	cmd := &OnOffCommand{
		OnCmd:   []string{"true"},
		OffCmd:  []string{"true"},
		Desired: ValueOff,
	}
	err := cmd.Restore(context.Background(), "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized prior value")
}

func TestOnOffCommandRestoreRunsCommand(t *testing.T) {
	cmd := &OnOffCommand{
		OnCmd:   []string{"true"},
		OffCmd:  []string{"false"},
		Desired: ValueOn,
	}
	// "true" exits 0.
	require.NoError(t, cmd.Restore(context.Background(), ValueOn))
	// "false" exits non-zero, which Restore surfaces.
	require.Error(t, cmd.Restore(context.Background(), ValueOff))
}

func TestOnOffCommandProbeUnreadable(t *testing.T) {
	cmd := &OnOffCommand{
		ProbeCmd: []string{"false"},
		Desired:  ValueOn,
	}
	probe, err := cmd.Probe(context.Background())
	require.Error(t, err)
	assert.Equal(t, operation.StateUnknown, probe.State)
}

func TestOnOffCommandProbeClassifies(t *testing.T) {
	cmd := &OnOffCommand{
		ProbeCmd: []string{"echo", "Firewall is enabled."},
		Desired:  ValueOn,
	}
	probe, err := cmd.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, operation.StateCompliant, probe.State)
	assert.Equal(t, ValueOn, probe.RawValue)

	cmd.Desired = ValueOff
	probe, err = cmd.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, operation.StateNonCompliant, probe.State)
}

func TestDefaultsSettingPlan(t *testing.T) {
	setting := &DefaultsSetting{
		Domain:     "com.apple.AdLib",
		Key:        "allowApplePersonalizedAdvertising",
		DesiredRaw: "0",
		WriteFlag:  "-bool",
		WriteValue: "false",
	}
	assert.Equal(t, "defaults write com.apple.AdLib allowApplePersonalizedAdvertising -bool false", setting.Plan())
}

func TestDefaultsSettingSudoPrefix(t *testing.T) {
	setting := &DefaultsSetting{
		Domain:     "/Library/Preferences/com.apple.SoftwareUpdate",
		Key:        "AutomaticCheckEnabled",
		DesiredRaw: "1",
		WriteFlag:  "-bool",
		WriteValue: "true",
		Sudo:       true,
	}
	plan := setting.Plan()
	if os.Geteuid() == 0 {
		assert.NotContains(t, plan, "sudo")
	} else {
		assert.Contains(t, plan, "sudo -n defaults write")
	}
}
