// Package privacy provides the privacy-hardening catalog: telemetry,
// personalized advertising, and remote access toggles.
package privacy

import (
	"github.com/albator-sec/albator/internal/operation"
	"github.com/albator-sec/albator/internal/provider"
	"github.com/albator-sec/albator/internal/providers/sysutil"
)

const domain = "privacy"

type privacyProvider struct{}

// New creates the privacy provider.
func New() provider.Provider {
	return &privacyProvider{}
}

var _ provider.Provider = (*privacyProvider)(nil)

func (p *privacyProvider) Name() string {
	return domain
}

func (p *privacyProvider) Description() string {
	return "Privacy toggles: personalized ads, Safari suggestions, crash reports, remote login."
}

func (p *privacyProvider) RequiredTools() []string {
	return []string{"defaults", "systemsetup"}
}

func (p *privacyProvider) Operations() []operation.Operation {
	return []operation.Operation{
		{
			ID:          "privacy.personalized_ads",
			Description: "Disable Apple personalized advertising",
			Domain:      domain,
			Target:      "0",
			Handler: &sysutil.DefaultsSetting{
				Domain:     "com.apple.AdLib",
				Key:        "allowApplePersonalizedAdvertising",
				DesiredRaw: "0",
				WriteFlag:  "-bool",
				WriteValue: "false",
			},
		},
		{
			ID:          "privacy.safari_universal_search",
			Description: "Disable Safari search suggestions sent to Apple",
			Domain:      domain,
			Target:      "0",
			Handler: &sysutil.DefaultsSetting{
				Domain:     "com.apple.Safari",
				Key:        "UniversalSearchEnabled",
				DesiredRaw: "0",
				WriteFlag:  "-bool",
				WriteValue: "false",
			},
		},
		{
			ID:          "privacy.crash_reporter",
			Description: "Disable crash report submission dialog",
			Domain:      domain,
			Target:      "none",
			Handler: &sysutil.DefaultsSetting{
				Domain:     "com.apple.CrashReporter",
				Key:        "DialogType",
				DesiredRaw: "none",
				WriteFlag:  "-string",
				WriteValue: "none",
			},
		},
		{
			ID:          "privacy.remote_login",
			Description: "Disable remote login (SSH)",
			Domain:      domain,
			Target:      sysutil.ValueOff,
			Handler: &sysutil.OnOffCommand{
				ProbeCmd: []string{"systemsetup", "-getremotelogin"},
				OnCmd:    []string{"systemsetup", "-setremotelogin", "on"},
				OffCmd:   []string{"systemsetup", "-f", "-setremotelogin", "off"},
				Desired:  sysutil.ValueOff,
				Sudo:     true,
			},
		},
	}
}
